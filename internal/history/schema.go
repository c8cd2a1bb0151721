package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	if err := s.gw.Init(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	row, err := s.gw.SelectOne(ctx, "SELECT version FROM schema_version LIMIT 1")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if row == nil {
		if _, err := s.gw.Insert(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	version := toInt64(row[0])
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start a fresh history)",
			ErrSchemaMismatch, version, schemaVersion, s.gw.Path())
	}
	return nil
}
