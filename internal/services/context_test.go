package services_test

import (
	"context"
	"testing"

	"qrprint/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, 42)
	ctx = services.WithClass(ctx, "label")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if class, ok := services.ClassFromContext(ctx); !ok || class != "label" {
		t.Fatalf("unexpected class: %v %v", class, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestClassBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithClass(ctx, "")
	if _, ok := services.ClassFromContext(ctx); ok {
		t.Fatal("expected no class value")
	}
	if _, ok := services.JobIDFromContext(ctx); ok {
		t.Fatal("expected no job id value")
	}
}
