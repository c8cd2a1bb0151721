package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"qrprint/internal/textutil"
)

const (
	// DefaultMedia selects whatever media the printer is loaded with.
	DefaultMedia = "auto (printer default)"
	// DefaultPrinterName sends jobs to the system default destination.
	DefaultPrinterName = "default"
	defaultSeparator   = ":"
)

var (
	ErrClassExists           = errors.New("printer class already exists")
	ErrClassNotFound         = errors.New("printer class not found")
	ErrLastClass             = errors.New("cannot remove the last printer class")
	ErrCustomClassesDisabled = errors.New("custom printer classes are disabled")
	ErrPrefixInUse           = errors.New("prefix already assigned to another printer class")
)

// PrinterClass describes one document class and the printer that serves it.
type PrinterClass struct {
	DisplayName  string   `json:"display_name"`
	Prefix       string   `json:"prefix"`
	PrinterName  string   `json:"printer_name"`
	Media        string   `json:"media"`
	Options      []string `json:"options"`
	MediaOptions []string `json:"media_options"`
}

// UsesDefaultPrinter reports whether jobs go to the system default destination.
func (p PrinterClass) UsesDefaultPrinter() bool {
	name := strings.TrimSpace(p.PrinterName)
	return name == "" || strings.EqualFold(name, DefaultPrinterName)
}

// ExplicitMedia returns the media value to pass to the spooler, or "" when the
// class leaves media selection to the printer.
func (p PrinterClass) ExplicitMedia() string {
	media := strings.TrimSpace(p.Media)
	if media == "" || strings.HasPrefix(strings.ToLower(media), "auto") {
		return ""
	}
	return media
}

// PrinterSettings holds station-wide scan behaviour.
type PrinterSettings struct {
	AutoPrint        bool   `json:"auto_print"`
	AutoClear        bool   `json:"auto_clear"`
	Timeout          int    `json:"timeout"`
	QRSeparator      string `json:"qr_separator"`
	AllowCustomTypes bool   `json:"allow_custom_types"`
}

// PrinterConfig is the printer-class document stored as JSON next to the app config.
type PrinterConfig struct {
	PrinterTypes map[string]PrinterClass `json:"printer_types"`
	Settings     PrinterSettings         `json:"settings"`

	path string
}

type legacyPrinter struct {
	Name    *string  `json:"name"`
	Media   *string  `json:"media"`
	Options []string `json:"options"`
}

type printerDocument struct {
	PrinterTypes map[string]PrinterClass  `json:"printer_types"`
	Printers     map[string]legacyPrinter `json:"printers"`
	Settings     json.RawMessage          `json:"settings"`
}

// DefaultPrinterConfig returns the stock label and receipt classes.
func DefaultPrinterConfig() PrinterConfig {
	return PrinterConfig{
		PrinterTypes: map[string]PrinterClass{
			"label": {
				DisplayName: "Label Printer",
				Prefix:      "label",
				PrinterName: DefaultPrinterName,
				Media:       DefaultMedia,
				Options:     []string{},
				MediaOptions: []string{
					DefaultMedia,
					"Custom.2x1in",
					"Custom.4x6in",
					"Custom.51x25mm",
					"Custom.102x51mm",
					"Custom.4x2in",
					"Custom.3x1in",
					"Custom.62x29mm",
					"na_index-4x6_4x6in",
					"om_small-photo_100x150mm",
				},
			},
			"receipt": {
				DisplayName: "Receipt Printer",
				Prefix:      "receipt",
				PrinterName: DefaultPrinterName,
				Media:       DefaultMedia,
				Options:     []string{},
				MediaOptions: []string{
					DefaultMedia,
					"Receipt",
					"Custom.3x11in",
					"Custom.80mm",
					"Custom.58mm",
					"Custom.57x32000mm",
					"Custom.80x200mm",
				},
			},
		},
		Settings: PrinterSettings{
			AutoPrint:        true,
			AutoClear:        true,
			Timeout:          defaultFetchTimeoutSeconds,
			QRSeparator:      defaultSeparator,
			AllowCustomTypes: true,
		},
	}
}

// LoadPrinters reads the printer-class document at path. A missing file is
// created with defaults; a legacy "printers" document is migrated and
// rewritten. Loaded classes replace the default class of the same id and
// loaded settings override individual default settings.
func LoadPrinters(path string) (*PrinterConfig, error) {
	cfg := DefaultPrinterConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := cfg.Save(); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("read printer config: %w", err)
	}

	var doc printerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse printer config %s: %w", path, err)
	}

	if len(doc.Settings) > 0 {
		if err := json.Unmarshal(doc.Settings, &cfg.Settings); err != nil {
			return nil, fmt.Errorf("parse printer config settings: %w", err)
		}
	}

	migrated := false
	if doc.Printers != nil && doc.PrinterTypes == nil {
		cfg.migrateLegacy(doc.Printers)
		migrated = true
	} else {
		for id, class := range doc.PrinterTypes {
			cfg.PrinterTypes[id] = class
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	if migrated {
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func (p *PrinterConfig) migrateLegacy(printers map[string]legacyPrinter) {
	for id, legacy := range printers {
		class, ok := p.PrinterTypes[id]
		if !ok {
			continue
		}
		class.PrinterName = DefaultPrinterName
		if legacy.Name != nil {
			class.PrinterName = *legacy.Name
		}
		class.Media = DefaultMedia
		if legacy.Media != nil {
			class.Media = *legacy.Media
		}
		class.Options = append([]string{}, legacy.Options...)
		p.PrinterTypes[id] = class
	}
}

func (p *PrinterConfig) normalize() error {
	if strings.TrimSpace(p.Settings.QRSeparator) == "" {
		p.Settings.QRSeparator = defaultSeparator
	}
	if p.Settings.Timeout <= 0 {
		p.Settings.Timeout = defaultFetchTimeoutSeconds
	}
	if len(p.PrinterTypes) == 0 {
		return errors.New("printer config must define at least one printer class")
	}

	owners := make(map[string]string, len(p.PrinterTypes))
	for _, id := range p.ClassIDs() {
		class := normalizeClass(id, p.PrinterTypes[id])
		if other, taken := owners[class.Prefix]; taken {
			return fmt.Errorf("printer_types: prefix %q used by both %q and %q", class.Prefix, other, id)
		}
		owners[class.Prefix] = id
		p.PrinterTypes[id] = class
	}
	return nil
}

func normalizeClass(id string, class PrinterClass) PrinterClass {
	class.DisplayName = strings.TrimSpace(class.DisplayName)
	if class.DisplayName == "" {
		class.DisplayName = textutil.DisplayName(id)
	}
	class.Prefix = strings.ToLower(strings.TrimSpace(class.Prefix))
	if class.Prefix == "" {
		class.Prefix = strings.ToLower(id)
	}
	class.PrinterName = strings.TrimSpace(class.PrinterName)
	if class.PrinterName == "" {
		class.PrinterName = DefaultPrinterName
	}
	class.Media = strings.TrimSpace(class.Media)
	if class.Media == "" {
		class.Media = DefaultMedia
	}
	if class.Options == nil {
		class.Options = []string{}
	}
	if len(class.MediaOptions) == 0 {
		class.MediaOptions = []string{DefaultMedia}
	}
	return class
}

// Save writes the document back to its path with two-space indentation.
func (p *PrinterConfig) Save() error {
	if strings.TrimSpace(p.path) == "" {
		return errors.New("printer config path not set")
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode printer config: %w", err)
	}
	if dir := filepath.Dir(p.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create printer config directory: %w", err)
		}
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write printer config: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace printer config: %w", err)
	}
	return nil
}

// Path returns the file backing the document.
func (p *PrinterConfig) Path() string {
	return p.path
}

// Separator returns the prefix/URL separator used by scanned payloads.
func (p *PrinterConfig) Separator() string {
	return p.Settings.QRSeparator
}

// FetchTimeout bounds a single document download.
func (p *PrinterConfig) FetchTimeout() time.Duration {
	return time.Duration(p.Settings.Timeout) * time.Second
}

// ClassIDs returns class identifiers in a stable order.
func (p *PrinterConfig) ClassIDs() []string {
	ids := make([]string, 0, len(p.PrinterTypes))
	for id := range p.PrinterTypes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Prefixes lists the scan prefixes in ClassIDs order.
func (p *PrinterConfig) Prefixes() []string {
	ids := p.ClassIDs()
	prefixes := make([]string, 0, len(ids))
	for _, id := range ids {
		prefixes = append(prefixes, p.PrinterTypes[id].Prefix)
	}
	return prefixes
}

// Class returns the class registered under id.
func (p *PrinterConfig) Class(id string) (PrinterClass, bool) {
	class, ok := p.PrinterTypes[id]
	return class, ok
}

// ClassByPrefix resolves a scanned prefix (case-insensitive) to its class.
func (p *PrinterConfig) ClassByPrefix(prefix string) (string, PrinterClass, bool) {
	want := strings.ToLower(strings.TrimSpace(prefix))
	for _, id := range p.ClassIDs() {
		class := p.PrinterTypes[id]
		if class.Prefix == want {
			return id, class, true
		}
	}
	return "", PrinterClass{}, false
}

// AddClass registers a new class and persists the document.
func (p *PrinterConfig) AddClass(id string, class PrinterClass) error {
	if !p.Settings.AllowCustomTypes {
		return ErrCustomClassesDisabled
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.TrimSpace(class.DisplayName) == "" || strings.TrimSpace(class.Prefix) == "" {
		return errors.New("class id, display name, and prefix are required")
	}
	if _, exists := p.PrinterTypes[id]; exists {
		return fmt.Errorf("%w: %q", ErrClassExists, id)
	}
	class = normalizeClass(id, class)
	if owner, _, taken := p.ClassByPrefix(class.Prefix); taken {
		return fmt.Errorf("%w: %q belongs to %q", ErrPrefixInUse, class.Prefix, owner)
	}
	p.PrinterTypes[id] = class
	return p.Save()
}

// RemoveClass deletes a class and persists the document. The last class stays.
func (p *PrinterConfig) RemoveClass(id string) error {
	if _, exists := p.PrinterTypes[id]; !exists {
		return fmt.Errorf("%w: %q", ErrClassNotFound, id)
	}
	if len(p.PrinterTypes) <= 1 {
		return ErrLastClass
	}
	delete(p.PrinterTypes, id)
	return p.Save()
}

// ClassUpdate lists the class fields ConfigureClass changes. Empty strings
// keep the current value; nil Options keeps the current options.
type ClassUpdate struct {
	Prefix  string
	Printer string
	Media   string
	Options []string
}

// ConfigureClass applies update to a class and persists the document. A new
// prefix must not belong to another class or contain the payload separator.
func (p *PrinterConfig) ConfigureClass(id string, update ClassUpdate) error {
	class, exists := p.PrinterTypes[id]
	if !exists {
		return fmt.Errorf("%w: %q", ErrClassNotFound, id)
	}
	if prefix := strings.ToLower(strings.TrimSpace(update.Prefix)); prefix != "" && prefix != class.Prefix {
		if sep := p.Separator(); sep != "" && strings.Contains(prefix, sep) {
			return fmt.Errorf("prefix %q must not contain the separator %q", prefix, sep)
		}
		if owner, _, taken := p.ClassByPrefix(prefix); taken {
			return fmt.Errorf("%w: %q belongs to %q", ErrPrefixInUse, prefix, owner)
		}
		class.Prefix = prefix
	}
	if printer := strings.TrimSpace(update.Printer); printer != "" {
		class.PrinterName = printer
	}
	if media := strings.TrimSpace(update.Media); media != "" {
		class.Media = media
		if !slices.Contains(class.MediaOptions, media) {
			class.MediaOptions = append(class.MediaOptions, media)
		}
	}
	if update.Options != nil {
		cleaned := make([]string, 0, len(update.Options))
		for _, opt := range update.Options {
			if opt = strings.TrimSpace(opt); opt != "" {
				cleaned = append(cleaned, opt)
			}
		}
		class.Options = cleaned
	}
	p.PrinterTypes[id] = class
	return p.Save()
}

// NewPrinterConfig builds an in-memory document bound to path, used by tests
// and by callers that assemble classes programmatically.
func NewPrinterConfig(path string, classes map[string]PrinterClass, settings PrinterSettings) (*PrinterConfig, error) {
	cfg := &PrinterConfig{PrinterTypes: make(map[string]PrinterClass, len(classes)), Settings: settings, path: path}
	for id, class := range classes {
		cfg.PrinterTypes[id] = class
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}
