package printing

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"qrprint/internal/logging"
	"qrprint/internal/services"
)

const (
	printTimeout = 2 * time.Minute
	listTimeout  = 10 * time.Second
)

// Spooler sends jobs to the platform print command.
type Spooler struct {
	goos   string
	runner Runner
	logger *slog.Logger
}

// Option customizes a Spooler.
type Option func(*Spooler)

// WithRunner replaces command execution.
func WithRunner(r Runner) Option {
	return func(s *Spooler) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithGOOS overrides the detected operating system.
func WithGOOS(goos string) Option {
	return func(s *Spooler) {
		if goos = strings.TrimSpace(goos); goos != "" {
			s.goos = goos
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spooler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Spooler for the running platform.
func New(opts ...Option) *Spooler {
	s := &Spooler{
		goos:   runtime.GOOS,
		runner: execRunner{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Platform returns the operating system commands are built for.
func (s *Spooler) Platform() string {
	return s.goos
}

// Print submits job to the spooler. Command failures wrap
// services.ErrExternalTool; an unknown destination returns
// *PrinterNotFoundError.
func (s *Spooler) Print(ctx context.Context, job Job) error {
	name, args, err := BuildCommand(s.goos, job)
	if err != nil {
		return err
	}

	printCtx, cancel := context.WithTimeout(ctx, printTimeout)
	defer cancel()

	s.logger.Info("sending document to printer",
		logging.String(logging.FieldClass, job.ClassID),
		logging.String("printer", job.Class.PrinterName),
		logging.String("command", name),
	)
	output, err := s.runner.Output(printCtx, name, args...)
	if err != nil {
		clean := strings.TrimSpace(string(output))
		if mentionsUnknownPrinter(clean) || mentionsUnknownPrinter(err.Error()) {
			return &PrinterNotFoundError{Printer: job.Class.PrinterName, Err: err}
		}
		message := "printer command failed"
		if clean != "" {
			message = fmt.Sprintf("printer command failed: %s", clean)
		}
		return services.Wrap(services.ErrExternalTool, "print", name, message, err)
	}
	s.logger.Debug("spooler accepted document",
		logging.String(logging.FieldClass, job.ClassID),
		logging.String("output", strings.TrimSpace(string(output))),
	)
	return nil
}

// ListPrinters returns installed printer names in the order the system lists
// them.
func (s *Spooler) ListPrinters(ctx context.Context) ([]string, error) {
	name, args, err := listCommand(s.goos)
	if err != nil {
		return nil, err
	}
	listCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	output, err := s.runner.Output(listCtx, name, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "printers", name, strings.TrimSpace(string(output)), err)
	}
	return parsePrinterList(s.goos, output), nil
}

func mentionsUnknownPrinter(text string) bool {
	return strings.Contains(text, "No such printer") || strings.Contains(strings.ToLower(text), "unknown printer")
}
