package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"qrprint/internal/dispatch"
	"qrprint/internal/history"
	"qrprint/internal/station"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Read scans from standard input and print them",
		Long: "Reads one QR payload per line. With auto_print enabled each scan is printed\n" +
			"immediately; otherwise a preview is shown and an empty line confirms it.\n" +
			"Type quit or send EOF to stop once running jobs finish.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &lockedWriter{w: cmd.OutOrStdout()}
			listener := dispatch.WithListener(func(job *history.Job) {
				fmt.Fprintln(out, describeOutcome(job))
			})
			return ctx.withStation(cmd, true, func(st *station.Station) error {
				return runScanLoop(cmd.Context(), st, cmd.InOrStdin(), out)
			}, station.WithDispatchOptions(listener))
		},
	}
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <payload>",
		Short: "Print a single scanned payload and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(cmd, true, func(st *station.Station) error {
				job, err := st.Dispatcher().Submit(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job #%d for %s\n", job.ID, classDisplayName(st, job.Class))
				return awaitJob(cmd.Context(), cmd.OutOrStdout(), st, job)
			})
		},
	}
}

func newReprintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprint <id>",
		Short: "Print a history entry again as a new job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(cmd, true, func(st *station.Station) error {
				job, err := st.Dispatcher().Reprint(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reprinting job #%d as job #%d\n", id, job.ID)
				return awaitJob(cmd.Context(), cmd.OutOrStdout(), st, job)
			})
		},
	}
}

// awaitJob waits for the dispatcher to finish and reports the stored outcome.
// A job that did not complete is returned as an error so the process exits
// non-zero.
func awaitJob(ctx context.Context, out io.Writer, st *station.Station, job *history.Job) error {
	if err := st.Dispatcher().Wait(ctx); err != nil {
		return err
	}
	final, err := st.Store().Get(context.WithoutCancel(ctx), job.ID)
	if err != nil {
		return err
	}
	if final == nil {
		return fmt.Errorf("job #%d disappeared from history", job.ID)
	}
	fmt.Fprintln(out, describeOutcome(final))
	if final.Status != history.StatusCompleted {
		return fmt.Errorf("job #%d %s", final.ID, final.Status)
	}
	return nil
}

func runScanLoop(ctx context.Context, st *station.Station, in io.Reader, out io.Writer) error {
	dispatcher := st.Dispatcher()
	settings := st.Printers().Settings
	interactive := isInteractive(in)

	lines := make(chan string)
	var readErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr = scanner.Err()
	}()

	fmt.Fprintf(out, "Ready for scans (prefixes: %s). Type quit to exit.\n", strings.Join(st.Printers().Prefixes(), ", "))
	prompt := func() {
		if interactive {
			fmt.Fprint(out, "scan> ")
		}
	}
	submit := func(raw string) {
		job, err := dispatcher.Submit(ctx, raw)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Queued job #%d for %s\n", job.ID, classDisplayName(st, job.Class))
	}

	var pending string
	prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if readErr != nil {
					return fmt.Errorf("read scans: %w", readErr)
				}
				return dispatcher.Wait(ctx)
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "quit" || line == "exit":
				return dispatcher.Wait(ctx)
			case line == "":
				if pending != "" {
					submit(pending)
					pending = ""
				}
			case settings.AutoPrint:
				submit(line)
			default:
				preview, err := dispatcher.Describe(line)
				if err != nil {
					fmt.Fprintf(out, "Error: %v\n", err)
					break
				}
				pending = line
				fmt.Fprintf(out, "%s: %s (press Enter to print)\n", preview.DisplayName, preview.URL)
			}
			prompt()
		}
	}
}

func describeOutcome(job *history.Job) string {
	line := fmt.Sprintf("Job #%d %s", job.ID, job.Status.DisplayName())
	if job.ErrorMessage != "" {
		line += ": " + job.ErrorMessage
	}
	return line
}

func classDisplayName(st *station.Station, id string) string {
	if class, ok := st.Printers().Class(id); ok {
		return class.DisplayName
	}
	return id
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// lockedWriter serializes writes from job listeners and the scan loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
