package printing_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"qrprint/internal/config"
	"qrprint/internal/printing"
	"qrprint/internal/services"
	"qrprint/internal/testsupport"
)

type recordedCall struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []recordedCall
	output []byte
	err    error
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: append([]string(nil), args...)})
	return f.output, f.err
}

func labelClass(printer, media string, options ...string) config.PrinterClass {
	return config.PrinterClass{
		DisplayName: "Label Printer",
		Prefix:      "label",
		PrinterName: printer,
		Media:       media,
		Options:     options,
	}
}

func TestBuildCommandLinux(t *testing.T) {
	job := printing.Job{Path: "/tmp/doc.pdf", ClassID: "label", Class: labelClass("Zebra", "Custom.4x6in", "fit-to-page")}
	name, args, err := printing.BuildCommand("linux", job)
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	want := []string{"-d", "Zebra", "-o", "fit-to-page", "-o", "media=Custom.4x6in", "/tmp/doc.pdf"}
	if name != "lp" || strings.Join(args, "|") != strings.Join(want, "|") {
		t.Fatalf("got %s %v, want lp %v", name, args, want)
	}
}

func TestBuildCommandDarwinDefaultPrinterAutoMedia(t *testing.T) {
	job := printing.Job{Path: "/tmp/doc.pdf", Class: labelClass("default", config.DefaultMedia)}
	name, args, err := printing.BuildCommand("darwin", job)
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	if name != "lpr" || len(args) != 1 || args[0] != "/tmp/doc.pdf" {
		t.Fatalf("got %s %v, want lpr [/tmp/doc.pdf]", name, args)
	}
}

func TestBuildCommandDarwinNamedPrinter(t *testing.T) {
	job := printing.Job{Path: "/tmp/doc.pdf", Class: labelClass("Brother_QL", "62mm")}
	_, args, err := printing.BuildCommand("darwin", job)
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	want := []string{"-P", "Brother_QL", "-o", "media=62mm", "/tmp/doc.pdf"}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Fatalf("args = %v, want %v", args, want)
	}
}

func TestBuildCommandWindows(t *testing.T) {
	named := printing.Job{Path: `C:\Temp\o'neil.pdf`, Class: labelClass("Receipt 80", "")}
	name, args, err := printing.BuildCommand("windows", named)
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	if name != "powershell" || args[0] != "-NoProfile" || args[1] != "-Command" {
		t.Fatalf("unexpected invocation %s %v", name, args)
	}
	want := `Start-Process -FilePath 'C:\Temp\o''neil.pdf' -Verb PrintTo -ArgumentList '"Receipt 80"' -Wait`
	if args[2] != want {
		t.Fatalf("script = %q, want %q", args[2], want)
	}

	def := printing.Job{Path: `C:\Temp\a.pdf`, Class: labelClass("default", "")}
	_, args, err = printing.BuildCommand("windows", def)
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	if args[2] != `Start-Process -FilePath 'C:\Temp\a.pdf' -Verb Print` {
		t.Fatalf("default printer script = %q", args[2])
	}
}

func TestBuildCommandUnsupportedPlatform(t *testing.T) {
	_, _, err := printing.BuildCommand("plan9", printing.Job{Path: "/tmp/a.pdf"})
	if !errors.Is(err, printing.ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestPrintWrapsCommandFailure(t *testing.T) {
	runner := &fakeRunner{output: []byte("lp: Error - scheduler not responding"), err: errors.New("exit status 1")}
	spooler := printing.New(printing.WithGOOS("linux"), printing.WithRunner(runner))

	err := spooler.Print(context.Background(), printing.Job{Path: "/tmp/a.pdf", Class: labelClass("Zebra", "")})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "scheduler not responding") {
		t.Fatalf("expected command output in error, got %q", err)
	}
	if len(runner.calls) != 1 || runner.calls[0].name != "lp" {
		t.Fatalf("unexpected calls %+v", runner.calls)
	}
}

func TestPrintDetectsUnknownPrinter(t *testing.T) {
	runner := &fakeRunner{output: []byte("lp: The printer or class does not exist.\nNo such printer"), err: errors.New("exit status 1")}
	spooler := printing.New(printing.WithGOOS("linux"), printing.WithRunner(runner))

	err := spooler.Print(context.Background(), printing.Job{Path: "/tmp/a.pdf", Class: labelClass("Ghost", "")})
	var notFound *printing.PrinterNotFoundError
	if !errors.As(err, &notFound) || notFound.Printer != "Ghost" {
		t.Fatalf("expected PrinterNotFoundError for Ghost, got %v", err)
	}
	if !errors.Is(err, printing.ErrPrinterNotFound) || !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected error to match sentinels, got %v", err)
	}
	if err.Error() != "Printer 'Ghost' not found. Please check printer configuration." {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestListPrintersParsesLpstat(t *testing.T) {
	runner := &fakeRunner{output: []byte("printer Zebra_ZD420 is idle.  enabled since Mon 01 Jan\n" +
		"\tAlerts: none\n" +
		"printer Brother_QL is idle.  enabled since Mon 01 Jan\n" +
		"printer Zebra_ZD420 is idle.\n")}
	spooler := printing.New(printing.WithGOOS("darwin"), printing.WithRunner(runner))

	printers, err := spooler.ListPrinters(context.Background())
	if err != nil {
		t.Fatalf("ListPrinters: %v", err)
	}
	if strings.Join(printers, ",") != "Zebra_ZD420,Brother_QL" {
		t.Fatalf("unexpected printers %v", printers)
	}
	if runner.calls[0].name != "lpstat" || runner.calls[0].args[0] != "-p" {
		t.Fatalf("unexpected call %+v", runner.calls[0])
	}
}

func TestListPrintersWindows(t *testing.T) {
	runner := &fakeRunner{output: []byte("Microsoft Print to PDF\r\nEPSON TM-T20\r\n\r\n")}
	spooler := printing.New(printing.WithGOOS("windows"), printing.WithRunner(runner))

	printers, err := spooler.ListPrinters(context.Background())
	if err != nil {
		t.Fatalf("ListPrinters: %v", err)
	}
	if len(printers) != 2 || printers[1] != "EPSON TM-T20" {
		t.Fatalf("unexpected printers %q", printers)
	}
}

func TestPrintRunsStubBinary(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("stub lp binary requires linux")
	}
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	testsupport.NewConfig(t, testsupport.WithStubScript("lp", `printf '%s\n' "$@" > "`+argsFile+`"`))

	spooler := printing.New()
	job := printing.Job{Path: "/tmp/label.pdf", ClassID: "label", Class: labelClass("Zebra", "Custom.2x1in")}
	if err := spooler.Print(context.Background(), job); err != nil {
		t.Fatalf("Print: %v", err)
	}
	recorded, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	if got := strings.Fields(string(recorded)); strings.Join(got, " ") != "-d Zebra -o media=Custom.2x1in /tmp/label.pdf" {
		t.Fatalf("stub received %v", got)
	}
}
