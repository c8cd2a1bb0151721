package main

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"qrprint/internal/history"
	"qrprint/internal/testsupport"
)

func requireLinux(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("stub lp binary requires linux")
	}
}

func TestScanPrintsDocument(t *testing.T) {
	requireLinux(t)
	env := setupCLITestEnv(t, testsupport.WithStubScript("lp", "exit 0"))
	srv := testsupport.NewPDFServer(t)

	out, _, err := runCLI(t, []string{"scan", "label:" + srv.URL + "/doc.pdf"}, env.configPath, "")
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	requireContains(t, out, "Queued job #1 for Label Printer")
	requireContains(t, out, "Job #1 ✓ Done")
}

func TestScanReportsFailures(t *testing.T) {
	requireLinux(t)
	env := setupCLITestEnv(t, testsupport.WithStubScript("lp", "echo 'lp: printer jammed' >&2\nexit 1"))
	srv := testsupport.NewPDFServer(t)

	if _, _, err := runCLI(t, []string{"scan", "label:" + srv.URL + "/doc.pdf"}, env.configPath, ""); err == nil {
		t.Fatal("expected failed print to return an error")
	}
	if _, _, err := runCLI(t, []string{"scan", "label:" + srv.URL + "/missing"}, env.configPath, ""); err == nil {
		t.Fatal("expected failed download to return an error")
	}
	if _, _, err := runCLI(t, []string{"scan", "bogus"}, env.configPath, ""); err == nil {
		t.Fatal("expected invalid payload to return an error")
	}

	store := testsupport.MustOpenStore(t, env.cfg)
	first, err := store.Get(context.Background(), 1)
	if err != nil || first == nil {
		t.Fatalf("Get 1: %v %v", first, err)
	}
	if first.Status != history.StatusFailed {
		t.Fatalf("expected print failure to be failed, got %s", first.Status)
	}
	second, err := store.Get(context.Background(), 2)
	if err != nil || second == nil {
		t.Fatalf("Get 2: %v %v", second, err)
	}
	if second.Status != history.StatusError {
		t.Fatalf("expected download failure to be error, got %s", second.Status)
	}
	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected invalid payload to create no record, got %d records", count)
	}
}

func TestRunLoopAutoPrint(t *testing.T) {
	requireLinux(t)
	env := setupCLITestEnv(t, testsupport.WithStubScript("lp", "exit 0"))
	srv := testsupport.NewPDFServer(t)

	input := strings.Join([]string{
		"label:" + srv.URL + "/a.pdf",
		"nonsense",
		"receipt:" + srv.URL + "/b.pdf",
		"quit",
	}, "\n") + "\n"
	out, _, err := runCLI(t, []string{"run"}, env.configPath, input)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "Ready for scans")
	requireContains(t, out, "Queued job #1 for Label Printer")
	requireContains(t, out, "Error: Invalid QR format")
	requireContains(t, out, "Queued job #2 for Receipt Printer")
	requireContains(t, out, "Job #1 ✓ Done")
	requireContains(t, out, "Job #2 ✓ Done")
}

func TestRunLoopPreviewConfirm(t *testing.T) {
	requireLinux(t)
	env := setupCLITestEnv(t, testsupport.WithStubScript("lp", "exit 0"))
	srv := testsupport.NewPDFServer(t)

	printers := testsupport.MustLoadPrinters(t, env.cfg)
	printers.Settings.AutoPrint = false
	if err := printers.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	input := "label:" + srv.URL + "/a.pdf\n\n"
	out, _, err := runCLI(t, []string{"run"}, env.configPath, input)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "Label Printer: "+srv.URL+"/a.pdf (press Enter to print)")
	requireContains(t, out, "Job #1 ✓ Done")
}

func TestReprintCreatesNewJob(t *testing.T) {
	requireLinux(t)
	env := setupCLITestEnv(t, testsupport.WithStubScript("lp", "exit 0"))
	srv := testsupport.NewPDFServer(t)

	if _, _, err := runCLI(t, []string{"scan", "label:" + srv.URL + "/doc.pdf"}, env.configPath, ""); err != nil {
		t.Fatalf("scan: %v", err)
	}
	out, _, err := runCLI(t, []string{"reprint", "1"}, env.configPath, "")
	if err != nil {
		t.Fatalf("reprint: %v", err)
	}
	requireContains(t, out, "Reprinting job #1 as job #2")
	requireContains(t, out, "Job #2 ✓ Done")
}
