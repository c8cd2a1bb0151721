package printing

import (
	"fmt"
	"strings"

	"qrprint/internal/config"
)

// Job is a single document ready for the spooler.
type Job struct {
	Path    string
	ClassID string
	Class   config.PrinterClass
}

// BuildCommand returns the spooler invocation for job on goos.
func BuildCommand(goos string, job Job) (string, []string, error) {
	if strings.TrimSpace(job.Path) == "" {
		return "", nil, fmt.Errorf("print job has no document path")
	}
	switch goos {
	case "linux":
		return "lp", cupsArgs("-d", job), nil
	case "darwin":
		return "lpr", cupsArgs("-P", job), nil
	case "windows":
		return "powershell", []string{"-NoProfile", "-Command", windowsScript(job)}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

func cupsArgs(destFlag string, job Job) []string {
	args := make([]string, 0, 4+2*len(job.Class.Options))
	if !job.Class.UsesDefaultPrinter() {
		args = append(args, destFlag, job.Class.PrinterName)
	}
	for _, option := range job.Class.Options {
		if option = strings.TrimSpace(option); option != "" {
			args = append(args, "-o", option)
		}
	}
	if media := job.Class.ExplicitMedia(); media != "" {
		args = append(args, "-o", "media="+media)
	}
	return append(args, job.Path)
}

func windowsScript(job Job) string {
	file := psQuote(job.Path)
	if job.Class.UsesDefaultPrinter() {
		return fmt.Sprintf("Start-Process -FilePath %s -Verb Print", file)
	}
	return fmt.Sprintf("Start-Process -FilePath %s -Verb PrintTo -ArgumentList %s -Wait",
		file, psQuote(`"`+job.Class.PrinterName+`"`))
}

// psQuote wraps value in a PowerShell single-quoted literal.
func psQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func listCommand(goos string) (string, []string, error) {
	switch goos {
	case "linux", "darwin":
		return "lpstat", []string{"-p"}, nil
	case "windows":
		return "powershell", []string{"-NoProfile", "-Command",
			"Get-Printer | Select-Object Name | ForEach-Object { $_.Name }"}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

func parsePrinterList(goos string, output []byte) []string {
	var printers []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name := line
		if goos != "windows" {
			if !strings.HasPrefix(line, "printer ") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			name = fields[1]
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		printers = append(printers, name)
	}
	return printers
}
