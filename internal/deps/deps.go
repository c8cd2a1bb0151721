package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary qrprint relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// SpoolerRequirements lists the print commands used on goos. Unknown
// platforms have none.
func SpoolerRequirements(goos string) []Requirement {
	switch goos {
	case "linux":
		return []Requirement{
			{Name: "CUPS lp", Command: "lp", Description: "Required to send documents to printers"},
			{Name: "CUPS lpstat", Command: "lpstat", Description: "Lists installed printers", Optional: true},
		}
	case "darwin":
		return []Requirement{
			{Name: "lpr", Command: "lpr", Description: "Required to send documents to printers"},
			{Name: "CUPS lpstat", Command: "lpstat", Description: "Lists installed printers", Optional: true},
		}
	case "windows":
		return []Requirement{
			{Name: "PowerShell", Command: "powershell", Description: "Required to print and list printers"},
		}
	default:
		return nil
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
