// Package main hosts the qrprint CLI entrypoint and command graph.
//
// The Cobra command tree covers the interactive scan loop, one-shot scans,
// history maintenance, printer-class management, and configuration
// scaffolding. It resolves configuration and logging once so subcommands can
// focus on output.
package main
