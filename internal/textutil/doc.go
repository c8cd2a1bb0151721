// Package textutil provides small text helpers shared by the CLI and the
// printer-class document: class identifier tokens, display-name casing, and
// rune-safe truncation for table output.
package textutil
