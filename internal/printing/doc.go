// Package printing hands downloaded documents to the operating system print
// spooler and discovers installed printers.
//
// Linux uses lp, macOS uses lpr, and Windows goes through PowerShell
// Start-Process. Command construction is pure so it can be tested for every
// platform from any host; execution goes through a Runner.
package printing
