// Package fetch downloads the PDF a scanned code points at into a temp file.
package fetch
