//go:build windows

package preflight

import "os"

func checkAccess(path string) error {
	scratch, err := os.CreateTemp(path, ".qrprint-access-*")
	if err != nil {
		return err
	}
	name := scratch.Name()
	_ = scratch.Close()
	return os.Remove(name)
}
