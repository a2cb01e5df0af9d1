//go:build !unix

package main

import "os"

// redirectStdIO only swaps the os.Stdout and os.Stderr handles. Runtime panic
// output still goes to the original stderr on these platforms.
func redirectStdIO(path string) error {
	f, err := openStdioLog(path)
	if err != nil || f == nil {
		return err
	}
	os.Stdout = f
	os.Stderr = f
	return nil
}
