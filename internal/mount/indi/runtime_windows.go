//go:build windows

package indi

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FindRuntime looks for the INDI client in PATH, then in bin/*/windows/x64
// next to the executable or the working directory
func FindRuntime(runtime string) (string, error) {
	if binPath, err := exec.LookPath(runtime); err == nil {
		return binPath, nil
	}

	var lookup []string

	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	lookup = append(lookup, filepath.Dir(exePath))

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	lookup = append(lookup, wd)

	for _, dir := range lookup {
		matches, err := filepath.Glob(filepath.Join(dir, "bin", "*", "windows", "x64", fmt.Sprintf("%s.exe", runtime)))
		if err != nil || len(matches) == 0 {
			continue // continue to next directory
		}

		binPath := matches[0]
		if _, err = os.Stat(binPath); err != nil {
			continue // continue to next directory
		}

		return binPath, nil
	}

	return "", fmt.Errorf("failed to find binary '%s'", runtime)
}
