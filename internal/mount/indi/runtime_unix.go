//go:build !windows

package indi

import (
	"errors"
	"fmt"
	"os/exec"
)

func FindRuntime(runtime string) (string, error) {
	binPath, err := exec.LookPath(runtime)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("indi: `%s` not found in PATH: %w", runtime, err)
		}
		return "", fmt.Errorf("indi: failed to locate binary: %w", err)
	}

	return binPath, nil
}
