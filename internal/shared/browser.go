package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// goos is read through a variable so tests can exercise the
// per-platform branches without running on that platform.
var goos = func() string { return runtime.GOOS }

// browserCommand returns the platform launcher invocation for url.
func browserCommand(url string) (*exec.Cmd, error) {
	switch os := goos(); os {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", url), nil
	default:
		return nil, fmt.Errorf("%w: no browser launcher for %s", ErrInvalidArgument, os)
	}
}

// OpenBrowser launches the system browser at url without waiting for
// it to exit. Used by the OAuth login flow to hand the user off to the
// authorization page.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(url)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
