package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens url in the user's default browser. This is the launch
// step of a recommendation cycle: callers treat a failure as non-fatal and
// fall back to printing the playlist URL.
//
// Supports macOS, Linux, and Windows.
func OpenBrowser(url string) error {
	goos := getRuntime()

	var cmd *exec.Cmd
	switch goos {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("cannot open browser on platform %s", goos)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
