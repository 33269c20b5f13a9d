package auth

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// RingBell writes the ASCII bell character to stdout, used to draw the
// user's attention to a just-printed approval URL. Shared with the
// ensure package's interactive scope/package creation prompts.
func RingBell() {
	fmt.Fprint(os.Stdout, "\a")
}

// OpenBrowser best-effort opens url in the user's default browser.
// Failure is silent: a user without a usable browser (a CI runner, a
// headless box) still has the printed URL to copy.
func OpenBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
