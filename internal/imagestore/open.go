package imagestore

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Opener shows an image file in the desktop's default viewer.
type Opener interface {
	Open(path string) error
}

// SystemOpener launches the platform's "open with default application" command.
type SystemOpener struct{}

// Open starts the viewer and does not wait for it to exit.
func (SystemOpener) Open(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("imagestore: open %s: %w", path, err)
	}
	name, args := viewerCommand(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("imagestore: launch viewer: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func viewerCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}
