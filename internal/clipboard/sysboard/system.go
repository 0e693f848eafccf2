// Package sysboard implements text clipboard access with platform commands.
// On macOS it uses pbcopy/pbpaste, on Linux it uses xclip or xsel as a fallback.
// It serves hosts where the native clipboard cannot initialize.
package sysboard

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/yiblet/clipq/internal/clipboard"
)

// SystemClipboard implements clipboard.Clipboard using system commands
type SystemClipboard struct{}

// New creates a new SystemClipboard instance
func New() *SystemClipboard {
	return &SystemClipboard{}
}

// IsSupported returns true if clipboard commands are available on this system
func (s *SystemClipboard) IsSupported() bool {
	switch runtime.GOOS {
	case "darwin":
		return hasCommand("pbcopy") && hasCommand("pbpaste")
	case "linux":
		return hasCommand("xclip") || hasCommand("xsel")
	default:
		return false
	}
}

// Read returns the clipboard text. Only clipboard.FormatText is supported.
func (s *SystemClipboard) Read(f clipboard.Format) ([]byte, error) {
	if f != clipboard.FormatText {
		return nil, fmt.Errorf("%w: %s", clipboard.ErrUnsupportedFormat, f)
	}

	switch runtime.GOOS {
	case "darwin":
		data, err := readWithCommand("pbpaste")
		if err != nil {
			return nil, fmt.Errorf("failed to run pbpaste: %w", err)
		}
		return data, nil
	case "linux":
		if data, err := readWithCommand("xclip", "-selection", "clipboard", "-o"); err == nil {
			return data, nil
		}
		data, err := readWithCommand("xsel", "--clipboard", "--output")
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard (tried xclip and xsel): %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("clipboard operations not supported on %s", runtime.GOOS)
	}
}

// Write replaces the clipboard text. Only clipboard.FormatText is supported.
func (s *SystemClipboard) Write(f clipboard.Format, data []byte) error {
	if f != clipboard.FormatText {
		return fmt.Errorf("%w: %s", clipboard.ErrUnsupportedFormat, f)
	}

	switch runtime.GOOS {
	case "darwin":
		if err := writeWithCommand(data, "pbcopy"); err != nil {
			return fmt.Errorf("failed to run pbcopy: %w", err)
		}
		return nil
	case "linux":
		if err := writeWithCommand(data, "xclip", "-selection", "clipboard"); err == nil {
			return nil
		}
		if err := writeWithCommand(data, "xsel", "--clipboard", "--input"); err != nil {
			return fmt.Errorf("failed to write clipboard (tried xclip and xsel): %w", err)
		}
		return nil
	default:
		return fmt.Errorf("clipboard operations not supported on %s", runtime.GOOS)
	}
}

func hasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// readWithCommand executes a command and returns its output
func readWithCommand(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// writeWithCommand executes a command with data as stdin
func writeWithCommand(data []byte, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = bytes.NewReader(data)
	return cmd.Run()
}
