package output

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ============================================================================
// Clipboard Interface
// ============================================================================

// Clipboard defines the interface for clipboard operations
type Clipboard interface {
	Copy(text string) error
}

// systemClipboard implements Clipboard using system commands
type systemClipboard struct {
	fallback io.Writer
}

// Copy copies text to the system clipboard
func (c *systemClipboard) Copy(text string) error {
	cmd := c.findClipboardCommand()
	if cmd == nil {
		// No clipboard tool found, just print
		_, err := fmt.Fprint(c.fallback, text)
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// findClipboardCommand returns the appropriate clipboard command for the system
func (c *systemClipboard) findClipboardCommand() *exec.Cmd {
	switch {
	case commandExists("wl-copy"):
		return exec.Command("wl-copy")
	case commandExists("xclip"):
		return exec.Command("xclip", "-selection", "clipboard")
	case commandExists("xsel"):
		return exec.Command("xsel", "--clipboard", "--input")
	case commandExists("pbcopy"):
		return exec.Command("pbcopy")
	default:
		return nil
	}
}

// commandExists checks if a command is available in PATH
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ============================================================================
// Output Handling
// ============================================================================

// Mode represents where rendered output goes
type Mode string

const (
	ModePrint Mode = "print"
	ModeCopy  Mode = "copy"
	ModeFile  Mode = "file"
)

// ParseMode validates a mode name; empty means print
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePrint:
		return ModePrint, nil
	case ModeCopy, ModeFile:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unsupported output mode: %s (supported: print, copy, file)", s)
	}
}

// Writer delivers rendered documents to stdout, the clipboard or a file
type Writer struct {
	stdout    io.Writer
	clipboard Clipboard
}

// NewWriter creates a writer printing to stdout and copying with the
// system clipboard
func NewWriter() *Writer {
	return &Writer{
		stdout:    os.Stdout,
		clipboard: &systemClipboard{fallback: os.Stdout},
	}
}

// WithClipboard sets a custom clipboard implementation (useful for testing)
func (w *Writer) WithClipboard(c Clipboard) *Writer {
	w.clipboard = c
	return w
}

// WithStdout sets the print destination (useful for testing)
func (w *Writer) WithStdout(out io.Writer) *Writer {
	w.stdout = out
	return w
}

// Write delivers text according to mode. path is only used by ModeFile.
func (w *Writer) Write(text string, mode Mode, path string) error {
	switch mode {
	case ModeCopy:
		return w.clipboard.Copy(text)
	case ModeFile:
		if path == "" {
			return fmt.Errorf("file output needs a path")
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	default: // print
		_, err := fmt.Fprintln(w.stdout, text)
		return err
	}
}
