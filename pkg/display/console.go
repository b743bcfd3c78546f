// Package display implementation for terminal-based output.
package display

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// consoleDisplay handles terminal output. All launcher-owned text goes to
// stderr so the target program keeps stdout to itself.
type consoleDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewConsole creates a Display that writes to standard error.
func NewConsole() Display {
	return &consoleDisplay{
		out: os.Stderr,
	}
}

// NewWriterDisplay creates a Display that writes to the provided io.Writer.
func NewWriterDisplay(w io.Writer) Display {
	return &consoleDisplay{
		out: w,
	}
}

// Print writes a message directly to the output writer.
func (d *consoleDisplay) Print(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprint(d.out, msg)
}

// Status writes a highlighted one-line status message.
func (d *consoleDisplay) Status(msg string) {
	d.Print(statusStyle.Render(msg) + "\n")
}

// Error writes a highlighted error message.
func (d *consoleDisplay) Error(msg string) {
	d.Print(errorStyle.Render(msg) + "\n")
}

// Log writes a dim log line when verbose output is enabled.
func (d *consoleDisplay) Log(msg string) {
	d.mu.Lock()
	verbose := d.verbose
	d.mu.Unlock()
	if !verbose {
		return
	}
	d.Print(dimStyle.Render(msg) + "\n")
}

// SetVerbose enables or disables verbose logging.
func (d *consoleDisplay) SetVerbose(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.verbose = v
}

// StartTask creates a tracked task that renders progress on a single line.
func (d *consoleDisplay) StartTask(name string) Task {
	return &consoleTask{disp: d, name: name}
}

// Close ensures any pending progress line is terminated.
func (d *consoleDisplay) Close() {}

// consoleTask renders progress updates for one unit of work.
type consoleTask struct {
	disp    *consoleDisplay
	name    string
	stage   string
	lastPct int
}

func (t *consoleTask) Log(msg string) {
	t.disp.Log(fmt.Sprintf("[%s] %s", t.name, msg))
}

func (t *consoleTask) SetStage(name string, target string) {
	t.stage = name
	t.lastPct = -1
	t.disp.Status(fmt.Sprintf("%s: %s %s", t.name, name, target))
}

func (t *consoleTask) Progress(percent int, message string) {
	// Progress callbacks arrive per write; only re-render on whole-percent
	// changes to keep piped output readable.
	if percent == t.lastPct {
		return
	}
	t.lastPct = percent
	t.disp.Log(fmt.Sprintf("[%s] %s %3d%% %s", t.name, t.stage, percent, message))
}

func (t *consoleTask) Done() {
	t.disp.Log(fmt.Sprintf("[%s] done", t.name))
}
