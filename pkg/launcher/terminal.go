package launcher

import (
	"bufio"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// promptText is the fixed acknowledgment prompt shown after the target
// program completes in an interactive session.
const promptText = "Press Enter to close..."

// Interactive reports whether the given input is attached to a terminal.
// Computed once per run; it only decides whether the closing prompt is
// shown.
func Interactive(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// awaitAck blocks until any input arrives (a line or EOF). The content is
// discarded; this is a no-op acknowledgment.
func awaitAck(in io.Reader) {
	reader := bufio.NewReader(in)
	_, err := reader.ReadString('\n')
	_ = err // EOF counts as acknowledgment too
}
