package export

import (
	"fmt"
	"io"
	"strings"
)

// WriteLog writes lines joined by newlines, with a trailing newline when
// there is at least one line.
func WriteLog(w io.Writer, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("%w: writing build log: %v", ErrExportFailed, err)
	}
	return nil
}

// WriteLogFile writes the build log to path.
func WriteLogFile(path string, lines []string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteLog(w, lines)
	})
}
