package sqlopt

import (
	"fmt"
	"os"
	"strings"
)

// fileBuffer holds one file's lines in memory while the optimizer processes
// every site belonging to it, plus the byte content captured before the
// current in-flight edit so a failed post-replacement test run can revert
// exactly that edit.
type fileBuffer struct {
	path             string
	lines            []string
	lineDelta        int // accumulated line-count change from earlier splices in this file
	preEditBytes     []byte
	preEditLineDelta int
}

func loadFileBuffer(path string) (*fileBuffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(raw), "\n")
	return &fileBuffer{path: path, lines: lines}, nil
}

// splice replaces lines [start,end] (1-indexed, inclusive, already shifted
// by this file's accumulated delta) with chosenText, prefixing every
// replacement line with the indentation of the original start line, and
// writes the updated file to disk. It snapshots the pre-edit bytes into
// preEditBytes for a possible revert.
func (fb *fileBuffer) splice(start, end int, chosenText string) error {
	if start < 1 || end < start || end > len(fb.lines) {
		return fmt.Errorf("splice range [%d,%d] out of bounds for %s (len %d)", start, end, fb.path, len(fb.lines))
	}
	fb.preEditBytes = []byte(strings.Join(fb.lines, "\n"))
	fb.preEditLineDelta = fb.lineDelta

	indent := leadingWhitespace(fb.lines[start-1])
	replacement := indentEachLine(chosenText, indent)

	before := append([]string(nil), fb.lines[:start-1]...)
	after := append([]string(nil), fb.lines[end:]...)

	newLines := append(before, replacement...)
	newLines = append(newLines, after...)

	delta := len(replacement) - (end - start + 1)
	fb.lineDelta += delta
	fb.lines = newLines

	return os.WriteFile(fb.path, []byte(strings.Join(fb.lines, "\n")), 0o644)
}

// revertLastSplice restores the file to its state immediately before the
// most recent splice call, undoing exactly that edit's line-count delta.
func (fb *fileBuffer) revertLastSplice() error {
	if fb.preEditBytes == nil {
		return fmt.Errorf("no pending edit to revert for %s", fb.path)
	}
	fb.lines = strings.Split(string(fb.preEditBytes), "\n")
	fb.lineDelta = fb.preEditLineDelta
	return os.WriteFile(fb.path, fb.preEditBytes, 0o644)
}

func leadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

func indentEachLine(text, indent string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	for i, l := range lines {
		if i == 0 {
			out[i] = indent + l
		} else if strings.TrimSpace(l) == "" {
			out[i] = l
		} else {
			out[i] = indent + l
		}
	}
	return out
}
