package patternscan

import (
	"sort"
	"strings"
)

// lineIndex maps byte offsets to zero-based line numbers.
type lineIndex struct {
	content string
	starts  []int
}

func newLineIndex(content string) lineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	// A trailing newline does not open another line.
	if n := len(starts); n > 1 && starts[n-1] == len(content) {
		starts = starts[:n-1]
	}
	return lineIndex{content: content, starts: starts}
}

func (li lineIndex) lineOf(offset int) int {
	return sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
}

func (li lineIndex) text(line int) string {
	if line < 0 || line >= len(li.starts) {
		return ""
	}
	end := len(li.content)
	if line+1 < len(li.starts) {
		end = li.starts[line+1]
	}
	return strings.TrimRight(li.content[li.starts[line]:end], "\r\n")
}

// window returns lines [from, to) clipped to the file.
func (li lineIndex) window(from, to int) []string {
	from = max(from, 0)
	to = min(to, len(li.starts))
	if from >= to {
		return nil
	}
	out := make([]string, 0, to-from)
	for l := from; l < to; l++ {
		out = append(out, li.text(l))
	}
	return out
}
