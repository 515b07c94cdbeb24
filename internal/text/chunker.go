package text

import (
	"fmt"
	"strings"
)

// separators are tried in order when choosing a chunk boundary: markdown
// headings by decreasing level, then line breaks, then word breaks. A hard
// cut at maxSize is the fallback when none of them occur in the window.
var separators = []string{
	"\n## ",
	"\n### ",
	"\n#### ",
	"\n##### ",
	"\n# ",
	"\n",
	" ",
}

// Splitter cuts a document into chunks of at most MaxSize bytes. Adjacent
// chunks share the trailing Overlap bytes of the preceding chunk so that
// content spanning a boundary stays retrievable from either side.
type Splitter struct {
	maxSize int
	overlap int
}

func NewSplitter(maxSize, overlap int) (*Splitter, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("overlap must be in [0, maxSize), got %d for max size %d", overlap, maxSize)
	}
	return &Splitter{maxSize: maxSize, overlap: overlap}, nil
}

// Split is deterministic: identical input always yields identical chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		if len(text)-start <= s.maxSize {
			chunks = append(chunks, text[start:])
			break
		}

		cut := s.findCut(text, start)
		chunks = append(chunks, text[start:cut])

		// Step back so the next chunk begins with the tail of this one.
		next := cut - s.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findCut picks the boundary for the chunk starting at start. It scans the
// window [start, start+maxSize] for the highest-priority separator, cutting
// after its leading newline or space so the heading marker opens the next
// chunk. When no separator occurs, the chunk is hard-cut at maxSize.
func (s *Splitter) findCut(text string, start int) int {
	window := text[start : start+s.maxSize]

	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		return start + idx + 1
	}

	return start + s.maxSize
}
