package adapter

import (
	"context"
	"strings"

	"github.com/Aleph-Alpha/vecstore/v1/record"
)

// MarkdownChunker splits markdown media into sections, starting a new chunk
// at every heading. Both ATX headings ("## Title") and setext headings (a
// line underlined with "===" or "---") are recognized. Chunk ids are derived
// as "<id>_head_000", "<id>_head_001" and so on.
type MarkdownChunker struct {
	// SkipDuringQuery passes query input through unchanged.
	SkipDuringQuery bool

	// MaxWords caps the word count of a single chunk. Sections exceeding
	// the cap are flushed early, and individual lines longer than the cap
	// are split, preferably at a sentence boundary. Zero or negative means
	// unlimited.
	MaxWords int
}

// NewMarkdownChunker returns a markdown chunker without a word cap.
func NewMarkdownChunker(skipDuringQuery bool) MarkdownChunker {
	return MarkdownChunker{SkipDuringQuery: skipDuringQuery}
}

// Transform splits each record into heading-delimited section records.
func (c MarkdownChunker) Transform(_ context.Context, phase Phase, in record.Stream) record.Stream {
	return chunkStream(phase, c.SkipDuringQuery, in, "%s_head_%03d", func(text string) []string {
		return splitMarkdown(text, c.MaxWords)
	})
}

// ExportedDimension reports no dimension, chunking never produces vectors.
func (c MarkdownChunker) ExportedDimension() (int, bool) {
	return 0, false
}

func splitMarkdown(text string, maxWords int) []string {
	lines := strings.Split(text, "\n")

	var chunks []string
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunk := strings.Join(current, "\n")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		current = nil
		currentWords = 0
	}

	for i, line := range lines {
		next := ""
		hasNext := i+1 < len(lines)
		if hasNext {
			next = lines[i+1]
		}

		if maxWords > 0 {
			for wordCount(line) > maxWords {
				flush()
				var head string
				head, line = splitLongLine(line, maxWords)
				chunks = append(chunks, head)
			}
		}

		if isHeading(line, next, hasNext) || (maxWords > 0 && currentWords+wordCount(line) > maxWords) {
			flush()
		}

		current = append(current, line)
		currentWords += wordCount(line)
	}
	flush()

	return chunks
}

// wordCount counts single-space separated tokens, mirroring how MaxWords
// interacts with splitLongLine's space indexing.
func wordCount(line string) int {
	if line == "" {
		return 0
	}
	return strings.Count(line, " ") + 1
}

// splitLongLine cuts a line that exceeds the word cap. The cut lands on the
// last full stop before the cap when one exists, otherwise on the space at
// the cap itself.
func splitLongLine(line string, maxWords int) (head, rest string) {
	limit := nthSpace(line, maxWords)
	if cut := strings.LastIndex(line[:limit], "."); cut >= 0 {
		return line[:cut+1], strings.TrimPrefix(line[cut+1:], " ")
	}
	return line[:limit], line[limit+1:]
}

// nthSpace returns the byte index of the n-th space in line, or len(line)
// when there are fewer.
func nthSpace(line string, n int) int {
	seen := 0
	for i := 0; i < len(line); i++ {
		if line[i] == ' ' {
			seen++
			if seen == n {
				return i
			}
		}
	}
	return len(line)
}

// isHeading reports whether line opens a new markdown section. ATX headings
// are one to six hashes followed by a space. A setext heading is any
// non-blank line whose next line consists entirely of '=' or '-'.
func isHeading(line, next string, hasNext bool) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}

	if line[0] == '#' {
		hashes := 0
		for hashes < len(line) && line[hashes] == '#' {
			hashes++
		}
		return hashes <= 6 && hashes < len(line) && line[hashes] == ' '
	}

	if !hasNext || next == "" {
		return false
	}
	marker := next[0]
	if marker != '-' && marker != '=' {
		return false
	}
	return strings.Count(next, string(marker)) == len(next)
}
