package syntax

import (
	"fmt"
	"sort"
	"strings"
)

type edit struct {
	start, end int
	text       string
}

// Buffer splices an immutable source text. Edits address byte offsets of the
// original text and may not overlap; slices and the final string are
// rendered with every edit applied.
type Buffer struct {
	src   string
	edits []edit
}

// NewBuffer returns a Buffer over src.
func NewBuffer(src []byte) *Buffer {
	return &Buffer{src: string(src)}
}

// Overwrite replaces the original bytes [start, end) with text.
func (b *Buffer) Overwrite(start, end int, text string) error {
	if start < 0 || end > len(b.src) || start > end {
		return fmt.Errorf("overwrite: range [%d, %d) out of bounds (len %d)", start, end, len(b.src))
	}
	for _, e := range b.edits {
		if start < e.end && e.start < end {
			return fmt.Errorf("overwrite: range [%d, %d) overlaps edit [%d, %d)", start, end, e.start, e.end)
		}
	}
	b.edits = append(b.edits, edit{start: start, end: end, text: text})
	sort.Slice(b.edits, func(i, j int) bool { return b.edits[i].start < b.edits[j].start })
	return nil
}

// Remove deletes the original bytes [start, end).
func (b *Buffer) Remove(start, end int) error {
	return b.Overwrite(start, end, "")
}

// Slice renders the original range [start, end) with the edits that fall
// entirely inside it applied.
func (b *Buffer) Slice(start, end int) string {
	var sb strings.Builder
	pos := start
	for _, e := range b.edits {
		if e.start < start || e.end > end {
			continue
		}
		sb.WriteString(b.src[pos:e.start])
		sb.WriteString(e.text)
		pos = e.end
	}
	sb.WriteString(b.src[pos:end])
	return sb.String()
}

// String renders the whole text with all edits applied.
func (b *Buffer) String() string {
	return b.Slice(0, len(b.src))
}

// Edited reports whether any edit has been recorded.
func (b *Buffer) Edited() bool {
	return len(b.edits) > 0
}
