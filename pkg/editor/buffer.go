// Package editor holds the toolkit-independent model behind the script
// editor pane: a rune buffer with a caret addressed either by offset or
// by 1-based (line, column).
package editor

import (
	"strings"
)

// Buffer is an editable sequence of code points with a caret. The caret
// offset always lies in [0, Len()]. Buffer is not safe for concurrent
// use; it belongs to the UI thread.
type Buffer struct {
	text  []rune
	caret int
	// goal column kept across vertical moves, -1 when unset
	goal int
}

// NewBuffer returns a buffer holding text with the caret at the start.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: []rune(text), goal: -1}
}

// Text returns the buffer contents.
func (b *Buffer) Text() string {
	return string(b.text)
}

// Len returns the number of code points in the buffer.
func (b *Buffer) Len() int {
	return len(b.text)
}

// Caret returns the caret offset in code points.
func (b *Buffer) Caret() int {
	return b.caret
}

// SetText replaces the contents and clamps the caret. It reports whether
// the contents changed.
func (b *Buffer) SetText(text string) bool {
	if text == string(b.text) {
		return false
	}
	b.text = []rune(text)
	b.SetCaret(b.caret)
	return true
}

// SetCaret moves the caret to offset, clamped to the buffer.
func (b *Buffer) SetCaret(offset int) {
	b.caret = clamp(offset, 0, len(b.text))
	b.goal = -1
}

// LineCol returns the 1-based line and column of the caret.
func (b *Buffer) LineCol() (line, col int) {
	return LineColForOffset(b.text, b.caret)
}

// MoveCaretTo places the caret at the 1-based (line, col), clamping both
// to the buffer: lines past the end go to the last line, columns past
// the end of a line go to its end.
func (b *Buffer) MoveCaretTo(line, col int) {
	b.SetCaret(offsetForLineCol(b.text, line, col))
}

// Lines splits the buffer on LF. There is always at least one line.
func (b *Buffer) Lines() []string {
	return strings.Split(string(b.text), "\n")
}

// Insert inserts s at the caret, leaving the caret after it. CR and CRLF
// are stored as LF. It reports whether the contents changed.
func (b *Buffer) Insert(s string) bool {
	if s == "" {
		return false
	}
	ins := []rune(strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n"))
	text := make([]rune, 0, len(b.text)+len(ins))
	text = append(text, b.text[:b.caret]...)
	text = append(text, ins...)
	text = append(text, b.text[b.caret:]...)
	b.text = text
	b.caret += len(ins)
	b.goal = -1
	return true
}

// Newline inserts a line break and repeats the current line's leading
// whitespace.
func (b *Buffer) Newline() bool {
	start := lineStart(b.text, b.caret)
	end := start
	for end < b.caret && (b.text[end] == ' ' || b.text[end] == '\t') {
		end++
	}
	return b.Insert("\n" + string(b.text[start:end]))
}

// Backspace deletes the code point before the caret.
func (b *Buffer) Backspace() bool {
	if b.caret == 0 {
		return false
	}
	b.text = append(b.text[:b.caret-1], b.text[b.caret:]...)
	b.caret--
	b.goal = -1
	return true
}

// Delete deletes the code point after the caret.
func (b *Buffer) Delete() bool {
	if b.caret >= len(b.text) {
		return false
	}
	b.text = append(b.text[:b.caret], b.text[b.caret+1:]...)
	b.goal = -1
	return true
}

// Left and Right move the caret by one code point.
func (b *Buffer) Left() {
	b.SetCaret(b.caret - 1)
}

func (b *Buffer) Right() {
	b.SetCaret(b.caret + 1)
}

// Up and Down move the caret one line, keeping the column where the
// previous vertical move started when the line is long enough.
func (b *Buffer) Up() {
	b.vertical(-1)
}

func (b *Buffer) Down() {
	b.vertical(1)
}

func (b *Buffer) vertical(delta int) {
	line, col := b.LineCol()
	if b.goal < 0 {
		b.goal = col
	}
	goal := b.goal
	target := line + delta
	if target < 1 {
		b.caret = 0
		b.goal = goal
		return
	}
	if target > b.lineCount() {
		b.caret = len(b.text)
		b.goal = goal
		return
	}
	b.caret = offsetForLineCol(b.text, target, goal)
	b.goal = goal
}

// Home and End move to the start and end of the caret's line.
func (b *Buffer) Home() {
	b.SetCaret(lineStart(b.text, b.caret))
}

func (b *Buffer) End() {
	b.SetCaret(lineEnd(b.text, b.caret))
}

func (b *Buffer) lineCount() int {
	n := 1
	for _, r := range b.text {
		if r == '\n' {
			n++
		}
	}
	return n
}

// OffsetForLineCol converts a 1-based (line, col) into a clamped code
// point offset within text.
func OffsetForLineCol(text string, line, col int) int {
	return offsetForLineCol([]rune(text), line, col)
}

func offsetForLineCol(text []rune, line, col int) int {
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	start := 0
	for cur := 1; cur < line; cur++ {
		i := indexRune(text, start, '\n')
		if i < 0 {
			break
		}
		start = i + 1
	}
	end := lineEnd(text, start)
	return clamp(start+col-1, start, end)
}

// LineColForOffset converts a code point offset into a 1-based (line,
// col).
func LineColForOffset(text []rune, offset int) (line, col int) {
	offset = clamp(offset, 0, len(text))
	line = 1
	start := 0
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			start = i + 1
		}
	}
	return line, offset - start + 1
}

func lineStart(text []rune, offset int) int {
	for i := offset - 1; i >= 0; i-- {
		if text[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

func lineEnd(text []rune, offset int) int {
	if i := indexRune(text, offset, '\n'); i >= 0 {
		return i
	}
	return len(text)
}

func indexRune(text []rune, from int, r rune) int {
	for i := from; i < len(text); i++ {
		if text[i] == r {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
