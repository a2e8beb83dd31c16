// Package highlight classifies Kotlin script source into styled spans.
//
// Classification is a single left-to-right regular expression scan. The
// first alternative that matches at the current position wins, so a
// keyword inside a string literal or a comment is never reported as a
// keyword.
package highlight

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the style tag carried by a span.
type Kind int

const (
	Plain Kind = iota
	Keyword
	String
	Comment
)

// String returns the style class name used by the GUI hosts.
func (k Kind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case String:
		return "string"
	case Comment:
		return "comment"
	default:
		return "plain"
	}
}

// Span is a half-open run [Start, End) of code points sharing one style.
type Span struct {
	Start int
	End   int
	Kind  Kind
}

// Len returns the number of code points covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// keywords is kept in alphabetical order.
var keywords = []string{
	"abstract", "annotation", "as", "break", "by", "catch", "class", "companion",
	"const", "constructor", "continue", "data", "do", "else", "enum", "false",
	"final", "finally", "for", "fun", "if", "import", "in", "init", "interface",
	"internal", "is", "it", "lateinit", "null", "object", "open", "out", "override",
	"package", "private", "protected", "public", "return", "sealed", "super",
	"this", "throw", "true", "try", "typealias", "val", "var", "when", "while",
}

const (
	stringPattern  = `"(?:[^"\\]|\\.)*"`
	commentPattern = `//[^\n]*|/\*(?s:.*?)\*/`
)

var pattern = regexp.MustCompile(
	`(?P<keyword>\b(?:` + strings.Join(keywords, "|") + `)\b)` +
		`|(?P<string>` + stringPattern + `)` +
		`|(?P<comment>` + commentPattern + `)`,
)

var (
	keywordGroup = pattern.SubexpIndex("keyword")
	stringGroup  = pattern.SubexpIndex("string")
	commentGroup = pattern.SubexpIndex("comment")
)

// Keywords returns a copy of the recognised keyword list.
func Keywords() []string {
	out := make([]string, len(keywords))
	copy(out, keywords)
	return out
}

// IsKeyword reports whether word is one of the recognised keywords.
func IsKeyword(word string) bool {
	for _, kw := range keywords {
		if kw == word {
			return true
		}
	}
	return false
}

// Classify partitions text into spans covering every code point exactly
// once. Regions that match nothing are emitted as Plain spans. Empty
// input yields no spans.
func Classify(text string) []Span {
	matches := pattern.FindAllStringSubmatchIndex(text, -1)
	spans := make([]Span, 0, 2*len(matches)+1)

	lastByte := 0
	lastRune := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start == end {
			continue
		}
		kind := kindOf(m)
		if kind == Keyword && !standsAlone(text, start, end) {
			// Part of a longer identifier; left in the plain gap.
			continue
		}
		gapRunes := utf8.RuneCountInString(text[lastByte:start])
		if gapRunes > 0 {
			spans = append(spans, Span{Start: lastRune, End: lastRune + gapRunes, Kind: Plain})
			lastRune += gapRunes
		}
		n := utf8.RuneCountInString(text[start:end])
		spans = append(spans, Span{Start: lastRune, End: lastRune + n, Kind: kind})
		lastRune += n
		lastByte = end
	}
	if tail := utf8.RuneCountInString(text[lastByte:]); tail > 0 {
		spans = append(spans, Span{Start: lastRune, End: lastRune + tail, Kind: Plain})
	}
	return spans
}

// standsAlone reports whether text[start:end] is not joined to a
// neighbouring identifier rune. The regexp \b only knows ASCII word
// characters, and Kotlin identifiers may hold any letter.
func standsAlone(text string, start, end int) bool {
	if r, _ := utf8.DecodeLastRuneInString(text[:start]); start > 0 && isIdentRune(r) {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(text[end:]); end < len(text) && isIdentRune(r) {
		return false
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func kindOf(m []int) Kind {
	switch {
	case m[2*keywordGroup] >= 0:
		return Keyword
	case m[2*stringGroup] >= 0:
		return String
	case m[2*commentGroup] >= 0:
		return Comment
	default:
		return Plain
	}
}
