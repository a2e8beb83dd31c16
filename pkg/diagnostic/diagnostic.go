// Package diagnostic recognises interpreter error lines that point back
// into the script, in the form
//
//	script.kts:12:5: error: unresolved reference: foo
//
// Lines of any other shape are plain output.
package diagnostic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultSuffix is the script file suffix recognised by Parse.
const DefaultSuffix = ".kts"

// errorMarker is the weaker substring trigger for the "error detected"
// status. It deliberately ignores the location prefix.
const errorMarker = "error:"

// Kind discriminates an Entry.
type Kind int

const (
	Plain Kind = iota
	Diagnostic
)

func (k Kind) String() string {
	if k == Diagnostic {
		return "diagnostic"
	}
	return "plain"
}

// Entry is the classification of one output line. Line and Column are
// 1-based and only meaningful for Diagnostic entries.
type Entry struct {
	Kind    Kind
	Text    string
	Line    int
	Column  int
	Message string
}

// IsDiagnostic reports whether the entry carries a source location.
func (e Entry) IsDiagnostic() bool {
	return e.Kind == Diagnostic
}

// Parser matches diagnostics for scripts with a given file suffix.
type Parser struct {
	re *regexp.Regexp
}

// NewParser builds a parser for file names ending in suffix (for
// example ".kts"). The bare name "script" is always accepted.
func NewParser(suffix string) *Parser {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	expr := fmt.Sprintf(`^(?:.*%s|script):(\d+):(\d+): error: (.*)$`, regexp.QuoteMeta(suffix))
	return &Parser{re: regexp.MustCompile(expr)}
}

var defaultParser = NewParser(DefaultSuffix)

// Parse classifies line with the default ".kts" parser.
func Parse(line string) Entry {
	return defaultParser.Parse(line)
}

// Parse classifies one trimmed output line.
func (p *Parser) Parse(line string) Entry {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return Entry{Kind: Plain, Text: line}
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return Entry{Kind: Plain, Text: line}
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return Entry{Kind: Plain, Text: line}
	}
	return Entry{
		Kind:    Diagnostic,
		Text:    line,
		Line:    row,
		Column:  col,
		Message: m[3],
	}
}

// ContainsErrorMarker reports whether the raw line mentions "error:"
// anywhere, whether or not it is a well-formed diagnostic.
func ContainsErrorMarker(line string) bool {
	return strings.Contains(line, errorMarker)
}
