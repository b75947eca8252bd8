package pdxscript

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrSyntax is wrapped by every *ParseError.
var ErrSyntax = errors.New("syntax error")

// ParseError reports where and why the grammar failed to match. It is
// positioned at the furthest point any alternative reached.
type ParseError struct {
	Message   string
	Expected  []string
	Remainder string
	Offset    int // byte offset into the input
	Line      int
	Column    int // 1-based, in runes
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%d: %s", e.Line, e.Column, e.Message)
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, " (expected %s)", strings.Join(e.Expected, ", "))
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

// position converts a byte offset into a 1-based line and column. The column
// counts runes, and "\r\n" counts as one line break.
func position(src string, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(src); i++ {
		switch src[i] {
		case '\n':
			line++
			col = 1
		case '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				continue
			}
			line++
			col = 1
		default:
			if utf8.RuneStart(src[i]) {
				col++
			}
		}
	}
	return line, col
}
