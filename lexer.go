package pdxscript

import (
	"strconv"
	"strings"
)

// Names used in ParseError.Expected.
const (
	expectHexColor   = "hex color"
	expectPercent    = "percent"
	expectNumber     = "number"
	expectBool       = "yes or no"
	expectString     = "string"
	expectQuote      = `'"'`
	expectIdent      = "identifier"
	expectRef        = "reference"
	expectComparator = "comparator"
	expectOpen       = "'{'"
	expectClose      = "'}'"
	expectEOF        = "end of input"
)

// cursor is the per-call scanning state. Recognizers either consume a whole
// token and report success, or leave pos untouched and record what they
// expected at the furthest position reached so far.
type cursor struct {
	src      string
	pos      int
	failAt   int
	expected []string
}

func newCursor(src string) *cursor {
	return &cursor{src: src, failAt: -1}
}

func (c *cursor) eof() bool { return c.pos >= len(c.src) }

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

// expect records a failed expectation at offset at.
func (c *cursor) expect(at int, what string) {
	if at < c.failAt {
		return
	}
	if at > c.failAt {
		c.failAt = at
		c.expected = c.expected[:0]
	}
	for _, e := range c.expected {
		if e == what {
			return
		}
	}
	c.expected = append(c.expected, what)
}

// skipDelims consumes spaces, tabs, line breaks and '#' comments. It never fails.
func (c *cursor) skipDelims() {
	for c.pos < len(c.src) {
		switch c.src[c.pos] {
		case ' ', '\t', '\r', '\n':
			c.pos++
		case '#':
			for c.pos < len(c.src) && c.src[c.pos] != '\n' && c.src[c.pos] != '\r' {
				c.pos++
			}
		default:
			return
		}
	}
}

// HasComments reports whether text contains a '#' comment. A '#' inside a
// quoted string is not a comment.
func HasComments(text string) bool {
	quoted := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			quoted = !quoted
		case '#':
			if !quoted {
				return true
			}
		}
	}
	return false
}

func isIdentByte(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

func isHexByte(b byte) bool {
	return (b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'f') ||
		(b >= 'A' && b <= 'F')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// boundary reports whether a token ending at i is not glued to a following
// identifier byte.
func (c *cursor) boundary(i int) bool {
	return i >= len(c.src) || !isIdentByte(c.src[i])
}

// scanDecimal matches digits ("." digits)? starting at i and returns the end offset.
func scanDecimal(s string, i int) (int, bool) {
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return start, false
	}
	if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	return i, true
}

// parseMagnitude parses an unsigned decimal as float32, applying neg afterwards.
// Literals that overflow float32 are rejected.
func parseMagnitude(text string, neg bool) (float32, bool) {
	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return float32(f), true
}

func (c *cursor) hexColor() (HexColor, bool) {
	if !strings.HasPrefix(c.src[c.pos:], "0x") {
		c.expect(c.pos, expectHexColor)
		return "", false
	}
	start := c.pos + 2
	end := start
	for end < len(c.src) && end-start < 8 && isHexByte(c.src[end]) {
		end++
	}
	if end-start != 8 || !c.boundary(end) {
		c.expect(c.pos, expectHexColor)
		return "", false
	}
	c.pos = end
	return HexColor(c.src[start:end]), true
}

func (c *cursor) percent() (Percent, bool) {
	i := c.pos
	neg := i < len(c.src) && c.src[i] == '-'
	if neg {
		i++
	}
	end, ok := scanDecimal(c.src, i)
	if !ok || end >= len(c.src) || c.src[end] != '%' {
		c.expect(c.pos, expectPercent)
		return 0, false
	}
	f, ok := parseMagnitude(c.src[i:end], neg)
	if !ok {
		c.expect(c.pos, expectPercent)
		return 0, false
	}
	for end < len(c.src) && c.src[end] == '%' {
		end++
	}
	c.pos = end
	return Percent(f), true
}

func (c *cursor) number() (Number, bool) {
	i := c.pos
	neg := i < len(c.src) && c.src[i] == '-'
	if neg {
		i++
	}
	end, ok := scanDecimal(c.src, i)
	if !ok || !c.boundary(end) {
		c.expect(c.pos, expectNumber)
		return 0, false
	}
	f, ok := parseMagnitude(c.src[i:end], neg)
	if !ok {
		c.expect(c.pos, expectNumber)
		return 0, false
	}
	c.pos = end
	return Number(f), true
}

func (c *cursor) boolean() (Bool, bool) {
	rest := c.src[c.pos:]
	switch {
	case strings.HasPrefix(rest, "yes") && c.boundary(c.pos+3):
		c.pos += 3
		return true, true
	case strings.HasPrefix(rest, "no") && c.boundary(c.pos+2):
		c.pos += 2
		return false, true
	}
	c.expect(c.pos, expectBool)
	return false, false
}

func (c *cursor) str() (String, bool) {
	if c.peek() != '"' {
		c.expect(c.pos, expectString)
		return "", false
	}
	end := strings.IndexByte(c.src[c.pos+1:], '"')
	if end < 0 {
		c.expect(len(c.src), expectQuote)
		return "", false
	}
	s := c.src[c.pos+1 : c.pos+1+end]
	c.pos += end + 2
	return String(s), true
}

func (c *cursor) identRun(i int) int {
	for i < len(c.src) && isIdentByte(c.src[i]) {
		i++
	}
	return i
}

func (c *cursor) ident() (Ident, bool) {
	end := c.identRun(c.pos)
	if end == c.pos {
		c.expect(c.pos, expectIdent)
		return "", false
	}
	s := c.src[c.pos:end]
	c.pos = end
	return Ident(s), true
}

func (c *cursor) ref() (Ref, bool) {
	if c.peek() != '@' {
		c.expect(c.pos, expectRef)
		return "", false
	}
	end := c.identRun(c.pos + 1)
	if end == c.pos+1 {
		c.expect(c.pos+1, expectIdent)
		return "", false
	}
	s := c.src[c.pos+1 : end]
	c.pos = end
	return Ref(s), true
}

// key matches an Identifier or a Reference.
func (c *cursor) key() (Value, bool) {
	if id, ok := c.ident(); ok {
		return id, true
	}
	if r, ok := c.ref(); ok {
		return r, true
	}
	return nil, false
}

// comparator matches a single '=', '<' or '>'.
func (c *cursor) comparator() (Comparator, bool) {
	switch c.peek() {
	case '=':
		c.pos++
		return Equals, true
	case '<':
		c.pos++
		return Less, true
	case '>':
		c.pos++
		return Greater, true
	}
	c.expect(c.pos, expectComparator)
	return None, false
}

func (c *cursor) char(b byte, what string) bool {
	if c.peek() != b || c.eof() {
		c.expect(c.pos, what)
		return false
	}
	c.pos++
	return true
}

// scalar tries the leaf recognizers in precedence order: hex color, percent,
// number, boolean, string, then identifier or reference.
func (c *cursor) scalar() (Value, bool) {
	if v, ok := c.hexColor(); ok {
		return v, true
	}
	if v, ok := c.percent(); ok {
		return v, true
	}
	if v, ok := c.number(); ok {
		return v, true
	}
	if v, ok := c.boolean(); ok {
		return v, true
	}
	if v, ok := c.str(); ok {
		return v, true
	}
	return c.key()
}
