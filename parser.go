// Package pdxscript parses the Paradox script format into an ordered tree
// of statements and prints trees back into script text.
package pdxscript

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Parser provides configurable parsing functionality. A Parser holds no
// per-call state and may be shared between goroutines.
type Parser struct {
	logger     *slog.Logger
	maxDepth   int
	tableFirst bool
}

// NewParser creates a new Parser with default configuration: unbounded
// nesting, and brace blocks tried as tables before lists.
func NewParser() *Parser {
	return &Parser{tableFirst: true}
}

// WithLogger configures a logger for debug tracing. nil disables logging.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	p.logger = logger
	return p
}

// WithMaxDepth bounds how deeply braces may nest. Zero means unbounded.
// Callers handling untrusted input should set a limit.
func (p *Parser) WithMaxDepth(n int) *Parser {
	p.maxDepth = n
	return p
}

// WithTableFirst selects which shape a brace block is tried as first when
// its content would match both a table and a list, e.g. "{ a b }".
func (p *Parser) WithTableFirst(tableFirst bool) *Parser {
	p.tableFirst = tableFirst
	return p
}

var defaultParser = NewParser()

// ParseTable parses a brace-delimited table using the default Parser.
func ParseTable(text string) (Table, error) { return defaultParser.ParseTable(text) }

// ParseOp parses a single "key comparator value" statement using the default Parser.
func ParseOp(text string) (*Operator, error) { return defaultParser.ParseOp(text) }

// ParseOps parses a statement sequence without enclosing braces using the default Parser.
func ParseOps(text string) (Ops, error) { return defaultParser.ParseOps(text) }

// ParseValue parses a single value using the default Parser.
func ParseValue(text string) (Value, error) { return defaultParser.ParseValue(text) }

// ParseTable parses text that consists of exactly one table.
func (p *Parser) ParseTable(text string) (Table, error) {
	g := p.newGrammar(text)
	g.skipDelims()
	t, ok := g.table()
	if !ok || !g.atEnd() {
		return nil, g.failure("table")
	}
	p.log(slog.LevelDebug, "parsed table", slog.Int("statements", len(t)))
	return t, nil
}

// ParseOp parses text that consists of exactly one statement.
func (p *Parser) ParseOp(text string) (*Operator, error) {
	g := p.newGrammar(text)
	op, ok := g.op()
	if !ok || !g.atEnd() {
		return nil, g.failure("statement")
	}
	p.log(slog.LevelDebug, "parsed statement", slog.String("key", op.Name()))
	return op, nil
}

// ParseOps parses a sequence of statements, such as a whole script file.
func (p *Parser) ParseOps(text string) (Ops, error) {
	g := p.newGrammar(text)
	ops := g.ops()
	if !g.atEnd() {
		return nil, g.failure("statements")
	}
	p.log(slog.LevelDebug, "parsed statements",
		slog.Int("statements", len(ops)),
		slog.Int("bytes", len(text)))
	return Ops(ops), nil
}

// ParseValue parses text that consists of exactly one value of any kind.
func (p *Parser) ParseValue(text string) (Value, error) {
	g := p.newGrammar(text)
	v, ok := g.anyValue()
	if !ok || !g.atEnd() {
		return nil, g.failure("value")
	}
	return v, nil
}

// ParseReader reads r to the end and parses it as a statement sequence.
func (p *Parser) ParseReader(r io.Reader) (Ops, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return p.ParseOps(string(data))
}

func (p *Parser) log(level slog.Level, msg string, attrs ...slog.Attr) {
	if p.logger == nil {
		return
	}
	p.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

const bom = "\uFEFF"

// grammar holds the state of one parse call.
type grammar struct {
	*cursor
	p     *Parser
	depth int
	memo  map[memoKey]memoEntry
}

func (p *Parser) newGrammar(text string) *grammar {
	c := newCursor(text)
	// Game files are commonly saved with a UTF-8 byte order mark.
	if strings.HasPrefix(text, bom) {
		c.pos = len(bom)
	}
	return &grammar{cursor: c, p: p, memo: make(map[memoKey]memoEntry)}
}

// atEnd skips trailing delimiters and reports whether all input was consumed.
func (g *grammar) atEnd() bool {
	g.skipDelims()
	if !g.eof() {
		g.expect(g.pos, expectEOF)
		return false
	}
	return true
}

func (g *grammar) failure(production string) *ParseError {
	at := g.failAt
	if at < 0 {
		at = g.pos
	}
	msg := "unexpected end of input"
	if at < len(g.src) {
		r, _ := utf8.DecodeRuneInString(g.src[at:])
		msg = fmt.Sprintf("unexpected %q", r)
	}
	line, col := position(g.src, at)
	err := &ParseError{
		Message:   fmt.Sprintf("parse %s: %s", production, msg),
		Expected:  append([]string(nil), g.expected...),
		Remainder: g.src[at:],
		Offset:    at,
		Line:      line,
		Column:    col,
	}
	g.p.log(slog.LevelDebug, "parse failed",
		slog.String("production", production),
		slog.Int("line", line),
		slog.Int("column", col))
	return err
}

// anyValue matches a scalar, or failing that a table or list.
func (g *grammar) anyValue() (Value, bool) {
	start := g.pos
	g.skipDelims()
	v, ok := g.scalar()
	if !ok {
		v, ok = g.container()
	}
	if !ok {
		g.pos = start
		return nil, false
	}
	g.skipDelims()
	return v, true
}

// container tries both brace shapes; the first that matches wins.
func (g *grammar) container() (Value, bool) {
	first, second := true, false
	if !g.p.tableFirst {
		first, second = false, true
	}
	if v, ok := g.shape(first); ok {
		return v, true
	}
	return g.shape(second)
}

// memoKey identifies one container attempt. The result only depends on the
// nesting depth when a depth limit is set.
type memoKey struct {
	start int
	depth int
	table bool
}

type memoEntry struct {
	v   Value
	end int
	ok  bool
}

// shape matches a table or a list at the current offset, reusing the result
// of an earlier attempt at the same offset. Expectations were recorded by
// that attempt, so a replay leaves the failure state as it would be.
func (g *grammar) shape(table bool) (Value, bool) {
	key := memoKey{start: g.pos, table: table}
	if g.p.maxDepth > 0 {
		key.depth = g.depth
	}
	if e, hit := g.memo[key]; hit {
		if e.ok {
			g.pos = e.end
		}
		return e.v, e.ok
	}

	var (
		v  Value
		ok bool
	)
	if table {
		if t, matched := g.table(); matched {
			v, ok = t, true
		}
	} else if l, matched := g.list(); matched {
		v, ok = l, true
	}
	g.memo[key] = memoEntry{v: v, end: g.pos, ok: ok}
	return v, ok
}

// enter opens a brace block, enforcing the depth limit.
func (g *grammar) enter() bool {
	if g.peek() == '{' && g.p.maxDepth > 0 && g.depth >= g.p.maxDepth {
		g.expect(g.pos, fmt.Sprintf("nesting depth at most %d", g.p.maxDepth))
		return false
	}
	if !g.char('{', expectOpen) {
		return false
	}
	g.depth++
	g.skipDelims()
	return true
}

func (g *grammar) leave() bool {
	g.depth--
	g.skipDelims()
	return g.char('}', expectClose)
}

func (g *grammar) table() (Table, bool) {
	start := g.pos
	if !g.enter() {
		return nil, false
	}
	ops := g.ops()
	if !g.leave() {
		g.pos = start
		return nil, false
	}
	return Table(ops), true
}

func (g *grammar) list() (List, bool) {
	start := g.pos
	if !g.enter() {
		return nil, false
	}
	vals := List{}
	for {
		v, ok := g.anyValue()
		if !ok {
			break
		}
		vals = append(vals, v)
	}
	if !g.leave() {
		g.pos = start
		return nil, false
	}
	return vals, true
}

// op matches key, an optional comparator, then any value.
func (g *grammar) op() (*Operator, bool) {
	start := g.pos
	g.skipDelims()
	key, ok := g.key()
	if !ok {
		g.pos = start
		return nil, false
	}
	g.skipDelims()
	cmp, _ := g.comparator()
	val, ok := g.anyValue()
	if !ok {
		g.pos = start
		return nil, false
	}
	return &Operator{Key: key, Comparator: cmp, Value: val}, true
}

func (g *grammar) ops() []*Operator {
	ops := []*Operator{}
	for {
		op, ok := g.op()
		if !ok {
			return ops
		}
		ops = append(ops, op)
	}
}
