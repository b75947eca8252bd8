package pdxscript

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer renders trees as script text.
type Printer struct {
	indent        string
	percentSuffix string
}

// NewPrinter creates a Printer that indents one space per nesting level and
// suffixes percents with "%%". The parser accepts any run of '%', so the
// doubled suffix still reads back as the same Percent.
func NewPrinter() *Printer {
	return &Printer{indent: " ", percentSuffix: "%%"}
}

// WithIndent configures the text written once per nesting level.
func (pr *Printer) WithIndent(unit string) *Printer {
	pr.indent = unit
	return pr
}

// WithPercentSuffix configures the suffix written after a Percent value.
// It should be one or more '%' for the output to parse back.
func (pr *Printer) WithPercentSuffix(suffix string) *Printer {
	pr.percentSuffix = suffix
	return pr
}

// Sprint renders n as if it were nested indent levels deep.
func (pr *Printer) Sprint(n Node, indent int) string {
	p := &printer{Printer: pr}
	n.print(p, indent)
	return p.b.String()
}

// Fprint writes n to w at indentation level zero.
func (pr *Printer) Fprint(w io.Writer, n Node) error {
	if _, err := io.WriteString(w, pr.Sprint(n, 0)); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

// Serialize renders any node with the default Printer.
func Serialize(n Node, indent int) string {
	return NewPrinter().Sprint(n, indent)
}

type printer struct {
	*Printer
	b strings.Builder
}

func (p *printer) pad(indent int) {
	for i := 0; i < indent; i++ {
		p.b.WriteString(p.indent)
	}
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func (v Ident) print(p *printer, _ int)  { p.b.WriteString(string(v)) }
func (v Ref) print(p *printer, _ int)    { p.b.WriteString("@" + string(v)) }
func (v Number) print(p *printer, _ int) { p.b.WriteString(formatFloat(float32(v))) }

func (v Percent) print(p *printer, _ int) {
	p.b.WriteString(formatFloat(float32(v)))
	p.b.WriteString(p.percentSuffix)
}

func (v Bool) print(p *printer, _ int) {
	if v {
		p.b.WriteString("yes")
	} else {
		p.b.WriteString("no")
	}
}

func (v HexColor) print(p *printer, _ int) { p.b.WriteString("0x" + string(v)) }
func (v String) print(p *printer, _ int)   { p.b.WriteString(`"` + string(v) + `"`) }

// A list stays on one line; nested containers are rendered one level deeper.
func (v List) print(p *printer, indent int) {
	if len(v) == 0 {
		p.b.WriteString("{}")
		return
	}
	p.b.WriteByte('{')
	for _, e := range v {
		p.b.WriteByte(' ')
		e.print(p, indent+1)
	}
	p.b.WriteString(" }")
}

func (v Table) print(p *printer, indent int) {
	if len(v) == 0 {
		p.b.WriteString("{}")
		return
	}
	p.b.WriteByte('{')
	for _, op := range v {
		p.b.WriteByte('\n')
		op.print(p, indent+1)
	}
	p.b.WriteByte('\n')
	p.pad(indent)
	p.b.WriteByte('}')
}

func (op *Operator) print(p *printer, indent int) {
	p.pad(indent)
	op.Key.print(p, indent)
	if op.Comparator == None {
		p.b.WriteByte(' ')
	} else {
		p.b.WriteString(" " + op.Comparator.String() + " ")
	}
	op.Value.print(p, indent)
}

// A statement sequence is written one statement per line.
func (o Ops) print(p *printer, indent int) {
	for _, op := range o {
		op.print(p, indent)
		p.b.WriteByte('\n')
	}
}
