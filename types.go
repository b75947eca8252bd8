// Package pdxscript defines the core data structures for Paradox script parsing.
package pdxscript

// Kind identifies the variant of a Value.
type Kind int

const (
	KindIdent Kind = iota
	KindRef
	KindNumber
	KindPercent
	KindBool
	KindHexColor
	KindString
	KindList
	KindTable
)

var kindNames = [...]string{
	KindIdent:    "identifier",
	KindRef:      "reference",
	KindNumber:   "number",
	KindPercent:  "percent",
	KindBool:     "boolean",
	KindHexColor: "hex color",
	KindString:   "string",
	KindList:     "list",
	KindTable:    "table",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Node is anything the printer can render: every Value, *Operator and Ops.
type Node interface {
	print(p *printer, indent int)
}

// Value represents any script value. The set of implementations is closed:
// Ident, Ref, Number, Percent, Bool, HexColor, String, List and Table.
type Value interface {
	Node
	Kind() Kind
	isValue()
}

// Ident is a bare word. As a value it names another identifier.
type Ident string

// Ref is an @-prefixed indirect reference, stored without the prefix.
type Ref string

// Number is a decimal literal with an optional leading minus.
type Number float32

// Percent is a decimal literal followed by one or more '%'.
type Percent float32

// Bool is the keyword yes or no.
type Bool bool

// HexColor holds the 8 hex digits of a 0x literal, case preserved.
type HexColor string

// String is a double-quoted literal taken verbatim.
type String string

// List is a brace-delimited sequence of bare values.
type List []Value

// Table is a brace-delimited sequence of statements.
type Table []*Operator

// Ops is a statement sequence without enclosing braces, such as a whole file.
type Ops []*Operator

func (Ident) Kind() Kind    { return KindIdent }
func (Ref) Kind() Kind      { return KindRef }
func (Number) Kind() Kind   { return KindNumber }
func (Percent) Kind() Kind  { return KindPercent }
func (Bool) Kind() Kind     { return KindBool }
func (HexColor) Kind() Kind { return KindHexColor }
func (String) Kind() Kind   { return KindString }
func (List) Kind() Kind     { return KindList }
func (Table) Kind() Kind    { return KindTable }

func (Ident) isValue()    {}
func (Ref) isValue()      {}
func (Number) isValue()   {}
func (Percent) isValue()  {}
func (Bool) isValue()     {}
func (HexColor) isValue() {}
func (String) isValue()   {}
func (List) isValue()     {}
func (Table) isValue()    {}

// Comparator separates a statement's key from its value.
type Comparator int

const (
	None Comparator = iota
	Equals
	Less
	Greater
)

// String returns the comparator symbol, or "" for None.
func (c Comparator) String() string {
	switch c {
	case Equals:
		return "="
	case Less:
		return "<"
	case Greater:
		return ">"
	default:
		return ""
	}
}

// Operator is a single key [comparator] value statement. Key is always an
// Ident or a Ref.
type Operator struct {
	Key        Value
	Comparator Comparator
	Value      Value
}

// Name returns the key's text. Ref keys are returned without the '@'.
func (op *Operator) Name() string {
	switch k := op.Key.(type) {
	case Ident:
		return string(k)
	case Ref:
		return string(k)
	default:
		return ""
	}
}

// Scope is implemented by nodes whose children are statements.
type Scope interface {
	statements() []*Operator
}

func (t Table) statements() []*Operator { return t }
func (o Ops) statements() []*Operator   { return o }

// statements of an Operator are the entries of its Table value, if any.
func (op *Operator) statements() []*Operator {
	if op == nil {
		return nil
	}
	if t, ok := op.Value.(Table); ok {
		return t
	}
	return nil
}
