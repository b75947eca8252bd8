package pdxscript

import "strings"

// Lookup returns the first statement in s whose Ident key equals name, or nil.
// Ref keys never match.
func Lookup(s Scope, name string) *Operator {
	if s == nil {
		return nil
	}
	for _, op := range s.statements() {
		if k, ok := op.Key.(Ident); ok && string(k) == name {
			return op
		}
	}
	return nil
}

// LookupAll returns every statement in s whose Ident key equals name, in
// source order.
func LookupAll(s Scope, name string) []*Operator {
	if s == nil {
		return nil
	}
	var found []*Operator
	for _, op := range s.statements() {
		if k, ok := op.Key.(Ident); ok && string(k) == name {
			found = append(found, op)
		}
	}
	return found
}

// Children returns the statements of s: a Table's entries, or the entries of
// an Operator's Table value. It is nil when there are none.
func Children(s Scope) []*Operator {
	if s == nil {
		return nil
	}
	return s.statements()
}

// Path follows a dot-separated chain of keys, taking the first match at each
// step. Path(s, "a.b") is Lookup(Lookup(s, "a"), "b").
func Path(s Scope, path string) *Operator {
	var op *Operator
	for _, name := range strings.Split(path, ".") {
		op = Lookup(s, name)
		if op == nil {
			return nil
		}
		s = op
	}
	return op
}

func valueOf(op *Operator) Value {
	if op == nil {
		return nil
	}
	return op.Value
}

// AsTable returns op's value when it is a Table.
func AsTable(op *Operator) (Table, bool) {
	v, ok := valueOf(op).(Table)
	return v, ok
}

// AsList returns op's value when it is a List.
func AsList(op *Operator) (List, bool) {
	v, ok := valueOf(op).(List)
	return v, ok
}

// AsFloat returns op's value when it is a Number.
func AsFloat(op *Operator) (float32, bool) {
	v, ok := valueOf(op).(Number)
	return float32(v), ok
}

// AsPercent returns op's value when it is a Percent.
func AsPercent(op *Operator) (float32, bool) {
	v, ok := valueOf(op).(Percent)
	return float32(v), ok
}

// AsBool returns op's value when it is a Bool.
func AsBool(op *Operator) (bool, bool) {
	v, ok := valueOf(op).(Bool)
	return bool(v), ok
}

// AsString returns op's value when it is a quoted String.
func AsString(op *Operator) (string, bool) {
	v, ok := valueOf(op).(String)
	return string(v), ok
}

// AsIdent returns op's value when it is a bare Ident.
func AsIdent(op *Operator) (string, bool) {
	v, ok := valueOf(op).(Ident)
	return string(v), ok
}

// AsRef returns the referenced name when op's value is a Ref.
func AsRef(op *Operator) (string, bool) {
	v, ok := valueOf(op).(Ref)
	return string(v), ok
}

// AsHexColor returns the hex digits when op's value is a HexColor.
func AsHexColor(op *Operator) (string, bool) {
	v, ok := valueOf(op).(HexColor)
	return string(v), ok
}

// The ...Of accessors look up the first statement named name in s and
// convert its value like the matching As... function.
func TableOf(s Scope, name string) (Table, bool)     { return AsTable(Lookup(s, name)) }
func ListOf(s Scope, name string) (List, bool)       { return AsList(Lookup(s, name)) }
func FloatOf(s Scope, name string) (float32, bool)   { return AsFloat(Lookup(s, name)) }
func PercentOf(s Scope, name string) (float32, bool) { return AsPercent(Lookup(s, name)) }
func BoolOf(s Scope, name string) (bool, bool)       { return AsBool(Lookup(s, name)) }
func StringOf(s Scope, name string) (string, bool)   { return AsString(Lookup(s, name)) }
func IdentOf(s Scope, name string) (string, bool)    { return AsIdent(Lookup(s, name)) }
func RefOf(s Scope, name string) (string, bool)      { return AsRef(Lookup(s, name)) }
func HexColorOf(s Scope, name string) (string, bool) { return AsHexColor(Lookup(s, name)) }

// Map applies fn to every element of in.
func Map[P, T any](in []P, fn func(P) T) []T {
	out := make([]T, 0, len(in))
	for _, p := range in {
		out = append(out, fn(p))
	}
	return out
}
