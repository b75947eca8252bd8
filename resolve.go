package pdxscript

import (
	"fmt"
	"strings"
)

// Resolver substitutes @references with the values of their definitions.
// A definition is a top-level statement of the form "@name = value".
type Resolver struct {
	vars            map[string]Value
	keepDefinitions bool
	strict          bool
}

// NewResolver creates a Resolver that drops definitions from its output and
// leaves undefined references in place.
func NewResolver() *Resolver {
	return &Resolver{vars: make(map[string]Value)}
}

// WithVars sets definitions supplied from outside the script. Definitions in
// the script take precedence.
func (r *Resolver) WithVars(vars map[string]Value) *Resolver {
	r.vars = vars
	return r
}

// WithKeepDefinitions keeps "@name = value" statements in the output.
func (r *Resolver) WithKeepDefinitions(keep bool) *Resolver {
	r.keepDefinitions = keep
	return r
}

// WithStrict makes an undefined reference an error.
func (r *Resolver) WithStrict(strict bool) *Resolver {
	r.strict = strict
	return r
}

func isDefinition(op *Operator) bool {
	_, ok := op.Key.(Ref)
	return ok && op.Comparator == Equals
}

// Resolve returns a copy of ops with every Ref value replaced by what it
// refers to. Keys are never substituted. ops is not modified.
func (r *Resolver) Resolve(ops Ops) (Ops, error) {
	res := &resolution{
		defs:   make(map[string]Value, len(r.vars)),
		done:   make(map[string]Value),
		strict: r.strict,
	}
	for name, v := range r.vars {
		res.defs[name] = v
	}
	local := make(map[string]bool)
	for _, op := range ops {
		if !isDefinition(op) {
			continue
		}
		// The first definition of a name wins.
		name := op.Name()
		if !local[name] {
			local[name] = true
			res.defs[name] = op.Value
		}
	}

	out := make(Ops, 0, len(ops))
	for _, op := range ops {
		if isDefinition(op) && !r.keepDefinitions {
			continue
		}
		v, err := res.value(op.Value)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", op.Name(), err)
		}
		out = append(out, &Operator{Key: op.Key, Comparator: op.Comparator, Value: v})
	}
	return out, nil
}

// resolution is the state of one Resolve call.
type resolution struct {
	defs   map[string]Value
	done   map[string]Value
	stack  []string
	strict bool
}

func (s *resolution) lookup(name string) (Value, error) {
	if v, ok := s.done[name]; ok {
		return v, nil
	}
	raw, ok := s.defs[name]
	if !ok {
		if s.strict {
			return nil, fmt.Errorf("undefined reference @%s", name)
		}
		return Ref(name), nil
	}
	for i, n := range s.stack {
		if n == name {
			chain := append(append([]string(nil), s.stack[i:]...), name)
			return nil, fmt.Errorf("circular reference: @%s", strings.Join(chain, " -> @"))
		}
	}

	s.stack = append(s.stack, name)
	v, err := s.value(raw)
	s.stack = s.stack[:len(s.stack)-1]
	if err != nil {
		return nil, err
	}
	s.done[name] = v
	return v, nil
}

func (s *resolution) value(v Value) (Value, error) {
	switch v := v.(type) {
	case Ref:
		return s.lookup(string(v))
	case List:
		out := make(List, len(v))
		for i, e := range v {
			r, err := s.value(e)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case Table:
		out := make(Table, len(v))
		for i, op := range v {
			r, err := s.value(op.Value)
			if err != nil {
				return nil, err
			}
			out[i] = &Operator{Key: op.Key, Comparator: op.Comparator, Value: r}
		}
		return out, nil
	default:
		return v, nil
	}
}
