package pdxscript

// MergeStrategy selects how an overlay's statements combine with a base.
type MergeStrategy string

const (
	// MergeReplace swaps every base statement with a key the overlay also
	// defines for the overlay's statements with that key.
	MergeReplace MergeStrategy = "replace"
	// MergeDeep is MergeReplace, except that a key defined once in the
	// overlay merges into the base value when both are tables or both lists.
	MergeDeep MergeStrategy = "deep"
	// MergeAppend keeps everything: base statements, then overlay statements.
	MergeAppend MergeStrategy = "append"
)

// ListStrategy selects how two lists combine under MergeDeep.
type ListStrategy string

const (
	ListAppend  ListStrategy = "append"
	ListReplace ListStrategy = "replace"
	ListUnique  ListStrategy = "unique"
)

// MergeOptions configures Merge. The zero value means MergeDeep with ListAppend.
type MergeOptions struct {
	Strategy MergeStrategy
	Lists    ListStrategy
}

// Merge combines base and overlay the way a mod file overrides a game file.
// Base order is kept; overlay statements with new keys follow. Neither input
// is modified, although the result shares unchanged nodes with them.
func Merge(base, overlay Ops, opts MergeOptions) Ops {
	if opts.Strategy == "" {
		opts.Strategy = MergeDeep
	}
	if opts.Lists == "" {
		opts.Lists = ListAppend
	}
	return Ops(opts.merge(base, overlay))
}

type keyID struct {
	kind Kind
	name string
}

func keyOf(op *Operator) keyID {
	return keyID{kind: op.Key.Kind(), name: op.Name()}
}

func (m MergeOptions) merge(base, overlay []*Operator) []*Operator {
	out := make([]*Operator, 0, len(base)+len(overlay))
	if m.Strategy == MergeAppend {
		out = append(out, base...)
		return append(out, overlay...)
	}

	byKey := make(map[keyID][]*Operator)
	for _, op := range overlay {
		k := keyOf(op)
		byKey[k] = append(byKey[k], op)
	}

	inBase := make(map[keyID]bool)
	for _, op := range base {
		k := keyOf(op)
		over, ok := byKey[k]
		if !ok {
			out = append(out, op)
			continue
		}
		if inBase[k] {
			continue
		}
		inBase[k] = true
		if m.Strategy == MergeDeep && len(over) == 1 {
			out = append(out, &Operator{
				Key:        over[0].Key,
				Comparator: over[0].Comparator,
				Value:      m.mergeValues(op.Value, over[0].Value),
			})
			continue
		}
		out = append(out, over...)
	}

	for _, op := range overlay {
		if !inBase[keyOf(op)] {
			out = append(out, op)
		}
	}
	return out
}

func (m MergeOptions) mergeValues(base, overlay Value) Value {
	switch b := base.(type) {
	case Table:
		if o, ok := overlay.(Table); ok {
			return Table(m.merge(b, o))
		}
	case List:
		if o, ok := overlay.(List); ok {
			return m.mergeLists(b, o)
		}
	}
	return overlay
}

func (m MergeOptions) mergeLists(base, overlay List) List {
	switch m.Lists {
	case ListReplace:
		return overlay
	case ListUnique:
		return uniqueList(base, overlay)
	default:
		out := make(List, 0, len(base)+len(overlay))
		out = append(out, base...)
		return append(out, overlay...)
	}
}

// uniqueList concatenates lists, dropping elements that print identically
// to an earlier one.
func uniqueList(lists ...List) List {
	seen := make(map[string]bool)
	out := List{}
	for _, l := range lists {
		for _, v := range l {
			text := Serialize(v, 0)
			if seen[text] {
				continue
			}
			seen[text] = true
			out = append(out, v)
		}
	}
	return out
}
