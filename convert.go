package pdxscript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ToJSON renders the statements of s as an indented JSON object. See Plain
// for the mapping.
func ToJSON(s Scope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plainOps(Children(s))); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// ToYAML renders the statements of s as a YAML mapping. See Plain for the
// mapping.
func ToYAML(s Scope) ([]byte, error) {
	data, err := yaml.Marshal(plainOps(Children(s)))
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return data, nil
}

// Plain converts v to ordinary Go values for export:
//   - Ident and String become strings, Ref becomes "@name", HexColor "0x…"
//   - Number becomes float64, Percent a string such as "42%"
//   - Bool becomes bool, List becomes []any
//   - Table becomes an ordered mapping; a repeated key collects its values
//     into a sequence, and a "<" or ">" comparator wraps the value as
//     {"<": value}
func Plain(v Value) any {
	switch v := v.(type) {
	case Ident:
		return string(v)
	case Ref:
		return "@" + string(v)
	case Number:
		f, _ := strconv.ParseFloat(formatFloat(float32(v)), 64)
		return f
	case Percent:
		return formatFloat(float32(v)) + "%"
	case Bool:
		return bool(v)
	case HexColor:
		return "0x" + string(v)
	case String:
		return string(v)
	case List:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Plain(e)
		}
		return out
	case Table:
		return plainOps(v)
	default:
		return nil
	}
}

func plainOps(ops []*Operator) orderedMap {
	m := orderedMap{}
	index := make(map[string]int)
	counts := make(map[string]int)
	for _, op := range ops {
		key := Serialize(op.Key, 0)
		val := Plain(op.Value)
		if op.Comparator == Less || op.Comparator == Greater {
			val = orderedMap{{Key: op.Comparator.String(), Value: val}}
		}
		i, seen := index[key]
		if !seen {
			index[key] = len(m)
			counts[key] = 1
			m = append(m, field{Key: key, Value: val})
			continue
		}
		if counts[key] == 1 {
			m[i].Value = []any{m[i].Value}
		}
		counts[key]++
		m[i].Value = append(m[i].Value.([]any), val)
	}
	return m
}

type field struct {
	Key   string
	Value any
}

// orderedMap keeps statement order through JSON and YAML encoding.
type orderedMap []field

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalJSON(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := marshalJSON(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalJSON encodes without escaping '<' and '>', which comparators use.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (m orderedMap) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range m {
		var k, v yaml.Node
		if err := k.Encode(f.Key); err != nil {
			return nil, err
		}
		if err := v.Encode(f.Value); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &k, &v)
	}
	return n, nil
}
