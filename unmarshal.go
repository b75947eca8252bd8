package pdxscript

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Unmarshal parses a script document and stores the result in the value
// pointed to by v. If v is not a pointer to a struct, Unmarshal returns an
// error.
//
// Unmarshal uses struct tags to determine how to map script keys to struct
// fields:
//   - `pdx:"key"` - maps script key "key" to this struct field
//   - `pdx:"key,required"` - fails when the key is absent
//   - `pdx:"-"` - ignores this field
//
// Slice fields collect every statement with the key, or the elements of a
// single List value. Struct and map fields are filled from Table values.
// Fields whose type is a Value variant receive the node unchanged.
//
// Example:
//
//	type Building struct {
//	    Cost      float32  `pdx:"cost"`
//	    Category  string   `pdx:"category"`
//	    Allow     pdxscript.Table `pdx:"allow"`
//	    Modifiers []Modifier `pdx:"modifier"`
//	}
func Unmarshal(data []byte, v any) error {
	ops, err := ParseOps(string(data))
	if err != nil {
		return err
	}
	return Decode(ops, v)
}

// Decode fills the struct pointed to by v from the statements of s.
func Decode(s Scope, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer")
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to struct")
	}

	return decodeStruct(Children(s), elem)
}

// decodeStruct fills a struct value from statements.
func decodeStruct(ops []*Operator, v reflect.Value) error {
	t := v.Type()
	scope := Table(ops)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		tag := field.Tag.Get("pdx")
		if tag == "-" {
			continue
		}

		tagName, opts := parseTag(tag)
		if tagName == "" {
			tagName = strings.ToLower(field.Name)
		}

		matches := LookupAll(scope, tagName)
		if len(matches) == 0 {
			if hasOption(opts, "required") {
				return fmt.Errorf("required key %s not found", tagName)
			}
			continue
		}

		if err := setStatements(fieldValue, matches); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// setStatements decodes the statements sharing one key into a field.
// Only slices take more than the first statement.
func setStatements(field reflect.Value, ops []*Operator) error {
	if field.Kind() != reflect.Slice || assignable(field, ops[0].Value) {
		return setField(field, ops[0].Value)
	}
	if len(ops) == 1 {
		if _, ok := ops[0].Value.(List); ok {
			return setField(field, ops[0].Value)
		}
	}
	slice := reflect.MakeSlice(field.Type(), len(ops), len(ops))
	for i, op := range ops {
		if err := setField(slice.Index(i), op.Value); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	field.Set(slice)
	return nil
}

func assignable(field reflect.Value, value Value) bool {
	return value != nil && reflect.TypeOf(value).AssignableTo(field.Type())
}

// setField sets a reflect.Value from a single script value.
func setField(field reflect.Value, value Value) error {
	if value == nil {
		return nil
	}

	if assignable(field, value) {
		field.Set(reflect.ValueOf(value))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		return setString(field, value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(field, value)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(field, value)
	case reflect.Float32, reflect.Float64:
		return setFloat(field, value)
	case reflect.Bool:
		return setBool(field, value)
	case reflect.Slice:
		return setSlice(field, value)
	case reflect.Map:
		return setMap(field, value)
	case reflect.Struct:
		return setStruct(field, value)
	case reflect.Ptr:
		return setPointer(field, value)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
}

func setString(field reflect.Value, value Value) error {
	switch v := value.(type) {
	case Ident:
		field.SetString(string(v))
	case String:
		field.SetString(string(v))
	case Ref:
		field.SetString(string(v))
	case HexColor:
		field.SetString(string(v))
	case Number, Percent, Bool:
		field.SetString(Serialize(v, 0))
	default:
		return fmt.Errorf("cannot convert %s to string", value.Kind())
	}
	return nil
}

// numeric extracts the float of a Number or Percent, or parses a quoted or
// bare token that spells a number.
func numeric(value Value) (float64, error) {
	switch v := value.(type) {
	case Number:
		return float64(v), nil
	case Percent:
		return float64(v), nil
	case String:
		return strconv.ParseFloat(string(v), 64)
	case Ident:
		return strconv.ParseFloat(string(v), 64)
	default:
		return 0, fmt.Errorf("cannot convert %s to number", value.Kind())
	}
}

func setInt(field reflect.Value, value Value) error {
	f, err := numeric(value)
	if err != nil {
		return err
	}
	if f != float64(int64(f)) {
		return fmt.Errorf("cannot convert %v to int without truncation", f)
	}
	if field.OverflowInt(int64(f)) {
		return fmt.Errorf("%v overflows %s", f, field.Type())
	}
	field.SetInt(int64(f))
	return nil
}

func setUint(field reflect.Value, value Value) error {
	f, err := numeric(value)
	if err != nil {
		return err
	}
	if f < 0 || f != float64(uint64(f)) {
		return fmt.Errorf("cannot convert %v to uint", f)
	}
	if field.OverflowUint(uint64(f)) {
		return fmt.Errorf("%v overflows %s", f, field.Type())
	}
	field.SetUint(uint64(f))
	return nil
}

func setFloat(field reflect.Value, value Value) error {
	f, err := numeric(value)
	if err != nil {
		return err
	}
	field.SetFloat(f)
	return nil
}

func setBool(field reflect.Value, value Value) error {
	switch v := value.(type) {
	case Bool:
		field.SetBool(bool(v))
	case String:
		b, err := parseBool(string(v))
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("cannot convert %s to bool", value.Kind())
	}
	return nil
}

func setSlice(field reflect.Value, value Value) error {
	list, ok := value.(List)
	if !ok {
		// A lone scalar decodes as a one-element slice.
		list = List{value}
	}
	slice := reflect.MakeSlice(field.Type(), len(list), len(list))
	for i, item := range list {
		if err := setField(slice.Index(i), item); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	field.Set(slice)
	return nil
}

// setMap fills a string-keyed map from a Table. Repeated keys keep the first
// statement, matching Lookup.
func setMap(field reflect.Value, value Value) error {
	table, ok := value.(Table)
	if !ok {
		return fmt.Errorf("cannot convert %s to map", value.Kind())
	}
	if field.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("map key must be a string kind, got %s", field.Type().Key())
	}
	m := reflect.MakeMapWithSize(field.Type(), len(table))
	for _, op := range table {
		key := reflect.ValueOf(op.Name()).Convert(field.Type().Key())
		if m.MapIndex(key).IsValid() {
			continue
		}
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := setField(elem, op.Value); err != nil {
			return fmt.Errorf("key %s: %w", op.Name(), err)
		}
		m.SetMapIndex(key, elem)
	}
	field.Set(m)
	return nil
}

func setStruct(field reflect.Value, value Value) error {
	table, ok := value.(Table)
	if !ok {
		return fmt.Errorf("cannot convert %s to struct", value.Kind())
	}
	return decodeStruct(table, field)
}

func setPointer(field reflect.Value, value Value) error {
	ptr := reflect.New(field.Type().Elem())
	if err := setField(ptr.Elem(), value); err != nil {
		return err
	}
	field.Set(ptr)
	return nil
}

// Helper functions

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true":
		return true, nil
	case "no", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value: %s", s)
	}
}
