package pdxscript

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	p := NewParser()
	require.NotNil(t, p)
	assert.True(t, p.tableFirst)
	assert.Zero(t, p.maxDepth)
}

func TestParseValue_Scalars(t *testing.T) {
	tests := []struct {
		input string
		want  Value
	}{
		{"-12.5", Number(-12.5)},
		{"7", Number(7)},
		{"0.25", Number(0.25)},
		{"42%", Percent(42)},
		{"42%%", Percent(42)},
		{"-5.5%", Percent(-5.5)},
		{"yes", Bool(true)},
		{"no", Bool(false)},
		{`"hello world"`, String("hello world")},
		{`"# not a comment"`, String("# not a comment")},
		{`""`, String("")},
		{"@unit", Ref("unit")},
		{"infantry_01", Ident("infantry_01")},
		{"0x1A2B3C4D", HexColor("1A2B3C4D")},
		{"0xdeadbeef", HexColor("deadbeef")},
		{"yesterday", Ident("yesterday")},
		{"12abc", Ident("12abc")},
		{"0x1234", Ident("0x1234")},
		{"  # leading comment\n  yes  # trailing\n", Bool(true)},
	}

	for _, test := range tests {
		got, err := ParseValue(test.input)
		if !assert.NoError(t, err, "input %q", test.input) {
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ParseValue(%q) mismatch (-want +got):\n%s", test.input, diff)
		}
	}
}

func TestParseValue_HexColorIsNeverAnIdent(t *testing.T) {
	v, err := ParseValue("0x1A2B3C4D")
	require.NoError(t, err)
	assert.Equal(t, KindHexColor, v.Kind())
}

func TestParseOp_Comparators(t *testing.T) {
	tests := []struct {
		input string
		cmp   Comparator
		value Value
	}{
		{"flag = yes", Equals, Bool(true)},
		{"count > 5", Greater, Number(5)},
		{"count < 5", Less, Number(5)},
		{"name value", None, Ident("value")},
		{"count>5", Greater, Number(5)},
		{"@ref=1", Equals, Number(1)},
	}

	for _, test := range tests {
		op, err := ParseOp(test.input)
		require.NoError(t, err, test.input)
		assert.Equal(t, test.cmp, op.Comparator, test.input)
		assert.Equal(t, test.value, op.Value, test.input)
	}
}

func TestParseOp_Scenario(t *testing.T) {
	op, err := ParseOp("root = { a = 1 b = { 1 2 3 } }")
	require.NoError(t, err)

	want := &Operator{
		Key:        Ident("root"),
		Comparator: Equals,
		Value: Table{
			{Key: Ident("a"), Comparator: Equals, Value: Number(1)},
			{Key: Ident("b"), Comparator: Equals, Value: List{Number(1), Number(2), Number(3)}},
		},
	}
	if diff := cmp.Diff(want, op); diff != "" {
		t.Errorf("ParseOp mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOp_RefKey(t *testing.T) {
	op, err := ParseOp("@base_cost = 250")
	require.NoError(t, err)
	assert.Equal(t, Ref("base_cost"), op.Key)
	assert.Equal(t, "base_cost", op.Name())
}

func TestParseOp_RejectsLiteralKeys(t *testing.T) {
	for _, input := range []string{`"key" = 1`, "{ a = 1 } = 2", "-1 = 2"} {
		_, err := ParseOp(input)
		assert.Error(t, err, input)
	}
}

func TestParseTable_Empty(t *testing.T) {
	for _, input := range []string{"{}", "{ }", "  {\n # nothing here\n}\n"} {
		table, err := ParseTable(input)
		require.NoError(t, err, input)
		assert.Equal(t, Table{}, table, input)
	}
}

func TestParseTable_PreservesOrderAndDuplicates(t *testing.T) {
	table, err := ParseTable("{ a = 1 b = 2 a = 3 }")
	require.NoError(t, err)
	require.Len(t, table, 3)

	names := Map(table, func(op *Operator) string { return op.Name() })
	assert.Equal(t, []string{"a", "b", "a"}, names)
}

func TestParseOps_Document(t *testing.T) {
	input := `# Buildings
building_barracks = {
	cost = 150
	build_time = 30%
	color = 0xFF00FF00
	category = military
	name = "Barracks"
	potential = {
		has_tech = @tech_level
		num_of_cities > 2
	}
	tags = { infantry "light cavalry" 3 }
}

building_farm = { cost = 80 }
`

	ops, err := ParseOps(input)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	barracks := ops[0]
	assert.Equal(t, "building_barracks", barracks.Name())

	want := Table{
		{Key: Ident("cost"), Comparator: Equals, Value: Number(150)},
		{Key: Ident("build_time"), Comparator: Equals, Value: Percent(30)},
		{Key: Ident("color"), Comparator: Equals, Value: HexColor("FF00FF00")},
		{Key: Ident("category"), Comparator: Equals, Value: Ident("military")},
		{Key: Ident("name"), Comparator: Equals, Value: String("Barracks")},
		{Key: Ident("potential"), Comparator: Equals, Value: Table{
			{Key: Ident("has_tech"), Comparator: Equals, Value: Ref("tech_level")},
			{Key: Ident("num_of_cities"), Comparator: Greater, Value: Number(2)},
		}},
		{Key: Ident("tags"), Comparator: Equals, Value: List{Ident("infantry"), String("light cavalry"), Number(3)}},
	}
	if diff := cmp.Diff(want, barracks.Value); diff != "" {
		t.Errorf("building_barracks mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOps_Empty(t *testing.T) {
	for _, input := range []string{"", "   \n\t", "# just a comment"} {
		ops, err := ParseOps(input)
		require.NoError(t, err, input)
		assert.Empty(t, ops)
	}
}

func TestParseOps_ByteOrderMark(t *testing.T) {
	ops, err := ParseOps("\uFEFFa = 1\n")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "a", ops[0].Name())
}

func TestAmbiguousBlocks(t *testing.T) {
	v, err := ParseValue("{ a b }")
	require.NoError(t, err)
	assert.Equal(t, Table{{Key: Ident("a"), Comparator: None, Value: Ident("b")}}, v)

	v, err = NewParser().WithTableFirst(false).ParseValue("{ a b }")
	require.NoError(t, err)
	assert.Equal(t, List{Ident("a"), Ident("b")}, v)

	// An odd count cannot pair up, so the list shape is the only match.
	v, err = ParseValue("{ a b c }")
	require.NoError(t, err)
	assert.Equal(t, List{Ident("a"), Ident("b"), Ident("c")}, v)

	v, err = ParseValue("{ { x = 1 } {} }")
	require.NoError(t, err)
	assert.Equal(t, List{Table{{Key: Ident("x"), Comparator: Equals, Value: Number(1)}}, Table{}}, v)
}

func TestParseTable_MissingCloseBrace(t *testing.T) {
	input := "{ a = 1"
	table, err := ParseTable(input)
	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, errors.Is(err, ErrSyntax))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.NotEmpty(t, perr.Expected)
	assert.Contains(t, perr.Expected, expectClose)
	assert.Equal(t, "", perr.Remainder)
	assert.Equal(t, len(input), perr.Offset)
	assert.Equal(t, 1, perr.Line)
	assert.Equal(t, 8, perr.Column)
	assert.Contains(t, perr.Error(), "unexpected end of input")
}

func TestParseError_Position(t *testing.T) {
	_, err := ParseOps("a = 1\r\nb = \"unterminated")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, 18, perr.Column)
	assert.Equal(t, []string{expectQuote}, perr.Expected)
}

func TestParseError_ColumnCountsRunes(t *testing.T) {
	input := `a = "héllo" b = `
	_, err := ParseOps(input)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, len(input), perr.Offset)
	assert.Equal(t, 1, perr.Line)
	assert.Equal(t, 17, perr.Column)
}

func TestParseError_TrailingInput(t *testing.T) {
	_, err := ParseTable("{ a = 1 } }")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Expected, expectEOF)
	assert.Equal(t, "}", perr.Remainder)

	_, err = ParseOp("a = 1 b = 2")
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "b = 2", perr.Remainder)
}

func TestParseError_UnsupportedComparator(t *testing.T) {
	_, err := ParseOp("count >= 5")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "= 5", perr.Remainder)
}

func TestParser_MaxDepth(t *testing.T) {
	p := NewParser().WithMaxDepth(2)

	_, err := p.ParseOps("a = { b = { c = 1 } }")
	require.NoError(t, err)

	_, err = p.ParseOps("a = { b = { c = { d = 1 } } }")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Expected, "nesting depth at most 2")
	assert.True(t, strings.HasPrefix(perr.Remainder, "{ d = 1 }"))
}

func TestParser_ReadsFromReader(t *testing.T) {
	ops, err := NewParser().ParseReader(strings.NewReader("a = 1\nb = no\n"))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, Bool(false), ops[1].Value)
}

func TestParser_LogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := NewParser().WithLogger(logger)
	_, err := p.ParseOps("a = 1")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "parsed statements")
	assert.Contains(t, buf.String(), "statements=1")

	_, err = p.ParseOps("a = ")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "parse failed")
}

func TestParser_ConcurrentUse(t *testing.T) {
	p := NewParser()
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = p.ParseOps("root = { a = 1 b = { 1 2 3 } c = { x = yes } }")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

// parseWithin fails the test when parsing input takes longer than limit.
func parseWithin(t *testing.T, p *Parser, input string, limit time.Duration) (Ops, error) {
	t.Helper()
	type result struct {
		ops Ops
		err error
	}
	done := make(chan result, 1)
	go func() {
		ops, err := p.ParseOps(input)
		done <- result{ops, err}
	}()
	select {
	case r := <-done:
		return r.ops, r.err
	case <-time.After(limit):
		t.Fatalf("parse did not finish within %s", limit)
		return nil, nil
	}
}

func TestParser_DeepNestingReusesContainerAttempts(t *testing.T) {
	const depth = 40
	// Every level fails as a table at its trailing "b", then matches as a list.
	input := "x = " + strings.Repeat("{a ", depth) + "{1 2 3}" + strings.Repeat(" b}", depth)

	for _, p := range []*Parser{NewParser(), NewParser().WithTableFirst(false), NewParser().WithMaxDepth(depth + 1)} {
		ops, err := parseWithin(t, p, input, 5*time.Second)
		require.NoError(t, err)
		require.Len(t, ops, 1)

		v := ops[0].Value
		for i := 0; i < depth; i++ {
			l, ok := v.(List)
			require.True(t, ok, "level %d", i)
			require.Len(t, l, 3)
			assert.Equal(t, Ident("a"), l[0])
			assert.Equal(t, Ident("b"), l[2])
			v = l[1]
		}
		assert.Equal(t, List{Number(1), Number(2), Number(3)}, v)
	}

	_, err := parseWithin(t, NewParser(), "x = "+strings.Repeat("{a ", depth), 5*time.Second)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, len("x = ")+3*depth, perr.Offset)

	_, err = parseWithin(t, NewParser().WithMaxDepth(depth), input, 5*time.Second)
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Expected, "nesting depth at most 40")
}
