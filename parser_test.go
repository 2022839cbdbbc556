// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream_test

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"testing"

	"github.com/creachadair/jstream"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/tailscale/hujson"
)

// parseAll drains a parser over input and returns the events it delivered
// and its terminal error, nil for a normal end of input.
func parseAll(t *testing.T, input string, opts *jstream.Options) ([]jstream.Event, error) {
	t.Helper()
	p, err := jstream.New(strings.NewReader(input), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()

	var evs []jstream.Event
	for {
		ev, err := p.Next()
		if err == io.EOF {
			return evs, nil
		} else if err != nil {
			return evs, err
		}
		evs = append(evs, ev)
	}
}

// transcript renders events one per line, as in Event.String.
func transcript(evs []jstream.Event) string {
	var lines []string
	for _, ev := range evs {
		lines = append(lines, ev.String())
	}
	return strings.Join(lines, "\n")
}

func TestParser(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`null`, "null"},
		{`true`, "boolean true"},
		{`false`, "boolean false"},
		{`0`, "number 0"},
		{`-15`, "number -15"},
		{`1.5`, "number 1.5"},
		{`"a b c"`, `string "a b c"`},
		{`""`, `string ""`},
		{`"a\tb c"`, `string "a\tb c"`},

		{`{}`, "start map\nend map"},
		{`[]`, "start array\nend array"},
		{`[[]]`, "start array\nstart array\nend array\nend array"},

		{`{"a":15}`, `
start map
map key "a"
number 15
end map`},

		{`{"x":null, "y":[true]}`, `
start map
map key "x"
null
map key "y"
start array
boolean true
end array
end map`},

		// The order of events is exactly the recognition order, with no
		// duplicates and no extras.
		{`[1, "x", {"k": true}]`, `
start array
number 1
string "x"
start map
map key "k"
boolean true
end map
end array`},

		{`  [ 17 ,
  "q" ]  `, `
start array
number 17
string "q"
end array`},
	}

	for _, test := range tests {
		evs, err := parseAll(t, test.input, nil)
		if err != nil {
			t.Errorf("Input: %#q\nParse failed: %v", test.input, err)
			continue
		}
		want := strings.TrimPrefix(test.want, "\n")
		if diff := cmp.Diff(want, transcript(evs)); diff != "" {
			t.Errorf("Input: %#q\nEvents: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestParserErrors(t *testing.T) {
	t.Run("Malformed", func(t *testing.T) {
		tests := []string{
			`}`,
			`]`,
			`{]`,
			`{"a":}`,
			`{"a" 1}`,
			`{15:2}`,
			`{"a":1,}`,
			`[1,]`,
			`[1 2]`,
			`[1,,2]`,
			`01`,
			`1.x`,
			`--1`,
			`nulx`,
			`truthy`,
			`"a` + "\x01" + `"`,
			`"bad \x escape"`,
			`[1] 2`,
			`{} {}`,
		}
		for _, input := range tests {
			_, err := parseAll(t, input, nil)
			var serr *jstream.SyntaxError
			if !errors.As(err, &serr) {
				t.Errorf("Input: %#q: got %v, want *SyntaxError", input, err)
				continue
			}
			if serr.Text == "" {
				t.Errorf("Input: %#q: syntax error has no diagnostic", input)
			}
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		tests := []string{
			``,
			`   `,
			`{`,
			`{"a"`,
			`{"a":`,
			`{"a":1`,
			`{"a":1,`,
			`[`,
			`[1`,
			`[1,`,
			`"abc`,
			`"abc\`,
			`"abc\u00`,
			`tru`,
			`-`,
			`12.`,
			`1e`,
			`1e+`,
		}
		for _, input := range tests {
			_, err := parseAll(t, input, nil)
			if !errors.Is(err, jstream.ErrIncomplete) {
				t.Errorf("Input: %#q: got %v, want %v", input, err, jstream.ErrIncomplete)
			}
		}
	})

	// Events recognized before a truncation point are still delivered, in
	// order, ahead of the error.
	t.Run("TruncatedTail", func(t *testing.T) {
		evs, err := parseAll(t, `[1, "x"`, nil)
		if !errors.Is(err, jstream.ErrIncomplete) {
			t.Errorf("Parse: got %v, want %v", err, jstream.ErrIncomplete)
		}
		want := "start array\nnumber 1\nstring \"x\""
		if diff := cmp.Diff(want, transcript(evs)); diff != "" {
			t.Errorf("Events: (-want, +got)\n%s", diff)
		}
	})

	t.Run("ReadError", func(t *testing.T) {
		bad := errors.New("bad disk")
		p, err := jstream.New(io.MultiReader(
			strings.NewReader(`[1,`),
			&errReader{err: bad},
		), nil)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer p.Close()
		for {
			_, err := p.Next()
			if err == nil {
				continue
			}
			if !errors.Is(err, bad) {
				t.Errorf("Next: got %v, want %v", err, bad)
			}
			break
		}
	})
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

func TestChunkSizes(t *testing.T) {
	inputs := []string{
		`[1, "x", {"k": true}]`,
		`{"long": "` + strings.Repeat("ab\\u0041", 500) + `", "n": -123456789012345678901234567890}`,
		`[0.001, 5e+9, 3.6E-4, 100000, null, [], {}]`,
		`"split ☃ escapes \n here"`,
		`12345678901234567890123456789012345678`,
	}
	for _, input := range inputs {
		want, err := parseAll(t, input, nil) // 64 KiB chunks
		if err != nil {
			t.Fatalf("Input: %#q\nParse failed: %v", input, err)
		}
		for _, size := range []int{1, 2, 3, 7, 64} {
			got, err := parseAll(t, input, &jstream.Options{ChunkSize: size})
			if err != nil {
				t.Errorf("Input: %#q (chunk %d): parse failed: %v", input, size, err)
				continue
			}
			if diff := cmp.Diff(transcript(want), transcript(got)); diff != "" {
				t.Errorf("Input: %#q (chunk %d): events differ: (-want, +got)\n%s",
					input, size, diff)
			}
		}
	}
}

func TestNumbers(t *testing.T) {
	t.Run("SmallInteger", func(t *testing.T) {
		evs, err := parseAll(t, `[-15, 0, 9223372036854775807]`, nil)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		want := []int64{-15, 0, 9223372036854775807}
		for i, w := range want {
			got, ok := evs[i+1].Value.(int64)
			if !ok || got != w {
				t.Errorf("Value %d: got %v (%T), want %v", i, evs[i+1].Value, evs[i+1].Value, w)
			}
		}
	})

	// An integer literal of arbitrary length is preserved exactly as an
	// integer, never coerced through a float.
	t.Run("BigInteger", func(t *testing.T) {
		const lit = "1234567890123456789012345678901234567890" // 40 digits
		evs, err := parseAll(t, lit, nil)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		z, ok := evs[0].Value.(*big.Int)
		if !ok {
			t.Fatalf("Value: got %T, want *big.Int", evs[0].Value)
		}
		if z.String() != lit {
			t.Errorf("Value: got %s, want %s", z, lit)
		}
	})

	t.Run("Decimal", func(t *testing.T) {
		tests := []struct {
			input, num string
		}{
			{`0.001`, "0.001"},
			{`-2.50`, "-2.50"},
			{`5e+9`, "5e9"},
			{`3.6E-4`, "0.00036"},
			{`1.0e2`, "100"},
		}
		for _, test := range tests {
			evs, err := parseAll(t, test.input, nil)
			if err != nil {
				t.Fatalf("Input: %#q\nParse failed: %v", test.input, err)
			}
			d, ok := evs[0].Value.(decimal.Decimal)
			if !ok {
				t.Fatalf("Input: %#q: value is %T, want decimal", test.input, evs[0].Value)
			}
			if want := decimal.RequireFromString(test.num); !d.Equal(want) {
				t.Errorf("Input: %#q: got %v, want %v", test.input, d, want)
			}
		}
	})
}

func TestComments(t *testing.T) {
	const input = `{
  // a line comment
  "a": [1, 2], /* a block
comment */ "b": true // trailing
}`

	// With comments disabled the input is malformed.
	if _, err := parseAll(t, input, nil); err == nil {
		t.Error("Parse without comments: got nil, want error")
	} else {
		var serr *jstream.SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("Parse without comments: got %v, want *SyntaxError", err)
		}
	}

	// With comments enabled the comments vanish from the event stream, and
	// the events agree with a standardized copy of the input.
	got, err := parseAll(t, input, &jstream.Options{AllowComments: true})
	if err != nil {
		t.Fatalf("Parse with comments failed: %v", err)
	}

	std, err := hujson.Standardize([]byte(input))
	if err != nil {
		t.Fatalf("Standardize failed: %v", err)
	}
	want, err := parseAll(t, string(std), nil)
	if err != nil {
		t.Fatalf("Parse standardized failed: %v", err)
	}
	if diff := cmp.Diff(transcript(want), transcript(got)); diff != "" {
		t.Errorf("Events differ: (-standardized, +comments)\n%s", diff)
	}
}

func TestCheckUTF8(t *testing.T) {
	input := `{"k": "a` + "\xff" + `b"}`

	// By default raw bytes pass through undisturbed.
	evs, err := parseAll(t, input, nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := evs[2].Value.(string); got != "a\xffb" {
		t.Errorf("Value: got %#q, want %#q", got, "a\xffb")
	}

	// With checking enabled the payload is rejected.
	_, err = parseAll(t, input, &jstream.Options{CheckUTF8: true})
	var derr *jstream.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Parse: got %v, want *DecodeError", err)
	}
	if derr.Kind != jstream.String {
		t.Errorf("DecodeError kind: got %v, want %v", derr.Kind, jstream.String)
	}
}

// countingRec wraps a recognizer to count Release calls.
type countingRec struct {
	jstream.Recognizer
	released *int
}

func (c countingRec) Release() {
	*c.released++
	c.Recognizer.Release()
}

func countingOptions(released *int) *jstream.Options {
	return &jstream.Options{
		NewRecognizer: func(s jstream.Sink, c jstream.Config) (jstream.Recognizer, error) {
			return countingRec{jstream.NewRecognizer(s, c), released}, nil
		},
	}
}

func TestRelease(t *testing.T) {
	const input = `[1, "x", {"k": true}]`

	t.Run("Exhausted", func(t *testing.T) {
		var released int
		p, err := jstream.New(strings.NewReader(input), countingOptions(&released))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		for {
			if _, err := p.Next(); err != nil {
				break
			}
		}
		if released != 1 {
			t.Errorf("Release count: got %d, want 1", released)
		}
		p.Close() // safe after exhaustion
		if released != 1 {
			t.Errorf("Release count after Close: got %d, want 1", released)
		}
	})

	t.Run("Abandoned", func(t *testing.T) {
		var released int
		p, err := jstream.New(strings.NewReader(input), countingOptions(&released))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, err := p.Next(); err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		p.Close()
		if released != 1 {
			t.Errorf("Release count: got %d, want 1", released)
		}
		if _, err := p.Next(); err != io.EOF {
			t.Errorf("Next after Close: got %v, want io.EOF", err)
		}
	})

	t.Run("RangeBreak", func(t *testing.T) {
		var released int
		p, err := jstream.New(strings.NewReader(input), countingOptions(&released))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		for ev, err := range p.Events() {
			if err != nil {
				t.Fatalf("Events failed: %v", err)
			}
			if ev.Kind == jstream.String {
				break
			}
		}
		if released != 1 {
			t.Errorf("Release count: got %d, want 1", released)
		}
	})

	t.Run("Failed", func(t *testing.T) {
		var released int
		_, err := parseAll(t, `{"a":}`, countingOptions(&released))
		if err == nil {
			t.Error("Parse: got nil, want error")
		}
		if released != 1 {
			t.Errorf("Release count: got %d, want 1", released)
		}
	})
}

func TestResourceError(t *testing.T) {
	broken := errors.New("no recognizer for you")
	_, err := jstream.New(strings.NewReader("{}"), &jstream.Options{
		NewRecognizer: func(jstream.Sink, jstream.Config) (jstream.Recognizer, error) {
			return nil, broken
		},
	})
	var rerr *jstream.ResourceError
	if !errors.As(err, &rerr) {
		t.Fatalf("New: got %v, want *ResourceError", err)
	}
	if !errors.Is(err, broken) {
		t.Errorf("New: error does not wrap %v", broken)
	}
}

func TestEvents(t *testing.T) {
	p, err := jstream.New(strings.NewReader(`[null, 2]`), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var got []string
	for ev, err := range p.Events() {
		if err != nil {
			t.Fatalf("Events failed: %v", err)
		}
		got = append(got, ev.String())
	}
	want := []string{"start array", "null", "number 2", "end array"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Events: (-want, +got)\n%s", diff)
	}

	// A terminal error arrives as the final pair of the range.
	p, err = jstream.New(strings.NewReader(`[true`), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var last error
	for _, err := range p.Events() {
		last = err
	}
	if !errors.Is(last, jstream.ErrIncomplete) {
		t.Errorf("Final error: got %v, want %v", last, jstream.ErrIncomplete)
	}
}

func ExampleParser() {
	p, err := jstream.New(strings.NewReader(`{"name": "Aloysius", "tags": [1, 2]}`), nil)
	if err != nil {
		panic(err)
	}
	for ev, err := range p.Events() {
		if err != nil {
			panic(err)
		}
		fmt.Println(ev)
	}
	// Output:
	// start map
	// map key "name"
	// string "Aloysius"
	// map key "tags"
	// start array
	// number 1
	// number 2
	// end array
	// end map
}
