// Package jpath implements the path expressions used to address locations
// inside nested JSON structure.
//
// A Path is a concrete location: the sequence of member keys and array
// indices leading from the root of a document to one value. An Expr is a
// pattern over paths, written in dot/bracket notation:
//
//	$              the root value
//	$.name         member "name" of the root object
//	$.a.b          member "b" of object "a"
//	$['two words'] member with a key that is not a plain word
//	$.items[3]     element 3 of array "items"
//	$.items[*]     every element of array "items"
//
// The leading "$" is the root marker. The wildcard "[*]" matches any array
// index; there is no wildcard for member keys.
package jpath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A Step is a single step of a concrete path: one member key or one array
// index. A negative index denotes a key step.
type Step struct {
	Key   string // the member key, when Index < 0
	Index int    // the element index, or -1 for a key step
}

// Key constructs a member key step.
func Key(name string) Step { return Step{Key: name, Index: -1} }

// Index constructs an array index step.
func Index(i int) Step { return Step{Index: i} }

// IsKey reports whether s is a member key step.
func (s Step) IsKey() bool { return s.Index < 0 }

func (s Step) String() string {
	if s.Index >= 0 {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	if plainRE.MatchString(s.Key) {
		return "." + s.Key
	}
	return "['" + s.Key + "']"
}

// A Path is a concrete location within a document, the root being the empty
// path.
type Path []Step

func (p Path) String() string {
	var buf strings.Builder
	buf.WriteString("$")
	for _, s := range p {
		buf.WriteString(s.String())
	}
	return buf.String()
}

// Equal reports whether p and q denote the same location.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i, s := range p {
		if s != q[i] {
			return false
		}
	}
	return true
}

// A Sel is one selector of a path expression: a fixed key, a fixed index, or
// the wildcard matching any array index.
type Sel struct {
	Key   string // the member key, when Index < 0 and not Any
	Index int    // the element index, when >= 0
	Any   bool   // match any array index
}

func (s Sel) matches(t Step) bool {
	if s.Any {
		return t.Index >= 0
	}
	if s.Index >= 0 {
		return t.Index == s.Index
	}
	return t.Index < 0 && t.Key == s.Key
}

func (s Sel) String() string {
	if s.Any {
		return "[*]"
	}
	return Step{Key: s.Key, Index: s.Index}.String()
}

// An Expr is a parsed path expression.
type Expr []Sel

// Parse parses s as a path expression.
func Parse(s string) (Expr, error) {
	t, ok := strings.CutPrefix(s, "$")
	if !ok {
		return nil, errors.New("missing root marker")
	}
	var expr Expr
	for t != "" {
		sel, rest, err := parseSel(t)
		if err != nil {
			return nil, fmt.Errorf("at offset %d: %w", len(s)-len(t), err)
		}
		expr = append(expr, sel)
		t = rest
	}
	return expr, nil
}

func (e Expr) String() string {
	var buf strings.Builder
	buf.WriteString("$")
	for _, s := range e {
		buf.WriteString(s.String())
	}
	return buf.String()
}

// Matches reports whether e matches exactly the location p.
func (e Expr) Matches(p Path) bool {
	return len(e) == len(p) && e.matchesFront(p)
}

// MatchesPrefix reports whether e matches a leading portion of p, that is,
// whether the location p lies at or below a location matched by e.
func (e Expr) MatchesPrefix(p Path) bool {
	return len(e) <= len(p) && e.matchesFront(p)
}

func (e Expr) matchesFront(p Path) bool {
	for i, sel := range e {
		if !sel.matches(p[i]) {
			return false
		}
	}
	return true
}

func parseSel(s string) (_ Sel, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "."); ok {
		if m := wordRE.FindString(t); m != "" {
			return Sel{Key: m, Index: -1}, t[len(m):], nil
		}
		return Sel{}, s, errors.New("invalid member name")
	}
	if t, ok := strings.CutPrefix(s, "["); ok {
		sel, u, err := parseBracket(t)
		if err != nil {
			return Sel{}, s, err
		}
		u, ok := strings.CutPrefix(u, "]")
		if !ok {
			return Sel{}, s, errors.New("missing close bracket")
		}
		return sel, u, nil
	}
	return Sel{}, s, errors.New("invalid path step")
}

func parseBracket(s string) (_ Sel, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "*"); ok {
		return Sel{Any: true, Index: -1}, t, nil
	}
	if m := quoteRE.FindStringSubmatch(s); m != nil {
		return Sel{Key: m[1], Index: -1}, s[len(m[0]):], nil
	}
	if m := indexRE.FindString(s); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			return Sel{}, s, fmt.Errorf("invalid index %q", m)
		}
		return Sel{Index: v}, s[len(m):], nil
	}
	return Sel{}, s, errors.New("invalid selector")
}

var (
	wordRE  = regexp.MustCompile(`^\w+`)
	plainRE = regexp.MustCompile(`^\w+$`)
	indexRE = regexp.MustCompile(`^\d+`)
	quoteRE = regexp.MustCompile(`^'([^']*)'`)
)
