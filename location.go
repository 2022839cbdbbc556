package jstream

import "fmt"

// A LineCol describes the line number and column offset of a location in
// source input.
type LineCol struct {
	Line   int // line number, 1-based
	Column int // byte offset of column in line, 0-based
}

func (lc LineCol) String() string { return fmt.Sprintf("%d:%d", lc.Line, lc.Column) }

// A Location describes the position of a token in source input, as a byte
// offset together with its line and column.
type Location struct {
	Offset int // byte offset from the start of input, 0-based
	LineCol
}
