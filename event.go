// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import "fmt"

// Kind is the type of a parse event reported by a Parser.
type Kind byte

// Constants defining the valid Kind values.
const (
	Invalid    Kind = iota // invalid event
	Null                   // constant: null
	Boolean                // constant: true or false
	Integer                // number: integer, from a split-number recognizer
	Double                 // number: decimal, from a split-number recognizer
	Number                 // number: integer or decimal, unified
	String                 // string value
	StartMap               // open brace "{"
	MapKey                 // object member key
	EndMap                 // close brace "}"
	StartArray             // open bracket "["
	EndArray               // close bracket "]"
)

var kindStr = [...]string{
	Invalid:    "invalid event",
	Null:       "null",
	Boolean:    "boolean",
	Integer:    "integer",
	Double:     "double",
	Number:     "number",
	String:     "string",
	StartMap:   "start map",
	MapKey:     "map key",
	EndMap:     "end map",
	StartArray: "start array",
	EndArray:   "end array",
}

func (k Kind) String() string {
	v := int(k)
	if v >= len(kindStr) {
		return kindStr[Invalid]
	}
	return kindStr[v]
}

// IsScalar reports whether k is a scalar value kind: Null, Boolean, Integer,
// Double, Number, or String. Map keys and structural open and close markers
// are not scalars.
func (k Kind) IsScalar() bool {
	switch k {
	case Null, Boolean, Integer, Double, Number, String:
		return true
	}
	return false
}

// An Event is a single parse event, the typed form of one recognized token.
// Events are immutable; the parser never reuses or rewrites an Event after
// delivering it.
//
// The dynamic type of Value depends on Kind:
//
//	Kind                     | Value
//	------------------------ | -------------------------------
//	Null, StartMap, EndMap,  |
//	StartArray, EndArray     | nil
//	Boolean                  | bool
//	Integer                  | int64 or *big.Int
//	Double                   | decimal.Decimal
//	Number                   | int64, *big.Int, or decimal.Decimal
//	String, MapKey           | string
//
// Integer values are exact at any magnitude: lexemes too wide for int64 are
// delivered as *big.Int, never rounded through a float. Decimal values are
// arbitrary-precision decimals, never binary floating point.
type Event struct {
	Kind  Kind
	Value any
}

func (e Event) String() string {
	switch e.Kind {
	case Null, StartMap, EndMap, StartArray, EndArray, Invalid:
		return e.Kind.String()
	case String, MapKey:
		return fmt.Sprintf("%s %q", e.Kind, e.Value)
	}
	return fmt.Sprintf("%s %v", e.Kind, e.Value)
}
