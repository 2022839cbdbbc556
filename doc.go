// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jstream implements an incremental JSON parser that delivers a
// stream of typed events without materializing the input or the parsed value
// in memory. It is intended for very large or streaming JSON sources where
// whole-document parsing is infeasible.
//
// # Parsing
//
// The Parser type reads its source in bounded chunks and exposes the parse
// as a lazy, forward-only sequence of events. Construct a Parser from an
// io.Reader and call its Next method to advance:
//
//	p, err := jstream.New(input, nil)
//	if err != nil {
//	   log.Fatalf("Create parser: %v", err)
//	}
//	for {
//	   ev, err := p.Next()
//	   if err == io.EOF {
//	      break
//	   } else if err != nil {
//	      log.Fatalf("Parse failed: %v", err)
//	   }
//	   fmt.Println(ev)
//	}
//
// Next returns io.EOF when the document has been fully parsed. Any other
// error is terminal. The Events method adapts the same sequence to a range
// loop, releasing the parser's resources even if the loop exits early:
//
//	for ev, err := range p.Events() {
//	   if err != nil {
//	      log.Fatalf("Parse failed: %v", err)
//	   }
//	   fmt.Println(ev)
//	}
//
// A Parser makes one forward pass over one input; parsing again requires a
// new Parser.
//
// # Events
//
// An Event pairs a Kind with a converted value:
//
//	JSON input         | Kind                 | Value
//	------------------ | -------------------- | ------------------------------
//	null               | Null                 | nil
//	true, false        | Boolean              | bool
//	number             | Number               | int64, *big.Int, or decimal
//	string             | String               | string
//	object             | StartMap, EndMap     | nil
//	object member key  | MapKey               | string
//	array              | StartArray, EndArray | nil
//
// Numbers are exact: an integer literal of any length is delivered as an
// integer, and a literal with a fraction or exponent is delivered as an
// arbitrary-precision decimal. No value is ever rounded through a binary
// floating-point representation.
//
// # Recognizers
//
// Grammar recognition is delegated to a Recognizer, a replaceable engine
// that consumes raw bytes and reports each recognized token through one
// synchronous Sink callback. The package provides a recognizer that accepts
// input split at arbitrary byte boundaries; an alternative implementation,
// for example a binding to a native parsing library, can be installed with
// the NewRecognizer option.
//
// The subpackages prefix and jpath consume the event stream: prefix
// annotates each event with its container path and materializes the values
// at a caller-specified path pattern, and jpath implements the path
// expressions used for matching.
package jstream
