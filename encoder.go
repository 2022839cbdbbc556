// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// An Encoder writes a sequence of events back out as compact JSON text.
// Feeding the events of a valid parse to an Encoder in order reproduces a
// document that parses to the same event sequence.
type Encoder struct {
	w      io.Writer
	frames []encFrame
	err    error
}

// Each frame records one open container: kind is '{' or '[', n counts the
// values written inside it, and key is whether an object key has been written
// with its member value still pending.
type encFrame struct {
	kind byte
	n    int
	key  bool
}

// NewEncoder constructs an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Write appends one event to the output. It reports an error if ev is not
// valid at the current position, for example a map key outside a map or a
// close marker with no matching open. Once Write reports an error, the
// encoder is stuck and all further writes report the same error.
func (e *Encoder) Write(ev Event) error {
	if e.err != nil {
		return e.err
	}
	switch ev.Kind {
	case MapKey:
		t := e.top()
		if t == nil || t.kind != '{' || t.key {
			return e.fail(fmt.Errorf("unexpected %v", ev.Kind))
		}
		if t.n > 0 {
			e.put(",")
		}
		s, ok := ev.Value.(string)
		if !ok {
			return e.fail(fmt.Errorf("map key value %T, want string", ev.Value))
		}
		e.put(Quote(s), ":")
		t.key = true
		return e.err

	case StartMap, StartArray:
		if err := e.separate(); err != nil {
			return e.fail(err)
		}
		if ev.Kind == StartMap {
			e.put("{")
			e.frames = append(e.frames, encFrame{kind: '{'})
		} else {
			e.put("[")
			e.frames = append(e.frames, encFrame{kind: '['})
		}
		return e.err

	case EndMap, EndArray:
		want, end := byte('{'), "}"
		if ev.Kind == EndArray {
			want, end = '[', "]"
		}
		t := e.top()
		if t == nil || t.kind != want || t.key {
			return e.fail(fmt.Errorf("unexpected %v", ev.Kind))
		}
		e.frames = e.frames[:len(e.frames)-1]
		e.put(end)
		return e.err

	case Null, Boolean, Integer, Double, Number, String:
		text, err := scalarText(ev)
		if err != nil {
			return e.fail(err)
		}
		if err := e.separate(); err != nil {
			return e.fail(err)
		}
		e.put(text)
		return e.err
	}
	return e.fail(fmt.Errorf("unexpected %v", ev.Kind))
}

// separate writes the separator, if any, that must precede a value at the
// current position, and accounts for the value in the enclosing frame. A
// value directly inside a map must have a pending member key.
func (e *Encoder) separate() error {
	t := e.top()
	if t == nil {
		return nil // a top-level value takes no separator
	}
	if t.kind == '{' {
		if !t.key {
			return errors.New("missing map key")
		}
		t.key = false // the comma was written before the member key
	} else if t.n > 0 {
		e.put(",")
	}
	t.n++
	return nil
}

func (e *Encoder) top() *encFrame {
	if len(e.frames) == 0 {
		return nil
	}
	return &e.frames[len(e.frames)-1]
}

func (e *Encoder) put(ss ...string) {
	for _, s := range ss {
		if e.err != nil {
			return
		}
		if _, err := io.WriteString(e.w, s); err != nil {
			e.err = err
		}
	}
}

func (e *Encoder) fail(err error) error {
	e.err = err
	return err
}

// scalarText renders the text of a scalar event.
func scalarText(ev Event) (string, error) {
	switch ev.Kind {
	case Null:
		return "null", nil
	case Boolean:
		v, ok := ev.Value.(bool)
		if !ok {
			return "", fmt.Errorf("boolean value %T, want bool", ev.Value)
		}
		return strconv.FormatBool(v), nil
	case String:
		v, ok := ev.Value.(string)
		if !ok {
			return "", fmt.Errorf("string value %T, want string", ev.Value)
		}
		return Quote(v), nil
	}
	switch v := ev.Value.(type) {
	case int64:
		return strconv.FormatInt(v, 10), nil
	case *big.Int:
		return v.String(), nil
	case decimal.Decimal:
		return v.String(), nil
	}
	return "", fmt.Errorf("%v value %T", ev.Kind, ev.Value)
}
