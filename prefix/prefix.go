// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package prefix annotates a stream of parse events with the path of each
// event inside the document, and materializes the values located at a
// caller-specified path pattern.
//
// A Stream wraps a jstream.Parser and reports the same events in the same
// order, each carrying the jpath.Path of its location:
//
//	s := prefix.New(p)
//	for {
//	   ev, err := s.Next()
//	   ...
//	}
//
// Values filters the stream by a path expression and rebuilds each matching
// subtree as a native Go value, so that only the values the caller asked for
// are ever held in memory:
//
//	for v, err := range prefix.Values(prefix.New(p), expr) {
//	   ...
//	}
package prefix

import (
	"fmt"
	"io"
	"iter"

	"github.com/creachadair/jstream"
	"github.com/creachadair/jstream/jpath"
)

// An Event is a parse event annotated with its location.
//
// Scalar values and StartMap/StartArray carry the path of the value itself.
// EndMap and EndArray carry the path of the container they close, the same
// path as the matching start event. A MapKey carries the path of the map the
// key occurs in.
type Event struct {
	Path jpath.Path
	jstream.Event
}

func (e Event) String() string { return fmt.Sprintf("%s %s", e.Path, e.Event) }

// A Stream annotates the events of a Parser with container paths. Like the
// parser it wraps, a Stream is a one-pass sequence and must not be shared
// between goroutines.
type Stream struct {
	p      *jstream.Parser
	arrays []bool     // true for each open array, false for each open map
	steps  jpath.Path // current step within each open container
}

// New constructs a Stream annotating the events of p.
func New(p *jstream.Parser) *Stream { return &Stream{p: p} }

// Next returns the next event of the input with its path. At the end of the
// event sequence it returns io.EOF; any other error is terminal.
func (s *Stream) Next() (Event, error) {
	ev, err := s.p.Next()
	if err != nil {
		return Event{}, err
	}

	depth := len(s.arrays)
	switch ev.Kind {
	case jstream.StartMap:
		out := Event{Path: s.path(depth), Event: ev}
		s.push(false, jpath.Key(""))
		return out, nil

	case jstream.StartArray:
		out := Event{Path: s.path(depth), Event: ev}
		s.push(true, jpath.Index(0))
		return out, nil

	case jstream.MapKey:
		key, ok := ev.Value.(string)
		if !ok {
			return Event{}, fmt.Errorf("map key value %T, want string", ev.Value)
		}
		s.steps[depth-1] = jpath.Key(key)
		return Event{Path: s.path(depth - 1), Event: ev}, nil

	case jstream.EndMap, jstream.EndArray:
		s.arrays = s.arrays[:depth-1]
		s.steps = s.steps[:depth-1]
		out := Event{Path: s.path(depth - 1), Event: ev}
		s.bump()
		return out, nil

	default: // scalar value
		out := Event{Path: s.path(depth), Event: ev}
		s.bump()
		return out, nil
	}
}

// Close abandons the stream and releases the parser's resources.
func (s *Stream) Close() error { return s.p.Close() }

// Events returns a one-pass iterator over the annotated events. The stream
// is closed when the loop ends. A terminal error is yielded as the final
// pair; io.EOF is not reported.
func (s *Stream) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		defer s.Close()
		for {
			ev, err := s.Next()
			if err == io.EOF {
				return
			} else if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// path returns a copy of the first n location steps. The copy is what the
// event carries; the working slice mutates as the parse advances.
func (s *Stream) path(n int) jpath.Path {
	if n == 0 {
		return nil
	}
	return append(jpath.Path(nil), s.steps[:n]...)
}

func (s *Stream) push(isArray bool, step jpath.Step) {
	s.arrays = append(s.arrays, isArray)
	s.steps = append(s.steps, step)
}

// bump advances the element index after a value completes inside an array.
// Inside a map the next key rewrites the step instead.
func (s *Stream) bump() {
	if n := len(s.arrays); n > 0 && s.arrays[n-1] {
		s.steps[n-1].Index++
	}
}

// Values returns a one-pass iterator over the native values of the subtrees
// whose locations match expr. Each matching map, array, or scalar is fully
// rebuilt from its events: maps become map[string]any, arrays become []any,
// and scalars keep their event value. Events outside the matched locations
// are discarded without being materialized.
//
// The stream is closed when the loop ends. A terminal error is yielded as
// the final pair; io.EOF is not reported.
func Values(s *Stream, expr jpath.Expr) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		defer s.Close()
		for {
			ev, err := s.Next()
			if err == io.EOF {
				return
			} else if err != nil {
				yield(nil, err)
				return
			}
			switch ev.Kind {
			case jstream.MapKey, jstream.EndMap, jstream.EndArray:
				continue
			}
			if !expr.Matches(ev.Path) {
				continue
			}
			v, err := s.build(ev.Event)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Items is shorthand for Values with a pattern in text form.
func Items(p *jstream.Parser, pattern string) (iter.Seq2[any, error], error) {
	expr, err := jpath.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return Values(New(p), expr), nil
}

// build rebuilds one value from its events, the first of which is ev. For a
// container, events are consumed through the matching close.
func (s *Stream) build(ev jstream.Event) (any, error) {
	type frame struct {
		obj map[string]any
		arr []any
		key string
	}
	attach := func(f *frame, v any) {
		if f.obj != nil {
			f.obj[f.key] = v
		} else {
			f.arr = append(f.arr, v)
		}
	}

	switch ev.Kind {
	case jstream.StartMap, jstream.StartArray:
	default:
		return ev.Value, nil
	}

	stk := []frame{}
	if ev.Kind == jstream.StartMap {
		stk = append(stk, frame{obj: make(map[string]any)})
	} else {
		stk = append(stk, frame{arr: []any{}})
	}
	for {
		next, err := s.Next()
		if err == io.EOF {
			// The parser guarantees balanced containers; an exhausted stream
			// here means it was already terminated.
			return nil, jstream.ErrIncomplete
		} else if err != nil {
			return nil, err
		}
		switch next.Kind {
		case jstream.MapKey:
			stk[len(stk)-1].key = next.Value.(string)
		case jstream.StartMap:
			stk = append(stk, frame{obj: make(map[string]any)})
		case jstream.StartArray:
			stk = append(stk, frame{arr: []any{}})
		case jstream.EndMap, jstream.EndArray:
			f := stk[len(stk)-1]
			stk = stk[:len(stk)-1]
			var v any
			if f.obj != nil {
				v = f.obj
			} else {
				v = f.arr
			}
			if len(stk) == 0 {
				return v, nil
			}
			attach(&stk[len(stk)-1], v)
		default:
			attach(&stk[len(stk)-1], next.Value)
		}
	}
}
