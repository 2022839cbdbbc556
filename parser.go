// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// Options are settings for a Parser. A nil *Options is ready for use and
// provides default values as described.
type Options struct {
	// AllowComments permits // line and /* block */ comments in the input.
	// Comments produce no events. Default: false.
	AllowComments bool

	// CheckUTF8 rejects string and key payloads whose decoded bytes are not
	// valid UTF-8, reporting a *DecodeError. Default: false.
	CheckUTF8 bool

	// ChunkSize is the number of bytes requested from the input source per
	// read. Larger chunks amortize read overhead at the cost of per-step
	// memory and a larger worst-case event batch. Default: 64 KiB.
	ChunkSize int

	// NewRecognizer, if set, allocates the recognizer backing the session.
	// By default the built-in recognizer is used. A constructor that fails
	// surfaces from New as a *ResourceError.
	NewRecognizer func(Sink, Config) (Recognizer, error)
}

const defaultChunkSize = 64 * 1024

func (o *Options) chunkSize() int {
	if o == nil || o.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return o.ChunkSize
}

func (o *Options) checkUTF8() bool { return o != nil && o.CheckUTF8 }

func (o *Options) config() Config {
	if o == nil {
		return Config{}
	}
	return Config{AllowComments: o.AllowComments, CheckUTF8: o.CheckUTF8}
}

func (o *Options) allocate(s Sink, c Config) (Recognizer, error) {
	if o == nil || o.NewRecognizer == nil {
		return NewRecognizer(s, c), nil
	}
	return o.NewRecognizer(s, c)
}

// Parser states. Reading and completing may advance; done and failed are
// terminal, and the recognizer is released on entry to either.
type pstate byte

const (
	stateReading    pstate = iota // consuming chunks from the source
	stateCompleting               // source exhausted, finalizing
	stateDone                     // all events delivered
	stateFailed                   // terminated with an error
)

// A Parser is one forward, non-restartable parse pass over one input source.
// It reads the source in bounded chunks, drives a Recognizer over each chunk,
// and delivers the resulting events one at a time through Next. Neither the
// whole input nor the whole parsed value is ever held in memory: at most one
// chunk of input and the events recognized from it are live at a time.
//
// A Parser owns its recognizer and releases it exactly once, when the event
// sequence ends, when it fails, or when the caller abandons it with Close.
// A Parser must not be shared between goroutines.
type Parser struct {
	rec   Recognizer
	src   io.Reader
	buf   []byte  // chunk buffer, one source read per fill
	chunk []byte  // the bytes of the most recent read, buf[:n]
	queue []Event // events recognized but not yet delivered
	pos   int     // next undelivered event in queue
	empty int     // consecutive zero-byte reads from src

	check    bool  // validate UTF-8 during string decoding
	state    pstate
	err      error // terminal error, set when state is stateFailed
	deferred error // conversion failure captured during a callback
}

// New constructs a Parser reading from src with the given options. A nil opts
// value is ready for use. New reports a *ResourceError if the recognizer
// could not be allocated.
func New(src io.Reader, opts *Options) (*Parser, error) {
	p := &Parser{
		src:   src,
		buf:   make([]byte, opts.chunkSize()),
		check: opts.checkUTF8(),
	}
	rec, err := opts.allocate(parserSink{p}, opts.config())
	if err != nil {
		return nil, &ResourceError{err: err}
	}
	p.rec = rec
	return p, nil
}

// Next returns the next event of the input. At the end of the event sequence
// it returns io.EOF. Any other error is terminal: a *SyntaxError for invalid
// input, ErrIncomplete for a truncated document, a *DecodeError for an
// undecodable string payload, or an I/O error from the source.
func (p *Parser) Next() (Event, error) {
	for {
		if p.pos < len(p.queue) {
			ev := p.queue[p.pos]
			p.pos++
			return ev, nil
		}
		p.queue, p.pos = p.queue[:0], 0

		switch p.state {
		case stateDone:
			return Event{}, io.EOF
		case stateFailed:
			return Event{}, p.err
		case stateReading:
			p.readChunk()
		case stateCompleting:
			p.apply(p.rec.Finalize(), true)
		}
	}
}

// Err returns the error that terminated the event sequence, or nil if the
// sequence ended normally or has not yet ended.
func (p *Parser) Err() error {
	if p.state == stateFailed {
		return p.err
	}
	return nil
}

// Close abandons the parse and releases the recognizer. It is safe to call
// Close multiple times and after the sequence has already ended. Events not
// yet delivered are discarded; Next reports io.EOF after Close.
func (p *Parser) Close() error {
	if p.state == stateReading || p.state == stateCompleting {
		p.state = stateDone
		p.queue, p.pos = nil, 0
		p.release()
	}
	return nil
}

// Events returns a one-pass iterator over the events of the input. The
// parser is closed when the loop ends, so breaking out of the range early
// still releases the recognizer. A terminal error is yielded as the final
// pair; io.EOF is not reported.
func (p *Parser) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		defer p.Close()
		for {
			ev, err := p.Next()
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

// readChunk performs one read from the source and feeds the result to the
// recognizer. An exhausted source moves the parser to the completing state.
func (p *Parser) readChunk() {
	n, err := p.src.Read(p.buf)
	if n > 0 {
		p.empty = 0
		p.chunk = p.buf[:n]
		p.apply(p.rec.Feed(p.chunk), false)
		if p.state == stateReading && err != nil && err != io.EOF {
			p.fail(fmt.Errorf("read input: %w", err))
		}
		return
	}
	if err == io.EOF {
		p.state = stateCompleting
		return
	} else if err != nil {
		p.fail(fmt.Errorf("read input: %w", err))
		return
	}
	p.empty++
	if p.empty >= 100 {
		p.fail(fmt.Errorf("read input: %w", io.ErrNoProgress))
	}
}

// apply dispatches on the status of a feed or finalize call.
func (p *Parser) apply(st Status, finalizing bool) {
	switch st {
	case StatusOK:
		if finalizing {
			p.state = stateDone
			p.release()
		}

	case StatusInsufficientData:
		// From a feed this only means more input is required. At the end of
		// input it is a truncation: events recognized before the truncation
		// point still drain from the queue ahead of the error.
		if finalizing {
			p.fail(ErrIncomplete)
		}

	case StatusSyntaxError:
		// The diagnostic must be retrieved before the recognizer is released.
		err := &SyntaxError{Text: p.rec.ErrorText(p.chunk)}
		p.queue, p.pos = p.queue[:0], 0
		p.fail(err)

	case StatusCancelled:
		err := p.deferred
		p.deferred = nil
		if err == nil {
			err = errors.New("parse cancelled by recognizer")
		}
		p.queue, p.pos = p.queue[:0], 0
		p.fail(err)

	default:
		p.fail(fmt.Errorf("recognizer reported invalid status %v", st))
	}
}

func (p *Parser) fail(err error) {
	p.err = err
	p.state = stateFailed
	p.release()
}

// release frees the recognizer. The handle is dropped so that no path can
// touch the resource after release.
func (p *Parser) release() {
	if p.rec != nil {
		p.rec.Release()
		p.rec = nil
	}
}

// emit appends an event to the pending queue. It is called from recognizer
// callbacks, which run synchronously inside Feed and Finalize.
func (p *Parser) emit(ev Event) bool {
	p.queue = append(p.queue, ev)
	return true
}

// stash records a conversion failure to be reported after the feed call
// returns, and tells the recognizer to stop. Errors must not propagate
// through the recognizer's call frames.
func (p *Parser) stash(err error) bool {
	p.deferred = err
	return false
}

// parserSink bridges recognizer callbacks onto the parser's event queue.
// Each callback converts its payload and appends a single event, preserving
// recognition order exactly.
type parserSink struct{ p *Parser }

func (s parserSink) Null() bool          { return s.p.emit(Event{Kind: Null}) }
func (s parserSink) Boolean(v bool) bool { return s.p.emit(Event{Kind: Boolean, Value: v}) }
func (s parserSink) StartMap() bool      { return s.p.emit(Event{Kind: StartMap}) }
func (s parserSink) EndMap() bool        { return s.p.emit(Event{Kind: EndMap}) }
func (s parserSink) StartArray() bool    { return s.p.emit(Event{Kind: StartArray}) }
func (s parserSink) EndArray() bool      { return s.p.emit(Event{Kind: EndArray}) }

func (s parserSink) Number(text []byte) bool {
	v, err := convertNumber(text)
	if err != nil {
		return s.p.stash(err)
	}
	return s.p.emit(Event{Kind: Number, Value: v})
}

func (s parserSink) Integer(text []byte) bool {
	v, err := convertInteger(text)
	if err != nil {
		return s.p.stash(err)
	}
	return s.p.emit(Event{Kind: Integer, Value: v})
}

func (s parserSink) Double(text []byte) bool {
	v, err := convertDecimal(text)
	if err != nil {
		return s.p.stash(err)
	}
	return s.p.emit(Event{Kind: Double, Value: v})
}

func (s parserSink) String(text []byte) bool {
	v, err := convertString(String, text, s.p.check)
	if err != nil {
		return s.p.stash(err)
	}
	return s.p.emit(Event{Kind: String, Value: v})
}

func (s parserSink) MapKey(text []byte) bool {
	v, err := convertString(MapKey, text, s.p.check)
	if err != nil {
		return s.p.stash(err)
	}
	return s.p.emit(Event{Kind: MapKey, Value: v})
}
