// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"bytes"
	"fmt"
)

// Status is a result code reported by a Recognizer after consuming input.
type Status byte

// Constants defining the valid Status values.
const (
	StatusOK               Status = iota // input accepted so far
	StatusCancelled                      // a callback declined to continue
	StatusInsufficientData               // end of input reached mid-document
	StatusSyntaxError                    // input rejected as invalid JSON
)

var statusStr = [...]string{
	StatusOK:               "ok",
	StatusCancelled:        "cancelled",
	StatusInsufficientData: "insufficient data",
	StatusSyntaxError:      "syntax error",
}

func (s Status) String() string {
	if int(s) >= len(statusStr) {
		return fmt.Sprintf("status %d", s)
	}
	return statusStr[s]
}

// A Sink receives one synchronous callback per recognized token. The payload
// slice passed to a callback is only valid for the duration of that call; the
// sink must copy the bytes if it needs them afterward. String and MapKey
// payloads are the raw lexeme including the enclosing quotation marks; see
// Unquote. Each callback reports whether recognition should continue; a false
// return cancels the parse and surfaces as StatusCancelled.
//
// A sink must not panic across the recognizer boundary. A sink that fails
// internally should record its failure, return false, and let the caller
// recover the recorded failure after Feed or Finalize returns.
//
// The Integer and Double callbacks are invoked only by recognizers configured
// to split numbers by lexical shape. The recognizer constructed by
// NewRecognizer delivers every numeric token through the unified Number
// callback and never invokes Integer or Double.
type Sink interface {
	Null() bool
	Boolean(v bool) bool
	Integer(text []byte) bool
	Double(text []byte) bool
	Number(text []byte) bool
	String(text []byte) bool
	StartMap() bool
	MapKey(text []byte) bool
	EndMap() bool
	StartArray() bool
	EndArray() bool
}

// A Recognizer validates JSON syntax incrementally and reports each
// recognized token to the Sink it was allocated with. Input arrives in
// arbitrary slices via Feed; a token split across Feed calls must be
// recognized exactly once, when its final byte arrives.
//
// A Recognizer is a resource with an explicit lifecycle: it is allocated with
// its sink and configuration fixed, and it must be released exactly once with
// Release. No method may be called after Release.
type Recognizer interface {
	// Feed consumes the next slice of input. The recognizer must not retain
	// data after Feed returns.
	Feed(data []byte) Status

	// Finalize signals that there is no more input. It may deliver trailing
	// token callbacks, for example a number terminated by end of input.
	Finalize() Status

	// ErrorText renders a positional diagnostic for the current failure.
	// It is meaningful only after a method reports StatusSyntaxError. The
	// context bytes, if any, are quoted in the diagnostic.
	ErrorText(context []byte) string

	// Release frees the resources backing the recognizer.
	Release()
}

// Config carries the recognizer options fixed at allocation time.
type Config struct {
	// AllowComments permits // line and /* block */ comments between tokens.
	// Comments are a non-standard extension of RFC 8259; when permitted
	// they are skipped entirely and produce no callbacks.
	AllowComments bool

	// CheckUTF8 requests rejection of string payloads that are not valid
	// UTF-8. The recognizer constructed by NewRecognizer does not enforce
	// this itself; it reports the flag through the contract so that the
	// consumer of the payload performs the check during decoding.
	CheckUTF8 bool
}

// NewRecognizer constructs a recognizer delivering tokens to sink with the
// given configuration. The recognizer validates the JSON grammar over exactly
// one top-level value and accepts input split at any byte boundary.
func NewRecognizer(sink Sink, config Config) Recognizer {
	return &recognizer{sink: sink, comments: config.AllowComments}
}

// Grammar phases. The phase names what the next token must be; container
// nesting is tracked separately on the stack.
type phase byte

const (
	phaseValue     phase = iota // any value
	phaseFirstElem              // any value, or "]" of an empty array
	phaseFirstKey               // a member key, or "}" of an empty object
	phaseNextKey                // a member key, after ","
	phaseColon                  // the ":" between a key and its value
	phaseMapNext                // "," or "}" after a member value
	phaseArrayNext              // "," or "]" after an element
	phaseDone                   // the top-level value is complete
)

type recognizer struct {
	sink     Sink
	comments bool

	phase phase
	stack []byte // nesting of open containers, each '{' or '['
	pend  []byte // bytes of an incomplete trailing token

	// Location of the next unconsumed byte.
	offset    int
	line, col int

	canceled bool
	failed   bool
	errmsg   string
	released bool
}

func (r *recognizer) Feed(data []byte) Status {
	r.check()
	switch {
	case r.failed:
		return StatusSyntaxError
	case r.canceled:
		return StatusCancelled
	}
	buf := data
	if len(r.pend) > 0 {
		r.pend = append(r.pend, data...)
		buf = r.pend
	}
	return r.run(buf, false)
}

func (r *recognizer) Finalize() Status {
	r.check()
	switch {
	case r.failed:
		return StatusSyntaxError
	case r.canceled:
		return StatusCancelled
	}
	if len(r.pend) > 0 {
		buf := r.pend
		r.pend = nil
		if st := r.run(buf, true); st != StatusOK {
			return st
		}
	}
	if r.phase != phaseDone {
		return StatusInsufficientData
	}
	return StatusOK
}

// run consumes as many complete tokens from buf as possible. With more input
// pending (atEOF false), an incomplete trailing token is saved for the next
// Feed call; at end of input an incomplete token means the document was
// truncated.
func (r *recognizer) run(buf []byte, atEOF bool) Status {
	i := 0
	for i < len(buf) {
		c := buf[i]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			i++
			r.offset++
			if c == '\n' {
				r.line++
				r.col = 0
			} else {
				r.col++
			}
			continue
		}

		tok, n, err := r.scanToken(buf[i:], atEOF)
		if err == errMore {
			if atEOF {
				return StatusInsufficientData
			}
			// Keep the partial token for the next feed. The bytes may alias
			// the tail of pend itself; append copies forward safely.
			r.pend = append(r.pend[:0], buf[i:]...)
			return StatusOK
		} else if err != nil {
			return r.fail("%s", err)
		}

		text := buf[i : i+n]
		if st := r.accept(tok, text); st != StatusOK {
			return st
		}
		r.advance(text)
		i += n
	}
	r.pend = r.pend[:0]
	return StatusOK
}

// accept applies the grammar to one complete token and delivers its callback.
func (r *recognizer) accept(tok token, text []byte) Status {
	if tok == tokLineComment || tok == tokBlockComment {
		return StatusOK
	}
	switch r.phase {
	case phaseValue, phaseFirstElem:
		switch tok {
		case tokLBrace:
			r.stack = append(r.stack, '{')
			r.phase = phaseFirstKey
			return r.deliver(r.sink.StartMap())
		case tokLSquare:
			r.stack = append(r.stack, '[')
			r.phase = phaseFirstElem
			return r.deliver(r.sink.StartArray())
		case tokRSquare:
			if r.phase == phaseFirstElem {
				return r.closeArray()
			}
		case tokString:
			r.afterValue()
			return r.deliver(r.sink.String(text))
		case tokNumber:
			r.afterValue()
			return r.deliver(r.sink.Number(text))
		case tokTrue:
			r.afterValue()
			return r.deliver(r.sink.Boolean(true))
		case tokFalse:
			r.afterValue()
			return r.deliver(r.sink.Boolean(false))
		case tokNull:
			r.afterValue()
			return r.deliver(r.sink.Null())
		}
		return r.fail("unexpected %s, want value", tokName(tok, text))

	case phaseFirstKey:
		if tok == tokRBrace {
			return r.closeMap()
		}
		fallthrough
	case phaseNextKey:
		if tok == tokString {
			r.phase = phaseColon
			return r.deliver(r.sink.MapKey(text))
		}
		return r.fail("unexpected %s, want object key", tokName(tok, text))

	case phaseColon:
		if tok == tokColon {
			r.phase = phaseValue
			return StatusOK
		}
		return r.fail(`unexpected %s, want ":"`, tokName(tok, text))

	case phaseMapNext:
		switch tok {
		case tokComma:
			r.phase = phaseNextKey
			return StatusOK
		case tokRBrace:
			return r.closeMap()
		}
		return r.fail(`unexpected %s, want "," or "}"`, tokName(tok, text))

	case phaseArrayNext:
		switch tok {
		case tokComma:
			r.phase = phaseValue
			return StatusOK
		case tokRSquare:
			return r.closeArray()
		}
		return r.fail(`unexpected %s, want "," or "]"`, tokName(tok, text))

	case phaseDone:
		return r.fail("unexpected %s after top-level value", tokName(tok, text))
	}
	return r.fail("unexpected %s", tokName(tok, text))
}

func (r *recognizer) closeMap() Status {
	r.stack = r.stack[:len(r.stack)-1]
	r.afterValue()
	return r.deliver(r.sink.EndMap())
}

func (r *recognizer) closeArray() Status {
	r.stack = r.stack[:len(r.stack)-1]
	r.afterValue()
	return r.deliver(r.sink.EndArray())
}

// afterValue sets the phase following a completed value: the end of input at
// top level, or a separator inside the enclosing container.
func (r *recognizer) afterValue() {
	if len(r.stack) == 0 {
		r.phase = phaseDone
	} else if r.stack[len(r.stack)-1] == '{' {
		r.phase = phaseMapNext
	} else {
		r.phase = phaseArrayNext
	}
}

func (r *recognizer) deliver(ok bool) Status {
	if !ok {
		r.canceled = true
		return StatusCancelled
	}
	return StatusOK
}

// advance moves the input location past the committed token text.
func (r *recognizer) advance(text []byte) {
	r.offset += len(text)
	if j := bytes.LastIndexByte(text, '\n'); j >= 0 {
		r.line += bytes.Count(text, []byte("\n"))
		r.col = len(text) - j - 1
	} else {
		r.col += len(text)
	}
}

func (r *recognizer) fail(msg string, args ...any) Status {
	r.failed = true
	r.errmsg = fmt.Sprintf(msg, args...)
	return StatusSyntaxError
}

func (r *recognizer) ErrorText(context []byte) string {
	r.check()
	if !r.failed {
		return ""
	}
	loc := LineCol{Line: r.line + 1, Column: r.col}
	if len(context) == 0 {
		return fmt.Sprintf("at %s: %s", loc, r.errmsg)
	}
	const maxContext = 24
	if len(context) > maxContext {
		context = context[len(context)-maxContext:]
	}
	return fmt.Sprintf("at %s: %s (near %q)", loc, r.errmsg, context)
}

func (r *recognizer) Release() {
	r.check()
	r.released = true
	r.sink = nil
	r.pend = nil
	r.stack = nil
}

func (r *recognizer) check() {
	if r.released {
		panic("recognizer used after Release")
	}
}
