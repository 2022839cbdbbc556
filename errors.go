// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import "errors"

// ErrIncomplete is reported when the input ends while the recognizer still
// requires more bytes to complete a well-formed document, for example an
// unterminated object. It is distinct from a *SyntaxError: the bytes consumed
// up to the end of input were all valid.
var ErrIncomplete = errors.New("incomplete JSON input")

// SyntaxError is the concrete type of errors reported when the recognizer
// rejects its input as invalid JSON. The Text field carries the recognizer's
// positional diagnostic.
type SyntaxError struct {
	Text string
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	if s.Text == "" {
		return "invalid JSON input"
	}
	return s.Text
}

// DecodeError is the concrete type of errors reported when a string or key
// payload cannot be decoded, either because its escapes are malformed or
// because UTF-8 checking is enabled and the decoded bytes are not valid UTF-8.
type DecodeError struct {
	Kind Kind // the event kind whose payload failed to decode
	err  error
}

// Error satisfies the error interface.
func (d *DecodeError) Error() string { return "decode " + d.Kind.String() + ": " + d.err.Error() }

// Unwrap supports error wrapping.
func (d *DecodeError) Unwrap() error { return d.err }

// ResourceError is the concrete type of errors reported when the recognizer
// backing a session could not be allocated. It is fatal: no events can be
// produced, and retrying the same construction will not succeed.
type ResourceError struct {
	err error
}

// Error satisfies the error interface.
func (r *ResourceError) Error() string { return "allocate recognizer: " + r.err.Error() }

// Unwrap supports error wrapping.
func (r *ResourceError) Unwrap() error { return r.err }
