// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"bytes"
	"errors"
	"fmt"

	"go4.org/mem"
)

// token is the type of a lexical token in the JSON grammar.
type token byte

const (
	tokInvalid token = iota
	tokLBrace        // left brace "{"
	tokRBrace        // right brace "}"
	tokLSquare       // left square bracket "["
	tokRSquare       // right square bracket "]"
	tokComma         // comma ","
	tokColon         // colon ":"
	tokString        // quoted string
	tokNumber        // number
	tokTrue          // constant: true
	tokFalse         // constant: false
	tokNull          // constant: null

	tokBlockComment // comment: /* ... */
	tokLineComment  // comment: // ... <LF>
)

// tokName renders a token for a diagnostic message.
func tokName(tok token, text []byte) string {
	switch tok {
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	}
	return fmt.Sprintf("%q", text)
}

// errMore reports that data ends in the middle of a token which further input
// could complete. The bytes seen so far are a valid prefix of some token.
var errMore = errors.New("incomplete token")

// scanToken scans one complete token from the start of data, whose first byte
// is known not to be whitespace. It reports the token type and its length in
// bytes. It returns errMore if data is a valid but incomplete prefix; with
// atEOF set, tokens that may legally end at end of input (numbers, constants,
// line comments) are completed instead.
func (r *recognizer) scanToken(data []byte, atEOF bool) (token, int, error) {
	switch c := data[0]; {
	case c == '{':
		return tokLBrace, 1, nil
	case c == '}':
		return tokRBrace, 1, nil
	case c == '[':
		return tokLSquare, 1, nil
	case c == ']':
		return tokRSquare, 1, nil
	case c == ',':
		return tokComma, 1, nil
	case c == ':':
		return tokColon, 1, nil
	case c == '"':
		n, err := scanString(data)
		return tokString, n, err
	case c == '-' || isDigit(c):
		n, err := scanNumber(data, atEOF)
		return tokNumber, n, err
	case c == 't':
		n, err := scanName(data, mem.S("true"), atEOF)
		return tokTrue, n, err
	case c == 'f':
		n, err := scanName(data, mem.S("false"), atEOF)
		return tokFalse, n, err
	case c == 'n':
		n, err := scanName(data, mem.S("null"), atEOF)
		return tokNull, n, err
	case c == '/' && r.comments:
		return scanComment(data, atEOF)
	default:
		return tokInvalid, 0, fmt.Errorf("unexpected %q", c)
	}
}

// scanString scans a quoted string starting at data[0] == '"'. The returned
// length includes both quotation marks. Escape sequences are validated
// structurally here; decoding them is the consumer's concern.
func scanString(data []byte) (int, error) {
	i := 1
	for i < len(data) {
		switch c := data[i]; {
		case c == '"':
			return i + 1, nil
		case c == '\\':
			if i+1 == len(data) {
				return 0, errMore
			}
			switch e := data[i+1]; e {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				i += 2
			case 'u':
				if i+6 > len(data) {
					if hasInvalidHex(data[i+2:]) {
						return 0, errors.New("invalid Unicode escape")
					}
					return 0, errMore
				}
				if hasInvalidHex(data[i+2 : i+6]) {
					return 0, errors.New("invalid Unicode escape")
				}
				i += 6
			default:
				return 0, fmt.Errorf("invalid %q after escape", e)
			}
		case c < ' ':
			return 0, fmt.Errorf("unescaped control %q", c)
		default:
			i++
		}
	}
	return 0, errMore
}

func hasInvalidHex(data []byte) bool {
	for _, c := range data {
		if !isHexDigit(c) {
			return true
		}
	}
	return false
}

// scanNumber scans a number starting at a digit or "-". The grammar follows
// RFC 8259: no extra leading zeroes, at least one digit after a decimal
// point, and at least one digit in an exponent.
func scanNumber(data []byte, atEOF bool) (int, error) {
	i := 0
	if data[0] == '-' {
		i++
	}
	ds := i
	for i < len(data) && isDigit(data[i]) {
		i++
	}
	if i == ds {
		if i == len(data) {
			return 0, errMore // a bare sign so far
		}
		return 0, fmt.Errorf("want digit, got %q", data[i])
	}
	if data[ds] == '0' && i-ds > 1 {
		return 0, errors.New("extra leading zeroes")
	}
	if i == len(data) {
		if atEOF {
			return i, nil
		}
		return 0, errMore // more digits may follow
	}

	// If a decimal point follows, consume a fractional part.
	if data[i] == '.' {
		i++
		fs := i
		for i < len(data) && isDigit(data[i]) {
			i++
		}
		if i == fs {
			if i == len(data) {
				return 0, errMore
			}
			return 0, errors.New("no digits after decimal point")
		}
		if i == len(data) {
			if atEOF {
				return i, nil
			}
			return 0, errMore
		}
	}

	// If an exponent follows, consume it.
	if data[i] != 'E' && data[i] != 'e' {
		return i, nil
	}
	i++
	if i == len(data) {
		return 0, errMore
	}
	if data[i] == '-' || data[i] == '+' {
		i++
	}
	es := i
	for i < len(data) && isDigit(data[i]) {
		i++
	}
	if i == es {
		if i == len(data) {
			return 0, errMore
		}
		return 0, errors.New("missing exponent digits")
	}
	if i == len(data) && !atEOF {
		return 0, errMore
	}
	return i, nil
}

// scanName scans one of the constants true, false, or null.
func scanName(data []byte, want mem.RO, atEOF bool) (int, error) {
	n := want.Len()
	if len(data) < n {
		if want.SliceTo(len(data)).Equal(mem.B(data)) {
			return 0, errMore
		}
		return 0, fmt.Errorf("unknown constant %q", data)
	}
	got := mem.B(data[:n])
	if !got.Equal(want) || (len(data) > n && isNameByte(data[n])) {
		end := n
		for end < len(data) && isNameByte(data[end]) {
			end++
		}
		return 0, fmt.Errorf("unknown constant %q", data[:end])
	}
	if len(data) == n && !atEOF {
		return 0, errMore // a longer name may follow
	}
	return n, nil
}

// scanComment scans a line or block comment starting at data[0] == '/'.
func scanComment(data []byte, atEOF bool) (token, int, error) {
	if len(data) < 2 {
		if atEOF {
			return tokInvalid, 0, errors.New(`unexpected "/"`)
		}
		return tokInvalid, 0, errMore
	}
	switch data[1] {
	case '/': // line comment to LF
		if j := bytes.IndexByte(data, '\n'); j >= 0 {
			return tokLineComment, j + 1, nil
		} else if atEOF {
			return tokLineComment, len(data), nil
		}
		return tokInvalid, 0, errMore

	case '*': // block comment
		if j := bytes.Index(data[2:], []byte("*/")); j >= 0 {
			return tokBlockComment, j + 4, nil
		}
		return tokInvalid, 0, errMore

	default:
		return tokInvalid, 0, fmt.Errorf("invalid %q in comment", data[1])
	}
}

func isDigit(c byte) bool    { return '0' <= c && c <= '9' }
func isNameByte(c byte) bool { return c >= 'a' && c <= 'z' }

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
