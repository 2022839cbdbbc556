// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package escape

import (
	"unicode/utf8"

	"go4.org/mem"
)

var hexDigit = []byte("0123456789abcdef")

// controlEsc maps the control bytes with single-letter escapes.
var controlEsc = [...]byte{'\b': 'b', '\f': 'f', '\n': 'n', '\r': 'r', '\t': 't', ' ': 0}

// Quote encodes src with the escapes required for inclusion in a JSON string.
// The enclosing quotation marks are not added. Quotation marks, backslashes,
// and control bytes are escaped; all other runes are copied literally, except
// that the replacement rune and the line and paragraph separators (which are
// hazardous inside JavaScript string literals) are written as \u escapes.
func Quote(src mem.RO) []byte {
	buf := make([]byte, 0, src.Len())
	for src.Len() != 0 {
		r, n := mem.DecodeRune(src)
		src = src.SliceFrom(n)

		if r >= utf8.RuneSelf {
			switch r {
			case '\ufffd', '\u2028', '\u2029':
				buf = appendU16(buf, uint16(r))
			default:
				var rbuf [6]byte
				n := utf8.EncodeRune(rbuf[:], r)
				buf = append(buf, rbuf[:n]...)
			}
			continue
		}

		switch {
		case r == '"' || r == '\\':
			buf = append(buf, '\\', byte(r))
		case r >= ' ':
			buf = append(buf, byte(r))
		case controlEsc[r] != 0:
			buf = append(buf, '\\', controlEsc[r])
		default:
			buf = appendU16(buf, uint16(r))
		}
	}
	return buf
}

// appendU16 appends the \uXXXX escape of v to buf.
func appendU16(buf []byte, v uint16) []byte {
	return append(buf, '\\', 'u',
		hexDigit[v>>12], hexDigit[(v>>8)&15], hexDigit[(v>>4)&15], hexDigit[v&15])
}
