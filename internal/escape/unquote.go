// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// Unquote decodes a byte slice containing the JSON encoding of a string. The
// input must have the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents. A valid
// surrogate pair of \u escapes decodes to the single rune it denotes; an
// unpaired surrogate and any other invalid escape are replaced by the Unicode
// replacement rune. Unquote reports an error for an incomplete escape
// sequence.
func Unquote(src mem.RO) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(dec, src), nil
	}

	putRune := func(r rune) {
		var buf [6]byte
		n := utf8.EncodeRune(buf[:], r)
		dec = append(dec, buf[:n]...)
	}
	for src.Len() != 0 {
		dec = mem.Append(dec, src.SliceTo(i))

		// Decode the rune after the escape to figure out what to substitute.
		// There should not be errors here, but if there are, insert
		// replacement runes (utf8.RuneError == '\ufffd').
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}
		r, n := mem.DecodeRune(src)
		if n == 0 {
			n++
		}

		src = src.SliceFrom(n)
		switch r {
		case '"', '\\', '/':
			dec = append(dec, byte(r))
		case 'b':
			dec = append(dec, '\b')
		case 'f':
			dec = append(dec, '\f')
		case 'n':
			dec = append(dec, '\n')
		case 'r':
			dec = append(dec, '\r')
		case 't':
			dec = append(dec, '\t')
		case 'u':
			v, rest, err := unhex(src)
			if err != nil {
				return nil, err
			}
			src = rest
			if utf16.IsSurrogate(rune(v)) {
				// A high surrogate immediately followed by an escaped low
				// surrogate combines into one rune. Anything else is an
				// unpaired surrogate and decodes to the replacement rune.
				hi := rune(v)
				if lo, rest, ok := surrogateTail(src); ok {
					if c := utf16.DecodeRune(hi, lo); c != utf8.RuneError {
						putRune(c)
						src = rest
						break
					}
				}
				putRune(utf8.RuneError)
			} else {
				putRune(rune(v))
			}
		default:
			putRune(utf8.RuneError)
		}

		// Look for the next escape sequence, and if one is not found we can
		// blit the rest of the input and go home.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			break
		}
	}
	return dec, nil
}

// unhex decodes four hex digits from the front of data, returning the rest.
// Short input is an error; a non-hex digit merely poisons the value, which
// the caller maps to a replacement rune.
func unhex(data mem.RO) (int64, mem.RO, error) {
	if data.Len() < 4 {
		return 0, data, errors.New("incomplete Unicode escape")
	}
	v, err := parseHex(data.SliceTo(4))
	if err != nil {
		return -1, data.SliceFrom(4), nil
	}
	return v, data.SliceFrom(4), nil
}

// surrogateTail reports whether data begins with an escaped UTF-16 low
// surrogate, and if so returns its value and the remainder of data.
func surrogateTail(data mem.RO) (rune, mem.RO, bool) {
	if data.Len() < 6 || data.At(0) != '\\' || data.At(1) != 'u' {
		return 0, data, false
	}
	v, err := parseHex(data.SliceFrom(2).SliceTo(4))
	if err != nil || !utf16.IsSurrogate(rune(v)) {
		return 0, data, false
	}
	return rune(v), data.SliceFrom(6), true
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, fmt.Errorf("invalid hex digit %q", b)
		}
	}
	return v, nil
}
