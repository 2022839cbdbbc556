// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jstream

import (
	"fmt"
	"math/big"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// convertNumber converts a numeric lexeme into its exact value. An exact
// integer parse is attempted first, so that an integer literal of any length
// is preserved as an integer; any non-integer lexeme falls back to an
// arbitrary-precision decimal. No value ever passes through a binary float.
func convertNumber(text []byte) (any, error) {
	if v, err := convertInteger(text); err == nil {
		return v, nil
	}
	return convertDecimal(text)
}

// convertInteger converts a base-10 integer lexeme. Values that fit are
// returned as int64; wider values are returned as *big.Int.
func convertInteger(text []byte) (any, error) {
	s := string(text)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	if z, ok := new(big.Int).SetString(s, 10); ok {
		return z, nil
	}
	return nil, fmt.Errorf("invalid integer literal %q", s)
}

// convertDecimal converts a decimal lexeme with a fractional part and/or
// exponent into an exact decimal value.
func convertDecimal(text []byte) (any, error) {
	d, err := decimal.NewFromString(string(text))
	if err != nil {
		return nil, fmt.Errorf("invalid number literal %q", text)
	}
	return d, nil
}

// convertString decodes a quoted string lexeme, replacing escape sequences.
// With checkUTF8 set, decoded bytes that are not valid UTF-8 are rejected;
// kind tells the resulting *DecodeError which payload failed.
func convertString(kind Kind, text []byte, checkUTF8 bool) (string, error) {
	dec, err := Unquote(text)
	if err != nil {
		return "", &DecodeError{Kind: kind, err: err}
	}
	if checkUTF8 && !utf8.Valid(dec) {
		return "", &DecodeError{Kind: kind, err: fmt.Errorf("invalid UTF-8 in %q", text)}
	}
	return string(dec), nil
}
