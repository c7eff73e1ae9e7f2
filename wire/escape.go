/*
Copyright (c) 2023-2025 Microbus LLC and various contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package wire implements the textual frame format spoken between an
// external module and the Yate telephony engine: the %-escape alphabet,
// the tagged record catalogue and their (de)serialization.
package wire

import "strings"

// isEscapable reports whether b must be represented with a %-escape
// sequence: control bytes, the escape character itself, and the colon
// that separates frame segments.
func isEscapable(b byte) bool {
	return b < 32 || b == '%' || b == ':'
}

// Encode converts raw into its %-escaped wire representation. Control
// bytes (<32) become '%' followed by the byte 64+c, '%' becomes '%%' and
// ':' becomes '%z'. When raw contains no escapable byte, Encode returns
// raw itself without allocating, satisfying the zero-copy requirement.
func Encode(raw string) string {
	n := 0
	for i := 0; i < len(raw); i++ {
		if isEscapable(raw[i]) {
			n++
		}
	}
	if n == 0 {
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw) + n)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if !isEscapable(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		if c == '%' {
			b.WriteByte('%')
		} else {
			b.WriteByte(c + 64)
		}
	}
	return b.String()
}

// InvalidUpcodeError is returned by Decode when a '%' is followed by a
// byte outside the 64..=127 upcode range (and is not itself '%').
type InvalidUpcodeError struct {
	Upcode byte
}

func (e *InvalidUpcodeError) Error() string {
	return "invalid upcode, not in 64..=127 range"
}

// Decode reverses Encode. '%%' yields '%', '%X' with X in 64..=127 yields
// the byte X-64, and any other byte following '%' is an error. When raw
// contains no '%', Decode returns raw itself without allocating.
func Decode(raw string) (string, error) {
	if !strings.Contains(raw, "%") {
		return raw, nil
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(raw) {
			return "", &InvalidUpcodeError{}
		}
		x := raw[i]
		switch {
		case x == '%':
			b.WriteByte('%')
		case x >= 64 && x <= 127:
			b.WriteByte(x - 64)
		default:
			return "", &InvalidUpcodeError{Upcode: x}
		}
	}
	return b.String(), nil
}
