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

package wire

import (
	"fmt"

	"github.com/microbus-io/errors"
)

// Kind classifies the ways (de)serialization of a frame can fail.
type Kind int

const (
	// KindReflect marks a reflective (de)serialization invariant failure.
	KindReflect Kind = iota
	// KindMissingTag marks an empty frame with no tag segment.
	KindMissingTag
	// KindMismatchedTag marks a frame whose first segment isn't the expected tag.
	KindMismatchedTag
	// KindMissingValue marks a required field segment that was absent.
	KindMissingValue
	// KindMisformedMap marks a flattened map segment lacking '='.
	KindMisformedMap
	// KindInvalidUpcode marks a '%' followed by a byte outside 64..=127.
	KindInvalidUpcode
)

func (k Kind) String() string {
	switch k {
	case KindMissingTag:
		return "missing tag"
	case KindMismatchedTag:
		return "mismatched tag"
	case KindMissingValue:
		return "missing value"
	case KindMisformedMap:
		return "misformed map"
	case KindInvalidUpcode:
		return "invalid upcode"
	default:
		return "reflect"
	}
}

// Error is the error type produced by record (de)serialization. Kind
// narrows down which of the wire contract's invariants was violated;
// Tag and Frame carry context for diagnostics.
type Error struct {
	Kind  Kind
	Tag   string
	Frame string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v (tag=%q)", e.Kind, e.cause, e.Tag)
	}
	return fmt.Sprintf("%s (tag=%q)", e.Kind, e.Tag)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, tag, frame string) error {
	return errors.Trace(&Error{Kind: kind, Tag: tag, Frame: frame})
}

func wrapError(kind Kind, tag, frame string, cause error) error {
	var upErr *InvalidUpcodeError
	if errors.As(cause, &upErr) {
		kind = KindInvalidUpcode
	}
	return errors.Trace(&Error{Kind: kind, Tag: tag, Frame: frame, cause: cause})
}

// Is reports whether err is a wire Error of the given kind, unwrapping
// the tracing layer microbus-io/errors adds around it.
func Is(err error, kind Kind) bool {
	var werr *Error
	if !errors.As(err, &werr) {
		return false
	}
	return werr.Kind == kind
}
