// Package formats provides decoding and binary accessor resolution for glTF 2.0 documents.
package formats

import (
	"errors"
	"fmt"
)

// Import error taxonomy. Every error returned by this package wraps one of these.
var (
	ErrParse             = errors.New("malformed glTF document")
	ErrReference         = errors.New("index out of range")
	ErrBounds            = errors.New("data exceeds buffer bounds")
	ErrUnsupportedFormat = errors.New("unsupported component or element type")

	// ErrCycle reports a node graph that is not a tree. It is a parse error.
	ErrCycle = fmt.Errorf("%w: node graph is not a tree", ErrParse)
)

// IsFatal reports whether err must abort a whole import. Parse and bounds
// errors mean the document cannot be trusted; reference and format errors
// only spoil the element that hit them.
func IsFatal(err error) bool {
	return errors.Is(err, ErrParse) || errors.Is(err, ErrBounds)
}
