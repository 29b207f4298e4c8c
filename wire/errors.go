package wire

import "errors"

// Sentinel errors for block decoding.
var (
	// ErrTruncated is returned when the input ends before a complete block.
	ErrTruncated = errors.New("wire: truncated block")

	// ErrUnknownRow is returned for a row discriminant outside the closed
	// variant set.
	ErrUnknownRow = errors.New("wire: unknown row discriminant")

	// ErrUnknownDeps is returned for a deps entry kind outside the closed
	// callsite kind set.
	ErrUnknownDeps = errors.New("wire: unknown deps entry kind")

	// ErrTrailingBytes is returned when input remains after a complete
	// block.
	ErrTrailingBytes = errors.New("wire: trailing bytes after block")
)
