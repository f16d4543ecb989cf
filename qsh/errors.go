package qsh

import (
	"errors"
	"io"
)

var (
	// ErrWrongMagic is returned when the file does not start with the
	// QScalp signature.
	ErrWrongMagic = errors.New("qsh: wrong file signature")

	// ErrWrongVersion is returned for container versions other than 4.
	ErrWrongVersion = errors.New("qsh: unsupported format version")

	// ErrMultiStream is returned when the header declares more than one
	// recorded stream.
	ErrMultiStream = errors.New("qsh: multi-stream files are not supported")

	// ErrUnknownStream is returned for a stream id byte we cannot decode.
	ErrUnknownStream = errors.New("qsh: unknown stream id")

	// ErrOverflow is returned when a variable-length integer exceeds 64 bits.
	ErrOverflow = errors.New("qsh: varint overflows 64 bits")

	// ErrInvalidUTF8 is returned when a string field is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("qsh: string is not valid utf-8")

	// ErrUnexpectedEOF is io.ErrUnexpectedEOF itself, reported for
	// truncation inside a record or header field.
	ErrUnexpectedEOF = io.ErrUnexpectedEOF
)
