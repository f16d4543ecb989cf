// Package qshenc builds QSH v4 byte streams for test fixtures. It
// mirrors the delta and cursor rules of the decoders so round trips can
// assert exact field values.
package qshenc

import (
	"bytes"
	"encoding/binary"
	"math"

	"qshflow/models"
)

const (
	signature       = "QScalp History Data"
	growingSentinel = 268435455
)

// Encoder accumulates primitive QSH values into a buffer.
type Encoder struct {
	buf bytes.Buffer
}

// Bytes returns the encoded stream.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Byte appends a single byte.
func (e *Encoder) Byte(b byte) {
	e.buf.WriteByte(b)
}

// Uint16 appends a little-endian u16.
func (e *Encoder) Uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

// Int64 appends a little-endian i64.
func (e *Encoder) Int64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	e.buf.Write(b[:])
}

// Float64 appends a little-endian IEEE 754 double.
func (e *Encoder) Float64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	e.buf.Write(b[:])
}

// ULEB appends an unsigned LEB128 value.
func (e *Encoder) ULEB(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		e.buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

// LEB appends a signed LEB128 value.
func (e *Encoder) LEB(v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			e.buf.WriteByte(b)
			return
		}
		e.buf.WriteByte(b | 0x80)
	}
}

// Growing appends the next value of a growing sequence relative to last.
// Small forward steps go out as a plain unsigned delta; anything else
// takes the sentinel escape followed by a signed increment.
func (e *Encoder) Growing(last, v int64) {
	delta := v - last
	if delta >= 0 && delta < growingSentinel {
		e.ULEB(uint64(delta))
		return
	}
	e.ULEB(growingSentinel)
	e.LEB(delta)
}

// String appends a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) {
	e.LEB(int64(len(s)))
	e.buf.WriteString(s)
}

// Header appends the file-level block for a version 4 single-stream
// capture.
func (e *Encoder) Header(h models.Header) {
	e.buf.WriteString(signature)
	e.Byte(4)
	e.String(h.Recorder)
	e.String(h.Comment)
	e.Int64(h.RecordingTime)
	e.Byte(1)
	e.Byte(byte(h.Stream))
	e.String(h.Instrument)
}
