package qsh

import (
	"fmt"

	"qshflow/models"
)

const signature = "QScalp History Data"

// ReadHeader decodes the single file-level block at the start of a
// decompressed QSH stream. Only version 4 single-stream captures are
// accepted.
func ReadHeader(r *Reader) (models.Header, error) {
	var h models.Header

	sig := make([]byte, len(signature))
	for i := range sig {
		b, err := r.Byte()
		if err != nil {
			return h, fmt.Errorf("read signature: %w", err)
		}
		sig[i] = b
	}
	if string(sig) != signature {
		return h, ErrWrongMagic
	}

	ver, err := r.Byte()
	if err != nil {
		return h, fmt.Errorf("read version: %w", err)
	}
	if ver != 4 {
		return h, fmt.Errorf("%w: %d", ErrWrongVersion, ver)
	}
	h.Version = ver

	if h.Recorder, err = r.String(); err != nil {
		return h, fmt.Errorf("read recorder: %w", err)
	}
	if h.Comment, err = r.String(); err != nil {
		return h, fmt.Errorf("read comment: %w", err)
	}
	if h.RecordingTime, err = r.Int64(); err != nil {
		return h, fmt.Errorf("read recording time: %w", err)
	}

	count, err := r.Byte()
	if err != nil {
		return h, fmt.Errorf("read stream count: %w", err)
	}
	if count != 1 {
		return h, fmt.Errorf("%w: %d streams", ErrMultiStream, count)
	}

	id, err := r.Byte()
	if err != nil {
		return h, fmt.Errorf("read stream id: %w", err)
	}
	h.Stream = models.Stream(id)
	if !h.Stream.Valid() {
		return h, fmt.Errorf("%w: %#x", ErrUnknownStream, id)
	}

	if h.Instrument, err = r.String(); err != nil {
		return h, fmt.Errorf("read instrument: %w", err)
	}
	return h, nil
}
