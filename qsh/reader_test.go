package qsh

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"qshflow/internal/qshenc"
)

func newTestReader(b []byte) *Reader {
	return NewReader(bytes.NewReader(b))
}

func TestULEB(t *testing.T) {
	cases := []struct {
		in   []byte
		want uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
	}
	for _, c := range cases {
		got, err := newTestReader(c.in).ULEB()
		if err != nil {
			t.Fatalf("ULEB(% x): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ULEB(% x) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestULEBOverflow(t *testing.T) {
	in := bytes.Repeat([]byte{0xff}, 10)
	if _, err := newTestReader(in).ULEB(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestLEB(t *testing.T) {
	cases := []struct {
		in   []byte
		want int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xc0, 0xbb, 0x78}, -123456},
	}
	for _, c := range cases {
		got, err := newTestReader(c.in).LEB()
		if err != nil {
			t.Fatalf("LEB(% x): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("LEB(% x) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestLEBRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, -64, 64, -65, 624485, -123456, 1 << 40, -(1 << 40)}
	for _, v := range values {
		var e qshenc.Encoder
		e.LEB(v)
		got, err := newTestReader(e.Bytes()).LEB()
		if err != nil {
			t.Fatalf("LEB round trip %d: %v", v, err)
		}
		if got != v {
			t.Errorf("LEB round trip: got %d, want %d", got, v)
		}
	}
}

func TestGrowing(t *testing.T) {
	var e qshenc.Encoder
	e.Growing(100, 105)     // plain delta
	e.Growing(105, 105)     // zero delta
	e.Growing(105, 102)     // negative step takes the escape
	e.Growing(102, 1<<40)   // huge step takes the escape
	r := newTestReader(e.Bytes())

	steps := []struct{ last, want int64 }{
		{100, 105},
		{105, 105},
		{105, 102},
		{102, 1 << 40},
	}
	for _, s := range steps {
		got, err := r.Growing(s.last)
		if err != nil {
			t.Fatalf("Growing(%d): %v", s.last, err)
		}
		if got != s.want {
			t.Errorf("Growing(%d) = %d, want %d", s.last, got, s.want)
		}
	}
}

func TestGrowingSentinelOnWire(t *testing.T) {
	// The sentinel delta must be followed by a signed increment.
	var e qshenc.Encoder
	e.ULEB(growingSentinel)
	e.LEB(-7)
	got, err := newTestReader(e.Bytes()).Growing(50)
	if err != nil {
		t.Fatalf("Growing: %v", err)
	}
	if got != 43 {
		t.Errorf("Growing = %d, want 43", got)
	}
}

func TestString(t *testing.T) {
	var e qshenc.Encoder
	e.String("Si-9.14")
	e.String("")
	r := newTestReader(e.Bytes())

	s, err := r.String()
	if err != nil || s != "Si-9.14" {
		t.Fatalf("String = %q, %v", s, err)
	}
	s, err = r.String()
	if err != nil || s != "" {
		t.Fatalf("empty String = %q, %v", s, err)
	}
}

func TestStringInvalidUTF8(t *testing.T) {
	in := []byte{0x02, 0xff, 0xfe}
	if _, err := newTestReader(in).String(); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected invalid utf-8, got %v", err)
	}
}

func TestFixedScalars(t *testing.T) {
	var e qshenc.Encoder
	e.Uint16(0xbeef)
	e.Int64(-42)
	e.Float64(6.25)
	r := newTestReader(e.Bytes())

	u16, err := r.Uint16()
	if err != nil || u16 != 0xbeef {
		t.Fatalf("Uint16 = %#x, %v", u16, err)
	}
	i64, err := r.Int64()
	if err != nil || i64 != -42 {
		t.Fatalf("Int64 = %d, %v", i64, err)
	}
	f, err := r.Float64()
	if err != nil || f != 6.25 {
		t.Fatalf("Float64 = %v, %v", f, err)
	}
}

func TestEOF(t *testing.T) {
	r := newTestReader(nil)
	if !r.EOF() {
		t.Fatal("empty stream should report EOF")
	}
	r = newTestReader([]byte{0x01})
	if r.EOF() {
		t.Fatal("non-empty stream should not report EOF")
	}
}

func TestTruncatedScalar(t *testing.T) {
	r := newTestReader([]byte{0x01, 0x02})
	if _, err := r.Uint32(); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestTicksToUnix(t *testing.T) {
	// 1970-01-01T00:00:00 UTC in 100-ns ticks since 0001-01-01.
	const epochTicks = 621355968000000000
	if got := TicksToUnix(epochTicks); got != 0 {
		t.Errorf("TicksToUnix(epoch) = %d, want 0", got)
	}
	if got := TicksToUnix(epochTicks + 10_000); got != 1 {
		t.Errorf("TicksToUnix(epoch+1ms) = %d, want 1", got)
	}
	if got := MillisToUnix(62135596800000); got != 0 {
		t.Errorf("MillisToUnix(epoch) = %d, want 0", got)
	}
}
