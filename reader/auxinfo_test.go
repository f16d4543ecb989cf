package reader

import (
	"io"
	"testing"

	"qshflow/internal/qshenc"
	"qshflow/models"
)

func TestAuxInfoRoundTrip(t *testing.T) {
	var e qshenc.Encoder
	enc := qshenc.NewAuxInfoEncoder(&e)

	full := models.AuxInfo{
		FrameTimeDelta: 1000,
		Timestamp:      900_000,
		Price:          95_000,
		AskTotal:       400,
		BidTotal:       350,
		OpenInterest:   12_000,
		HiLimit:        99_000,
		LowLimit:       91_000,
		Deposit:        4500.5,
		Rate:           1.0,
		Message:        "session start",
		Flags: models.AuxTimestamp | models.AuxAskTotal | models.AuxBidTotal |
			models.AuxOI | models.AuxPrice | models.AuxSessionInfo |
			models.AuxRate | models.AuxMessage,
	}
	enc.Add(full)

	// No flags: numeric fields stay sticky, the message is cleared.
	sticky := full
	sticky.FrameTimeDelta = 10
	sticky.Flags = 0
	sticky.Message = ""
	enc.Add(sticky)

	d := NewAuxInfoReader(newTestReader(e.Bytes()))

	got, err := d.Next()
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if got != full {
		t.Errorf("first record = %+v, want %+v", got, full)
	}

	got, err = d.Next()
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if got != sticky {
		t.Errorf("second record = %+v, want %+v", got, sticky)
	}
	if got.Message != "" {
		t.Errorf("message should be cleared when not resent, got %q", got.Message)
	}

	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}
