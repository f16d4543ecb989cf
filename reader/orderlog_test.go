package reader

import (
	"bytes"
	"io"
	"testing"

	"qshflow/internal/qshenc"
	"qshflow/models"
	"qshflow/qsh"
)

func newTestReader(b []byte) *qsh.Reader {
	return qsh.NewReader(bytes.NewReader(b))
}

func TestOrderLogRoundTrip(t *testing.T) {
	var e qshenc.Encoder
	enc := qshenc.NewOrderLogEncoder(&e)

	records := []models.OrderLog{
		{
			FrameTimeDelta: 1000,
			Timestamp:      500_000,
			OrderID:        10,
			Price:          100,
			Amount:         5,
			EntryFlags:     models.OLEntryDateTime | models.OLEntryOrderID | models.OLEntryPrice | models.OLEntryAmount,
			OrderFlags:     models.OLAdd | models.OLBuy | models.OLQuote | models.OLTxEnd,
		},
		{
			FrameTimeDelta: 10,
			Timestamp:      500_010,
			OrderID:        11,
			Price:          105,
			Amount:         3,
			EntryFlags:     models.OLEntryDateTime | models.OLEntryOrderID | models.OLEntryPrice | models.OLEntryAmount,
			OrderFlags:     models.OLAdd | models.OLSell | models.OLQuote | models.OLTxEnd,
		},
		{
			// Bid price cursor moves independently of the ask cursor.
			FrameTimeDelta: 5,
			Timestamp:      500_015,
			OrderID:        12,
			Price:          101,
			Amount:         2,
			EntryFlags:     models.OLEntryDateTime | models.OLEntryOrderID | models.OLEntryPrice | models.OLEntryAmount,
			OrderFlags:     models.OLAdd | models.OLBuy | models.OLQuote | models.OLTxEnd,
		},
	}
	for _, rec := range records {
		enc.Add(rec)
	}

	d := NewOrderLogReader(newTestReader(e.Bytes()))
	for i, want := range records {
		got, err := d.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got.FrameTimeDelta != want.FrameTimeDelta {
			t.Errorf("record %d: frame time delta = %d, want %d", i, got.FrameTimeDelta, want.FrameTimeDelta)
		}
		if got.Timestamp != want.Timestamp || got.OrderID != want.OrderID {
			t.Errorf("record %d: ts/id = %d/%d, want %d/%d", i, got.Timestamp, got.OrderID, want.Timestamp, want.OrderID)
		}
		if got.Price != want.Price || got.Amount != want.Amount {
			t.Errorf("record %d: price/amount = %d/%d, want %d/%d", i, got.Price, got.Amount, want.Price, want.Amount)
		}
		if got.Event != models.EventAdd {
			t.Errorf("record %d: event = %s, want add", i, got.Event)
		}
		if got.AmountRest != want.Amount {
			t.Errorf("record %d: add should imply rest == amount, got %d", i, got.AmountRest)
		}
		if got.Type != models.OrderTypeLimit {
			t.Errorf("record %d: type = %s, want limit", i, got.Type)
		}
	}
	if _, err := d.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after last record, got %v", err)
	}
}

func TestOrderLogFill(t *testing.T) {
	var e qshenc.Encoder
	enc := qshenc.NewOrderLogEncoder(&e)

	add := models.OrderLog{
		FrameTimeDelta: 1,
		Timestamp:      100,
		OrderID:        42,
		Price:          200,
		Amount:         10,
		EntryFlags:     models.OLEntryDateTime | models.OLEntryOrderID | models.OLEntryPrice | models.OLEntryAmount,
		OrderFlags:     models.OLAdd | models.OLBuy | models.OLQuote,
	}
	fill := models.OrderLog{
		FrameTimeDelta: 2,
		Timestamp:      105,
		OrderID:        42,
		Amount:         10,
		AmountRest:     4,
		DealID:         7,
		DealPrice:      200,
		OpenInterest:   1500,
		EntryFlags:     models.OLEntryDateTime | models.OLEntryOrderID | models.OLEntryAmountRest | models.OLEntryDealID | models.OLEntryDealPrice | models.OLEntryOI,
		OrderFlags:     models.OLFill | models.OLBuy | models.OLQuote | models.OLTxEnd,
	}
	enc.Add(add)
	enc.Add(fill)

	d := NewOrderLogReader(newTestReader(e.Bytes()))
	if _, err := d.Next(); err != nil {
		t.Fatalf("add record: %v", err)
	}
	got, err := d.Next()
	if err != nil {
		t.Fatalf("fill record: %v", err)
	}
	if got.Event != models.EventFill {
		t.Errorf("event = %s, want fill", got.Event)
	}
	if got.OrderID != 42 {
		t.Errorf("order id = %d, want 42 (offset against sticky cursor)", got.OrderID)
	}
	if got.AmountRest != 4 || got.DealID != 7 || got.DealPrice != 200 || got.OpenInterest != 1500 {
		t.Errorf("unexpected fill fields: %+v", got)
	}
	// Amount is sticky from the previous record.
	if got.Amount != 10 {
		t.Errorf("amount = %d, want sticky 10", got.Amount)
	}
}

func TestOrderLogCancel(t *testing.T) {
	var e qshenc.Encoder
	enc := qshenc.NewOrderLogEncoder(&e)

	enc.Add(models.OrderLog{
		Timestamp:  100,
		OrderID:    5,
		Price:      90,
		Amount:     1,
		EntryFlags: models.OLEntryDateTime | models.OLEntryOrderID | models.OLEntryPrice | models.OLEntryAmount,
		OrderFlags: models.OLAdd | models.OLSell | models.OLQuote,
	})
	enc.Add(models.OrderLog{
		Timestamp:  110,
		OrderID:    5,
		EntryFlags: models.OLEntryDateTime | models.OLEntryOrderID,
		OrderFlags: models.OLCanceled | models.OLSell | models.OLQuote | models.OLTxEnd,
	})

	d := NewOrderLogReader(newTestReader(e.Bytes()))
	if _, err := d.Next(); err != nil {
		t.Fatalf("add record: %v", err)
	}
	got, err := d.Next()
	if err != nil {
		t.Fatalf("cancel record: %v", err)
	}
	if got.Event != models.EventCancel {
		t.Errorf("event = %s, want cancel", got.Event)
	}
	// No price entry: the sell record reports the sticky ask cursor.
	if got.Price != 90 {
		t.Errorf("price = %d, want sticky ask 90", got.Price)
	}
	if got.Side != models.SideSell {
		t.Errorf("side = %s, want sell", got.Side)
	}
}

func TestOrderLogRejectsBothSides(t *testing.T) {
	var e qshenc.Encoder
	e.ULEB(0) // frame time delta
	e.Byte(0) // entry flags
	e.Uint16(uint16(models.OLBuy | models.OLSell))

	d := NewOrderLogReader(newTestReader(e.Bytes()))
	if _, err := d.Next(); err == nil {
		t.Fatal("expected error for record with both side flags")
	}
}

func TestOrderLogTruncated(t *testing.T) {
	var e qshenc.Encoder
	e.ULEB(0)
	e.Byte(byte(models.OLEntryDateTime))

	d := NewOrderLogReader(newTestReader(e.Bytes()))
	if _, err := d.Next(); err == nil || err == io.EOF {
		t.Fatalf("expected truncation error, got %v", err)
	}
}
