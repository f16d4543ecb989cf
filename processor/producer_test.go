package processor

import (
	"context"
	"io"
	"testing"

	"qshflow/book"
	"qshflow/logger"
	"qshflow/models"
)

// 1970-01-01T00:00:00 UTC in milliseconds since 0001-01-01.
const epochMillis = 62135596800000

// txSource feeds pre-grouped transactions from memory.
type txSource struct {
	txs [][]models.OrderLog
	pos int
}

func (s *txSource) Next() ([]models.OrderLog, error) {
	if s.pos >= len(s.txs) {
		return nil, io.EOF
	}
	tx := s.txs[s.pos]
	s.pos++
	return tx, nil
}

type rowSink struct {
	rows []models.SnapshotRow
}

func (s *rowSink) WriteRow(row models.SnapshotRow) { s.rows = append(s.rows, row) }

func addRec(id, price, amount int64, side models.Side, extra models.OLFlag) models.OrderLog {
	return models.OrderLog{
		Timestamp:  epochMillis,
		OrderID:    id,
		Price:      price,
		Amount:     amount,
		AmountRest: amount,
		Side:       side,
		OrderFlags: models.OLAdd | extra,
		Event:      models.EventAdd,
	}
}

func cancelRec(id int64, side models.Side) models.OrderLog {
	return models.OrderLog{
		Timestamp:  epochMillis,
		OrderID:    id,
		Side:       side,
		OrderFlags: models.OLCanceled,
		Event:      models.EventCancel,
	}
}

func TestSnapshotProducer(t *testing.T) {
	log := logger.GetLogger()
	src := &txSource{txs: [][]models.OrderLog{
		{addRec(1, 100, 5, models.SideBuy, models.OLTxEnd)},  // one-sided book, no row
		{addRec(2, 101, 3, models.SideSell, models.OLTxEnd)}, // both sides populated
		{cancelRec(1, models.SideBuy)},                       // bid side emptied, no row
	}}
	sink := &rowSink{}
	b := book.New(true, log.WithComponent("book"))

	p := NewSnapshotProducer(src, b, 1, "SBER", sink, log)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(sink.rows))
	}
	row := sink.rows[0]
	if row.Instrument != "SBER" {
		t.Errorf("instrument = %q, want SBER", row.Instrument)
	}
	if row.Depth() != 1 {
		t.Errorf("depth = %d, want 1", row.Depth())
	}
	want := []int64{100, 5, 101, 3}
	for i := range want {
		if row.Values[i] != want[i] {
			t.Errorf("values[%d] = %d, want %d", i, row.Values[i], want[i])
		}
	}
}

func TestSnapshotProducerNewSession(t *testing.T) {
	log := logger.GetLogger()
	src := &txSource{txs: [][]models.OrderLog{
		{addRec(1, 100, 5, models.SideBuy, 0), addRec(2, 101, 3, models.SideSell, models.OLTxEnd)},
		// A session reset drops the book before the transaction applies.
		{addRec(3, 200, 1, models.SideBuy, models.OLNewSession|models.OLTxEnd)},
	}}
	sink := &rowSink{}
	b := book.New(true, log.WithComponent("book"))

	p := NewSnapshotProducer(src, b, 1, "SBER", sink, log)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Only the pre-reset transaction had both sides populated.
	if len(sink.rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(sink.rows))
	}
	if b.Depth(models.SideSell) != 0 {
		t.Error("session reset should have dropped the ask side")
	}
	if b.Depth(models.SideBuy) != 1 {
		t.Error("post-reset order should be the only bid")
	}
}

func TestSnapshotProducerSkipsImmediate(t *testing.T) {
	log := logger.GetLogger()
	ioc := models.OrderLog{Type: models.OrderTypeIOC, Event: models.EventAdd, OrderID: 9, Side: models.SideBuy}
	src := &txSource{txs: [][]models.OrderLog{{ioc}}}
	b := book.New(true, log.WithComponent("book"))
	sink := &rowSink{}

	p := NewSnapshotProducer(src, b, 1, "SBER", sink, log)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.Depth(models.SideBuy) != 0 {
		t.Error("unmatched immediate order must not touch the book")
	}
}

func TestSnapshotProducerContextCancel(t *testing.T) {
	log := logger.GetLogger()
	src := &txSource{txs: [][]models.OrderLog{{addRec(1, 100, 5, models.SideBuy, models.OLTxEnd)}}}
	b := book.New(true, log.WithComponent("book"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewSnapshotProducer(src, b, 1, "SBER", &rowSink{}, log)
	if err := p.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
