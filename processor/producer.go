package processor

import (
	"context"
	"fmt"
	"io"

	"qshflow/book"
	"qshflow/logger"
	"qshflow/models"
)

// TransactionSource is a pull cursor over grouped transactions.
type TransactionSource interface {
	Next() ([]models.OrderLog, error)
}

// SnapshotSink receives finished depth rows.
type SnapshotSink interface {
	WriteRow(models.SnapshotRow)
}

// SnapshotProducer replays grouped order-log transactions through the
// book and emits a depth-N row after every transaction that leaves both
// sides deep enough.
type SnapshotProducer struct {
	src        TransactionSource
	book       *book.Book
	depth      int
	instrument string
	sink       SnapshotSink
	log        *logger.Entry
}

// NewSnapshotProducer wires a producer for one instrument.
func NewSnapshotProducer(src TransactionSource, b *book.Book, depth int, instrument string, sink SnapshotSink, log *logger.Log) *SnapshotProducer {
	return &SnapshotProducer{
		src:        src,
		book:       b,
		depth:      depth,
		instrument: instrument,
		sink:       sink,
		log:        log.WithComponent("snapshot_producer"),
	}
}

// Run drains the source until end of stream, a decode or book error, or
// context cancellation.
func (p *SnapshotProducer) Run(ctx context.Context) error {
	txs, rows := 0, 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tx, err := p.src.Next()
		if err == io.EOF {
			p.log.WithFields(logger.Fields{
				"instrument":   p.instrument,
				"transactions": txs,
				"rows":         rows,
			}).Info("stream drained")
			return nil
		}
		if err != nil {
			return fmt.Errorf("next transaction: %w", err)
		}
		if ImmediateWithoutTrades(tx) {
			continue
		}
		if tx[0].OrderFlags.Has(models.OLNewSession) {
			p.book.Clear()
		}
		for _, rec := range tx {
			if err := p.book.Apply(rec); err != nil {
				return fmt.Errorf("apply record: %w", err)
			}
		}
		txs++
		logger.IncrementTransactions()

		row := p.book.Snapshot(p.depth)
		if row == nil {
			continue
		}
		p.sink.WriteRow(models.SnapshotRow{
			Instrument: p.instrument,
			Timestamp:  row[0],
			Values:     row[1:],
		})
		rows++
		logger.IncrementSnapshots()
	}
}
