package processor

import (
	"context"
	"fmt"
	"io"

	"qshflow/book"
	"qshflow/logger"
	"qshflow/models"
)

// L2Sink receives incremental depth events.
type L2Sink interface {
	WriteEvent(models.L2Event)
}

// L2Producer converts grouped L3 transactions into an incremental L2
// stream. After each transaction the top levels of the book are diffed
// against the last published state: changed levels become quote events,
// vanished prices become removes, and a session reset becomes a clear.
type L2Producer struct {
	src   TransactionSource
	book  *book.Book
	depth int
	sink  L2Sink
	log   *logger.Entry

	published map[models.Side]map[int64]int64
}

// NewL2Producer wires an L2 converter publishing the top depth levels of
// each side.
func NewL2Producer(src TransactionSource, b *book.Book, depth int, sink L2Sink, log *logger.Log) *L2Producer {
	return &L2Producer{
		src:   src,
		book:  b,
		depth: depth,
		sink:  sink,
		log:   log.WithComponent("l2_producer"),
		published: map[models.Side]map[int64]int64{
			models.SideBuy:  {},
			models.SideSell: {},
		},
	}
}

// Run drains the source until end of stream, a decode or book error, or
// context cancellation.
func (p *L2Producer) Run(ctx context.Context) error {
	events := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tx, err := p.src.Next()
		if err == io.EOF {
			p.log.WithFields(logger.Fields{"events": events}).Info("stream drained")
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
			p.published[models.SideBuy] = map[int64]int64{}
			p.published[models.SideSell] = map[int64]int64{}
			p.sink.WriteEvent(models.L2Event{Kind: models.L2Clear, Timestamp: p.book.LastTimestamp()})
			events++
		}
		for _, rec := range tx {
			if err := p.book.Apply(rec); err != nil {
				return fmt.Errorf("apply record: %w", err)
			}
		}
		events += p.diffSide(models.SideBuy)
		events += p.diffSide(models.SideSell)
	}
}

func (p *L2Producer) diffSide(side models.Side) int {
	ts := p.book.LastTimestamp()
	current := make(map[int64]int64)
	n := 0
	for _, q := range p.book.Levels(side, p.depth) {
		current[q.Price] = q.Volume
		if p.published[side][q.Price] != q.Volume {
			p.sink.WriteEvent(models.L2Event{Kind: models.L2Quote, Side: side, Price: q.Price, Volume: q.Volume, Timestamp: ts})
			n++
		}
	}
	for price := range p.published[side] {
		if _, ok := current[price]; !ok {
			p.sink.WriteEvent(models.L2Event{Kind: models.L2Remove, Side: side, Price: price, Timestamp: ts})
			n++
		}
	}
	p.published[side] = current
	return n
}
