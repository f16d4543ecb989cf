package processor

import (
	"fmt"
	"io"

	"qshflow/logger"
	"qshflow/models"
)

// OrderLogSource is a pull cursor over decoded order-log records.
type OrderLogSource interface {
	Next() (models.OrderLog, error)
}

// FilteredSource drops records the keep predicate rejects.
type FilteredSource struct {
	src  OrderLogSource
	keep func(models.OrderLog) bool
}

// NewFilteredSource wraps src so that Next only yields records accepted
// by keep.
func NewFilteredSource(src OrderLogSource, keep func(models.OrderLog) bool) *FilteredSource {
	return &FilteredSource{src: src, keep: keep}
}

func (f *FilteredSource) Next() (models.OrderLog, error) {
	for {
		rec, err := f.src.Next()
		if err != nil {
			return rec, err
		}
		logger.IncrementRecords()
		if f.keep(rec) {
			return rec, nil
		}
	}
}

// Grouper partitions an order-log sequence into exchange transactions.
// A transaction ends with the record carrying the TxEnd flag; the
// concatenation of the emitted groups is the input sequence. At most one
// transaction is buffered at a time.
type Grouper struct {
	src OrderLogSource
	buf []models.OrderLog
}

// NewGrouper builds a transaction grouper over src.
func NewGrouper(src OrderLogSource) *Grouper {
	return &Grouper{src: src}
}

// Next returns the next complete transaction. A trailing group cut short
// by end of stream is returned as-is; after that Next returns io.EOF.
func (g *Grouper) Next() ([]models.OrderLog, error) {
	for {
		rec, err := g.src.Next()
		if err == io.EOF {
			if len(g.buf) > 0 {
				tx := g.buf
				g.buf = nil
				return tx, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read transaction record: %w", err)
		}
		g.buf = append(g.buf, rec)
		if rec.OrderFlags.Has(models.OLTxEnd) {
			tx := g.buf
			g.buf = nil
			return tx, nil
		}
	}
}
