package book

import (
	"fmt"

	"github.com/google/btree"

	"qshflow/logger"
	"qshflow/models"
	"qshflow/qsh"
)

// InvariantError reports a book state violation caused by an order-log
// record that contradicts the current book contents.
type InvariantError struct {
	Reason string
	Record models.OrderLog
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("book invariant: %s (%s)", e.Reason, e.Record.String())
}

type bookOrder struct {
	id     int64
	amount int64
}

type priceLevel struct {
	price  int64
	volume int64
	orders []bookOrder
}

type bidLevel struct{ *priceLevel }

func (l bidLevel) Less(than btree.Item) bool { return l.price > than.(bidLevel).price }

type askLevel struct{ *priceLevel }

func (l askLevel) Less(than btree.Item) bool { return l.price < than.(askLevel).price }

type orderRef struct {
	side  models.Side
	price int64
}

// Book is an L3 limit order book rebuilt from the order-log stream. Each
// side keeps its price levels in a btree ordered best-first, every level
// holds a FIFO of live orders, and an id index maps orders back to their
// level. Not safe for concurrent use.
type Book struct {
	bids   *btree.BTree
	asks   *btree.BTree
	index  map[int64]orderRef
	lastTS int64
	strict bool
	log    *logger.Entry
}

// New builds an empty book. In strict mode unclassifiable records are
// invariant errors; otherwise they are logged and skipped.
func New(strict bool, log *logger.Entry) *Book {
	return &Book{
		bids:   btree.New(2),
		asks:   btree.New(2),
		index:  make(map[int64]orderRef),
		strict: strict,
		log:    log,
	}
}

func (b *Book) getLevel(side models.Side, price int64) *priceLevel {
	if side == models.SideBuy {
		if it := b.bids.Get(bidLevel{&priceLevel{price: price}}); it != nil {
			return it.(bidLevel).priceLevel
		}
		return nil
	}
	if it := b.asks.Get(askLevel{&priceLevel{price: price}}); it != nil {
		return it.(askLevel).priceLevel
	}
	return nil
}

func (b *Book) putLevel(side models.Side, l *priceLevel) {
	if side == models.SideBuy {
		b.bids.ReplaceOrInsert(bidLevel{l})
	} else {
		b.asks.ReplaceOrInsert(askLevel{l})
	}
}

func (b *Book) dropLevel(side models.Side, price int64) {
	if side == models.SideBuy {
		b.bids.Delete(bidLevel{&priceLevel{price: price}})
	} else {
		b.asks.Delete(askLevel{&priceLevel{price: price}})
	}
}

// Apply folds one classified order-log record into the book.
func (b *Book) Apply(rec models.OrderLog) error {
	b.lastTS = qsh.MillisToUnix(rec.Timestamp)
	switch rec.Event {
	case models.EventAdd:
		return b.add(rec)
	case models.EventFill:
		return b.fill(rec)
	case models.EventCancel, models.EventRemove:
		return b.remove(rec)
	}
	if b.strict {
		return &InvariantError{Reason: "unclassifiable record", Record: rec}
	}
	if b.log != nil {
		b.log.WithFields(logger.Fields{"record": rec.String()}).Warn("skipping unclassifiable record")
	}
	return nil
}

func (b *Book) add(rec models.OrderLog) error {
	if _, exists := b.index[rec.OrderID]; exists {
		return &InvariantError{Reason: "duplicate order id", Record: rec}
	}
	if rec.AmountRest < 0 {
		return &InvariantError{Reason: "negative resting amount", Record: rec}
	}
	l := b.getLevel(rec.Side, rec.Price)
	if l == nil {
		l = &priceLevel{price: rec.Price}
		b.putLevel(rec.Side, l)
	}
	l.orders = append(l.orders, bookOrder{id: rec.OrderID, amount: rec.AmountRest})
	l.volume += rec.AmountRest
	b.index[rec.OrderID] = orderRef{side: rec.Side, price: rec.Price}
	return nil
}

func (b *Book) fill(rec models.OrderLog) error {
	ref, ok := b.index[rec.OrderID]
	if !ok {
		return &InvariantError{Reason: "fill for unknown order id", Record: rec}
	}
	l := b.getLevel(ref.side, ref.price)
	if l == nil {
		return &InvariantError{Reason: "indexed level missing", Record: rec}
	}
	pos := -1
	for i := range l.orders {
		if l.orders[i].id == rec.OrderID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return &InvariantError{Reason: "indexed order missing from level", Record: rec}
	}
	l.orders[pos].amount -= rec.Amount
	l.volume -= rec.Amount
	if l.orders[pos].amount < 0 || l.volume < 0 {
		return &InvariantError{Reason: "fill exceeds resting amount", Record: rec}
	}
	if l.orders[pos].amount == 0 {
		l.orders = append(l.orders[:pos], l.orders[pos+1:]...)
		delete(b.index, rec.OrderID)
	}
	return b.reapLevel(ref, l, rec)
}

func (b *Book) remove(rec models.OrderLog) error {
	ref, ok := b.index[rec.OrderID]
	if !ok {
		return &InvariantError{Reason: "removal of unknown order id", Record: rec}
	}
	l := b.getLevel(ref.side, ref.price)
	if l == nil {
		return &InvariantError{Reason: "indexed level missing", Record: rec}
	}
	for i := range l.orders {
		if l.orders[i].id == rec.OrderID {
			l.volume -= l.orders[i].amount
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			delete(b.index, rec.OrderID)
			if l.volume < 0 {
				return &InvariantError{Reason: "negative level volume", Record: rec}
			}
			return b.reapLevel(ref, l, rec)
		}
	}
	return &InvariantError{Reason: "indexed order missing from level", Record: rec}
}

func (b *Book) reapLevel(ref orderRef, l *priceLevel, rec models.OrderLog) error {
	if len(l.orders) == 0 {
		if l.volume != 0 {
			return &InvariantError{Reason: "empty level with residual volume", Record: rec}
		}
		b.dropLevel(ref.side, ref.price)
	}
	return nil
}

// Depth returns the number of populated price levels on a side.
func (b *Book) Depth(side models.Side) int {
	if side == models.SideBuy {
		return b.bids.Len()
	}
	return b.asks.Len()
}

// Best returns the top-of-book price and aggregate volume for a side.
func (b *Book) Best(side models.Side) (price, volume int64, ok bool) {
	if side == models.SideBuy {
		if it := b.bids.Min(); it != nil {
			l := it.(bidLevel)
			return l.price, l.volume, true
		}
		return 0, 0, false
	}
	if it := b.asks.Min(); it != nil {
		l := it.(askLevel)
		return l.price, l.volume, true
	}
	return 0, 0, false
}

// MidPrice returns the midpoint of the best bid and ask, or 0 when either
// side is empty.
func (b *Book) MidPrice() float64 {
	bid, _, okB := b.Best(models.SideBuy)
	ask, _, okA := b.Best(models.SideSell)
	if !okB || !okA {
		return 0
	}
	return float64(bid+ask) / 2
}

// Snapshot returns the top n levels of both sides as a flat row: the Unix
// millisecond timestamp of the last applied event followed by bid price,
// bid volume, ask price, ask volume for each level walking away from the
// touch. It returns nil when either side holds fewer than n levels.
func (b *Book) Snapshot(n int) []int64 {
	if n <= 0 || b.bids.Len() < n || b.asks.Len() < n {
		return nil
	}
	bids := make([]*priceLevel, 0, n)
	b.bids.Ascend(func(it btree.Item) bool {
		bids = append(bids, it.(bidLevel).priceLevel)
		return len(bids) < n
	})
	asks := make([]*priceLevel, 0, n)
	b.asks.Ascend(func(it btree.Item) bool {
		asks = append(asks, it.(askLevel).priceLevel)
		return len(asks) < n
	})
	row := make([]int64, 0, 1+4*n)
	row = append(row, b.lastTS)
	for i := 0; i < n; i++ {
		row = append(row, bids[i].price, bids[i].volume, asks[i].price, asks[i].volume)
	}
	return row
}

// Levels returns up to n aggregated levels of a side walking away from
// the touch, or every level when n <= 0.
func (b *Book) Levels(side models.Side, n int) []models.Quote {
	tree := b.asks
	if side == models.SideBuy {
		tree = b.bids
	}
	out := make([]models.Quote, 0, tree.Len())
	tree.Ascend(func(it btree.Item) bool {
		var l *priceLevel
		if side == models.SideBuy {
			l = it.(bidLevel).priceLevel
		} else {
			l = it.(askLevel).priceLevel
		}
		out = append(out, models.Quote{Price: l.price, Volume: l.volume})
		return n <= 0 || len(out) < n
	})
	return out
}

// LastTimestamp returns the Unix millisecond timestamp of the most
// recently applied record.
func (b *Book) LastTimestamp() int64 { return b.lastTS }

// Clear drops every order and level, keeping the last event timestamp.
func (b *Book) Clear() {
	b.bids.Clear(false)
	b.asks.Clear(false)
	b.index = make(map[int64]orderRef)
}
