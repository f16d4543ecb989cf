package reader

import (
	"fmt"
	"io"

	"qshflow/models"
	"qshflow/qsh"
)

// OrderLogReader decodes the OrdLog stream: one record per individual
// order event. Timestamps, order ids, prices, deal ids, deal prices and
// open interest are coded against the previous record; amount and amount
// rest are sent as absolute values. Prices keep separate bid and ask
// cursors selected by the record's side flags.
type OrderLogReader struct {
	r *qsh.Reader

	frameTime int64
	timestamp int64
	orderID   int64
	bidPrice  int64
	askPrice  int64
	lastSide  models.Side
	amount    int64
	dealID    int64
	dealPrice int64
	oi        int64
}

// NewOrderLogReader builds a decoder over a primitive reader positioned
// just past the file header.
func NewOrderLogReader(r *qsh.Reader) *OrderLogReader {
	return &OrderLogReader{r: r}
}

// Next decodes one order-log record. It returns io.EOF at a clean end of
// stream; truncation inside a record surfaces as io.ErrUnexpectedEOF.
func (d *OrderLogReader) Next() (models.OrderLog, error) {
	var rec models.OrderLog
	if d.r.EOF() {
		return rec, io.EOF
	}

	ft, err := d.r.Growing(d.frameTime)
	if err != nil {
		return rec, fmt.Errorf("orderlog frame time: %w", err)
	}
	rec.FrameTimeDelta = ft - d.frameTime
	d.frameTime = ft

	eb, err := d.r.Byte()
	if err != nil {
		return rec, fmt.Errorf("orderlog entry flags: %w", err)
	}
	rec.EntryFlags = models.OLEntryFlag(eb)

	fl, err := d.r.Uint16()
	if err != nil {
		return rec, fmt.Errorf("orderlog flags: %w", err)
	}
	rec.OrderFlags = models.OLFlag(fl)

	buy := rec.OrderFlags.Has(models.OLBuy)
	sell := rec.OrderFlags.Has(models.OLSell)
	if buy && sell {
		return rec, fmt.Errorf("orderlog: record sets both buy and sell flags")
	}
	switch {
	case buy:
		rec.Side = models.SideBuy
		d.lastSide = models.SideBuy
	case sell:
		rec.Side = models.SideSell
		d.lastSide = models.SideSell
	default:
		rec.Side = models.SideUnknown
	}

	if rec.EntryFlags.Has(models.OLEntryDateTime) {
		d.timestamp, err = d.r.Growing(d.timestamp)
		if err != nil {
			return rec, fmt.Errorf("orderlog timestamp: %w", err)
		}
	}
	rec.Timestamp = d.timestamp

	if rec.EntryFlags.Has(models.OLEntryOrderID) {
		if rec.OrderFlags.Has(models.OLAdd) {
			d.orderID, err = d.r.Growing(d.orderID)
			if err != nil {
				return rec, fmt.Errorf("orderlog order id: %w", err)
			}
			rec.OrderID = d.orderID
		} else {
			off, err := d.r.LEB()
			if err != nil {
				return rec, fmt.Errorf("orderlog order id offset: %w", err)
			}
			rec.OrderID = d.orderID + off
		}
	} else {
		rec.OrderID = d.orderID
	}

	if rec.EntryFlags.Has(models.OLEntryPrice) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("orderlog price: %w", err)
		}
		side := rec.Side
		if side == models.SideUnknown {
			side = d.lastSide
		}
		if side == models.SideSell {
			d.askPrice += delta
			rec.Price = d.askPrice
		} else {
			d.bidPrice += delta
			rec.Price = d.bidPrice
		}
	} else {
		if rec.Side == models.SideSell || (rec.Side == models.SideUnknown && d.lastSide == models.SideSell) {
			rec.Price = d.askPrice
		} else {
			rec.Price = d.bidPrice
		}
	}

	if rec.EntryFlags.Has(models.OLEntryAmount) {
		d.amount, err = d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("orderlog amount: %w", err)
		}
	}
	rec.Amount = d.amount

	if rec.OrderFlags.Has(models.OLFill) {
		if rec.EntryFlags.Has(models.OLEntryAmountRest) {
			rec.AmountRest, err = d.r.LEB()
			if err != nil {
				return rec, fmt.Errorf("orderlog amount rest: %w", err)
			}
		}
		if rec.EntryFlags.Has(models.OLEntryDealID) {
			d.dealID, err = d.r.Growing(d.dealID)
			if err != nil {
				return rec, fmt.Errorf("orderlog deal id: %w", err)
			}
			rec.DealID = d.dealID
		}
		if rec.EntryFlags.Has(models.OLEntryDealPrice) {
			delta, err := d.r.LEB()
			if err != nil {
				return rec, fmt.Errorf("orderlog deal price: %w", err)
			}
			d.dealPrice += delta
			rec.DealPrice = d.dealPrice
		}
		if rec.EntryFlags.Has(models.OLEntryOI) {
			delta, err := d.r.LEB()
			if err != nil {
				return rec, fmt.Errorf("orderlog open interest: %w", err)
			}
			d.oi += delta
			rec.OpenInterest = d.oi
		}
	} else if rec.OrderFlags.Has(models.OLAdd) {
		rec.AmountRest = rec.Amount
	}

	rec.Type = models.OrderTypeFromFlags(rec.OrderFlags)
	rec.Event = rec.Classify()
	return rec, nil
}
