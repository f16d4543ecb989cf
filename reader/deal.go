package reader

import (
	"fmt"
	"io"

	"qshflow/models"
	"qshflow/qsh"
)

// DealReader decodes the deals stream: one trade print per record, with
// every numeric field except the amount delta-coded (the amount is sent
// as an absolute value). The two low bits of the flag byte carry the
// aggressor side.
type DealReader struct {
	r *qsh.Reader

	frameTime int64
	timestamp int64
	dealID    int64
	orderID   int64
	price     int64
	amount    int64
	oi        int64
}

// NewDealReader builds a decoder over a primitive reader positioned just
// past the file header.
func NewDealReader(r *qsh.Reader) *DealReader {
	return &DealReader{r: r}
}

// Next decodes one deal record. It returns io.EOF at a clean end of
// stream; truncation inside a record surfaces as io.ErrUnexpectedEOF.
func (d *DealReader) Next() (models.Deal, error) {
	var rec models.Deal
	if d.r.EOF() {
		return rec, io.EOF
	}

	ft, err := d.r.Growing(d.frameTime)
	if err != nil {
		return rec, fmt.Errorf("deal frame time: %w", err)
	}
	rec.FrameTimeDelta = ft - d.frameTime
	d.frameTime = ft

	fb, err := d.r.Byte()
	if err != nil {
		return rec, fmt.Errorf("deal flags: %w", err)
	}
	flags := models.DealFlag(fb)
	rec.Side = models.SideFromByte(fb & 3)

	if flags.Has(models.DealTimestamp) {
		d.timestamp, err = d.r.Growing(d.timestamp)
		if err != nil {
			return rec, fmt.Errorf("deal timestamp: %w", err)
		}
	}
	rec.Timestamp = d.timestamp

	if flags.Has(models.DealID) {
		d.dealID, err = d.r.Growing(d.dealID)
		if err != nil {
			return rec, fmt.Errorf("deal id: %w", err)
		}
	}
	rec.DealID = d.dealID

	if flags.Has(models.DealOrderID) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("deal order id: %w", err)
		}
		d.orderID += delta
	}
	rec.OrderID = d.orderID

	if flags.Has(models.DealPrice) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("deal price: %w", err)
		}
		d.price += delta
	}
	rec.Price = d.price

	if flags.Has(models.DealAmount) {
		d.amount, err = d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("deal amount: %w", err)
		}
	}
	rec.Amount = d.amount

	if flags.Has(models.DealOI) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("deal open interest: %w", err)
		}
		d.oi += delta
	}
	rec.OpenInterest = d.oi

	return rec, nil
}
