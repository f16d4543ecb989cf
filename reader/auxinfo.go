package reader

import (
	"fmt"
	"io"

	"qshflow/models"
	"qshflow/qsh"
)

// AuxInfoReader decodes the auxiliary-information stream. Integer fields
// are delta-coded against their previous values, while the deposit and
// rate arrive as absolute doubles; the session-info group carries price
// limits and the deposit, and the message field is cleared on records
// that do not resend it.
type AuxInfoReader struct {
	r *qsh.Reader

	frameTime int64
	timestamp int64
	price     int64
	askTotal  int64
	bidTotal  int64
	oi        int64
	hiLimit   int64
	lowLimit  int64
	deposit   float64
	rate      float64
}

// NewAuxInfoReader builds a decoder over a primitive reader positioned
// just past the file header.
func NewAuxInfoReader(r *qsh.Reader) *AuxInfoReader {
	return &AuxInfoReader{r: r}
}

// Next decodes one aux-info record. It returns io.EOF at a clean end of
// stream; truncation inside a record surfaces as io.ErrUnexpectedEOF.
func (d *AuxInfoReader) Next() (models.AuxInfo, error) {
	var rec models.AuxInfo
	if d.r.EOF() {
		return rec, io.EOF
	}

	ft, err := d.r.Growing(d.frameTime)
	if err != nil {
		return rec, fmt.Errorf("auxinfo frame time: %w", err)
	}
	rec.FrameTimeDelta = ft - d.frameTime
	d.frameTime = ft

	fb, err := d.r.Byte()
	if err != nil {
		return rec, fmt.Errorf("auxinfo flags: %w", err)
	}
	rec.Flags = models.AuxFlag(fb)

	if rec.Flags.Has(models.AuxTimestamp) {
		d.timestamp, err = d.r.Growing(d.timestamp)
		if err != nil {
			return rec, fmt.Errorf("auxinfo timestamp: %w", err)
		}
	}
	rec.Timestamp = d.timestamp

	if rec.Flags.Has(models.AuxAskTotal) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("auxinfo ask total: %w", err)
		}
		d.askTotal += delta
	}
	rec.AskTotal = d.askTotal

	if rec.Flags.Has(models.AuxBidTotal) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("auxinfo bid total: %w", err)
		}
		d.bidTotal += delta
	}
	rec.BidTotal = d.bidTotal

	if rec.Flags.Has(models.AuxOI) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("auxinfo open interest: %w", err)
		}
		d.oi += delta
	}
	rec.OpenInterest = d.oi

	if rec.Flags.Has(models.AuxPrice) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("auxinfo price: %w", err)
		}
		d.price += delta
	}
	rec.Price = d.price

	if rec.Flags.Has(models.AuxSessionInfo) {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("auxinfo hi limit: %w", err)
		}
		d.hiLimit += delta
		delta, err = d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("auxinfo low limit: %w", err)
		}
		d.lowLimit += delta
		d.deposit, err = d.r.Float64()
		if err != nil {
			return rec, fmt.Errorf("auxinfo deposit: %w", err)
		}
	}
	rec.HiLimit = d.hiLimit
	rec.LowLimit = d.lowLimit
	rec.Deposit = d.deposit

	if rec.Flags.Has(models.AuxRate) {
		d.rate, err = d.r.Float64()
		if err != nil {
			return rec, fmt.Errorf("auxinfo rate: %w", err)
		}
	}
	rec.Rate = d.rate

	if rec.Flags.Has(models.AuxMessage) {
		rec.Message, err = d.r.String()
		if err != nil {
			return rec, fmt.Errorf("auxinfo message: %w", err)
		}
	}

	return rec, nil
}
