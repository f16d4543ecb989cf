package reader

import (
	"fmt"
	"io"
	"sort"

	"qshflow/models"
	"qshflow/qsh"
)

// QuotesReader decodes the aggregated-depth stream. Each record carries a
// set of level updates against a running price-to-volume map; negative
// volumes are bids, positive are asks, zero removes the level. Next
// materializes the full map after the update.
type QuotesReader struct {
	r *qsh.Reader

	frameTime int64
	price     int64
	levels    map[int64]int64
}

// NewQuotesReader builds a decoder over a primitive reader positioned
// just past the file header.
func NewQuotesReader(r *qsh.Reader) *QuotesReader {
	return &QuotesReader{r: r, levels: make(map[int64]int64)}
}

// Next decodes one quotes record and returns the full book state after
// applying it. It returns io.EOF at a clean end of stream.
func (d *QuotesReader) Next() (models.Quotes, error) {
	var rec models.Quotes
	if d.r.EOF() {
		return rec, io.EOF
	}

	ft, err := d.r.Growing(d.frameTime)
	if err != nil {
		return rec, fmt.Errorf("quotes frame time: %w", err)
	}
	rec.FrameTimeDelta = ft - d.frameTime
	d.frameTime = ft

	count, err := d.r.LEB()
	if err != nil {
		return rec, fmt.Errorf("quotes count: %w", err)
	}
	if count < 0 {
		return rec, fmt.Errorf("quotes: negative level count %d", count)
	}

	for i := int64(0); i < count; i++ {
		delta, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("quotes level price: %w", err)
		}
		d.price += delta
		volume, err := d.r.LEB()
		if err != nil {
			return rec, fmt.Errorf("quotes level volume: %w", err)
		}
		if volume == 0 {
			delete(d.levels, d.price)
		} else {
			d.levels[d.price] = volume
		}
	}

	for price, volume := range d.levels {
		if volume < 0 {
			rec.Bids = append(rec.Bids, models.Quote{Price: price, Volume: -volume})
		} else {
			rec.Asks = append(rec.Asks, models.Quote{Price: price, Volume: volume})
		}
	}
	sort.Slice(rec.Bids, func(i, j int) bool { return rec.Bids[i].Price > rec.Bids[j].Price })
	sort.Slice(rec.Asks, func(i, j int) bool { return rec.Asks[i].Price < rec.Asks[j].Price })

	return rec, nil
}
