package qshenc

import "qshflow/models"

// OrderLogEncoder emits order-log records against the same cursors the
// decoder keeps, so a decoded record reproduces the fields passed in.
// Prices use separate bid and ask cursors selected by the record's side
// flags.
type OrderLogEncoder struct {
	e *Encoder

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

// NewOrderLogEncoder builds an order-log encoder writing into e.
func NewOrderLogEncoder(e *Encoder) *OrderLogEncoder {
	return &OrderLogEncoder{e: e}
}

// Add appends one record. Only the fields gated by rec.EntryFlags and
// rec.OrderFlags are written; the rest are assumed sticky.
func (enc *OrderLogEncoder) Add(rec models.OrderLog) {
	ft := enc.frameTime + rec.FrameTimeDelta
	enc.e.Growing(enc.frameTime, ft)
	enc.frameTime = ft

	enc.e.Byte(byte(rec.EntryFlags))
	enc.e.Uint16(uint16(rec.OrderFlags))

	side := models.SideUnknown
	switch {
	case rec.OrderFlags.Has(models.OLBuy):
		side = models.SideBuy
		enc.lastSide = models.SideBuy
	case rec.OrderFlags.Has(models.OLSell):
		side = models.SideSell
		enc.lastSide = models.SideSell
	}

	if rec.EntryFlags.Has(models.OLEntryDateTime) {
		enc.e.Growing(enc.timestamp, rec.Timestamp)
		enc.timestamp = rec.Timestamp
	}

	if rec.EntryFlags.Has(models.OLEntryOrderID) {
		if rec.OrderFlags.Has(models.OLAdd) {
			enc.e.Growing(enc.orderID, rec.OrderID)
			enc.orderID = rec.OrderID
		} else {
			enc.e.LEB(rec.OrderID - enc.orderID)
		}
	}

	if rec.EntryFlags.Has(models.OLEntryPrice) {
		s := side
		if s == models.SideUnknown {
			s = enc.lastSide
		}
		if s == models.SideSell {
			enc.e.LEB(rec.Price - enc.askPrice)
			enc.askPrice = rec.Price
		} else {
			enc.e.LEB(rec.Price - enc.bidPrice)
			enc.bidPrice = rec.Price
		}
	}

	if rec.EntryFlags.Has(models.OLEntryAmount) {
		enc.e.LEB(rec.Amount)
		enc.amount = rec.Amount
	}

	if rec.OrderFlags.Has(models.OLFill) {
		if rec.EntryFlags.Has(models.OLEntryAmountRest) {
			enc.e.LEB(rec.AmountRest)
		}
		if rec.EntryFlags.Has(models.OLEntryDealID) {
			enc.e.Growing(enc.dealID, rec.DealID)
			enc.dealID = rec.DealID
		}
		if rec.EntryFlags.Has(models.OLEntryDealPrice) {
			enc.e.LEB(rec.DealPrice - enc.dealPrice)
			enc.dealPrice = rec.DealPrice
		}
		if rec.EntryFlags.Has(models.OLEntryOI) {
			enc.e.LEB(rec.OpenInterest - enc.oi)
			enc.oi = rec.OpenInterest
		}
	}
}

// DealEncoder emits deal records with delta-coded fields.
type DealEncoder struct {
	e *Encoder

	frameTime int64
	timestamp int64
	dealID    int64
	orderID   int64
	price     int64
	amount    int64
	oi        int64
}

// NewDealEncoder builds a deal encoder writing into e.
func NewDealEncoder(e *Encoder) *DealEncoder {
	return &DealEncoder{e: e}
}

// Add appends one record. flags selects which fields are written; the
// side occupies the two low bits of the flag byte.
func (enc *DealEncoder) Add(rec models.Deal, flags models.DealFlag) {
	ft := enc.frameTime + rec.FrameTimeDelta
	enc.e.Growing(enc.frameTime, ft)
	enc.frameTime = ft

	enc.e.Byte(byte(flags) | byte(rec.Side)&3)

	if flags.Has(models.DealTimestamp) {
		enc.e.Growing(enc.timestamp, rec.Timestamp)
		enc.timestamp = rec.Timestamp
	}
	if flags.Has(models.DealID) {
		enc.e.Growing(enc.dealID, rec.DealID)
		enc.dealID = rec.DealID
	}
	if flags.Has(models.DealOrderID) {
		enc.e.LEB(rec.OrderID - enc.orderID)
		enc.orderID = rec.OrderID
	}
	if flags.Has(models.DealPrice) {
		enc.e.LEB(rec.Price - enc.price)
		enc.price = rec.Price
	}
	if flags.Has(models.DealAmount) {
		enc.e.LEB(rec.Amount)
		enc.amount = rec.Amount
	}
	if flags.Has(models.DealOI) {
		enc.e.LEB(rec.OpenInterest - enc.oi)
		enc.oi = rec.OpenInterest
	}
}

// Level is one quotes update: negative volume for a bid, positive for an
// ask, zero to remove the price.
type Level struct {
	Price  int64
	Volume int64
}

// QuotesEncoder emits aggregated-depth records as level update sets.
type QuotesEncoder struct {
	e *Encoder

	frameTime int64
	price     int64
}

// NewQuotesEncoder builds a quotes encoder writing into e.
func NewQuotesEncoder(e *Encoder) *QuotesEncoder {
	return &QuotesEncoder{e: e}
}

// Add appends one record carrying the given level updates.
func (enc *QuotesEncoder) Add(frameTimeDelta int64, updates []Level) {
	ft := enc.frameTime + frameTimeDelta
	enc.e.Growing(enc.frameTime, ft)
	enc.frameTime = ft

	enc.e.LEB(int64(len(updates)))
	for _, u := range updates {
		enc.e.LEB(u.Price - enc.price)
		enc.price = u.Price
		enc.e.LEB(u.Volume)
	}
}

// AuxInfoEncoder emits auxiliary-information records with delta-coded
// fields.
type AuxInfoEncoder struct {
	e *Encoder

	frameTime int64
	timestamp int64
	price     int64
	askTotal  int64
	bidTotal  int64
	oi        int64
	hiLimit   int64
	lowLimit  int64
}

// NewAuxInfoEncoder builds an aux-info encoder writing into e.
func NewAuxInfoEncoder(e *Encoder) *AuxInfoEncoder {
	return &AuxInfoEncoder{e: e}
}

// Add appends one record. Only the fields gated by rec.Flags are
// written.
func (enc *AuxInfoEncoder) Add(rec models.AuxInfo) {
	ft := enc.frameTime + rec.FrameTimeDelta
	enc.e.Growing(enc.frameTime, ft)
	enc.frameTime = ft

	enc.e.Byte(byte(rec.Flags))

	if rec.Flags.Has(models.AuxTimestamp) {
		enc.e.Growing(enc.timestamp, rec.Timestamp)
		enc.timestamp = rec.Timestamp
	}
	if rec.Flags.Has(models.AuxAskTotal) {
		enc.e.LEB(rec.AskTotal - enc.askTotal)
		enc.askTotal = rec.AskTotal
	}
	if rec.Flags.Has(models.AuxBidTotal) {
		enc.e.LEB(rec.BidTotal - enc.bidTotal)
		enc.bidTotal = rec.BidTotal
	}
	if rec.Flags.Has(models.AuxOI) {
		enc.e.LEB(rec.OpenInterest - enc.oi)
		enc.oi = rec.OpenInterest
	}
	if rec.Flags.Has(models.AuxPrice) {
		enc.e.LEB(rec.Price - enc.price)
		enc.price = rec.Price
	}
	if rec.Flags.Has(models.AuxSessionInfo) {
		enc.e.LEB(rec.HiLimit - enc.hiLimit)
		enc.hiLimit = rec.HiLimit
		enc.e.LEB(rec.LowLimit - enc.lowLimit)
		enc.lowLimit = rec.LowLimit
		enc.e.Float64(rec.Deposit)
	}
	if rec.Flags.Has(models.AuxRate) {
		enc.e.Float64(rec.Rate)
	}
	if rec.Flags.Has(models.AuxMessage) {
		enc.e.String(rec.Message)
	}
}
