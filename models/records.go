package models

import "fmt"

// Side of an order or deal.
type Side int8

const (
	SideUnknown Side = 0
	SideBuy     Side = 1
	SideSell    Side = 2
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	}
	return "unknown"
}

// SideFromByte maps the two low bits of a deal flag byte to a side.
func SideFromByte(b byte) Side {
	switch b {
	case 1:
		return SideBuy
	case 2:
		return SideSell
	}
	return SideUnknown
}

// OrderType is the time-in-force class of an order-log record.
type OrderType int8

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeLimit
	OrderTypeIOC
	OrderTypeFOK
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "limit"
	case OrderTypeIOC:
		return "ioc"
	case OrderTypeFOK:
		return "fok"
	}
	return "unknown"
}

// OrderTypeFromFlags derives the time-in-force class from order flags.
// Counter orders are immediate-or-cancel on this venue.
func OrderTypeFromFlags(f OLFlag) OrderType {
	switch {
	case f.Has(OLCounter):
		return OrderTypeIOC
	case f.Has(OLFillOrKill):
		return OrderTypeFOK
	case f.Has(OLQuote):
		return OrderTypeLimit
	}
	return OrderTypeUnknown
}

// Event is the book-level class of an order-log record.
type Event int8

const (
	EventUnknown Event = iota
	EventAdd
	EventFill
	EventCancel
	EventRemove
)

func (e Event) String() string {
	switch e {
	case EventAdd:
		return "add"
	case EventFill:
		return "fill"
	case EventCancel:
		return "cancel"
	case EventRemove:
		return "remove"
	}
	return "unknown"
}

// Header is the one file-level block of a QSH v4 capture.
type Header struct {
	RecordingTime int64 // 100-ns ticks since 0001-01-01 UTC
	Version       byte
	Stream        Stream
	Instrument    string
	Recorder      string
	Comment       string
}

// OrderLog is one L3 event: an individual order added, matched or removed.
// Timestamps are exchange milliseconds since 0001-01-01 UTC.
type OrderLog struct {
	FrameTimeDelta int64
	Timestamp      int64
	OrderID        int64
	Price          int64
	Amount         int64
	AmountRest     int64
	DealID         int64
	DealPrice      int64
	OpenInterest   int64
	OrderFlags     OLFlag
	EntryFlags     OLEntryFlag
	Side           Side
	Type           OrderType
	Event          Event
}

func (r OrderLog) String() string {
	return fmt.Sprintf("orderlog{ts=%d id=%d side=%s event=%s price=%d amount=%d rest=%d deal=%d flags=%#x}",
		r.Timestamp, r.OrderID, r.Side, r.Event, r.Price, r.Amount, r.AmountRest, r.DealID, uint16(r.OrderFlags))
}

// Classify derives the book event class from the record's flags, in the
// same priority order the venue documents: explicit add, then a match
// (flag or a non-zero deal id), then the cancel family, then removal of
// a remainder. Anything else is unknown and handled by the book's strict
// mode policy.
func (r *OrderLog) Classify() Event {
	switch {
	case r.OrderFlags.Has(OLAdd):
		return EventAdd
	case r.OrderFlags.Has(OLFill) || r.DealID != 0:
		return EventFill
	case r.OrderFlags.Has(OLCanceled) || r.OrderFlags.Has(OLCanceledGroup) || r.OrderFlags.Has(OLMoved):
		return EventCancel
	case r.OrderFlags.Has(OLCrossTrade) || r.AmountRest == 0:
		return EventRemove
	}
	return EventUnknown
}

// Deal is one trade print from the deals stream.
type Deal struct {
	FrameTimeDelta int64
	Side           Side
	Timestamp      int64
	DealID         int64
	OrderID        int64
	Price          int64
	Amount         int64
	OpenInterest   int64
}

// Quote is a single aggregated price level.
type Quote struct {
	Price  int64
	Volume int64
}

// Quotes is one L2 record: the full aggregated depth after applying the
// record's level updates.
type Quotes struct {
	FrameTimeDelta int64
	Bids           []Quote
	Asks           []Quote
}

// AuxInfo is one auxiliary-information record.
type AuxInfo struct {
	FrameTimeDelta int64
	Timestamp      int64
	Price          int64
	AskTotal       int64
	BidTotal       int64
	OpenInterest   int64
	HiLimit        int64
	LowLimit       int64
	Deposit        float64
	Rate           float64
	Message        string
	Flags          AuxFlag
}

// SnapshotRow is one depth-N book snapshot: the timestamp of the most
// recent applied event followed by 4*N values walking away from the touch
// (bid price, bid volume, ask price, ask volume per level).
type SnapshotRow struct {
	Instrument string
	Timestamp  int64
	Values     []int64
}

// Depth returns the number of levels per side encoded in the row.
func (r SnapshotRow) Depth() int { return len(r.Values) / 4 }

// L2EventKind discriminates incremental L2 messages produced by the
// L3-to-L2 conversion.
type L2EventKind int8

const (
	L2Quote L2EventKind = iota
	L2Remove
	L2Clear
)

func (k L2EventKind) String() string {
	switch k {
	case L2Quote:
		return "quote"
	case L2Remove:
		return "remove"
	case L2Clear:
		return "clear"
	}
	return "unknown"
}

// L2Event is one incremental depth update derived from the L3 book.
type L2Event struct {
	Kind      L2EventKind
	Side      Side
	Price     int64
	Volume    int64
	Timestamp int64 // unix milliseconds
}
