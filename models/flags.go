package models

// Stream identifies the single data stream recorded in a QSH file.
type Stream byte

const (
	StreamQuotes   Stream = 0x10
	StreamDeals    Stream = 0x20
	StreamAuxInfo  Stream = 0x60
	StreamOrderLog Stream = 0x70
)

func (s Stream) String() string {
	switch s {
	case StreamQuotes:
		return "quotes"
	case StreamDeals:
		return "deals"
	case StreamAuxInfo:
		return "auxinfo"
	case StreamOrderLog:
		return "orderlog"
	}
	return "unknown"
}

// Valid reports whether the stream id byte is one we can decode.
func (s Stream) Valid() bool {
	switch s {
	case StreamQuotes, StreamDeals, StreamAuxInfo, StreamOrderLog:
		return true
	}
	return false
}

// OLEntryFlag gates which fields are present in an order-log record.
type OLEntryFlag uint8

const (
	OLEntryDateTime   OLEntryFlag = 1 << 0
	OLEntryOrderID    OLEntryFlag = 1 << 1
	OLEntryPrice      OLEntryFlag = 1 << 2
	OLEntryAmount     OLEntryFlag = 1 << 3
	OLEntryAmountRest OLEntryFlag = 1 << 4
	OLEntryDealID     OLEntryFlag = 1 << 5
	OLEntryDealPrice  OLEntryFlag = 1 << 6
	OLEntryOI         OLEntryFlag = 1 << 7
)

// Has reports whether any bit of f is set in mask.
func (mask OLEntryFlag) Has(f OLEntryFlag) bool { return mask&f != 0 }

// OLFlag carries the exchange-side attributes of an order-log record.
type OLFlag uint16

const (
	OLNonZeroReplAct OLFlag = 1 << 0
	OLNewSession     OLFlag = 1 << 1
	OLAdd            OLFlag = 1 << 2
	OLFill           OLFlag = 1 << 3
	OLBuy            OLFlag = 1 << 4
	OLSell           OLFlag = 1 << 5
	OLSnapshot       OLFlag = 1 << 6
	OLQuote          OLFlag = 1 << 7
	OLCounter        OLFlag = 1 << 8
	OLNonSystem      OLFlag = 1 << 9
	OLTxEnd          OLFlag = 1 << 10
	OLFillOrKill     OLFlag = 1 << 11
	OLMoved          OLFlag = 1 << 12
	OLCanceled       OLFlag = 1 << 13
	OLCanceledGroup  OLFlag = 1 << 14
	OLCrossTrade     OLFlag = 1 << 15
)

func (mask OLFlag) Has(f OLFlag) bool { return mask&f != 0 }

// DealFlag gates which fields are present in a deal record. The two low
// bits carry the aggressor side.
type DealFlag uint8

const (
	DealTimestamp DealFlag = 1 << 2
	DealID        DealFlag = 1 << 3
	DealOrderID   DealFlag = 1 << 4
	DealPrice     DealFlag = 1 << 5
	DealAmount    DealFlag = 1 << 6
	DealOI        DealFlag = 1 << 7
)

func (mask DealFlag) Has(f DealFlag) bool { return mask&f != 0 }

// AuxFlag gates which fields are present in an aux-info record.
type AuxFlag uint8

const (
	AuxTimestamp   AuxFlag = 1 << 0
	AuxAskTotal    AuxFlag = 1 << 1
	AuxBidTotal    AuxFlag = 1 << 2
	AuxOI          AuxFlag = 1 << 3
	AuxPrice       AuxFlag = 1 << 4
	AuxSessionInfo AuxFlag = 1 << 5
	AuxRate        AuxFlag = 1 << 6
	AuxMessage     AuxFlag = 1 << 7
)

func (mask AuxFlag) Has(f AuxFlag) bool { return mask&f != 0 }
