package models

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		rec  OrderLog
		want Event
	}{
		{"add wins over everything", OrderLog{OrderFlags: OLAdd | OLFill}, EventAdd},
		{"fill flag", OrderLog{OrderFlags: OLFill, AmountRest: 1}, EventFill},
		{"deal id implies fill", OrderLog{DealID: 7, AmountRest: 1}, EventFill},
		{"canceled", OrderLog{OrderFlags: OLCanceled, AmountRest: 1}, EventCancel},
		{"canceled group", OrderLog{OrderFlags: OLCanceledGroup, AmountRest: 1}, EventCancel},
		{"moved", OrderLog{OrderFlags: OLMoved, AmountRest: 1}, EventCancel},
		{"cross trade", OrderLog{OrderFlags: OLCrossTrade, AmountRest: 1}, EventRemove},
		{"exhausted remainder", OrderLog{AmountRest: 0}, EventRemove},
		{"unclassifiable", OrderLog{AmountRest: 1}, EventUnknown},
	}
	for _, c := range cases {
		if got := c.rec.Classify(); got != c.want {
			t.Errorf("%s: Classify = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestOrderTypeFromFlags(t *testing.T) {
	cases := []struct {
		flags OLFlag
		want  OrderType
	}{
		{OLCounter, OrderTypeIOC},
		{OLFillOrKill, OrderTypeFOK},
		{OLQuote, OrderTypeLimit},
		{OLCounter | OLQuote, OrderTypeIOC},
		{0, OrderTypeUnknown},
	}
	for _, c := range cases {
		if got := OrderTypeFromFlags(c.flags); got != c.want {
			t.Errorf("OrderTypeFromFlags(%#x) = %s, want %s", uint16(c.flags), got, c.want)
		}
	}
}

func TestSideFromByte(t *testing.T) {
	if SideFromByte(1) != SideBuy || SideFromByte(2) != SideSell || SideFromByte(0) != SideUnknown {
		t.Error("unexpected side mapping")
	}
	if SideFromByte(3) != SideUnknown {
		t.Error("reserved side bits should map to unknown")
	}
}

func TestSnapshotRowDepth(t *testing.T) {
	row := SnapshotRow{Values: make([]int64, 12)}
	if row.Depth() != 3 {
		t.Errorf("Depth = %d, want 3", row.Depth())
	}
}
