package processor

import (
	"testing"

	"qshflow/models"
)

func TestSystemRecord(t *testing.T) {
	cases := []struct {
		name string
		rec  models.OrderLog
		want bool
	}{
		{"regular", models.OrderLog{OrderFlags: models.OLAdd, Side: models.SideBuy}, true},
		{"non-system", models.OrderLog{OrderFlags: models.OLNonSystem, Side: models.SideBuy}, false},
		{"replay artifact", models.OrderLog{OrderFlags: models.OLNonZeroReplAct, Side: models.SideSell}, false},
		{"side-less", models.OrderLog{OrderFlags: models.OLAdd, Side: models.SideUnknown}, false},
	}
	for _, c := range cases {
		if got := SystemRecord(c.rec); got != c.want {
			t.Errorf("%s: SystemRecord = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestImmediateWithoutTrades(t *testing.T) {
	ioc := models.OrderLog{Type: models.OrderTypeIOC}
	fok := models.OrderLog{Type: models.OrderTypeFOK}
	limit := models.OrderLog{Type: models.OrderTypeLimit}

	cases := []struct {
		name string
		tx   []models.OrderLog
		want bool
	}{
		{"empty", nil, false},
		{"ioc no match", []models.OrderLog{ioc, ioc}, true},
		{"fok killed", []models.OrderLog{fok}, true},
		{"ioc with fills", []models.OrderLog{ioc, ioc, ioc}, false},
		{"limit", []models.OrderLog{limit, limit}, false},
	}
	for _, c := range cases {
		if got := ImmediateWithoutTrades(c.tx); got != c.want {
			t.Errorf("%s: ImmediateWithoutTrades = %v, want %v", c.name, got, c.want)
		}
	}
}
