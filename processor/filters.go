package processor

import "qshflow/models"

// SystemRecord reports whether the record belongs to the regular matching
// flow. Off-book records, replay artifacts and side-less records carry no
// book state and are dropped before grouping.
func SystemRecord(rec models.OrderLog) bool {
	if rec.OrderFlags.Has(models.OLNonSystem) || rec.OrderFlags.Has(models.OLNonZeroReplAct) {
		return false
	}
	return rec.Side != models.SideUnknown
}

// ImmediateWithoutTrades reports whether the transaction is an IOC or FOK
// order that matched nothing. Such transactions leave the book untouched:
// the order never rests and there is no fill inside the group.
func ImmediateWithoutTrades(tx []models.OrderLog) bool {
	if len(tx) == 0 {
		return false
	}
	t := tx[0].Type
	return (t == models.OrderTypeIOC || t == models.OrderTypeFOK) && len(tx) <= 2
}
