package order

import "time"

// DaySummary describes one calendar day of the board. DominantType is
// empty when no order falls on the day; the board renders those days
// without a color rather than falling back to any type.
type DaySummary struct {
	Day          int
	HasOrders    bool
	DominantType Type
}

// AggregateMonth computes, for each day of the given month, whether any
// order's delivery date falls on it and which type dominates. The
// dominant type is the highest-priority one present; on equal priority
// the first-encountered order keeps the slot.
func AggregateMonth(orders []Order, year int, month time.Month) []DaySummary {
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	days := make([]DaySummary, daysInMonth)
	for i := range days {
		days[i].Day = i + 1
	}

	for _, o := range orders {
		if o.DeliveryDate == nil {
			continue
		}
		d := StartOfDay(*o.DeliveryDate)
		if d.Year() != year || d.Month() != month {
			continue
		}
		day := &days[d.Day()-1]
		if !day.HasOrders || o.Type.Priority() > day.DominantType.Priority() {
			day.DominantType = o.Type
		}
		day.HasOrders = true
	}
	return days
}
