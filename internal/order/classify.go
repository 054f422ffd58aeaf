package order

import "time"

// Buckets is the derived three-way view of the full order set. Every
// order lands in exactly one bucket.
type Buckets struct {
	Pending   []Order
	Confirmed []Order
	Archived  []Order
}

// Classify partitions orders relative to now. The archived flag is
// checked first and always wins, even over a future delivery date; of
// the rest, orders whose delivery date (at start of day) is today or
// later are confirmed, everything else is pending.
func Classify(orders []Order, now time.Time) Buckets {
	today := StartOfDay(now)

	var buckets Buckets
	for _, o := range orders {
		switch {
		case o.Archived:
			buckets.Archived = append(buckets.Archived, o)
		case o.DeliveryDate != nil && !StartOfDay(*o.DeliveryDate).Before(today):
			buckets.Confirmed = append(buckets.Confirmed, o)
		default:
			buckets.Pending = append(buckets.Pending, o)
		}
	}
	return buckets
}

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
