package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestClassifyBuckets(t *testing.T) {
	now := time.Date(2025, time.August, 15, 10, 30, 0, 0, time.UTC)

	past := Order{ID: uuid.New(), OrderNumber: "P1", DeliveryDate: date(2025, time.August, 10)}
	today := Order{ID: uuid.New(), OrderNumber: "C1", DeliveryDate: date(2025, time.August, 15)}
	future := Order{ID: uuid.New(), OrderNumber: "C2", DeliveryDate: date(2025, time.August, 20)}
	unscheduled := Order{ID: uuid.New(), OrderNumber: "P2"}
	archivedFuture := Order{ID: uuid.New(), OrderNumber: "A1", DeliveryDate: date(2025, time.August, 20), Archived: true}

	buckets := Classify([]Order{past, today, future, unscheduled, archivedFuture}, now)

	if len(buckets.Pending) != 2 {
		t.Fatalf("expected 2 pending orders, got %+v", buckets.Pending)
	}
	if len(buckets.Confirmed) != 2 {
		t.Fatalf("expected 2 confirmed orders, got %+v", buckets.Confirmed)
	}
	if len(buckets.Archived) != 1 || buckets.Archived[0].OrderNumber != "A1" {
		t.Fatalf("archived flag must win over a future delivery date, got %+v", buckets.Archived)
	}
}

func TestClassifyTodayAtStartOfDayIsConfirmed(t *testing.T) {
	// The comparison ignores time of day on both sides.
	now := time.Date(2025, time.August, 15, 23, 59, 0, 0, time.UTC)
	o := Order{ID: uuid.New(), DeliveryDate: date(2025, time.August, 15)}

	buckets := Classify([]Order{o}, now)
	if len(buckets.Confirmed) != 1 {
		t.Fatalf("order delivering today must be confirmed, got %+v", buckets)
	}
}

func TestClassifyIsExhaustiveAndExclusive(t *testing.T) {
	now := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)
	orders := []Order{
		{ID: uuid.New(), DeliveryDate: date(2025, time.August, 1)},
		{ID: uuid.New(), DeliveryDate: date(2025, time.September, 1)},
		{ID: uuid.New()},
		{ID: uuid.New(), Archived: true},
		{ID: uuid.New(), DeliveryDate: date(2025, time.July, 1), Archived: true},
	}

	buckets := Classify(orders, now)
	total := len(buckets.Pending) + len(buckets.Confirmed) + len(buckets.Archived)
	if total != len(orders) {
		t.Fatalf("every order must land in exactly one bucket: %d in, %d out", len(orders), total)
	}
}
