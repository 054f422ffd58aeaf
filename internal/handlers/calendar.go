package handlers

import (
	"net/http"
	"time"

	"github.com/entregaops-platform/api/internal/httpx"
	"github.com/entregaops-platform/api/internal/middleware"
	"github.com/entregaops-platform/api/internal/order"
)

type calendarDayPayload struct {
	Day          int        `json:"day"`
	HasOrders    bool       `json:"hasOrders"`
	DominantType order.Type `json:"dominantType,omitempty"`
	Color        string     `json:"color,omitempty"`
}

type calendarResponse struct {
	Year      int                  `json:"year"`
	Month     int                  `json:"month"`
	Days      []calendarDayPayload `json:"days"`
	RequestID string               `json:"requestId"`
}

// GetCalendar aggregates the confirmed orders of one month into
// per-day summaries for the board's calendar view.
func (s *Server) GetCalendar(w http.ResponseWriter, r *http.Request, year int, month int) {
	if month < 1 || month > 12 {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "month must be between 1 and 12", nil)
		return
	}

	orders, err := s.Store.ReadAll(r.Context())
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "Failed to load orders", nil)
		return
	}

	buckets := order.Classify(orders, s.now())
	days := order.AggregateMonth(buckets.Confirmed, year, time.Month(month))

	payload := make([]calendarDayPayload, 0, len(days))
	for _, day := range days {
		entry := calendarDayPayload{Day: day.Day, HasOrders: day.HasOrders}
		if day.HasOrders {
			entry.DominantType = day.DominantType
			entry.Color = day.DominantType.Color()
		}
		payload = append(payload, entry)
	}

	httpx.WriteJSON(w, http.StatusOK, calendarResponse{
		Year:      year,
		Month:     month,
		Days:      payload,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}
