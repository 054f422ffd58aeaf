package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entregaops-platform/api/internal/audit"
	"github.com/entregaops-platform/api/internal/httpx"
	"github.com/entregaops-platform/api/internal/middleware"
	"github.com/entregaops-platform/api/internal/order"
)

const dateLayout = "2006-01-02"

type orderPayload struct {
	ID           uuid.UUID  `json:"id"`
	OrderNumber  string     `json:"orderNumber"`
	CustomerName string     `json:"customerName"`
	Type         order.Type `json:"type"`
	Color        string     `json:"color"`
	DeliveryDate *string    `json:"deliveryDate,omitempty"`
	Archived     bool       `json:"archived"`
	SourceFile   *string    `json:"sourceFile,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func mapOrder(o order.Order) orderPayload {
	payload := orderPayload{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		Type:         o.Type,
		Color:        o.Type.Color(),
		Archived:     o.Archived,
		SourceFile:   o.SourceFile,
		CreatedAt:    o.CreatedAt.UTC(),
	}
	if o.DeliveryDate != nil {
		formatted := o.DeliveryDate.UTC().Format(dateLayout)
		payload.DeliveryDate = &formatted
	}
	return payload
}

func mapOrders(orders []order.Order) []orderPayload {
	payloads := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		payloads = append(payloads, mapOrder(o))
	}
	return payloads
}

type boardResponse struct {
	Pending   []orderPayload `json:"pending"`
	Confirmed []orderPayload `json:"confirmed"`
	Archived  []orderPayload `json:"archived"`
	RequestID string         `json:"requestId"`
}

func (s *Server) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Store.ReadAll(r.Context())
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "Failed to load orders", nil)
		return
	}

	buckets := order.Classify(orders, s.now())
	httpx.WriteJSON(w, http.StatusOK, boardResponse{
		Pending:   mapOrders(buckets.Pending),
		Confirmed: mapOrders(buckets.Confirmed),
		Archived:  mapOrders(buckets.Archived),
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}

type createOrderRequest struct {
	OrderNumber  string  `json:"orderNumber"`
	CustomerName string  `json:"customerName"`
	Type         string  `json:"type"`
	DeliveryDate *string `json:"deliveryDate,omitempty"`
	SourceFile   *string `json:"sourceFile,omitempty"`
}

func (s *Server) PostOrders(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	orderNumber := strings.TrimSpace(req.OrderNumber)
	customerName := strings.TrimSpace(req.CustomerName)
	if orderNumber == "" || customerName == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "orderNumber and customerName are required", nil)
		return
	}

	orderType := order.Type(strings.TrimSpace(req.Type))
	if !orderType.Valid() {
		httpx.WriteError(w, r, http.StatusBadRequest, "unknown_order_type", "type must be one of the known order types", map[string]any{"type": req.Type})
		return
	}

	deliveryDate, ok := parseOptionalDate(w, r, req.DeliveryDate)
	if !ok {
		return
	}

	created, err := s.Store.Create(r.Context(), order.CreateParams{
		OrderNumber:  orderNumber,
		CustomerName: customerName,
		Type:         orderType,
		DeliveryDate: deliveryDate,
		SourceFile:   req.SourceFile,
	})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "Failed to create order", nil)
		return
	}

	s.auditOrder(r, "order.created", created.ID, map[string]any{"orderNumber": created.OrderNumber})
	httpx.WriteJSON(w, http.StatusCreated, mapOrder(created))
}

type updateOrderRequest struct {
	OrderNumber  *string `json:"orderNumber,omitempty"`
	CustomerName *string `json:"customerName,omitempty"`
	Type         *string `json:"type,omitempty"`
	DeliveryDate *string `json:"deliveryDate,omitempty"`
	SourceFile   *string `json:"sourceFile,omitempty"`
}

func (s *Server) PatchOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	params := order.UpdateParams{SourceFile: req.SourceFile}
	if req.OrderNumber != nil {
		trimmed := strings.TrimSpace(*req.OrderNumber)
		if trimmed == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "orderNumber must not be empty", nil)
			return
		}
		params.OrderNumber = &trimmed
	}
	if req.CustomerName != nil {
		trimmed := strings.TrimSpace(*req.CustomerName)
		if trimmed == "" {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "customerName must not be empty", nil)
			return
		}
		params.CustomerName = &trimmed
	}
	if req.Type != nil {
		orderType := order.Type(strings.TrimSpace(*req.Type))
		if !orderType.Valid() {
			httpx.WriteError(w, r, http.StatusBadRequest, "unknown_order_type", "type must be one of the known order types", map[string]any{"type": *req.Type})
			return
		}
		params.Type = &orderType
	}
	if req.DeliveryDate != nil {
		deliveryDate, ok := parseOptionalDate(w, r, req.DeliveryDate)
		if !ok {
			return
		}
		params.DeliveryDate = deliveryDate
	}

	updated, err := s.Store.Update(r.Context(), orderID, params)
	if err != nil {
		writeStoreError(w, r, err, "Failed to update order")
		return
	}

	s.auditOrder(r, "order.updated", updated.ID, map[string]any{"orderNumber": updated.OrderNumber})
	httpx.WriteJSON(w, http.StatusOK, mapOrder(updated))
}

// ConfirmOrder records today's delivery: the order moves to the
// confirmed bucket until the date slips into the past.
func (s *Server) ConfirmOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	today := order.StartOfDay(s.now())
	updated, err := s.Store.Update(r.Context(), orderID, order.UpdateParams{DeliveryDate: &today})
	if err != nil {
		writeStoreError(w, r, err, "Failed to confirm order")
		return
	}

	s.auditOrder(r, "order.confirmed", updated.ID, map[string]any{"orderNumber": updated.OrderNumber})
	httpx.WriteJSON(w, http.StatusOK, mapOrder(updated))
}

func (s *Server) ArchiveOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	s.setArchived(w, r, orderID, true, "order.archived")
}

func (s *Server) RestoreOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	s.setArchived(w, r, orderID, false, "order.restored")
}

func (s *Server) setArchived(w http.ResponseWriter, r *http.Request, orderID uuid.UUID, archived bool, action string) {
	updated, err := s.Store.SetArchived(r.Context(), orderID, archived)
	if err != nil {
		writeStoreError(w, r, err, "Failed to change archive state")
		return
	}

	s.auditOrder(r, action, updated.ID, map[string]any{"orderNumber": updated.OrderNumber})
	httpx.WriteJSON(w, http.StatusOK, mapOrder(updated))
}

func (s *Server) DeleteOrder(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	if err := s.Store.Delete(r.Context(), orderID); err != nil {
		writeStoreError(w, r, err, "Failed to delete order")
		return
	}

	s.auditOrder(r, "order.deleted", orderID, nil)
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (s *Server) PostOrdersBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if len(req.IDs) == 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "ids must not be empty", nil)
		return
	}

	if err := s.Store.DeleteMany(r.Context(), req.IDs); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "store_unavailable", "Failed to delete orders", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		Action:     "order.bulk_deleted",
		EntityType: "order",
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Metadata:   map[string]any{"count": len(req.IDs)},
	})
	w.WriteHeader(http.StatusNoContent)
}

type orderTypePayload struct {
	Type     order.Type `json:"type"`
	Priority int        `json:"priority"`
	Color    string     `json:"color"`
}

// GetOrderTypes serves the fixed catalog the board uses for its legend.
func (s *Server) GetOrderTypes(w http.ResponseWriter, r *http.Request) {
	types := make([]orderTypePayload, 0, len(order.Types))
	for _, typ := range order.Types {
		types = append(types, orderTypePayload{Type: typ, Priority: typ.Priority(), Color: typ.Color()})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"types":     types,
		"requestId": middleware.RequestIDFromContext(r.Context()),
	})
}

func (s *Server) auditOrder(r *http.Request, action string, id uuid.UUID, metadata map[string]any) {
	err := s.Audit.Log(r.Context(), audit.Entry{
		Action:     action,
		EntityType: "order",
		EntityID:   &id,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Metadata:   metadata,
	})
	if err != nil {
		s.Logger.Warn("audit_log_failed", "action", action, "error", err)
	}
}

func parseOptionalDate(w http.ResponseWriter, r *http.Request, value *string) (*time.Time, bool) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, true
	}
	parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(*value), time.UTC)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_date", "deliveryDate must be formatted as YYYY-MM-DD", nil)
		return nil, false
	}
	return &parsed, true
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, order.ErrNotFound) {
		httpx.WriteError(w, r, http.StatusNotFound, "order_not_found", "Order not found", nil)
		return
	}
	httpx.WriteError(w, r, http.StatusInternalServerError, "store_unavailable", message, nil)
}
