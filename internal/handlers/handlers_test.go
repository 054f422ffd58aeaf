package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entregaops-platform/api/internal/audit"
	"github.com/entregaops-platform/api/internal/config"
	"github.com/entregaops-platform/api/internal/order"
)

var testNow = time.Date(2025, time.August, 15, 10, 30, 0, 0, time.UTC)

type fakeStore struct {
	mu      sync.Mutex
	orders  []order.Order
	failAll bool
}

var errStoreDown = errors.New("store down")

func (f *fakeStore) ReadAll(ctx context.Context) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errStoreDown
	}
	out := make([]order.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return order.Order{}, errStoreDown
	}
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return order.Order{}, order.ErrNotFound
}

func (f *fakeStore) Create(ctx context.Context, params order.CreateParams) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return order.Order{}, errStoreDown
	}
	o := order.Order{
		ID:           uuid.New(),
		OrderNumber:  params.OrderNumber,
		CustomerName: params.CustomerName,
		Type:         params.Type,
		DeliveryDate: params.DeliveryDate,
		SourceFile:   params.SourceFile,
		CreatedAt:    testNow,
	}
	f.orders = append(f.orders, o)
	return o, nil
}

func (f *fakeStore) Update(ctx context.Context, id uuid.UUID, params order.UpdateParams) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return order.Order{}, errStoreDown
	}
	for i, o := range f.orders {
		if o.ID != id {
			continue
		}
		if params.OrderNumber != nil {
			o.OrderNumber = *params.OrderNumber
		}
		if params.CustomerName != nil {
			o.CustomerName = *params.CustomerName
		}
		if params.Type != nil {
			o.Type = *params.Type
		}
		if params.DeliveryDate != nil {
			o.DeliveryDate = params.DeliveryDate
		}
		if params.SourceFile != nil {
			o.SourceFile = params.SourceFile
		}
		f.orders[i] = o
		return o, nil
	}
	return order.Order{}, order.ErrNotFound
}

func (f *fakeStore) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return order.Order{}, errStoreDown
	}
	for i, o := range f.orders {
		if o.ID == id {
			o.Archived = archived
			f.orders[i] = o
			return o, nil
		}
	}
	return order.Order{}, order.ErrNotFound
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errStoreDown
	}
	for i, o := range f.orders {
		if o.ID == id {
			f.orders = append(f.orders[:i], f.orders[i+1:]...)
			return nil
		}
	}
	return order.ErrNotFound
}

func (f *fakeStore) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errStoreDown
	}
	keep := f.orders[:0]
	for _, o := range f.orders {
		found := false
		for _, id := range ids {
			if o.ID == id {
				found = true
				break
			}
		}
		if !found {
			keep = append(keep, o)
		}
	}
	f.orders = keep
	return nil
}

func newTestServer(store *fakeStore) *Server {
	cfg := config.Config{ImportMaxLines: 100, ImportMaxBodyBytes: 1 << 20}
	s := NewServer(cfg, store, audit.NewLogger(nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return testNow }
	return s
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
