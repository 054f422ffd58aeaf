// Package order holds the delivery order model: the fixed type
// enumeration with its priority and display color, the
// pending/confirmed/archived classification, and the monthly calendar
// aggregation used by the board.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("order not found")

// Type is one of the five delivery lifecycle stages. The string values
// are the labels the operators use and the ones persisted in the store.
type Type string

const (
	TypeInstallation Type = "instalacion"
	TypePostdated    Type = "posdatado"
	TypeComplete     Type = "completo"
	TypePartial      Type = "parcial"
	TypePickup       Type = "recogida"
)

// Types lists the valid order types in priority order, highest first.
var Types = []Type{TypePickup, TypePostdated, TypeInstallation, TypeComplete, TypePartial}

const neutralColor = "#9e9e9e"

// Valid reports whether t is one of the five known types.
func (t Type) Valid() bool {
	switch t {
	case TypeInstallation, TypePostdated, TypeComplete, TypePartial, TypePickup:
		return true
	}
	return false
}

// Priority defines the total order over types used during import
// reconciliation: later lifecycle stages are more authoritative.
// Unknown types rank below everything.
func (t Type) Priority() int {
	switch t {
	case TypePickup:
		return 5
	case TypePostdated:
		return 4
	case TypeInstallation:
		return 3
	case TypeComplete:
		return 2
	case TypePartial:
		return 1
	}
	return 0
}

// Supersedes reports whether an observation of type t should replace a
// stored record of type existing. Equal priority never supersedes, so
// re-importing the same batch is a no-op.
func (t Type) Supersedes(existing Type) bool {
	return t.Priority() > existing.Priority()
}

// Color returns the display color for the type. It is derived, never
// stored; rows with an unrecognized type render in a neutral gray.
func (t Type) Color() string {
	switch t {
	case TypeInstallation:
		return "#2196f3"
	case TypePostdated:
		return "#ff9800"
	case TypeComplete:
		return "#4caf50"
	case TypePartial:
		return "#ffc107"
	case TypePickup:
		return "#9c27b0"
	}
	return neutralColor
}

// Order is a delivery order as held by the store. DeliveryDate is a
// calendar date (time-of-day irrelevant, kept at UTC midnight) and is
// nil while the order is unscheduled.
type Order struct {
	ID           uuid.UUID
	OrderNumber  string
	CustomerName string
	Type         Type
	DeliveryDate *time.Time
	Archived     bool
	SourceFile   *string
	CreatedAt    time.Time
}

// CreateParams carries the fields set when a new order row is inserted.
// The store assigns the id and creation timestamp.
type CreateParams struct {
	OrderNumber  string
	CustomerName string
	Type         Type
	DeliveryDate *time.Time
	SourceFile   *string
}

// UpdateParams is a partial update: nil fields are left untouched.
type UpdateParams struct {
	OrderNumber  *string
	CustomerName *string
	Type         *Type
	DeliveryDate *time.Time
	SourceFile   *string
}

// Store is the persistence contract the engine depends on. The import
// commit path only needs Create and Update; the handlers use the rest.
type Store interface {
	ReadAll(ctx context.Context) ([]Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	Create(ctx context.Context, params CreateParams) (Order, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Order, error)
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) (Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) error
}
