// Package store is the Postgres implementation of order.Store on a
// pgx pool. Dates are persisted as DATE columns; color never is, it is
// recomputed from the type on the way out.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/entregaops-platform/api/internal/order"
)

type Orders struct {
	pool *pgxpool.Pool
}

func NewOrders(pool *pgxpool.Pool) *Orders {
	return &Orders{pool: pool}
}

const orderColumns = `id, order_number, customer_name, order_type, delivery_date, archived, source_file, created_at`

func (s *Orders) ReadAll(ctx context.Context) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (s *Orders) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	return o, err
}

func (s *Orders) Create(ctx context.Context, params order.CreateParams) (order.Order, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO orders (order_number, customer_name, order_type, delivery_date, source_file)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns+`
	`, params.OrderNumber, params.CustomerName, string(params.Type), params.DeliveryDate, params.SourceFile)

	o, err := scanOrder(row)
	if err != nil {
		return order.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

// Update patches only the fields set in params. Delivery date and
// source file keep their stored value when the pointer is nil, matching
// the partial-update contract of the import commit path.
func (s *Orders) Update(ctx context.Context, id uuid.UUID, params order.UpdateParams) (order.Order, error) {
	var orderType *string
	if params.Type != nil {
		value := string(*params.Type)
		orderType = &value
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE orders SET
			order_number  = COALESCE($2, order_number),
			customer_name = COALESCE($3, customer_name),
			order_type    = COALESCE($4, order_type),
			delivery_date = COALESCE($5, delivery_date),
			source_file   = COALESCE($6, source_file)
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, id, params.OrderNumber, params.CustomerName, orderType, params.DeliveryDate, params.SourceFile)

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

func (s *Orders) SetArchived(ctx context.Context, id uuid.UUID, archived bool) (order.Order, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE orders SET archived = $2
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, id, archived)

	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Order{}, order.ErrNotFound
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("set archived: %w", err)
	}
	return o, nil
}

func (s *Orders) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (s *Orders) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete orders: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o         order.Order
		orderType string
	)
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerName,
		&orderType,
		&o.DeliveryDate,
		&o.Archived,
		&o.SourceFile,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, pgx.ErrNoRows
		}
		return order.Order{}, fmt.Errorf("scan order: %w", err)
	}
	o.Type = order.Type(orderType)
	return o, nil
}
