package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/shopnest/internal/model"
)

const orderColumns = `id, user_id, shipping_info, order_items, payment_info, paid_at, items_price, tax_price, shipping_price, total_price, order_status, delivered_at, created_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o        model.Order
		shipping []byte
		items    []byte
		payment  []byte
		status   string
	)

	err := row.Scan(
		&o.ID, &o.UserID, &shipping, &items, &payment, &o.PaidAt,
		&o.ItemsPrice, &o.TaxPrice, &o.ShippingPrice, &o.TotalPrice,
		&status, &o.DeliveredAt, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.OrderStatus = model.OrderStatus(status)

	if err := json.Unmarshal(shipping, &o.ShippingInfo); err != nil {
		return nil, fmt.Errorf("decode shipping info: %w", err)
	}
	if err := json.Unmarshal(items, &o.OrderItems); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(payment, &o.PaymentInfo); err != nil {
		return nil, fmt.Errorf("decode payment info: %w", err)
	}

	return &o, nil
}

type orderDocs struct {
	shipping []byte
	items    []byte
	payment  []byte
}

func encodeOrderDocs(o *model.Order) (orderDocs, error) {
	var (
		d   orderDocs
		err error
	)

	if d.shipping, err = json.Marshal(o.ShippingInfo); err != nil {
		return d, fmt.Errorf("encode shipping info: %w", err)
	}
	if d.items, err = json.Marshal(o.OrderItems); err != nil {
		return d, fmt.Errorf("encode order items: %w", err)
	}
	if d.payment, err = json.Marshal(o.PaymentInfo); err != nil {
		return d, fmt.Errorf("encode payment info: %w", err)
	}

	return d, nil
}

// CreateOrder сохраняет новый заказ. Документ всегда проверяется перед вставкой.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	d, err := encodeOrderDocs(o)
	if err != nil {
		return err
	}

	err = r.withRetry(ctx, func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO orders (`+orderColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			o.ID, o.UserID, d.shipping, d.items, d.payment, o.PaidAt,
			o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
			string(o.OrderStatus), o.DeliveredAt, o.CreatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %s", ErrDuplicate, o.ID)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return o, nil
}

// SaveOrder перезаписывает заказ целиком. Последняя запись побеждает.
func (r *PostgresRepository) SaveOrder(ctx context.Context, o *model.Order, opts SaveOptions) error {
	if opts.Validate {
		if err := o.Validate(); err != nil {
			return err
		}
	}

	d, err := encodeOrderDocs(o)
	if err != nil {
		return err
	}

	var affected int64
	err = r.withRetry(ctx, func() error {
		tag, err := r.db.Exec(ctx,
			`UPDATE orders
			 SET shipping_info = $2, order_items = $3, payment_info = $4, paid_at = $5,
			     items_price = $6, tax_price = $7, shipping_price = $8, total_price = $9,
			     order_status = $10, delivered_at = $11
			 WHERE id = $1`,
			o.ID, d.shipping, d.items, d.payment, o.PaidAt,
			o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
			string(o.OrderStatus), o.DeliveredAt,
		)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrders возвращает заказы по фильтру, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if f.UserID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *f.UserID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var res []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// DeleteOrder удаляет заказ и возвращает число удалённых записей.
func (r *PostgresRepository) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}
	return tag.RowsAffected(), nil
}
