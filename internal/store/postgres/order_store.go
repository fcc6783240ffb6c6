package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// OrderStore implements domain.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore creates a new OrderStore backed by the given connection pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderSelect = `
	SELECT o.id, o.user_id, COALESCE(u.email, ''), o.domain_id, o.domain_name,
		o.amount_cents, o.status, o.created_at, o.updated_at
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.UserEmail, &o.DomainID, &o.DomainName,
		&o.AmountCents, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: order rows: %w", err)
	}
	return out, nil
}

// Create reserves the ordered domain and inserts the pending order in one
// transaction. It fails with domain.ErrNotAvailable when the domain is not
// available.
func (s *OrderStore) Create(ctx context.Context, o domain.Order) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE domains SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			string(domain.DomainStatusReserved), o.DomainID, string(domain.DomainStatusAvailable))
		if err != nil {
			return fmt.Errorf("postgres: reserve domain %s: %w", o.DomainID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("postgres: reserve domain %s: %w", o.DomainID, domain.ErrNotAvailable)
		}

		const query = `
			INSERT INTO orders (
				id, user_id, domain_id, domain_name, amount_cents, status,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`
		if _, err := tx.Exec(ctx, query,
			o.ID, o.UserID, o.DomainID, o.DomainName, o.AmountCents, string(o.Status), o.CreatedAt,
		); err != nil {
			return fmt.Errorf("postgres: create order %s: %w", o.ID, err)
		}
		return nil
	})
}

// UpdateStatus moves an order to status and the ordered domain to the
// matching sale status in one transaction. Illegal transitions fail with
// domain.ErrInvalidState.
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		var current, domainID string
		err := tx.QueryRow(ctx,
			`SELECT status, domain_id FROM orders WHERE id = $1 FOR UPDATE`, id).
			Scan(&current, &domainID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("postgres: lock order %s: %w", id, err)
		}
		if !domain.OrderStatus(current).CanMoveTo(status) {
			return fmt.Errorf("postgres: order %s %s -> %s: %w", id, current, status, domain.ErrInvalidState)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			string(status), id); err != nil {
			return fmt.Errorf("postgres: update order status %s: %w", id, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE domains SET status = $1, updated_at = NOW() WHERE id = $2`,
			string(status.DomainStatusAfter()), domainID); err != nil {
			return fmt.Errorf("postgres: update domain %s for order %s: %w", domainID, id, err)
		}
		return nil
	})
}

// GetByID retrieves an order by its primary key.
func (s *OrderStore) GetByID(ctx context.Context, id string) (domain.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return domain.Order{}, notFound(err, "get order %s", id)
	}
	return o, nil
}

// ListByUser returns a user's orders, newest first.
func (s *OrderStore) ListByUser(ctx context.Context, userID string, opts domain.ListOpts) ([]domain.Order, error) {
	query := orderSelect + ` WHERE o.user_id = $1`
	args := []any{userID}
	if opts.Status != "" {
		args = append(args, opts.Status)
		query += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	query, args = listSuffix(query, args, "o.created_at DESC", opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders for user %s: %w", userID, err)
	}
	return collectOrders(rows)
}

// List returns every order, newest first, with optional status and time
// filters.
func (s *OrderStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Order, error) {
	query := orderSelect + ` WHERE 1=1`
	var args []any
	if opts.Status != "" {
		args = append(args, opts.Status)
		query += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(" AND o.created_at >= $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		query += fmt.Sprintf(" AND o.created_at <= $%d", len(args))
	}
	query, args = listSuffix(query, args, "o.created_at DESC", opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	return collectOrders(rows)
}

// CountByStatus returns the number of orders in each status.
func (s *OrderStore) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count orders by status: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.OrderStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan order status count: %w", err)
		}
		out[domain.OrderStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: order status rows: %w", err)
	}
	return out, nil
}

// Revenue sums the amounts of paid and completed orders.
func (s *OrderStore) Revenue(ctx context.Context) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM orders WHERE status IN ($1, $2)`,
		string(domain.OrderStatusPaid), string(domain.OrderStatusCompleted)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: revenue: %w", err)
	}
	return total, nil
}
