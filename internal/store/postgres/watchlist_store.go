package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// WatchlistStore implements domain.WatchlistStore using PostgreSQL.
type WatchlistStore struct {
	pool *pgxpool.Pool
}

// NewWatchlistStore creates a new WatchlistStore backed by the given connection pool.
func NewWatchlistStore(pool *pgxpool.Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

// List returns a user's watched domains, most recently added first, with
// each item's domain loaded.
func (s *WatchlistStore) List(ctx context.Context, userID string) ([]domain.WatchlistItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, domain_id, added_at FROM watchlist WHERE user_id = $1 ORDER BY added_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list watchlist %s: %w", userID, err)
	}
	defer rows.Close()

	var items []domain.WatchlistItem
	var ids []string
	for rows.Next() {
		var it domain.WatchlistItem
		if err := rows.Scan(&it.UserID, &it.DomainID, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan watchlist item: %w", err)
		}
		items = append(items, it)
		ids = append(ids, it.DomainID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: watchlist rows: %w", err)
	}
	if len(ids) == 0 {
		return items, nil
	}

	drows, err := s.pool.Query(ctx, domainSelect+` WHERE d.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: load watched domains: %w", err)
	}
	domains, err := collectDomains(drows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Domain, len(domains))
	for i := range domains {
		byID[domains[i].ID] = &domains[i]
	}
	for i := range items {
		items[i].Domain = byID[items[i].DomainID]
	}
	return items, nil
}

// Add watches a domain. Adding an already-watched domain is a no-op.
func (s *WatchlistStore) Add(ctx context.Context, userID, domainID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO watchlist (user_id, domain_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, domainID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("postgres: watch domain %s: %w", domainID, domain.ErrNotFound)
		}
		return fmt.Errorf("postgres: watch domain %s: %w", domainID, err)
	}
	return nil
}

// Remove stops watching a domain.
func (s *WatchlistStore) Remove(ctx context.Context, userID, domainID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND domain_id = $2`, userID, domainID)
	if err != nil {
		return fmt.Errorf("postgres: unwatch domain %s: %w", domainID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
