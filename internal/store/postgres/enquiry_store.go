package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// EnquiryStore implements domain.EnquiryStore using PostgreSQL.
type EnquiryStore struct {
	pool *pgxpool.Pool
}

// NewEnquiryStore creates a new EnquiryStore backed by the given connection pool.
func NewEnquiryStore(pool *pgxpool.Pool) *EnquiryStore {
	return &EnquiryStore{pool: pool}
}

const enquiryCols = `id, COALESCE(domain_id, ''), domain_name, name, email, phone,
	message, offer_cents, status, created_at`

func scanEnquiry(row pgx.Row) (domain.Enquiry, error) {
	var e domain.Enquiry
	var status string
	err := row.Scan(&e.ID, &e.DomainID, &e.DomainName, &e.Name, &e.Email, &e.Phone,
		&e.Message, &e.OfferCents, &status, &e.CreatedAt)
	if err != nil {
		return domain.Enquiry{}, err
	}
	e.Status = domain.EnquiryStatus(status)
	return e, nil
}

// Create inserts a new enquiry.
func (s *EnquiryStore) Create(ctx context.Context, e domain.Enquiry) error {
	const query = `
		INSERT INTO enquiries (
			id, domain_id, domain_name, name, email, phone,
			message, offer_cents, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.pool.Exec(ctx, query,
		e.ID, nullIfEmpty(e.DomainID), e.DomainName, e.Name, e.Email, e.Phone,
		e.Message, e.OfferCents, string(e.Status), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: create enquiry %s: %w", e.ID, err)
	}
	return nil
}

// UpdateStatus changes an enquiry's handling status.
func (s *EnquiryStore) UpdateStatus(ctx context.Context, id string, status domain.EnquiryStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE enquiries SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("postgres: update enquiry status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an enquiry.
func (s *EnquiryStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM enquiries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete enquiry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves an enquiry by its primary key.
func (s *EnquiryStore) GetByID(ctx context.Context, id string) (domain.Enquiry, error) {
	e, err := scanEnquiry(s.pool.QueryRow(ctx, `SELECT `+enquiryCols+` FROM enquiries WHERE id = $1`, id))
	if err != nil {
		return domain.Enquiry{}, notFound(err, "get enquiry %s", id)
	}
	return e, nil
}

// List returns enquiries newest first, optionally filtered by status.
func (s *EnquiryStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Enquiry, error) {
	query := `SELECT ` + enquiryCols + ` FROM enquiries WHERE 1=1`
	var args []any
	if opts.Status != "" {
		args = append(args, opts.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	query, args = listSuffix(query, args, "created_at DESC", opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list enquiries: %w", err)
	}
	defer rows.Close()

	var out []domain.Enquiry
	for rows.Next() {
		e, err := scanEnquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan enquiry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: enquiry rows: %w", err)
	}
	return out, nil
}

// CountOpen returns the number of enquiries not yet closed.
func (s *EnquiryStore) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enquiries WHERE status <> $1`, string(domain.EnquiryStatusClosed)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count open enquiries: %w", err)
	}
	return n, nil
}
