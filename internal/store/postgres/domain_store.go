package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// DomainStore implements domain.DomainStore using PostgreSQL.
type DomainStore struct {
	pool *pgxpool.Pool
}

// NewDomainStore creates a new DomainStore backed by the given connection pool.
func NewDomainStore(pool *pgxpool.Pool) *DomainStore {
	return &DomainStore{pool: pool}
}

const domainSelect = `
	SELECT d.id, d.name, d.slug, d.extension,
		COALESCE(d.category_id, ''), COALESCE(c.name, ''),
		ARRAY(SELECT t.name FROM domain_tags dt JOIN tags t ON t.id = dt.tag_id
			WHERE dt.domain_id = d.id ORDER BY t.name),
		d.status, d.price_cents, d.length, d.popularity,
		d.description, d.featured, d.created_at, d.updated_at
	FROM domains d
	LEFT JOIN categories c ON c.id = d.category_id`

func scanDomain(row pgx.Row) (domain.Domain, error) {
	var d domain.Domain
	var status string
	err := row.Scan(
		&d.ID, &d.Name, &d.Slug, &d.Extension,
		&d.CategoryID, &d.Category, &d.Tags,
		&status, &d.PriceCents, &d.Length, &d.Popularity,
		&d.Description, &d.Featured, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return domain.Domain{}, err
	}
	d.Status = domain.DomainStatus(status)
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}

func collectDomains(rows pgx.Rows) ([]domain.Domain, error) {
	defer rows.Close()
	var out []domain.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan domain: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: domain rows: %w", err)
	}
	return out, nil
}

// nullIfEmpty maps "" to SQL NULL for optional foreign keys.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts a new domain.
func (s *DomainStore) Create(ctx context.Context, d domain.Domain) error {
	const query = `
		INSERT INTO domains (
			id, name, slug, extension, category_id, status,
			price_cents, length, popularity, description, featured,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())`

	_, err := s.pool.Exec(ctx, query,
		d.ID, d.Name, d.Slug, d.Extension, nullIfEmpty(d.CategoryID), string(d.Status),
		d.PriceCents, d.Length, d.Popularity, d.Description, d.Featured, d.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: create domain %s: %w", d.Name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create domain %s: %w", d.Name, err)
	}
	return nil
}

// Update overwrites the editable fields of an existing domain.
func (s *DomainStore) Update(ctx context.Context, d domain.Domain) error {
	const query = `
		UPDATE domains SET
			name = $2, slug = $3, extension = $4, category_id = $5, status = $6,
			price_cents = $7, length = $8, popularity = $9, description = $10,
			featured = $11, updated_at = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		d.ID, d.Name, d.Slug, d.Extension, nullIfEmpty(d.CategoryID), string(d.Status),
		d.PriceCents, d.Length, d.Popularity, d.Description, d.Featured,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: update domain %s: %w", d.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: update domain %s: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpsertByName inserts d or, when a domain with the same name exists,
// updates its price, category, status, description and popularity. A
// reserved or sold domain keeps its status. It reports whether a new row
// was created.
func (s *DomainStore) UpsertByName(ctx context.Context, d domain.Domain) (bool, error) {
	const query = `
		INSERT INTO domains (
			id, name, slug, extension, category_id, status,
			price_cents, length, popularity, description, featured,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (name) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			status      = CASE WHEN domains.status IN ('reserved', 'sold')
			                   THEN domains.status ELSE EXCLUDED.status END,
			price_cents = EXCLUDED.price_cents,
			popularity  = EXCLUDED.popularity,
			description = EXCLUDED.description,
			updated_at  = NOW()
		RETURNING (xmax = 0)`

	var inserted bool
	err := s.pool.QueryRow(ctx, query,
		d.ID, d.Name, d.Slug, d.Extension, nullIfEmpty(d.CategoryID), string(d.Status),
		d.PriceCents, d.Length, d.Popularity, d.Description, d.Featured, d.CreatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("postgres: upsert domain %s: %w", d.Name, err)
	}
	return inserted, nil
}

// Delete removes a domain. Domains with orders cannot be deleted; the error
// wraps domain.ErrInvalidState.
func (s *DomainStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM domains WHERE id = $1`, id)
	if err != nil {
		if isFKViolation(err) {
			return fmt.Errorf("postgres: delete domain %s: has orders: %w", id, domain.ErrInvalidState)
		}
		return fmt.Errorf("postgres: delete domain %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a domain by its primary key.
func (s *DomainStore) GetByID(ctx context.Context, id string) (domain.Domain, error) {
	d, err := scanDomain(s.pool.QueryRow(ctx, domainSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return domain.Domain{}, notFound(err, "get domain %s", id)
	}
	return d, nil
}

// GetBySlug retrieves a domain by its URL slug.
func (s *DomainStore) GetBySlug(ctx context.Context, slug string) (domain.Domain, error) {
	d, err := scanDomain(s.pool.QueryRow(ctx, domainSelect+` WHERE d.slug = $1`, slug))
	if err != nil {
		return domain.Domain{}, notFound(err, "get domain by slug %s", slug)
	}
	return d, nil
}

// SetStatus changes only the sale status of a domain.
func (s *DomainStore) SetStatus(ctx context.Context, id string, status domain.DomainStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE domains SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("postgres: set domain status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListPublic returns every domain the storefront shows, newest first.
// Reserved domains stay listed so buyers can see they are taken.
func (s *DomainStore) ListPublic(ctx context.Context) ([]domain.Domain, error) {
	rows, err := s.pool.Query(ctx, domainSelect+` ORDER BY d.created_at DESC, d.name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list public domains: %w", err)
	}
	return collectDomains(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

func domainWhere(opts domain.ListOpts) (string, []any) {
	var clauses []string
	var args []any
	if opts.Status != "" {
		args = append(args, opts.Status)
		clauses = append(clauses, fmt.Sprintf("d.status = $%d", len(args)))
	}
	if opts.Search != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(opts.Search))+"%")
		clauses = append(clauses, fmt.Sprintf(`d.name LIKE $%d ESCAPE '\'`, len(args)))
	}
	if opts.Since != nil {
		args = append(args, *opts.Since)
		clauses = append(clauses, fmt.Sprintf("d.created_at >= $%d", len(args)))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		clauses = append(clauses, fmt.Sprintf("d.created_at <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns domains for the back office with pagination, status and name
// search filters.
func (s *DomainStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Domain, error) {
	where, args := domainWhere(opts)
	query, args := listSuffix(domainSelect+where, args, "d.created_at DESC, d.name", opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list domains: %w", err)
	}
	return collectDomains(rows)
}

// Count returns the number of domains matching opts, ignoring pagination.
func (s *DomainStore) Count(ctx context.Context, opts domain.ListOpts) (int64, error) {
	where, args := domainWhere(opts)
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM domains d`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count domains: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of domains in each status.
func (s *DomainStore) CountByStatus(ctx context.Context) (map[domain.DomainStatus]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM domains GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count domains by status: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.DomainStatus]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan domain status count: %w", err)
		}
		out[domain.DomainStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: domain status rows: %w", err)
	}
	return out, nil
}

// SetTags replaces the tags attached to a domain.
func (s *DomainStore) SetTags(ctx context.Context, domainID string, tagIDs []string) error {
	return withTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM domain_tags WHERE domain_id = $1`, domainID); err != nil {
			return fmt.Errorf("postgres: clear tags for %s: %w", domainID, err)
		}
		if len(tagIDs) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, tagID := range tagIDs {
			batch.Queue(`INSERT INTO domain_tags (domain_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				domainID, tagID)
		}
		br := tx.SendBatch(ctx, batch)
		for i := range tagIDs {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("postgres: tag domain %s item %d: %w", domainID, i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("postgres: tag domain %s: %w", domainID, err)
		}
		return nil
	})
}
