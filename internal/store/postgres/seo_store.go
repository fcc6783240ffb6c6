package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// SEOStore implements domain.SEOStore using PostgreSQL.
type SEOStore struct {
	pool *pgxpool.Pool
}

// NewSEOStore creates a new SEOStore backed by the given connection pool.
func NewSEOStore(pool *pgxpool.Pool) *SEOStore {
	return &SEOStore{pool: pool}
}

const seoCols = `page, title, description, keywords, og_image, updated_at`

// Get returns the metadata for a page.
func (s *SEOStore) Get(ctx context.Context, page string) (domain.SEOMeta, error) {
	var m domain.SEOMeta
	err := s.pool.QueryRow(ctx, `SELECT `+seoCols+` FROM seo_meta WHERE page = $1`, page).
		Scan(&m.Page, &m.Title, &m.Description, &m.Keywords, &m.OGImage, &m.UpdatedAt)
	if err != nil {
		return domain.SEOMeta{}, notFound(err, "get seo %s", page)
	}
	return m, nil
}

// Upsert inserts or replaces a page's metadata.
func (s *SEOStore) Upsert(ctx context.Context, m domain.SEOMeta) error {
	const query = `
		INSERT INTO seo_meta (page, title, description, keywords, og_image, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (page) DO UPDATE SET
			title       = EXCLUDED.title,
			description = EXCLUDED.description,
			keywords    = EXCLUDED.keywords,
			og_image    = EXCLUDED.og_image,
			updated_at  = NOW()`
	if _, err := s.pool.Exec(ctx, query, m.Page, m.Title, m.Description, m.Keywords, m.OGImage); err != nil {
		return fmt.Errorf("postgres: upsert seo %s: %w", m.Page, err)
	}
	return nil
}

// Delete removes a page's metadata.
func (s *SEOStore) Delete(ctx context.Context, page string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM seo_meta WHERE page = $1`, page)
	if err != nil {
		return fmt.Errorf("postgres: delete seo %s: %w", page, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns metadata for every page ordered by page key.
func (s *SEOStore) List(ctx context.Context) ([]domain.SEOMeta, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+seoCols+` FROM seo_meta ORDER BY page`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list seo: %w", err)
	}
	defer rows.Close()

	var out []domain.SEOMeta
	for rows.Next() {
		var m domain.SEOMeta
		if err := rows.Scan(&m.Page, &m.Title, &m.Description, &m.Keywords, &m.OGImage, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan seo: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: seo rows: %w", err)
	}
	return out, nil
}

// SettingStore implements domain.SettingStore using PostgreSQL.
type SettingStore struct {
	pool *pgxpool.Pool
}

// NewSettingStore creates a new SettingStore backed by the given connection pool.
func NewSettingStore(pool *pgxpool.Pool) *SettingStore {
	return &SettingStore{pool: pool}
}

// Get returns one setting as stored.
func (s *SettingStore) Get(ctx context.Context, key string) (domain.Setting, error) {
	var st domain.Setting
	err := s.pool.QueryRow(ctx, `SELECT key, value, secret, updated_at FROM settings WHERE key = $1`, key).
		Scan(&st.Key, &st.Value, &st.Secret, &st.UpdatedAt)
	if err != nil {
		return domain.Setting{}, notFound(err, "get setting %s", key)
	}
	return st, nil
}

// Upsert inserts or replaces a setting.
func (s *SettingStore) Upsert(ctx context.Context, st domain.Setting) error {
	const query = `
		INSERT INTO settings (key, value, secret, updated_at) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value      = EXCLUDED.value,
			secret     = EXCLUDED.secret,
			updated_at = NOW()`
	if _, err := s.pool.Exec(ctx, query, st.Key, st.Value, st.Secret); err != nil {
		return fmt.Errorf("postgres: upsert setting %s: %w", st.Key, err)
	}
	return nil
}

// Delete removes a setting.
func (s *SettingStore) Delete(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("postgres: delete setting %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns every setting ordered by key.
func (s *SettingStore) List(ctx context.Context) ([]domain.Setting, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value, secret, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settings: %w", err)
	}
	defer rows.Close()

	var out []domain.Setting
	for rows.Next() {
		var st domain.Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.Secret, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan setting: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: setting rows: %w", err)
	}
	return out, nil
}
