package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// CategoryStore implements domain.CategoryStore using PostgreSQL.
type CategoryStore struct {
	pool *pgxpool.Pool
}

// NewCategoryStore creates a new CategoryStore backed by the given connection pool.
func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

const categorySelect = `
	SELECT c.id, c.name, c.slug, c.description, c.created_at,
		(SELECT COUNT(*) FROM domains d WHERE d.category_id = c.id)
	FROM categories c`

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.DomainCount)
	return c, err
}

// Create inserts a new category.
func (s *CategoryStore) Create(ctx context.Context, c domain.Category) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO categories (id, name, slug, description, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Slug, c.Description, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: create category %s: %w", c.Name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create category %s: %w", c.Name, err)
	}
	return nil
}

// Update renames or re-describes a category.
func (s *CategoryStore) Update(ctx context.Context, c domain.Category) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE categories SET name = $2, slug = $3, description = $4 WHERE id = $1`,
		c.ID, c.Name, c.Slug, c.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: update category %s: %w", c.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: update category %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a category; its domains become uncategorised.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete category %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a category by its primary key.
func (s *CategoryStore) GetByID(ctx context.Context, id string) (domain.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, categorySelect+` WHERE c.id = $1`, id))
	if err != nil {
		return domain.Category{}, notFound(err, "get category %s", id)
	}
	return c, nil
}

// GetByName retrieves a category by name, case-insensitively.
func (s *CategoryStore) GetByName(ctx context.Context, name string) (domain.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, categorySelect+` WHERE LOWER(c.name) = LOWER($1)`, name))
	if err != nil {
		return domain.Category{}, notFound(err, "get category %q", name)
	}
	return c, nil
}

// List returns every category ordered by name.
func (s *CategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, categorySelect+` ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: category rows: %w", err)
	}
	return out, nil
}

// TagStore implements domain.TagStore using PostgreSQL.
type TagStore struct {
	pool *pgxpool.Pool
}

// NewTagStore creates a new TagStore backed by the given connection pool.
func NewTagStore(pool *pgxpool.Pool) *TagStore {
	return &TagStore{pool: pool}
}

// Create inserts a new tag.
func (s *TagStore) Create(ctx context.Context, t domain.Tag) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tags (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Name, t.Slug, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: create tag %s: %w", t.Name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create tag %s: %w", t.Name, err)
	}
	return nil
}

// Update renames a tag.
func (s *TagStore) Update(ctx context.Context, t domain.Tag) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tags SET name = $2, slug = $3 WHERE id = $1`, t.ID, t.Name, t.Slug)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: update tag %s: %w", t.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: update tag %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a tag and detaches it from every domain.
func (s *TagStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete tag %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a tag by its primary key.
func (s *TagStore) GetByID(ctx context.Context, id string) (domain.Tag, error) {
	var t domain.Tag
	err := s.pool.QueryRow(ctx, `SELECT id, name, slug, created_at FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if err != nil {
		return domain.Tag{}, notFound(err, "get tag %s", id)
	}
	return t, nil
}

// List returns every tag ordered by name.
func (s *TagStore) List(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, slug, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tags: %w", err)
	}
	defer rows.Close()

	var out []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan tag: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: tag rows: %w", err)
	}
	return out, nil
}
