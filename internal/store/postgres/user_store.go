package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore backed by the given connection pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userCols = `id, email, name, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

// Create inserts a new user. A duplicate email yields domain.ErrAlreadyExists.
func (s *UserStore) Create(ctx context.Context, u domain.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userCols+`) VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("postgres: create user %s: %w", u.Email, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("postgres: create user %s: %w", u.Email, err)
	}
	return nil
}

// Update overwrites name, password hash and role.
func (s *UserStore) Update(ctx context.Context, u domain.User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET name = $2, password_hash = $3, role = $4, updated_at = NOW() WHERE id = $1`,
		u.ID, u.Name, u.PasswordHash, string(u.Role))
	if err != nil {
		return fmt.Errorf("postgres: update user %s: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a user and their watchlist. Users who have placed orders
// cannot be deleted; the error wraps domain.ErrInvalidState.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if isFKViolation(err) {
			return fmt.Errorf("postgres: delete user %s: has orders: %w", id, domain.ErrInvalidState)
		}
		return fmt.Errorf("postgres: delete user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a user by primary key.
func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, notFound(err, "get user %s", id)
	}
	return u, nil
}

// GetByEmail retrieves a user by normalised email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
	if err != nil {
		return domain.User{}, notFound(err, "get user by email")
	}
	return u, nil
}

// List returns users newest first, optionally filtered by role (opts.Status)
// and email search.
func (s *UserStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.User, error) {
	query := `SELECT ` + userCols + ` FROM users WHERE 1=1`
	var args []any
	if opts.Status != "" {
		args = append(args, opts.Status)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if opts.Search != "" {
		args = append(args, "%"+escapeLike(opts.Search)+"%")
		query += fmt.Sprintf(` AND email ILIKE $%d ESCAPE '\'`, len(args))
	}
	query, args = listSuffix(query, args, "created_at DESC", opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: user rows: %w", err)
	}
	return out, nil
}

// Count returns the number of registered users.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count users: %w", err)
	}
	return n, nil
}
