package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/domainmart/internal/crypto"
	"github.com/alanyoungcy/domainmart/internal/domain"
)

// TokenIssuer signs and verifies access tokens.
type TokenIssuer interface {
	Sign(subject, role string) (string, crypto.Claims, error)
	Verify(token string) (crypto.Claims, error)
}

// AuthService registers users, issues tokens and manages profiles and
// accounts.
type AuthService struct {
	users       domain.UserStore
	tokens      TokenIssuer
	adminEmails map[string]bool
	fx          effects
	logger      *slog.Logger
}

// NewAuthService creates an AuthService. Users registering with one of
// adminEmails become admins.
func NewAuthService(
	users domain.UserStore,
	tokens TokenIssuer,
	adminEmails []string,
	audit domain.AuditStore,
	logger *slog.Logger,
) *AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[domain.NormalizeEmail(e)] = true
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		adminEmails: admins,
		fx:          newEffects(nil, audit, nil, logger),
		logger:      logger,
	}
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	v := &domain.ValidationError{}
	if !domain.ValidEmail(email) {
		v.Add("email", "must be a valid email address")
	}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	checkPassword(v, "password", in.Password)
	if err := v.Err(); err != nil {
		return AuthResult{}, err
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth_service: %w", err)
	}

	role := domain.RoleUser
	if s.adminEmails[email] {
		role = domain.RoleAdmin
	}
	now := time.Now().UTC()
	u := domain.User{
		ID:           newID(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return AuthResult{}, fmt.Errorf("auth_service: register %s: %w", email, err)
	}

	s.fx.record(ctx, "user.register", u.ID, map[string]any{"email": email, "role": string(role)})
	s.logger.InfoContext(ctx, "auth_service: user registered",
		slog.String("user_id", u.ID),
		slog.String("role", string(role)),
	)
	return s.issue(u)
}

// checkPassword records a problem when pw falls outside the bcrypt-safe
// length bounds.
func checkPassword(v *domain.ValidationError, field, pw string) {
	switch {
	case len(pw) < crypto.MinPasswordLen:
		v.Add(field, fmt.Sprintf("must be at least %d characters", crypto.MinPasswordLen))
	case len(pw) > crypto.MaxPasswordLen:
		v.Add(field, fmt.Sprintf("must be at most %d bytes", crypto.MaxPasswordLen))
	}
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AuthResult{}, domain.ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("auth_service: login: %w", err)
	}
	if err := crypto.CheckPassword(u.PasswordHash, password); err != nil {
		return AuthResult{}, domain.ErrUnauthorized
	}
	return s.issue(u)
}

func (s *AuthService) issue(u domain.User) (AuthResult, error) {
	token, claims, err := s.tokens.Sign(u.ID, string(u.Role))
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth_service: sign token: %w", err)
	}
	return AuthResult{Token: token, ExpiresAt: claims.ExpiresTime(), User: u}, nil
}

// Authenticate verifies an access token.
func (s *AuthService) Authenticate(_ context.Context, token string) (crypto.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return crypto.Claims{}, fmt.Errorf("auth_service: %w: %w", domain.ErrUnauthorized, err)
	}
	return claims, nil
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("auth_service: get user %s: %w", userID, err)
	}
	return u, nil
}

// ProfileInput is the profile form. The password changes only when
// NewPassword is set, and then CurrentPassword must match.
type ProfileInput struct {
	Name            string `json:"name"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdateProfile edits the signed-in user's name and password.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("auth_service: get user %s: %w", userID, err)
	}

	v := &domain.ValidationError{}
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if in.NewPassword != "" {
		if crypto.CheckPassword(u.PasswordHash, in.CurrentPassword) != nil {
			v.Add("current_password", "is incorrect")
		}
		checkPassword(v, "new_password", in.NewPassword)
	}
	if err := v.Err(); err != nil {
		return domain.User{}, err
	}

	if in.NewPassword != "" {
		hash, err := crypto.HashPassword(in.NewPassword)
		if err != nil {
			return domain.User{}, fmt.Errorf("auth_service: %w", err)
		}
		u.PasswordHash = hash
	}
	if err := s.users.Update(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("auth_service: update user %s: %w", userID, err)
	}
	if in.NewPassword != "" {
		s.fx.record(ctx, "user.password", u.ID, nil)
	}
	return u, nil
}

// ListUsers pages through accounts for the back office.
func (s *AuthService) ListUsers(ctx context.Context, opts domain.ListOpts) (Page[domain.User], error) {
	us, err := s.users.List(ctx, opts)
	if err != nil {
		return Page[domain.User]{}, fmt.Errorf("auth_service: list users: %w", err)
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return Page[domain.User]{}, fmt.Errorf("auth_service: count users: %w", err)
	}
	return Page[domain.User]{Items: us, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

// SetRole promotes or demotes a user. Admins cannot demote themselves.
func (s *AuthService) SetRole(ctx context.Context, actor, userID string, role domain.Role) (domain.User, error) {
	v := &domain.ValidationError{}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		v.Add("role", "must be user or admin")
	}
	if actor == userID && role != domain.RoleAdmin {
		v.Add("role", "cannot demote yourself")
	}
	if err := v.Err(); err != nil {
		return domain.User{}, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("auth_service: get user %s: %w", userID, err)
	}
	u.Role = role
	if err := s.users.Update(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("auth_service: set role %s: %w", userID, err)
	}
	s.fx.record(ctx, "user.role", actor, map[string]any{"user_id": userID, "role": string(role)})
	return u, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *AuthService) DeleteUser(ctx context.Context, actor, userID string) error {
	if actor == userID {
		v := &domain.ValidationError{}
		v.Add("id", "cannot delete yourself")
		return v.Err()
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("auth_service: delete user %s: %w", userID, err)
	}
	s.fx.record(ctx, "user.delete", actor, map[string]any{"user_id": userID})
	return nil
}
