package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flow4ops/backend/internal/models"
)

// ErrUserNotFound is returned when no user row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `u.id, u.org_id, u.department_id, u.email, u.hashed_password,
	u.is_active, u.name, u.avatar_url, u.phone, u.role, u.last_login_at,
	u.created_at, u.updated_at`

const orgColumns = `o.id, o.name, o.logo_url, o.enabled_modules, o.settings,
	o.subscription_tier, o.created_at, o.updated_at`

// Repository loads users with their organization for authentication.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail returns a user and their organization by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	q := fmt.Sprintf(`SELECT %s, %s FROM users u
		JOIN organizations o ON o.id = u.org_id
		WHERE u.email = $1`, userColumns, orgColumns)
	return r.scanUserWithOrg(r.pool.QueryRow(ctx, q, email))
}

// GetByID returns a user and their organization by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := fmt.Sprintf(`SELECT %s, %s FROM users u
		JOIN organizations o ON o.id = u.org_id
		WHERE u.id = $1`, userColumns, orgColumns)
	return r.scanUserWithOrg(r.pool.QueryRow(ctx, q, id))
}

// TouchLastLogin records a successful login timestamp.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *Repository) scanUserWithOrg(row pgx.Row) (*models.User, error) {
	var u models.User
	var org models.Organization
	err := row.Scan(
		&u.ID, &u.OrgID, &u.DepartmentID, &u.Email, &u.HashedPassword,
		&u.IsActive, &u.Name, &u.AvatarURL, &u.Phone, &u.Role, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt,
		&org.ID, &org.Name, &org.LogoURL, &org.EnabledModules, &org.Settings,
		&org.SubscriptionTier, &org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Organization = &org
	return &u, nil
}
