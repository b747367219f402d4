package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flow4ops/backend/internal/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup within the tenant.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned on a globally duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

const columns = `id, org_id, department_id, email, hashed_password, is_active,
	name, avatar_url, phone, role, last_login_at, created_at, updated_at`

// Repository handles user persistence for the admin surface. Queries are
// scoped by org_id; users of other tenants behave as not-found. Email
// uniqueness is global, not per-tenant.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByOrg returns all users of the tenant.
func (r *Repository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.UserPublic, error) {
	q := `SELECT ` + columns + ` FROM users WHERE org_id = $1 ORDER BY name, email`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u.ToPublic())
	}
	return list, rows.Err()
}

// GetByID returns a user by id within the tenant.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + columns + ` FROM users WHERE id = $1 AND org_id = $2`
	u, err := scanUser(r.pool.QueryRow(ctx, q, id, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a new user into the tenant. The org id is fixed at
// creation and never updated afterwards.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (id, org_id, department_id, email, hashed_password, is_active, name, avatar_url, phone, role)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q,
		u.OrgID, u.DepartmentID, u.Email, u.HashedPassword, u.IsActive,
		u.Name, u.AvatarURL, u.Phone, string(u.Role)).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// Update updates profile fields, department and role. Email, org and
// password are changed through dedicated paths.
func (r *Repository) Update(ctx context.Context, u *models.User) error {
	const q = `UPDATE users
		SET department_id = $3, name = $4, avatar_url = $5, phone = $6, role = $7, updated_at = NOW()
		WHERE id = $1 AND org_id = $2
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, u.ID, u.OrgID, u.DepartmentID, u.Name, u.AvatarURL, u.Phone, string(u.Role)).
		Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// SetActive flips the is_active flag. A deactivated user keeps their row
// but can no longer log in or refresh.
func (r *Repository) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $3, updated_at = NOW() WHERE id = $1 AND org_id = $2`,
		id, orgID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPassword replaces the stored password hash.
func (r *Repository) SetPassword(ctx context.Context, orgID, id uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET hashed_password = $3, updated_at = NOW() WHERE id = $1 AND org_id = $2`,
		id, orgID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAvatarURL stores the avatar object URL for the user's own profile.
func (r *Repository) SetAvatarURL(ctx context.Context, orgID, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar_url = $3, updated_at = NOW() WHERE id = $1 AND org_id = $2`,
		id, orgID, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user from the tenant.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.OrgID, &u.DepartmentID, &u.Email, &u.HashedPassword, &u.IsActive,
		&u.Name, &u.AvatarURL, &u.Phone, &u.Role, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique")
}
