package departments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flow4ops/backend/internal/models"
)

// ErrNotFound is returned when no department matches the lookup within the
// tenant.
var ErrNotFound = errors.New("department not found")

const columns = `id, org_id, name, head_user_id, created_at, updated_at`

// Repository handles department persistence. Every query is scoped by
// org_id; a department id from another tenant behaves as not-found.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a departments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByOrg returns all departments of the tenant.
func (r *Repository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Department, error) {
	q := `SELECT ` + columns + ` FROM departments WHERE org_id = $1 ORDER BY name`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.OrgID, &d.Name, &d.HeadUserID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// GetByID returns a department by id within the tenant.
func (r *Repository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Department, error) {
	q := `SELECT ` + columns + ` FROM departments WHERE id = $1 AND org_id = $2`
	var d models.Department
	err := r.pool.QueryRow(ctx, q, id, orgID).
		Scan(&d.ID, &d.OrgID, &d.Name, &d.HeadUserID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Create inserts a department into the tenant.
func (r *Repository) Create(ctx context.Context, d *models.Department) error {
	const q = `INSERT INTO departments (id, org_id, name, head_user_id)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, d.OrgID, d.Name, d.HeadUserID).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// Update updates name and head user. The head may be a member of the
// department itself; the back-reference is just an id.
func (r *Repository) Update(ctx context.Context, d *models.Department) error {
	const q = `UPDATE departments SET name = $3, head_user_id = $4, updated_at = NOW()
		WHERE id = $1 AND org_id = $2
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, d.ID, d.OrgID, d.Name, d.HeadUserID).Scan(&d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a department. Members keep their user rows with
// department_id cleared by the FK.
func (r *Repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1 AND org_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UserInOrg reports whether the user id belongs to the tenant. Used to
// validate head-user assignments.
func (r *Repository) UserInOrg(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND org_id = $2)`, userID, orgID).
		Scan(&exists)
	return exists, err
}
