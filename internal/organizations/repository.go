package organizations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flow4ops/backend/internal/models"
)

// ErrNotFound is returned when no organization matches the lookup.
var ErrNotFound = errors.New("organization not found")

const columns = `id, name, logo_url, enabled_modules, settings, subscription_tier, created_at, updated_at`

// Repository handles organization persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns an organization by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	q := `SELECT ` + columns + ` FROM organizations WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, q, id))
}

// Create inserts a new organization. New tenants start with the sales
// module unless modules are given.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	if len(org.EnabledModules) == 0 {
		org.EnabledModules = []string{models.ModuleSales}
	}
	if org.Settings == nil {
		org.Settings = map[string]any{}
	}
	if org.SubscriptionTier == "" {
		org.SubscriptionTier = models.TierFree
	}
	const q = `INSERT INTO organizations (id, name, logo_url, enabled_modules, settings, subscription_tier)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, org.Name, org.LogoURL, org.EnabledModules, org.Settings, org.SubscriptionTier).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

// UpdateProfile updates name, logo, settings and subscription tier.
// The tenant id itself is immutable.
func (r *Repository) UpdateProfile(ctx context.Context, org *models.Organization) error {
	const q = `UPDATE organizations
		SET name = $2, logo_url = $3, settings = $4, subscription_tier = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, org.ID, org.Name, org.LogoURL, org.Settings, org.SubscriptionTier).
		Scan(&org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// SetModules replaces the enabled-module set. Callers validate non-emptiness.
func (r *Repository) SetModules(ctx context.Context, id uuid.UUID, modules []string) error {
	const q = `UPDATE organizations SET enabled_modules = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, modules)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLogoURL stores the logo object URL after a completed upload.
func (r *Repository) SetLogoURL(ctx context.Context, id uuid.UUID, url string) error {
	const q = `UPDATE organizations SET logo_url = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) scan(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(&org.ID, &org.Name, &org.LogoURL, &org.EnabledModules, &org.Settings,
		&org.SubscriptionTier, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}
