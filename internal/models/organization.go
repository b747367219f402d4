package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription tiers.
const (
	TierFree         = "free"
	TierStarter      = "starter"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

// ModuleSales is the module every new organization starts with.
const ModuleSales = "sales"

// Organization represents a tenant. All users and departments belong to
// exactly one organization; deleting it cascades to both.
type Organization struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	LogoURL          *string        `json:"logo_url,omitempty"`
	EnabledModules   []string       `json:"enabled_modules"`
	Settings         map[string]any `json:"settings"`
	SubscriptionTier string         `json:"subscription_tier"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// HasModule reports whether the module is enabled for the organization.
// Matching is exact and case-sensitive.
func (o *Organization) HasModule(name string) bool {
	for _, m := range o.EnabledModules {
		if m == name {
			return true
		}
	}
	return false
}
