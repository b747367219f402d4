package models

import (
	"time"

	"github.com/google/uuid"
)

// Department groups users within an organization (e.g. Sales, HR, IT).
// HeadUserID references a user who is normally also a member of the
// department; the back-reference is kept as an id, never a live pointer.
type Department struct {
	ID         uuid.UUID  `json:"id"`
	OrgID      uuid.UUID  `json:"org_id"`
	Name       string     `json:"name"`
	HeadUserID *uuid.UUID `json:"head_user_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
