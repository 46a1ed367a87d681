package models

type Organization struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Profile is the identity record behind a login. Role and organization
// live on the Membership, not here: a profile exists before it is tied
// to any organization (invited users set a password later).
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"-"`
	LastLoginAt  *int64 `json:"last_login_at,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// Membership ties a profile to an organization with exactly one role.
type Membership struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	CreatedAt      int64  `json:"created_at"`

	Profile *Profile `json:"profile,omitempty"`
}

type PendingUser struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	RequestedRole  string `json:"requested_role"`
	Status         string `json:"status"` // pending, approved, rejected
	ReviewedBy     string `json:"reviewed_by,omitempty"`
	ReviewedAt     *int64 `json:"reviewed_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

const (
	PendingStatusPending  = "pending"
	PendingStatusApproved = "approved"
	PendingStatusRejected = "rejected"
)

type Supplier struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	ContactEmail   string `json:"contact_email,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}
