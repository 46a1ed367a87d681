package auth

import "errors"

// Actor identifies who is performing an operation and within which
// organization. Every lifecycle service takes it explicitly instead of
// reading ambient session state.
type Actor struct {
	UserID         string
	OrganizationID string
	Role           string
}

const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RolePurchasing = "purchasing"
	RoleWarehouse  = "warehouse"
	RoleAccounting = "accounting"
	RoleViewer     = "viewer"
)

var allowedRoles = map[string]bool{
	RoleAdmin:      true,
	RoleManager:    true,
	RolePurchasing: true,
	RoleWarehouse:  true,
	RoleAccounting: true,
	RoleViewer:     true,
}

var ErrForbidden = errors.New("insufficient permissions")

func IsValidRole(role string) bool {
	return allowedRoles[role]
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// RequireAdmin is the single guard used by every admin-gated transition.
// Roles other than admin are stored and displayed but carry no extra
// permissions; there is no role hierarchy.
func RequireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
