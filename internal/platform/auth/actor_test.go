package auth

import "testing"

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed bool
	}{
		{"Admin", RoleAdmin, true},
		{"Manager", RoleManager, false},
		{"Purchasing", RolePurchasing, false},
		{"Warehouse", RoleWarehouse, false},
		{"Accounting", RoleAccounting, false},
		{"Viewer", RoleViewer, false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := Actor{UserID: "usr_1", OrganizationID: "org_1", Role: tt.role}
			err := RequireAdmin(actor)
			if tt.allowed && err != nil {
				t.Errorf("Expected admin to pass, got %v", err)
			}
			if !tt.allowed && err != ErrForbidden {
				t.Errorf("Expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleManager, RolePurchasing, RoleWarehouse, RoleAccounting, RoleViewer} {
		if !IsValidRole(role) {
			t.Errorf("Expected %s to be valid", role)
		}
	}
	for _, role := range []string{"", "owner", "superuser", "Admin"} {
		if IsValidRole(role) {
			t.Errorf("Expected %s to be invalid", role)
		}
	}
}
