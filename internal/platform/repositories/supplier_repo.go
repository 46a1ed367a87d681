package repositories

import (
	"database/sql"

	"opsdeck/internal/platform/models"
)

type SupplierRepository struct {
	db *sql.DB
}

func NewSupplierRepository(db *sql.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(s *models.Supplier) error {
	_, err := r.db.Exec(`
		INSERT INTO suppliers (id, organization_id, name, contact_email, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.OrganizationID, s.Name, s.ContactEmail, s.CreatedAt)
	return err
}

func (r *SupplierRepository) GetByID(id, orgID string) (*models.Supplier, error) {
	s := &models.Supplier{}
	err := r.db.QueryRow(`
		SELECT id, organization_id, name, contact_email, created_at
		FROM suppliers WHERE id = ? AND organization_id = ?
	`, id, orgID).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.ContactEmail, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *SupplierRepository) ListByOrg(orgID string) ([]*models.Supplier, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, name, contact_email, created_at
		FROM suppliers WHERE organization_id = ?
		ORDER BY name ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []*models.Supplier
	for rows.Next() {
		s := &models.Supplier{}
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.ContactEmail, &s.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}
