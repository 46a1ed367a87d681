package repositories

import (
	"database/sql"
	"time"

	"opsdeck/internal/platform/models"
)

type PendingUserRepository struct {
	db *sql.DB
}

func NewPendingUserRepository(db *sql.DB) *PendingUserRepository {
	return &PendingUserRepository{db: db}
}

func (r *PendingUserRepository) Create(p *models.PendingUser) error {
	_, err := r.db.Exec(`
		INSERT INTO pending_users (id, organization_id, email, full_name, requested_role, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.OrganizationID, p.Email, p.FullName, p.RequestedRole, p.Status, p.CreatedAt)
	return err
}

func (r *PendingUserRepository) GetByID(id, orgID string) (*models.PendingUser, error) {
	p := &models.PendingUser{}
	err := r.db.QueryRow(`
		SELECT id, organization_id, email, full_name, requested_role, status, COALESCE(reviewed_by, ''), reviewed_at, created_at
		FROM pending_users WHERE id = ? AND organization_id = ?
	`, id, orgID).Scan(&p.ID, &p.OrganizationID, &p.Email, &p.FullName, &p.RequestedRole, &p.Status, &p.ReviewedBy, &p.ReviewedAt, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PendingUserRepository) ListByStatus(orgID, status string) ([]*models.PendingUser, error) {
	rows, err := r.db.Query(`
		SELECT id, organization_id, email, full_name, requested_role, status, COALESCE(reviewed_by, ''), reviewed_at, created_at
		FROM pending_users WHERE organization_id = ? AND status = ?
		ORDER BY created_at DESC
	`, orgID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*models.PendingUser
	for rows.Next() {
		p := &models.PendingUser{}
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Email, &p.FullName, &p.RequestedRole, &p.Status, &p.ReviewedBy, &p.ReviewedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkReviewed flips a pending request to its terminal status. The
// status = 'pending' condition makes a second review a no-op so the
// caller can detect and reject it.
func (r *PendingUserRepository) MarkReviewed(id, orgID, status, reviewerID, requestedRole string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE pending_users
		SET status = ?, reviewed_by = ?, reviewed_at = ?, requested_role = ?
		WHERE id = ? AND organization_id = ? AND status = 'pending'
	`, status, reviewerID, time.Now().Unix(), requestedRole, id, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
