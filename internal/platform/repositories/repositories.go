package repositories

import (
	"database/sql"
	"time"

	"opsdeck/internal/platform/models"
)

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *OrganizationRepository) CreateTx(tx *sql.Tx, org *models.Organization) error {
	_, err := tx.Exec(`
		INSERT INTO organizations (id, name, created_at)
		VALUES (?, ?, ?)
	`, org.ID, org.Name, org.CreatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	org := &models.Organization{}
	err := r.db.QueryRow(`
		SELECT id, name, created_at FROM organizations WHERE id = ?
	`, id).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(p *models.Profile) error {
	_, err := r.db.Exec(`
		INSERT INTO profiles (id, email, full_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Email, p.FullName, p.PasswordHash, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProfileRepository) CreateTx(tx *sql.Tx, p *models.Profile) error {
	_, err := tx.Exec(`
		INSERT INTO profiles (id, email, full_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Email, p.FullName, p.PasswordHash, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProfileRepository) GetByID(id string) (*models.Profile, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, email, full_name, password_hash, last_login_at, created_at, updated_at
		FROM profiles WHERE id = ?
	`, id))
}

func (r *ProfileRepository) GetByEmail(email string) (*models.Profile, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, email, full_name, password_hash, last_login_at, created_at, updated_at
		FROM profiles WHERE email = ?
	`, email))
}

func (r *ProfileRepository) scanOne(row *sql.Row) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.PasswordHash, &p.LastLoginAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) UpdateFullName(id, fullName string) error {
	_, err := r.db.Exec(`
		UPDATE profiles SET full_name = ?, updated_at = ? WHERE id = ?
	`, fullName, time.Now().Unix(), id)
	return err
}

func (r *ProfileRepository) SetPassword(id, passwordHash string) error {
	_, err := r.db.Exec(`
		UPDATE profiles SET password_hash = ?, updated_at = ? WHERE id = ?
	`, passwordHash, time.Now().Unix(), id)
	return err
}

func (r *ProfileRepository) TouchLastLogin(id string) error {
	_, err := r.db.Exec(`
		UPDATE profiles SET last_login_at = ? WHERE id = ?
	`, time.Now().Unix(), id)
	return err
}

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(m *models.Membership) error {
	_, err := r.db.Exec(`
		INSERT INTO memberships (user_id, organization_id, role, created_at)
		VALUES (?, ?, ?, ?)
	`, m.UserID, m.OrganizationID, m.Role, m.CreatedAt)
	return err
}

func (r *MembershipRepository) CreateTx(tx *sql.Tx, m *models.Membership) error {
	_, err := tx.Exec(`
		INSERT INTO memberships (user_id, organization_id, role, created_at)
		VALUES (?, ?, ?, ?)
	`, m.UserID, m.OrganizationID, m.Role, m.CreatedAt)
	return err
}

// GetForUser returns the user's membership. A user holds at most one
// role per organization; the oldest membership wins when no org is
// specified (matches single-org login behavior).
func (r *MembershipRepository) GetForUser(userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := r.db.QueryRow(`
		SELECT user_id, organization_id, role, created_at
		FROM memberships WHERE user_id = ?
		ORDER BY created_at LIMIT 1
	`, userID).Scan(&m.UserID, &m.OrganizationID, &m.Role, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *MembershipRepository) GetForUserInOrg(userID, orgID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := r.db.QueryRow(`
		SELECT user_id, organization_id, role, created_at
		FROM memberships WHERE user_id = ? AND organization_id = ?
	`, userID, orgID).Scan(&m.UserID, &m.OrganizationID, &m.Role, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *MembershipRepository) ListByOrg(orgID string) ([]*models.Membership, error) {
	rows, err := r.db.Query(`
		SELECT m.user_id, m.organization_id, m.role, m.created_at,
		       p.id, p.email, p.full_name, p.last_login_at, p.created_at, p.updated_at
		FROM memberships m
		JOIN profiles p ON p.id = m.user_id
		WHERE m.organization_id = ?
		ORDER BY m.created_at ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Membership
	for rows.Next() {
		m := &models.Membership{Profile: &models.Profile{}}
		p := m.Profile
		if err := rows.Scan(&m.UserID, &m.OrganizationID, &m.Role, &m.CreatedAt,
			&p.ID, &p.Email, &p.FullName, &p.LastLoginAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MembershipRepository) UpdateRole(userID, orgID, role string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE memberships SET role = ? WHERE user_id = ? AND organization_id = ?
	`, role, userID, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *MembershipRepository) Delete(userID, orgID string) (bool, error) {
	res, err := r.db.Exec(`
		DELETE FROM memberships WHERE user_id = ? AND organization_id = ?
	`, userID, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
