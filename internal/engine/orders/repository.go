package orders

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(po *PurchaseOrder) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// An order without a supplier stores NULL, not '', or the
	// supplier_id foreign key rejects the row.
	supplierID := sql.NullString{String: po.SupplierID, Valid: po.SupplierID != ""}

	_, err = tx.Exec(`
		INSERT INTO purchase_orders (id, organization_id, po_number, supplier_id, created_by, total_cost, status, approved_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, po.ID, po.OrganizationID, po.PONumber, supplierID, po.CreatedBy, po.TotalCost.String(), po.Status, po.ApprovedBy, po.CreatedAt, po.UpdatedAt)
	if err != nil {
		return err
	}

	for _, item := range po.Items {
		_, err = tx.Exec(`
			INSERT INTO purchase_order_items (id, purchase_order_id, sku, quantity, unit_cost)
			VALUES (?, ?, ?, ?, ?)
		`, item.ID, item.PurchaseOrderID, item.SKU, item.Quantity, item.UnitCost.String())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const poColumns = `po.id, po.organization_id, po.po_number, COALESCE(po.supplier_id, ''), po.created_by, po.total_cost, po.status, COALESCE(po.approved_by, ''), po.created_at, po.updated_at`

func (r *Repository) GetByID(id, orgID string) (*PurchaseOrder, error) {
	row := r.db.QueryRow(`
		SELECT `+poColumns+`, COALESCE(s.name, '')
		FROM purchase_orders po
		LEFT JOIN suppliers s ON s.id = po.supplier_id
		WHERE po.id = ? AND po.organization_id = ?
	`, id, orgID)

	po, err := scanOrder(row)
	if err != nil || po == nil {
		return po, err
	}

	items, err := r.listItems(po.ID)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return po, nil
}

// ListByOrg returns the organization's orders, newest first, optionally
// filtered to a status set.
func (r *Repository) ListByOrg(orgID string, statuses []string) ([]*PurchaseOrder, error) {
	query := `
		SELECT ` + poColumns + `, COALESCE(s.name, '')
		FROM purchase_orders po
		LEFT JOIN suppliers s ON s.id = po.supplier_id
		WHERE po.organization_id = ?
	`
	args := []interface{}{orgID}
	if len(statuses) > 0 {
		query += " AND po.status IN (?" + strings.Repeat(", ?", len(statuses)-1) + ")"
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += " ORDER BY po.created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pos []*PurchaseOrder
	for rows.Next() {
		po, err := scanOrderRows(rows)
		if err != nil {
			return nil, err
		}
		pos = append(pos, po)
	}
	return pos, rows.Err()
}

func (r *Repository) listItems(poID string) ([]*Item, error) {
	rows, err := r.db.Query(`
		SELECT id, purchase_order_id, sku, quantity, unit_cost
		FROM purchase_order_items WHERE purchase_order_id = ?
	`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{}
		var unitCost string
		if err := rows.Scan(&item.ID, &item.PurchaseOrderID, &item.SKU, &item.Quantity, &unitCost); err != nil {
			return nil, err
		}
		item.UnitCost, err = decimal.NewFromString(unitCost)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Transition moves an order from one status to another. The WHERE
// clause on the current status is the serialization point: a competing
// writer that got there first leaves zero rows for this update, which
// callers must treat as a failed precondition.
func (r *Repository) Transition(id, orgID, from, to string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE purchase_orders SET status = ?, updated_at = ?
		WHERE id = ? AND organization_id = ? AND status = ?
	`, to, time.Now().Unix(), id, orgID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) Approve(id, orgID, approverID string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE purchase_orders SET status = ?, approved_by = ?, updated_at = ?
		WHERE id = ? AND organization_id = ? AND status = ?
	`, StatusApproved, approverID, time.Now().Unix(), id, orgID, StatusSubmitted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ReceiveTx transitions approved → received inside an existing
// transaction. Used by the shipment-delivery cascade so both updates
// commit or roll back together.
func (r *Repository) ReceiveTx(tx *sql.Tx, id, orgID string) (bool, error) {
	res, err := tx.Exec(`
		UPDATE purchase_orders SET status = ?, updated_at = ?
		WHERE id = ? AND organization_id = ? AND status = ?
	`, StatusReceived, time.Now().Unix(), id, orgID, StatusApproved)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// NextNumber produces a human-readable order number, PO-<year>-<seq>,
// scoped to the organization. The sequence comes from the highest
// existing number, so gaps in the series never produce a duplicate.
func (r *Repository) NextNumber(orgID string, year int) (string, error) {
	prefix := fmt.Sprintf("PO-%d-", year)
	var max int
	err := r.db.QueryRow(`
		SELECT COALESCE(MAX(CAST(SUBSTR(po_number, ?) AS INTEGER)), 0)
		FROM purchase_orders
		WHERE organization_id = ? AND po_number LIKE ?
	`, len(prefix)+1, orgID, prefix+"%").Scan(&max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, max+1), nil
}

// isDuplicateNumber reports an insert rejected by the per-organization
// po_number uniqueness constraint.
func isDuplicateNumber(err error) bool {
	return err != nil && strings.Contains(err.Error(), "po_number")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(s rowScanner) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	var totalCost string
	err := s.Scan(&po.ID, &po.OrganizationID, &po.PONumber, &po.SupplierID, &po.CreatedBy,
		&totalCost, &po.Status, &po.ApprovedBy, &po.CreatedAt, &po.UpdatedAt, &po.SupplierName)
	if err != nil {
		return nil, err
	}
	po.TotalCost, err = decimal.NewFromString(totalCost)
	if err != nil {
		return nil, err
	}
	return po, nil
}

func scanOrder(row *sql.Row) (*PurchaseOrder, error) {
	po, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return po, err
}

func scanOrderRows(rows *sql.Rows) (*PurchaseOrder, error) {
	return scanRow(rows)
}
