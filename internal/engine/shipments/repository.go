package shipments

import (
	"database/sql"
	"time"

	"opsdeck/internal/engine/orders"
)

type Repository struct {
	db        *sql.DB
	orderRepo *orders.Repository
}

func NewRepository(db *sql.DB, orderRepo *orders.Repository) *Repository {
	return &Repository{db: db, orderRepo: orderRepo}
}

func (r *Repository) Create(s *Shipment) error {
	_, err := r.db.Exec(`
		INSERT INTO shipments (id, organization_id, tracking_number, carrier, purchase_order_id, notes, status, shipped_at, actual_arrival, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.OrganizationID, s.TrackingNumber, s.Carrier, s.PurchaseOrderID, s.Notes, s.Status, s.ShippedAt, s.ActualArrival, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	return err
}

const shipmentColumns = `sh.id, sh.organization_id, sh.tracking_number, sh.carrier, sh.purchase_order_id, sh.notes, sh.status, sh.shipped_at, sh.actual_arrival, sh.created_by, sh.created_at, sh.updated_at`

func (r *Repository) GetByID(id, orgID string) (*Shipment, error) {
	row := r.db.QueryRow(`
		SELECT `+shipmentColumns+`, COALESCE(po.po_number, '')
		FROM shipments sh
		LEFT JOIN purchase_orders po ON po.id = sh.purchase_order_id
		WHERE sh.id = ? AND sh.organization_id = ?
	`, id, orgID)

	s := &Shipment{}
	err := row.Scan(&s.ID, &s.OrganizationID, &s.TrackingNumber, &s.Carrier, &s.PurchaseOrderID,
		&s.Notes, &s.Status, &s.ShippedAt, &s.ActualArrival, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.PONumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *Repository) ListByOrg(orgID string) ([]*Shipment, error) {
	rows, err := r.db.Query(`
		SELECT `+shipmentColumns+`, COALESCE(po.po_number, '')
		FROM shipments sh
		LEFT JOIN purchase_orders po ON po.id = sh.purchase_order_id
		WHERE sh.organization_id = ?
		ORDER BY sh.created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shipments []*Shipment
	for rows.Next() {
		s := &Shipment{}
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.TrackingNumber, &s.Carrier, &s.PurchaseOrderID,
			&s.Notes, &s.Status, &s.ShippedAt, &s.ActualArrival, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.PONumber); err != nil {
			return nil, err
		}
		shipments = append(shipments, s)
	}
	return shipments, rows.Err()
}

// POIsShippable reports whether a purchase order can take a new
// shipment: it must be approved and not already referenced by any
// shipment that is not cancelled.
func (r *Repository) POIsShippable(poID, orgID string) (bool, error) {
	var shippable bool
	err := r.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM purchase_orders po
			WHERE po.id = ? AND po.organization_id = ? AND po.status = ?
			AND NOT EXISTS(
				SELECT 1 FROM shipments sh
				WHERE sh.purchase_order_id = po.id AND sh.status != ?
			)
		)
	`, poID, orgID, orders.StatusApproved, StatusCancelled).Scan(&shippable)
	return shippable, err
}

// ListShippablePOs returns the approved orders still eligible for a
// shipment, for the create-shipment selection list.
func (r *Repository) ListShippablePOs(orgID string) ([]*orders.PurchaseOrder, error) {
	rows, err := r.db.Query(`
		SELECT po.id, po.po_number
		FROM purchase_orders po
		WHERE po.organization_id = ? AND po.status = ?
		AND NOT EXISTS(
			SELECT 1 FROM shipments sh
			WHERE sh.purchase_order_id = po.id AND sh.status != ?
		)
		ORDER BY po.created_at DESC
	`, orgID, orders.StatusApproved, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pos []*orders.PurchaseOrder
	for rows.Next() {
		po := &orders.PurchaseOrder{}
		if err := rows.Scan(&po.ID, &po.PONumber); err != nil {
			return nil, err
		}
		pos = append(pos, po)
	}
	return pos, rows.Err()
}

// Transition applies a conditional status update, optionally stamping
// one of the timestamp columns.
func (r *Repository) Transition(id, orgID, from, to string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE shipments SET status = ?, updated_at = ?
		WHERE id = ? AND organization_id = ? AND status = ?
	`, to, time.Now().Unix(), id, orgID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) Dispatch(id, orgID string) (bool, error) {
	now := time.Now().Unix()
	res, err := r.db.Exec(`
		UPDATE shipments SET status = ?, shipped_at = ?, updated_at = ?
		WHERE id = ? AND organization_id = ? AND status = ?
	`, StatusInTransit, now, now, id, orgID, StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Deliver marks the shipment delivered and cascades the linked
// purchase order to received in the same transaction, so the two
// writes commit or roll back together.
func (r *Repository) Deliver(id, orgID, poID string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if poID != "" {
		received, err := r.orderRepo.ReceiveTx(tx, poID, orgID)
		if err != nil {
			return false, err
		}
		if !received {
			// Tolerate an order an admin already marked received;
			// anything else means the link is in a state the cascade
			// must not paper over.
			var status string
			if err := tx.QueryRow(`
				SELECT status FROM purchase_orders WHERE id = ? AND organization_id = ?
			`, poID, orgID).Scan(&status); err != nil {
				return false, err
			}
			if status != orders.StatusReceived {
				return false, nil
			}
		}
	}

	now := time.Now().Unix()
	res, err := tx.Exec(`
		UPDATE shipments SET status = ?, actual_arrival = ?, updated_at = ?
		WHERE id = ? AND organization_id = ? AND status = ?
	`, StatusDelivered, now, now, id, orgID, StatusInTransit)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	return true, tx.Commit()
}
