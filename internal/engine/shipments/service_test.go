package shipments

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"opsdeck/internal/engine/orders"
	"opsdeck/internal/platform/auth"
)

// setupTestDB applies the real migration files so tests run against
// the production constraints (foreign keys, unique po_number).
func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	files, err := filepath.Glob(filepath.Join("..", "..", "..", "migrations", "*.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("Failed to locate migrations: %v", err)
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			t.Fatalf("Failed to apply %s: %v", filepath.Base(file), err)
		}
	}

	now := time.Now().Unix()
	if _, err := db.Exec(`INSERT INTO organizations (id, name, created_at) VALUES ('org_1', 'Acme', ?)`, now); err != nil {
		t.Fatalf("Failed to seed organization: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO profiles (id, email, created_at, updated_at) VALUES
			('usr_buyer', 'buyer@example.com', ?, ?),
			('usr_admin', 'admin@example.com', ?, ?)
	`, now, now, now, now); err != nil {
		t.Fatalf("Failed to seed profiles: %v", err)
	}
	return db
}

var admin = auth.Actor{UserID: "usr_admin", OrganizationID: "org_1", Role: auth.RoleAdmin}

func insertPO(t *testing.T, db *sql.DB, id, status string) {
	now := time.Now().Unix()
	_, err := db.Exec(`
		INSERT INTO purchase_orders (id, organization_id, po_number, created_by, total_cost, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, "org_1", "PO-"+id, "usr_buyer", "50.00", status, now, now)
	if err != nil {
		t.Fatalf("Failed to insert purchase order: %v", err)
	}
}

func newTestService(t *testing.T) (*Service, *sql.DB) {
	db := setupTestDB(t)
	return NewService(NewRepository(db, orders.NewRepository(db))), db
}

func TestService_Create_RequiresApprovedPO(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_draft", orders.StatusDraft)

	_, err := svc.Create(admin, &CreateRequest{
		TrackingNumber:  "TRK-1",
		PurchaseOrderID: "po_draft",
	})
	if err != ErrPONotShippable {
		t.Errorf("Expected ErrPONotShippable, got %v", err)
	}
}

func TestService_Create_OneShipmentPerPO(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_1", orders.StatusApproved)

	first, err := svc.Create(admin, &CreateRequest{
		TrackingNumber:  "TRK-1",
		Carrier:         "DHL",
		PurchaseOrderID: "po_1",
	})
	if err != nil {
		t.Fatalf("First shipment failed: %v", err)
	}
	if first.Status != StatusPending {
		t.Errorf("Expected status pending, got %s", first.Status)
	}

	_, err = svc.Create(admin, &CreateRequest{
		TrackingNumber:  "TRK-2",
		PurchaseOrderID: "po_1",
	})
	if err != ErrPONotShippable {
		t.Errorf("Expected ErrPONotShippable on double ship, got %v", err)
	}
}

func TestService_Create_NonAdmin(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_1", orders.StatusApproved)

	viewer := auth.Actor{UserID: "usr_v", OrganizationID: "org_1", Role: auth.RoleViewer}
	_, err := svc.Create(viewer, &CreateRequest{
		TrackingNumber:  "TRK-1",
		PurchaseOrderID: "po_1",
	})
	if err != auth.ErrForbidden {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestService_Dispatch(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_1", orders.StatusApproved)
	shp, err := svc.Create(admin, &CreateRequest{TrackingNumber: "TRK-1", PurchaseOrderID: "po_1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Dispatch(admin, shp.ID); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	fetched, _ := svc.Get(admin, shp.ID)
	if fetched.Status != StatusInTransit {
		t.Errorf("Expected status in_transit, got %s", fetched.Status)
	}
	if fetched.ShippedAt == nil {
		t.Errorf("Expected shipped_at to be set")
	}

	if err := svc.Dispatch(admin, shp.ID); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition on second dispatch, got %v", err)
	}
}

func TestService_Deliver_CascadesToPO(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_1", orders.StatusApproved)
	shp, err := svc.Create(admin, &CreateRequest{TrackingNumber: "TRK-1", PurchaseOrderID: "po_1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Dispatch(admin, shp.ID); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if err := svc.Deliver(admin, shp.ID); err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}

	fetched, _ := svc.Get(admin, shp.ID)
	if fetched.Status != StatusDelivered {
		t.Errorf("Expected status delivered, got %s", fetched.Status)
	}
	if fetched.ActualArrival == nil {
		t.Errorf("Expected actual_arrival to be set")
	}

	var poStatus string
	if err := db.QueryRow(`SELECT status FROM purchase_orders WHERE id = 'po_1'`).Scan(&poStatus); err != nil {
		t.Fatalf("Failed to read purchase order: %v", err)
	}
	if poStatus != orders.StatusReceived {
		t.Errorf("Expected linked PO received, got %s", poStatus)
	}
}

func TestService_Deliver_ToleratesReceivedPO(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_1", orders.StatusApproved)
	shp, err := svc.Create(admin, &CreateRequest{TrackingNumber: "TRK-1", PurchaseOrderID: "po_1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Dispatch(admin, shp.ID); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	// Admin marks the order received out of band before delivery lands.
	if _, err := db.Exec(`UPDATE purchase_orders SET status = 'received' WHERE id = 'po_1'`); err != nil {
		t.Fatalf("Failed to update purchase order: %v", err)
	}

	if err := svc.Deliver(admin, shp.ID); err != nil {
		t.Errorf("Deliver against received PO failed: %v", err)
	}
}

func TestService_Deliver_RequiresInTransit(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_1", orders.StatusApproved)
	shp, err := svc.Create(admin, &CreateRequest{TrackingNumber: "TRK-1", PurchaseOrderID: "po_1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Deliver(admin, shp.ID); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition for pending deliver, got %v", err)
	}
}

func TestService_Cancel_RestoresShippability(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_1", orders.StatusApproved)
	shp, err := svc.Create(admin, &CreateRequest{TrackingNumber: "TRK-1", PurchaseOrderID: "po_1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Cancel(admin, shp.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// Cancelled shipments no longer block the order.
	if _, err := svc.Create(admin, &CreateRequest{TrackingNumber: "TRK-2", PurchaseOrderID: "po_1"}); err != nil {
		t.Errorf("Expected PO shippable again after cancel, got %v", err)
	}
}

func TestService_ListShippablePOs(t *testing.T) {
	svc, db := newTestService(t)
	defer db.Close()

	insertPO(t, db, "po_approved", orders.StatusApproved)
	insertPO(t, db, "po_draft", orders.StatusDraft)

	pos, err := svc.ListShippablePOs(admin)
	if err != nil {
		t.Fatalf("ListShippablePOs failed: %v", err)
	}
	if len(pos) != 1 || pos[0].ID != "po_approved" {
		t.Errorf("Expected only the approved order, got %d results", len(pos))
	}

	if _, err := svc.Create(admin, &CreateRequest{TrackingNumber: "TRK-1", PurchaseOrderID: "po_approved"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	pos, err = svc.ListShippablePOs(admin)
	if err != nil {
		t.Fatalf("ListShippablePOs failed: %v", err)
	}
	if len(pos) != 0 {
		t.Errorf("Expected no shippable orders after shipment, got %d", len(pos))
	}
}
