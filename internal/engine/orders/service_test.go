package orders

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

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
		INSERT INTO profiles (id, email, created_at, updated_at) VALUES ('usr_buyer', 'buyer@example.com', ?, ?)
	`, now, now); err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
	return db
}

type recordedEntry struct {
	action   string
	entityID string
	metadata map[string]interface{}
}

type fakeRecorder struct {
	entries []recordedEntry
}

func (f *fakeRecorder) Record(orgID, actorID, action, entityType, entityID string, metadata map[string]interface{}) {
	f.entries = append(f.entries, recordedEntry{action: action, entityID: entityID, metadata: metadata})
}

var (
	buyer = auth.Actor{UserID: "usr_buyer", OrganizationID: "org_1", Role: auth.RoleViewer}
	admin = auth.Actor{UserID: "usr_admin", OrganizationID: "org_1", Role: auth.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, *fakeRecorder, *sql.DB) {
	db := setupTestDB(t)
	recorder := &fakeRecorder{}
	return NewService(NewRepository(db), recorder), recorder, db
}

func createDraft(t *testing.T, svc *Service, actor auth.Actor) *PurchaseOrder {
	po, err := svc.Create(actor, &CreateRequest{
		Items: []ItemInput{
			{SKU: "WID-1", Quantity: 10, UnitCost: "5.00"},
		},
	})
	if err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	return po
}

func TestService_Create(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)

	if po.Status != StatusDraft {
		t.Errorf("Expected status draft, got %s", po.Status)
	}
	if !po.TotalCost.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("Expected total 50.00, got %s", po.TotalCost.String())
	}

	wantNumber := "PO-" + time.Now().Format("2006") + "-001"
	if po.PONumber != wantNumber {
		t.Errorf("Expected number %s, got %s", wantNumber, po.PONumber)
	}

	fetched, err := svc.Get(buyer, po.ID)
	if err != nil {
		t.Fatalf("Failed to fetch order: %v", err)
	}
	if len(fetched.Items) != 1 || fetched.Items[0].SKU != "WID-1" {
		t.Errorf("Expected one WID-1 line item, got %+v", fetched.Items)
	}
}

func TestService_Create_NoSupplier(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	// The supplier reference is optional; with foreign keys enforced
	// the row must store NULL rather than an empty string.
	po, err := svc.Create(buyer, &CreateRequest{
		Items: []ItemInput{{SKU: "WID-1", Quantity: 2, UnitCost: "3.50"}},
	})
	if err != nil {
		t.Fatalf("Failed to create order without supplier: %v", err)
	}

	fetched, err := svc.Get(buyer, po.ID)
	if err != nil {
		t.Fatalf("Failed to fetch order: %v", err)
	}
	if fetched.SupplierID != "" || fetched.SupplierName != "" {
		t.Errorf("Expected no supplier, got %q %q", fetched.SupplierID, fetched.SupplierName)
	}
}

func TestService_Create_NumberSkipsGaps(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	createDraft(t, svc, buyer)
	second := createDraft(t, svc, buyer)

	// Renumbering leaves a gap under the highest sequence. The next
	// number must come from the maximum, not the row count, or it
	// collides with the existing 003.
	year := time.Now().Format("2006")
	if _, err := db.Exec(`UPDATE purchase_orders SET po_number = ? WHERE id = ?`, "PO-"+year+"-003", second.ID); err != nil {
		t.Fatalf("Failed to renumber order: %v", err)
	}

	third := createDraft(t, svc, buyer)
	if third.PONumber != "PO-"+year+"-004" {
		t.Errorf("Expected number PO-%s-004, got %s", year, third.PONumber)
	}
}

func TestService_Create_InvalidItems(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	tests := []struct {
		name string
		item ItemInput
	}{
		{"Missing SKU", ItemInput{SKU: "", Quantity: 1, UnitCost: "1.00"}},
		{"Zero Quantity", ItemInput{SKU: "WID-1", Quantity: 0, UnitCost: "1.00"}},
		{"Negative Cost", ItemInput{SKU: "WID-1", Quantity: 1, UnitCost: "-1.00"}},
		{"Malformed Cost", ItemInput{SKU: "WID-1", Quantity: 1, UnitCost: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(buyer, &CreateRequest{Items: []ItemInput{tt.item}})
			if err != ErrInvalidInput {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestService_Submit_OnlyCreator(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)

	other := auth.Actor{UserID: "usr_other", OrganizationID: "org_1", Role: auth.RoleManager}
	if err := svc.Submit(other, po.ID); err != ErrNotCreator {
		t.Errorf("Expected ErrNotCreator, got %v", err)
	}

	if err := svc.Submit(buyer, po.ID); err != nil {
		t.Errorf("Creator submit failed: %v", err)
	}

	fetched, _ := svc.Get(buyer, po.ID)
	if fetched.Status != StatusSubmitted {
		t.Errorf("Expected status submitted, got %s", fetched.Status)
	}
}

func TestService_Approve_AdminOnly(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)
	if err := svc.Submit(buyer, po.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := svc.Approve(buyer, po.ID); err != auth.ErrForbidden {
		t.Errorf("Expected ErrForbidden for non-admin, got %v", err)
	}
	fetched, _ := svc.Get(buyer, po.ID)
	if fetched.Status != StatusSubmitted {
		t.Errorf("Status changed on denied approve: %s", fetched.Status)
	}

	if err := svc.Approve(admin, po.ID); err != nil {
		t.Fatalf("Admin approve failed: %v", err)
	}
	fetched, _ = svc.Get(buyer, po.ID)
	if fetched.Status != StatusApproved {
		t.Errorf("Expected status approved, got %s", fetched.Status)
	}
	if fetched.ApprovedBy != admin.UserID {
		t.Errorf("Expected approver %s, got %s", admin.UserID, fetched.ApprovedBy)
	}
}

func TestService_Approve_RequiresSubmitted(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)
	if err := svc.Approve(admin, po.ID); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition for draft approve, got %v", err)
	}
}

func TestService_Reject_RecordsReason(t *testing.T) {
	svc, recorder, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)
	if err := svc.Submit(buyer, po.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if err := svc.Reject(admin, po.ID, "over budget"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	fetched, _ := svc.Get(buyer, po.ID)
	if fetched.Status != StatusRejected {
		t.Errorf("Expected status rejected, got %s", fetched.Status)
	}

	if len(recorder.entries) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.action != "po_rejected" || entry.entityID != po.ID {
		t.Errorf("Unexpected audit entry: %+v", entry)
	}
	if entry.metadata["reason"] != "over budget" {
		t.Errorf("Expected reason in metadata, got %v", entry.metadata)
	}
}

func TestService_Reject_NoReasonNoEntry(t *testing.T) {
	svc, recorder, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)
	if err := svc.Submit(buyer, po.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := svc.Reject(admin, po.ID, ""); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if len(recorder.entries) != 0 {
		t.Errorf("Expected no audit entry without a reason, got %d", len(recorder.entries))
	}
}

func TestService_Receive_RequiresApproved(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)
	if err := svc.Receive(admin, po.ID); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition for draft receive, got %v", err)
	}

	svc.Submit(buyer, po.ID)
	svc.Approve(admin, po.ID)

	if err := svc.Receive(admin, po.ID); err != nil {
		t.Errorf("Receive failed: %v", err)
	}
	fetched, _ := svc.Get(buyer, po.ID)
	if fetched.Status != StatusReceived {
		t.Errorf("Expected status received, got %s", fetched.Status)
	}
}

func TestService_Cancel(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)
	if err := svc.Cancel(admin, po.ID); err != nil {
		t.Fatalf("Cancel from draft failed: %v", err)
	}

	// Terminal: a second cancel is rejected.
	if err := svc.Cancel(admin, po.ID); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestService_OrgScoping(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	po := createDraft(t, svc, buyer)

	outsider := auth.Actor{UserID: "usr_out", OrganizationID: "org_2", Role: auth.RoleAdmin}
	if _, err := svc.Get(outsider, po.ID); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound across orgs, got %v", err)
	}
}

func TestService_List_FilterByStatus(t *testing.T) {
	svc, _, db := newTestService(t)
	defer db.Close()

	draft := createDraft(t, svc, buyer)
	submitted := createDraft(t, svc, buyer)
	if err := svc.Submit(buyer, submitted.ID); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	all, err := svc.List(buyer, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 orders, got %d", len(all))
	}

	drafts, err := svc.List(buyer, []string{StatusDraft})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != draft.ID {
		t.Errorf("Expected only the draft order, got %d results", len(drafts))
	}
}
