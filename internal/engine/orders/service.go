package orders

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"opsdeck/internal/platform/auth"
)

var (
	ErrNotFound          = errors.New("purchase order not found")
	ErrInvalidInput      = errors.New("invalid purchase order input")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrNotCreator        = errors.New("only the order creator can submit it")
)

// auditRecorder is satisfied by audit.Logger.
type auditRecorder interface {
	Record(orgID, actorID, action, entityType, entityID string, metadata map[string]interface{})
}

type Service struct {
	repo  *Repository
	audit auditRecorder
}

func NewService(repo *Repository, audit auditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

type ItemInput struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
	UnitCost string `json:"unit_cost"`
}

type CreateRequest struct {
	SupplierID string      `json:"supplier_id"`
	Items      []ItemInput `json:"items"`
}

func (s *Service) Create(actor auth.Actor, req *CreateRequest) (*PurchaseOrder, error) {
	poID := "po_" + uuid.NewString()

	var items []*Item
	for _, in := range req.Items {
		if in.SKU == "" || in.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
		unitCost, err := decimal.NewFromString(in.UnitCost)
		if err != nil || unitCost.IsNegative() {
			return nil, ErrInvalidInput
		}
		items = append(items, &Item{
			ID:              "poi_" + uuid.NewString(),
			PurchaseOrderID: poID,
			SKU:             in.SKU,
			Quantity:        in.Quantity,
			UnitCost:        unitCost,
		})
	}

	now := time.Now()
	po := &PurchaseOrder{
		ID:             poID,
		OrganizationID: actor.OrganizationID,
		SupplierID:     req.SupplierID,
		CreatedBy:      actor.UserID,
		TotalCost:      TotalOf(items),
		Status:         StatusDraft,
		CreatedAt:      now.Unix(),
		UpdatedAt:      now.Unix(),
		Items:          items,
	}

	// A concurrent create can claim the same number between the read
	// and the insert; recompute and retry on the unique constraint.
	var createErr error
	for attempt := 0; attempt < 3; attempt++ {
		number, err := s.repo.NextNumber(actor.OrganizationID, now.Year())
		if err != nil {
			return nil, err
		}
		po.PONumber = number

		createErr = s.repo.Create(po)
		if createErr == nil {
			return po, nil
		}
		if !isDuplicateNumber(createErr) {
			return nil, createErr
		}
	}
	return nil, createErr
}

func (s *Service) Get(actor auth.Actor, id string) (*PurchaseOrder, error) {
	po, err := s.repo.GetByID(id, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, ErrNotFound
	}
	return po, nil
}

func (s *Service) List(actor auth.Actor, statuses []string) ([]*PurchaseOrder, error) {
	return s.repo.ListByOrg(actor.OrganizationID, statuses)
}

// Submit moves draft → submitted. Only the creator may submit.
func (s *Service) Submit(actor auth.Actor, id string) error {
	po, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if po.CreatedBy != actor.UserID {
		return ErrNotCreator
	}
	if !CanTransition(po.Status, StatusSubmitted) {
		return ErrInvalidTransition
	}

	ok, err := s.repo.Transition(id, actor.OrganizationID, po.Status, StatusSubmitted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

// Approve moves submitted → approved and stamps the approver.
func (s *Service) Approve(actor auth.Actor, id string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.Get(actor, id); err != nil {
		return err
	}

	ok, err := s.repo.Approve(id, actor.OrganizationID, actor.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

// Reject moves submitted → rejected. A non-empty reason is recorded in
// the audit ledger; the ledger write never blocks the transition.
func (s *Service) Reject(actor auth.Actor, id, reason string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.Get(actor, id); err != nil {
		return err
	}

	ok, err := s.repo.Transition(id, actor.OrganizationID, StatusSubmitted, StatusRejected)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}

	if reason != "" {
		s.audit.Record(actor.OrganizationID, actor.UserID, "po_rejected", "purchase_order", id,
			map[string]interface{}{"reason": reason})
	}
	return nil
}

// Cancel is allowed from draft, submitted or approved.
func (s *Service) Cancel(actor auth.Actor, id string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	po, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if !CanTransition(po.Status, StatusCancelled) {
		return ErrInvalidTransition
	}

	ok, err := s.repo.Transition(id, actor.OrganizationID, po.Status, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

// Receive marks an approved order as received directly, without going
// through shipment delivery.
func (s *Service) Receive(actor auth.Actor, id string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.Get(actor, id); err != nil {
		return err
	}

	ok, err := s.repo.Transition(id, actor.OrganizationID, StatusApproved, StatusReceived)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}
