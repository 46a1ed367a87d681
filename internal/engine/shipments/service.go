package shipments

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"opsdeck/internal/engine/orders"
	"opsdeck/internal/platform/auth"
)

var (
	ErrNotFound          = errors.New("shipment not found")
	ErrInvalidInput      = errors.New("invalid shipment input")
	ErrPONotShippable    = errors.New("purchase order is not approved or already has a shipment")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

type CreateRequest struct {
	TrackingNumber  string `json:"tracking_number"`
	Carrier         string `json:"carrier"`
	PurchaseOrderID string `json:"purchase_order_id"`
	Notes           string `json:"notes"`
}

// Create opens a pending shipment against an approved purchase order.
// A purchase order can back at most one non-cancelled shipment.
func (s *Service) Create(actor auth.Actor, req *CreateRequest) (*Shipment, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.TrackingNumber == "" || req.PurchaseOrderID == "" {
		return nil, ErrInvalidInput
	}

	shippable, err := s.repo.POIsShippable(req.PurchaseOrderID, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !shippable {
		return nil, ErrPONotShippable
	}

	now := time.Now().Unix()
	shipment := &Shipment{
		ID:              "shp_" + uuid.NewString(),
		OrganizationID:  actor.OrganizationID,
		TrackingNumber:  req.TrackingNumber,
		Carrier:         req.Carrier,
		PurchaseOrderID: req.PurchaseOrderID,
		Notes:           req.Notes,
		Status:          StatusPending,
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

func (s *Service) Get(actor auth.Actor, id string) (*Shipment, error) {
	shipment, err := s.repo.GetByID(id, actor.OrganizationID)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, ErrNotFound
	}
	return shipment, nil
}

func (s *Service) List(actor auth.Actor) ([]*Shipment, error) {
	return s.repo.ListByOrg(actor.OrganizationID)
}

func (s *Service) ListShippablePOs(actor auth.Actor) ([]*orders.PurchaseOrder, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.ListShippablePOs(actor.OrganizationID)
}

// Dispatch moves pending → in_transit and stamps shipped_at.
func (s *Service) Dispatch(actor auth.Actor, id string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.Get(actor, id); err != nil {
		return err
	}

	ok, err := s.repo.Dispatch(id, actor.OrganizationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

// Deliver moves in_transit → delivered, stamps actual_arrival, and
// transitions the linked purchase order to received atomically.
func (s *Service) Deliver(actor auth.Actor, id string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	shipment, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if !CanTransition(shipment.Status, StatusDelivered) {
		return ErrInvalidTransition
	}

	ok, err := s.repo.Deliver(id, actor.OrganizationID, shipment.PurchaseOrderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

// Cancel is allowed from pending or in_transit and frees the linked
// purchase order for a new shipment.
func (s *Service) Cancel(actor auth.Actor, id string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	shipment, err := s.Get(actor, id)
	if err != nil {
		return err
	}
	if !CanTransition(shipment.Status, StatusCancelled) {
		return ErrInvalidTransition
	}

	ok, err := s.repo.Transition(id, actor.OrganizationID, shipment.Status, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}
