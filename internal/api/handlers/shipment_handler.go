package handlers

import (
	"encoding/json"
	"net/http"

	"opsdeck/internal/engine/shipments"
	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/platform/auth"
)

type ShipmentHandler struct {
	svc *shipments.Service
}

func NewShipmentHandler(svc *shipments.Service) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	var req shipments.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid JSON body", nil)
		return
	}

	shp, err := h.svc.Create(actor, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, shp)
}

func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	shps, err := h.svc.List(actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shps)
}

func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	shp, err := h.svc.Get(actor, paramFrom(r, "shipment_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shp)
}

// ListShippable returns the approved purchase orders that have no
// open shipment yet and so can still be shipped against.
func (h *ShipmentHandler) ListShippable(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	pos, err := h.svc.ListShippablePOs(actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

func (h *ShipmentHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Dispatch)
}

func (h *ShipmentHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Deliver)
}

func (h *ShipmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *ShipmentHandler) transition(w http.ResponseWriter, r *http.Request, fn func(actor auth.Actor, id string) error) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	if err := fn(actor, paramFrom(r, "shipment_id")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
