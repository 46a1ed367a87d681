package handlers

import (
	"encoding/json"
	"net/http"

	"opsdeck/internal/engine/approvals"
	"opsdeck/internal/pkg/errors"
)

type PendingUserHandler struct {
	svc *approvals.Service
}

func NewPendingUserHandler(svc *approvals.Service) *PendingUserHandler {
	return &PendingUserHandler{svc: svc}
}

func (h *PendingUserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	pending, err := h.svc.ListPending(actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pending)
}

type ApprovePendingRequest struct {
	Role string `json:"role"`
}

type ApprovePendingResponse struct {
	UserID string `json:"userId"`
}

func (h *PendingUserHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	var req ApprovePendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid JSON body", nil)
		return
	}

	userID, err := h.svc.Approve(actor, paramFrom(r, "pending_user_id"), req.Role)
	if err != nil {
		// An already-reviewed request is a 400 on this endpoint.
		if err == approvals.ErrNotPending {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ApprovePendingResponse{UserID: userID})
}

func (h *PendingUserHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	if err := h.svc.Reject(actor, paramFrom(r, "pending_user_id")); err != nil {
		if err == approvals.ErrNotPending {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
