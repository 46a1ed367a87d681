package handlers

import (
	"encoding/json"
	"net/http"

	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/platform/audit"
	"opsdeck/internal/platform/auth"
	"opsdeck/internal/platform/repositories"
)

type UserHandler struct {
	memberRepo *repositories.MembershipRepository
	auditLog   *audit.Logger
}

func NewUserHandler(memberRepo *repositories.MembershipRepository, auditLog *audit.Logger) *UserHandler {
	return &UserHandler{memberRepo: memberRepo, auditLog: auditLog}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	members, err := h.memberRepo.ListByOrg(actor.OrganizationID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	userID := paramFrom(r, "user_id")

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !auth.IsValidRole(req.Role) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	updated, err := h.memberRepo.UpdateRole(userID, actor.OrganizationID, req.Role)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if !updated {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Membership not found", nil)
		return
	}

	h.auditLog.Record(actor.OrganizationID, actor.UserID, "role_changed", "membership", userID,
		map[string]interface{}{"role": req.Role})

	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a membership. The profile itself is left alone; this
// mirrors user management removing access, not identities.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	userID := paramFrom(r, "user_id")
	if userID == actor.UserID {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Cannot remove your own membership", nil)
		return
	}

	deleted, err := h.memberRepo.Delete(userID, actor.OrganizationID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if !deleted {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Membership not found", nil)
		return
	}

	h.auditLog.Record(actor.OrganizationID, actor.UserID, "member_removed", "membership", userID, nil)

	w.WriteHeader(http.StatusNoContent)
}
