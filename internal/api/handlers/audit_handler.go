package handlers

import (
	"net/http"

	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/platform/audit"
	"opsdeck/internal/platform/auth"
)

const auditPageSize = 100

type AuditHandler struct {
	ledger *audit.Logger
}

func NewAuditHandler(ledger *audit.Logger) *AuditHandler {
	return &AuditHandler{ledger: ledger}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}
	if err := auth.RequireAdmin(actor); err != nil {
		writeServiceError(w, err)
		return
	}

	entries, err := h.ledger.ListByOrg(actor.OrganizationID, auditPageSize)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list audit entries", nil)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
