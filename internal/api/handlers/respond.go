package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "opsdeck/internal/api/context"
	"opsdeck/internal/engine/approvals"
	"opsdeck/internal/engine/orders"
	"opsdeck/internal/engine/shipments"
	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/platform/auth"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func actorFrom(r *http.Request) (auth.Actor, bool) {
	actor, ok := r.Context().Value(apiContext.Actor).(auth.Actor)
	return actor, ok
}

func paramFrom(r *http.Request, name string) string {
	if ps, ok := r.Context().Value(apiContext.Params).(httprouter.Params); ok {
		return ps.ByName(name)
	}
	return ""
}

// writeServiceError maps engine sentinels onto the HTTP error
// envelope. Unknown errors become a generic 500 with the collaborator
// message withheld from the body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch err {
	case auth.ErrForbidden:
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
	case orders.ErrNotFound, shipments.ErrNotFound, approvals.ErrNotFound:
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, err.Error(), nil)
	case orders.ErrInvalidInput, shipments.ErrInvalidInput, approvals.ErrInvalidRole:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
	case orders.ErrNotCreator:
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, err.Error(), nil)
	case orders.ErrInvalidTransition, shipments.ErrInvalidTransition, shipments.ErrPONotShippable, approvals.ErrNotPending:
		errors.WriteError(w, http.StatusConflict, errors.ErrCodePreconditionFailed, err.Error(), nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Internal error", nil)
	}
}
