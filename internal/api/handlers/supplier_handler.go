package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/pkg/validator"
	"opsdeck/internal/platform/auth"
	"opsdeck/internal/platform/models"
	"opsdeck/internal/platform/repositories"
)

type SupplierHandler struct {
	suppliers *repositories.SupplierRepository
}

func NewSupplierHandler(suppliers *repositories.SupplierRepository) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	suppliers, err := h.suppliers.ListByOrg(actor.OrganizationID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list suppliers", nil)
		return
	}

	writeJSON(w, http.StatusOK, suppliers)
}

type CreateSupplierRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail"`
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}
	if err := auth.RequireAdmin(actor); err != nil {
		writeServiceError(w, err)
		return
	}

	var req CreateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid JSON body", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Supplier name is required", nil)
		return
	}
	if req.ContactEmail != "" {
		if err := validator.IsValidEmail(req.ContactEmail); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid contact email", nil)
			return
		}
	}

	supplier := &models.Supplier{
		ID:             "sup_" + uuid.NewString(),
		OrganizationID: actor.OrganizationID,
		Name:           req.Name,
		ContactEmail:   req.ContactEmail,
		CreatedAt:      time.Now().Unix(),
	}

	if err := h.suppliers.Create(supplier); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create supplier", nil)
		return
	}

	writeJSON(w, http.StatusCreated, supplier)
}
