package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/pkg/validator"
	"opsdeck/internal/platform/auth"
	"opsdeck/internal/platform/models"
	"opsdeck/internal/platform/repositories"
)

type OrgHandler struct {
	orgRepo     *repositories.OrganizationRepository
	profileRepo *repositories.ProfileRepository
	memberRepo  *repositories.MembershipRepository
	tokenSvc    *auth.TokenService
}

func NewOrgHandler(
	orgRepo *repositories.OrganizationRepository,
	profileRepo *repositories.ProfileRepository,
	memberRepo *repositories.MembershipRepository,
	tokenSvc *auth.TokenService,
) *OrgHandler {
	return &OrgHandler{
		orgRepo:     orgRepo,
		profileRepo: profileRepo,
		memberRepo:  memberRepo,
		tokenSvc:    tokenSvc,
	}
}

type CreateOrgRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type CreateOrgResponse struct {
	Organization *models.Organization `json:"organization"`
	User         *models.Profile      `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Create handles onboarding: a new organization whose founding user
// becomes its admin.
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.IsValidEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if req.Name == "" || len(req.Password) < 8 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Name and a password of at least 8 characters are required", nil)
		return
	}

	existing, err := h.profileRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	now := time.Now().Unix()
	org := &models.Organization{
		ID:        "org_" + uuid.NewString(),
		Name:      req.Name,
		CreatedAt: now,
	}
	profile := &models.Profile{
		ID:           "usr_" + uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	membership := &models.Membership{
		UserID:         profile.ID,
		OrganizationID: org.ID,
		Role:           auth.RoleAdmin,
		CreatedAt:      now,
	}

	tx, err := h.orgRepo.BeginTx()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	defer tx.Rollback()

	if err := h.orgRepo.CreateTx(tx, org); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create organization", nil)
		return
	}
	if err := h.profileRepo.CreateTx(tx, profile); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create user", nil)
		return
	}
	if err := h.memberRepo.CreateTx(tx, membership); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create membership", nil)
		return
	}

	if err := tx.Commit(); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(profile.ID, org.ID, auth.RoleAdmin, profile.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(profile.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	writeJSON(w, http.StatusCreated, CreateOrgResponse{
		Organization: org,
		User:         profile,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (h *OrgHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No actor in context", nil)
		return
	}

	org, err := h.orgRepo.GetByID(actor.OrganizationID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if org == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, org)
}
