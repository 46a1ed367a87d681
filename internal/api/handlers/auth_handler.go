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

type AuthHandler struct {
	profileRepo *repositories.ProfileRepository
	memberRepo  *repositories.MembershipRepository
	pendingRepo *repositories.PendingUserRepository
	orgRepo     *repositories.OrganizationRepository
	tokenSvc    *auth.TokenService
}

func NewAuthHandler(
	profileRepo *repositories.ProfileRepository,
	memberRepo *repositories.MembershipRepository,
	pendingRepo *repositories.PendingUserRepository,
	orgRepo *repositories.OrganizationRepository,
	tokenSvc *auth.TokenService,
) *AuthHandler {
	return &AuthHandler{
		profileRepo: profileRepo,
		memberRepo:  memberRepo,
		pendingRepo: pendingRepo,
		orgRepo:     orgRepo,
		tokenSvc:    tokenSvc,
	}
}

type SignupRequest struct {
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	RequestedRole  string `json:"requested_role"`
}

// Signup files a membership request. No identity is created yet; an
// admin reviews the request and approval triggers the invite email.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.IsValidEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if req.FullName == "" || req.OrganizationID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Full name and organization are required", nil)
		return
	}

	role := req.RequestedRole
	if role == "" {
		role = auth.RoleViewer
	}
	if !auth.IsValidRole(role) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid role", nil)
		return
	}

	org, err := h.orgRepo.GetByID(req.OrganizationID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if org == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Organization not found", nil)
		return
	}

	existing, err := h.profileRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existing != nil {
		if m, err := h.memberRepo.GetForUser(existing.ID); err == nil && m != nil {
			errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "User already exists", nil)
			return
		}
	}

	pending := &models.PendingUser{
		ID:             "pnd_" + uuid.NewString(),
		OrganizationID: req.OrganizationID,
		Email:          req.Email,
		FullName:       req.FullName,
		RequestedRole:  role,
		Status:         models.PendingStatusPending,
		CreatedAt:      time.Now().Unix(),
	}

	if err := h.pendingRepo.Create(pending); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create signup request", nil)
		return
	}

	writeJSON(w, http.StatusCreated, pending)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	User         *models.Profile     `json:"user"`
	Membership   *models.Membership  `json:"membership"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	profile, err := h.profileRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if profile == nil || profile.PasswordHash == "" {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	membership, err := h.memberRepo.GetForUser(profile.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if membership == nil {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Account has no organization membership", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(profile.ID, membership.OrganizationID, membership.Role, profile.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(profile.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	h.profileRepo.TouchLastLogin(profile.ID)

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         profile,
		Membership:   membership,
	})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	userID, err := h.tokenSvc.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired token", nil)
		return
	}

	profile, err := h.profileRepo.GetByID(userID)
	if err != nil || profile == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Unknown user", nil)
		return
	}

	membership, err := h.memberRepo.GetForUser(userID)
	if err != nil || membership == nil {
		errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Account has no organization membership", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(profile.ID, membership.OrganizationID, membership.Role, profile.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// Logout is stateless: tokens are not tracked server side, the client
// discards them.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

type SetPasswordRequest struct {
	SetupToken string `json:"setup_token"`
	Password   string `json:"password"`
}

// SetPassword completes an invite: the setup token from the email
// proves ownership of the invited identity.
func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req SetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if len(req.Password) < 8 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Password must be at least 8 characters", nil)
		return
	}

	userID, err := h.tokenSvc.ValidateSetupToken(req.SetupToken)
	if err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid or expired setup token", nil)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	if err := h.profileRepo.SetPassword(userID, string(hashed)); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to set password", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
