package approvals

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"opsdeck/internal/platform/auth"
	"opsdeck/internal/platform/mailer"
	"opsdeck/internal/platform/models"
	"opsdeck/internal/platform/repositories"
)

var (
	ErrNotFound    = errors.New("pending request not found")
	ErrNotPending  = errors.New("request is not pending")
	ErrInvalidRole = errors.New("invalid role")
)

// Service reviews signup requests. Approval promotes a pending user
// into a real profile plus membership and emails a password-setup
// invite.
type Service struct {
	pending     *repositories.PendingUserRepository
	profiles    *repositories.ProfileRepository
	memberships *repositories.MembershipRepository
	tokens      *auth.TokenService
	mail        mailer.Sender
	appBaseURL  string
}

func NewService(
	pending *repositories.PendingUserRepository,
	profiles *repositories.ProfileRepository,
	memberships *repositories.MembershipRepository,
	tokens *auth.TokenService,
	mail mailer.Sender,
	appBaseURL string,
) *Service {
	return &Service{
		pending:     pending,
		profiles:    profiles,
		memberships: memberships,
		tokens:      tokens,
		mail:        mail,
		appBaseURL:  appBaseURL,
	}
}

// Approve runs the full promotion sequence. Steps are not rolled back
// on later failures: if the membership insert fails after the invite
// went out, an invited profile with no role remains and the error is
// surfaced to the caller.
func (s *Service) Approve(actor auth.Actor, pendingUserID, role string) (string, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return "", err
	}
	if !auth.IsValidRole(role) {
		return "", ErrInvalidRole
	}

	p, err := s.pending.GetByID(pendingUserID, actor.OrganizationID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", ErrNotFound
	}
	if p.Status != models.PendingStatusPending {
		return "", ErrNotPending
	}

	// The invited identity may already exist (e.g. re-invited after a
	// membership removal).
	profile, err := s.profiles.GetByEmail(p.Email)
	if err != nil {
		return "", err
	}
	if profile == nil {
		now := time.Now().Unix()
		profile = &models.Profile{
			ID:        "usr_" + uuid.NewString(),
			Email:     p.Email,
			FullName:  p.FullName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.profiles.Create(profile); err != nil {
			return "", err
		}
	}

	setupToken, err := s.tokens.GenerateSetupToken(profile.ID)
	if err != nil {
		return "", err
	}
	setupURL := fmt.Sprintf("%s/login?setup_token=%s", s.appBaseURL, setupToken)
	if err := s.mail.SendInvite(p.Email, p.FullName, setupURL); err != nil {
		return "", err
	}

	if err := s.profiles.UpdateFullName(profile.ID, p.FullName); err != nil {
		log.Warn().Err(err).Str("user_id", profile.ID).Msg("profile name update failed")
	}

	if err := s.memberships.Create(&models.Membership{
		UserID:         profile.ID,
		OrganizationID: actor.OrganizationID,
		Role:           role,
		CreatedAt:      time.Now().Unix(),
	}); err != nil {
		return "", err
	}

	ok, err := s.pending.MarkReviewed(pendingUserID, actor.OrganizationID, models.PendingStatusApproved, actor.UserID, role)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotPending
	}

	return profile.ID, nil
}

// Reject marks a pending request rejected. A request already reviewed
// cannot be rejected again.
func (s *Service) Reject(actor auth.Actor, pendingUserID string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}

	p, err := s.pending.GetByID(pendingUserID, actor.OrganizationID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if p.Status != models.PendingStatusPending {
		return ErrNotPending
	}

	ok, err := s.pending.MarkReviewed(pendingUserID, actor.OrganizationID, models.PendingStatusRejected, actor.UserID, p.RequestedRole)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotPending
	}
	return nil
}

func (s *Service) ListPending(actor auth.Actor) ([]*models.PendingUser, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.pending.ListByStatus(actor.OrganizationID, models.PendingStatusPending)
}
