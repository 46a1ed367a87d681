package middleware

import (
	"context"
	"net/http"

	apiContext "opsdeck/internal/api/context"
	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/platform/auth"
	"opsdeck/internal/platform/repositories"
)

// OrgMiddleware resolves the caller's membership and puts an Actor in
// the request context. The membership table, not the token, is the
// source of truth for the role: a revoked or changed membership takes
// effect on the next request, not the next login.
type OrgMiddleware struct {
	memberRepo *repositories.MembershipRepository
}

func NewOrgMiddleware(memberRepo *repositories.MembershipRepository) *OrgMiddleware {
	return &OrgMiddleware{memberRepo: memberRepo}
}

func (m *OrgMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		membership, err := m.memberRepo.GetForUserInOrg(claims.UserID, claims.OrganizationID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load membership", nil)
			return
		}
		if membership == nil {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "No membership in organization", nil)
			return
		}

		actor := auth.Actor{
			UserID:         claims.UserID,
			OrganizationID: membership.OrganizationID,
			Role:           membership.Role,
		}

		ctx := context.WithValue(r.Context(), apiContext.Actor, actor)
		next(w, r.WithContext(ctx))
	}
}
