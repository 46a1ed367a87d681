package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "opsdeck/internal/api/context"
	"opsdeck/internal/api/handlers"
	"opsdeck/internal/api/middleware"
	"opsdeck/internal/pkg/errors"
	"opsdeck/internal/platform/auth"
)

type Dependencies struct {
	AuthHandler        *handlers.AuthHandler
	OrgHandler         *handlers.OrgHandler
	UserHandler        *handlers.UserHandler
	PendingUserHandler *handlers.PendingUserHandler
	SupplierHandler    *handlers.SupplierHandler
	OrderHandler       *handlers.OrderHandler
	ShipmentHandler    *handlers.ShipmentHandler
	AuditHandler       *handlers.AuditHandler
	HealthHandler      *handlers.HealthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	OrgMiddleware      *middleware.OrgMiddleware
	RateLimiter        *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Authentication routes
	router.POST("/api/v1/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/api/v1/auth/refresh", wrap(deps.AuthHandler.Refresh))
	router.POST("/api/v1/auth/logout", wrap(deps.AuthHandler.Logout))
	router.POST("/api/v1/auth/set-password", wrap(deps.AuthHandler.SetPassword))

	// Middleware references
	authMid := deps.AuthMiddleware
	orgMid := deps.OrgMiddleware
	read := deps.RateLimiter.Limit("api_read")
	write := deps.RateLimiter.Limit("api_write")

	// Organization onboarding and lookup
	router.POST("/api/v1/organizations", wrap(deps.OrgHandler.Create))
	router.GET("/api/v1/organizations/current",
		chain(deps.OrgHandler.GetCurrent, authMid.Handle, orgMid.Handle, read))

	// Member management
	router.GET("/api/v1/users",
		chain(deps.UserHandler.List, authMid.Handle, orgMid.Handle, requireAdmin, read))
	router.PATCH("/api/v1/users/:user_id/role",
		chain(deps.UserHandler.UpdateRole, authMid.Handle, orgMid.Handle, requireAdmin, write))
	router.DELETE("/api/v1/users/:user_id",
		chain(deps.UserHandler.Delete, authMid.Handle, orgMid.Handle, requireAdmin, write))

	// Pending membership requests
	router.GET("/api/v1/pending-users",
		chain(deps.PendingUserHandler.List, authMid.Handle, orgMid.Handle, requireAdmin, read))
	router.POST("/api/v1/pending-users/:pending_user_id/approve",
		chain(deps.PendingUserHandler.Approve, authMid.Handle, orgMid.Handle, requireAdmin, write))
	router.POST("/api/v1/pending-users/:pending_user_id/reject",
		chain(deps.PendingUserHandler.Reject, authMid.Handle, orgMid.Handle, requireAdmin, write))

	// Suppliers
	router.GET("/api/v1/suppliers",
		chain(deps.SupplierHandler.List, authMid.Handle, orgMid.Handle, read))
	router.POST("/api/v1/suppliers",
		chain(deps.SupplierHandler.Create, authMid.Handle, orgMid.Handle, write))

	// Purchase orders
	router.POST("/api/v1/orders",
		chain(deps.OrderHandler.Create, authMid.Handle, orgMid.Handle, write))
	router.GET("/api/v1/orders",
		chain(deps.OrderHandler.List, authMid.Handle, orgMid.Handle, read))
	router.GET("/api/v1/orders/:order_id",
		chain(deps.OrderHandler.Get, authMid.Handle, orgMid.Handle, read))
	router.POST("/api/v1/orders/:order_id/submit",
		chain(deps.OrderHandler.Submit, authMid.Handle, orgMid.Handle, write))
	router.POST("/api/v1/orders/:order_id/approve",
		chain(deps.OrderHandler.Approve, authMid.Handle, orgMid.Handle, write))
	router.POST("/api/v1/orders/:order_id/reject",
		chain(deps.OrderHandler.Reject, authMid.Handle, orgMid.Handle, write))
	router.POST("/api/v1/orders/:order_id/cancel",
		chain(deps.OrderHandler.Cancel, authMid.Handle, orgMid.Handle, write))
	router.POST("/api/v1/orders/:order_id/receive",
		chain(deps.OrderHandler.Receive, authMid.Handle, orgMid.Handle, write))

	// Shipments. Shippable purchase orders live under their own path
	// because httprouter cannot mix a literal segment with :shipment_id.
	router.GET("/api/v1/shippable-orders",
		chain(deps.ShipmentHandler.ListShippable, authMid.Handle, orgMid.Handle, read))
	router.GET("/api/v1/shipments",
		chain(deps.ShipmentHandler.List, authMid.Handle, orgMid.Handle, read))
	router.POST("/api/v1/shipments",
		chain(deps.ShipmentHandler.Create, authMid.Handle, orgMid.Handle, write))
	router.GET("/api/v1/shipments/:shipment_id",
		chain(deps.ShipmentHandler.Get, authMid.Handle, orgMid.Handle, read))
	router.POST("/api/v1/shipments/:shipment_id/dispatch",
		chain(deps.ShipmentHandler.Dispatch, authMid.Handle, orgMid.Handle, write))
	router.POST("/api/v1/shipments/:shipment_id/deliver",
		chain(deps.ShipmentHandler.Deliver, authMid.Handle, orgMid.Handle, write))
	router.POST("/api/v1/shipments/:shipment_id/cancel",
		chain(deps.ShipmentHandler.Cancel, authMid.Handle, orgMid.Handle, write))

	// Audit ledger
	router.GET("/api/v1/audit-logs",
		chain(deps.AuditHandler.List, authMid.Handle, orgMid.Handle, requireAdmin, read))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

// requireAdmin rejects before the handler runs. Services re-check on
// their own, so removing a route guard never widens access.
func requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := r.Context().Value(apiContext.Actor).(auth.Actor)
		if !ok || !actor.IsAdmin() {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
			return
		}

		next(w, r)
	}
}
