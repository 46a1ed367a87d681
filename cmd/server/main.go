package main

import (
	"fmt"
	"log"
	"net/http"

	"opsdeck/internal/api"
	"opsdeck/internal/api/handlers"
	"opsdeck/internal/api/middleware"
	"opsdeck/internal/engine/approvals"
	"opsdeck/internal/engine/orders"
	"opsdeck/internal/engine/shipments"
	"opsdeck/internal/pkg/logger"
	"opsdeck/internal/platform/audit"
	"opsdeck/internal/platform/auth"
	"opsdeck/internal/platform/config"
	"opsdeck/internal/platform/database"
	"opsdeck/internal/platform/mailer"
	"opsdeck/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	memberRepo := repositories.NewMembershipRepository(db)
	pendingRepo := repositories.NewPendingUserRepository(db)
	supplierRepo := repositories.NewSupplierRepository(db)
	orderRepo := orders.NewRepository(db)
	shipmentRepo := shipments.NewRepository(db, orderRepo)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	auditLog := audit.NewLogger(db)
	mailSender := mailer.NewSMTPSender(cfg.Email)
	orderSvc := orders.NewService(orderRepo, auditLog)
	shipmentSvc := shipments.NewService(shipmentRepo)
	approvalSvc := approvals.NewService(pendingRepo, profileRepo, memberRepo, tokenSvc, mailSender, cfg.App.BaseURL)

	// Handlers
	authHandler := handlers.NewAuthHandler(profileRepo, memberRepo, pendingRepo, orgRepo, tokenSvc)
	orgHandler := handlers.NewOrgHandler(orgRepo, profileRepo, memberRepo, tokenSvc)
	userHandler := handlers.NewUserHandler(memberRepo, auditLog)
	pendingHandler := handlers.NewPendingUserHandler(approvalSvc)
	supplierHandler := handlers.NewSupplierHandler(supplierRepo)
	orderHandler := handlers.NewOrderHandler(orderSvc)
	shipmentHandler := handlers.NewShipmentHandler(shipmentSvc)
	auditHandler := handlers.NewAuditHandler(auditLog)
	healthHandler := handlers.NewHealthHandler(db)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	orgMiddleware := middleware.NewOrgMiddleware(memberRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORS)

	deps := &api.Dependencies{
		AuthHandler:        authHandler,
		OrgHandler:         orgHandler,
		UserHandler:        userHandler,
		PendingUserHandler: pendingHandler,
		SupplierHandler:    supplierHandler,
		OrderHandler:       orderHandler,
		ShipmentHandler:    shipmentHandler,
		AuditHandler:       auditHandler,
		HealthHandler:      healthHandler,
		AuthMiddleware:     authMiddleware,
		OrgMiddleware:      orgMiddleware,
		RateLimiter:        rateLimiter,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsMiddleware.Handle(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
