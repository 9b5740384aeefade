package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/app"
	iauth "github.com/TarunSAkkatangerhal/PrismWorklet/internal/auth"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/handlers"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/middleware"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
)

// Dependencies carries everything the router needs. All services are required;
// RateStore may be nil, which disables rate limiting.
type Dependencies struct {
	DB        *gorm.DB
	Tokens    *iauth.TokenService
	Config    *app.Config
	RateStore middleware.RateStore

	Registration *services.RegistrationService
	Auth         *services.AuthService
	Profiles     *services.ProfileService
	Worklets     *services.WorkletService
	Associations *services.AssociationService
	Evaluations  *services.EvaluationService
	Dashboard    *services.DashboardService
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.Tokens == nil:
		return fmt.Errorf("token service must be provided")
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.Registration == nil, d.Auth == nil, d.Profiles == nil,
		d.Worklets == nil, d.Associations == nil, d.Evaluations == nil, d.Dashboard == nil:
		return fmt.Errorf("all services must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	cfg := deps.Config

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins))
	r.Use(middleware.RateLimit(deps.RateStore, cfg.RateLimit.Global.Requests, cfg.RateLimit.Global.Window))

	// Health endpoint (public)
	r.GET("/health", handlers.Health(deps.DB))

	requireAuth := middleware.Auth(deps.Tokens)

	authHandler := handlers.NewAuthHandler(deps.Registration, deps.Auth, deps.Profiles)
	registerAuthRoutes(r, requireAuth, authRouteDeps{
		Handler:   authHandler,
		RateStore: deps.RateStore,
		Limit:     cfg.RateLimit.Auth,
	})

	workletHandler := handlers.NewWorkletHandler(deps.Worklets, deps.Associations)
	registerWorkletRoutes(r, requireAuth, workletHandler)

	associationHandler := handlers.NewAssociationHandler(deps.Associations)
	registerAssociationRoutes(r, requireAuth, associationHandler)

	evaluationHandler := handlers.NewEvaluationHandler(deps.Evaluations)
	registerEvaluationRoutes(r, requireAuth, evaluationHandler)

	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard)
	registerDashboardRoutes(r, requireAuth, dashboardHandler)

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
