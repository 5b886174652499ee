package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/estokealo/estokealo/internal/api/handler"
	"github.com/estokealo/estokealo/internal/api/middleware"
	"github.com/estokealo/estokealo/internal/authflow"
	"github.com/estokealo/estokealo/internal/guard"
	"github.com/estokealo/estokealo/internal/membership"
	"github.com/estokealo/estokealo/internal/metrics"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Flow        *authflow.Service
	Members     *membership.Service
	Guard       *guard.Guard
	DBPinger    handler.Pinger
	RevPinger   handler.Pinger
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Version     string
	OpenAPISpec []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.RevPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	auth := middleware.NewAuth(deps.Guard)
	authHandler := handler.NewAuthHandler(deps.Flow)
	userHandler := handler.NewUserHandler(deps.Flow, deps.Members)
	companyHandler := handler.NewCompanyHandler(deps.Members)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.Middleware)
			}
			r.Get("/email-validation", authHandler.RequestCode)
			r.Put("/email-validation", auth.Verification(authHandler.ConfirmCode))
			r.Post("/login", authHandler.Login)
			r.Get("/user-public-info", authHandler.PublicUserInfo)
		})
		r.Post("/signup", auth.Verified(authHandler.Signup))
		r.Put("/password-reset", auth.Verified(authHandler.ResetPassword))
		r.Delete("/logout", authHandler.Logout)
		r.Get("/test-jwt", auth.User(authHandler.Introspect))
	})

	r.Route("/users/me", func(r chi.Router) {
		r.Get("/", auth.User(userHandler.Profile))
		r.Put("/", auth.User(userHandler.UpdateProfile))
		r.Get("/companies", auth.User(userHandler.ListCompanies))
		r.Post("/companies", auth.User(userHandler.CreateCompany))
		r.Put("/companies/{company_id}/invitation", auth.User(userHandler.ResolveInvitation))
		r.Get("/companies/{company_id}/activate", auth.User(userHandler.ActivateCompany))
	})

	r.Route("/company", func(r chi.Router) {
		r.Get("/", auth.Viewer(companyHandler.Get))
		r.Get("/roles", auth.Operator(companyHandler.ListRoles))
		r.Post("/roles", auth.Admin(companyHandler.Invite))
		r.Put("/roles/{role_id}", auth.Admin(companyHandler.UpdateRole))
		r.Delete("/roles/{role_id}", auth.Admin(companyHandler.RemoveRole))
	})

	return r
}
