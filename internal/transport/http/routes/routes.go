package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/oneeyedreaper/onboard/internal/infra/config"
	"github.com/oneeyedreaper/onboard/internal/transport/http/handlers"
	"github.com/oneeyedreaper/onboard/internal/transport/http/middleware"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth       handlers.AuthUsecase
	Profiles   handlers.ProfileUsecase
	Onboarding handlers.OnboardingUsecase
	Documents  handlers.DocumentUsecase
	Admin      handlers.AdminUsecase
}

// MetricsExporter observes requests and serves the collected metrics.
type MetricsExporter interface {
	middleware.RequestObserver
	Handler() http.Handler
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config        *config.AppConfig
	Logger        *zap.Logger
	Services      ServiceSet
	Authenticator middleware.Authenticator
	Clients       middleware.ClientFinder
	RateLimiter   *middleware.RateLimiter
	Metrics       MetricsExporter
	Tracer        trace.Tracer
	Checks        map[string]handlers.CheckFunc
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	handlers.UseJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Tracer != nil {
		r.Use(middleware.Tracing(deps.Tracer))
	}
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.CORS(deps.Config.App.CORSOrigins))

	health := handlers.NewHealthHandler(deps.Checks, deps.Logger)
	r.GET("/healthz", health.Live)
	r.GET("/readyz", health.Ready)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	responder := handlers.Responder{Debug: !deps.Config.App.IsProduction()}
	requireAuth := middleware.RequireAuth(deps.Authenticator, deps.Clients, deps.Logger)

	api := r.Group("/api")
	api.Use(deps.RateLimiter.Handler())
	{
		auth := handlers.NewAuthHandler(deps.Services.Auth, responder, deps.Logger)
		authGroup := api.Group("/auth")
		authGroup.POST("/signup", auth.Signup)
		authGroup.POST("/login", auth.Login)
		authGroup.POST("/refresh", auth.Refresh)
		authGroup.POST("/logout", requireAuth, auth.Logout)
		authGroup.POST("/forgot-password", auth.ForgotPassword)
		authGroup.POST("/reset-password", auth.ResetPassword)
		authGroup.POST("/verify-email", auth.VerifyEmail)
		authGroup.POST("/send-verification", requireAuth, auth.SendVerification)

		profile := handlers.NewProfileHandler(deps.Services.Profiles, responder)
		profileGroup := api.Group("/profile", requireAuth)
		profileGroup.GET("", profile.Get)
		profileGroup.PUT("", profile.Replace)
		profileGroup.PATCH("", profile.Patch)
		profileGroup.POST("/change-password", profile.ChangePassword)
		profileGroup.DELETE("/account", profile.DeleteAccount)

		onboarding := handlers.NewOnboardingHandler(deps.Services.Onboarding, responder)
		onboardingGroup := api.Group("/onboarding", requireAuth)
		onboardingGroup.GET("/status", onboarding.Status)
		onboardingGroup.GET("/steps", onboarding.Steps)
		onboardingGroup.PUT("/steps/:n/data", onboarding.SaveData)
		onboardingGroup.POST("/steps/:n/complete", onboarding.Complete)

		documents := handlers.NewDocumentHandler(deps.Services.Documents, responder)
		documentGroup := api.Group("/documents", requireAuth)
		documentGroup.GET("", documents.List)
		documentGroup.POST("", documents.Create)
		documentGroup.POST("/upload-url", documents.UploadURL)
		documentGroup.DELETE("/:id", documents.Delete)

		admin := handlers.NewAdminHandler(deps.Services.Admin, responder)
		adminGroup := api.Group("/admin", requireAuth, middleware.RequireAdmin())
		adminGroup.GET("/stats", admin.Stats)
		adminGroup.GET("/activity", admin.Activity)
		adminGroup.GET("/clients", admin.Clients)
		adminGroup.GET("/clients/:id", admin.Client)
		adminGroup.POST("/clients/:id/approve-all", admin.ApproveAll)
		adminGroup.GET("/documents", admin.Documents)
		adminGroup.PATCH("/documents/:id", admin.Review)
		adminGroup.POST("/documents/bulk-approve", admin.BulkApprove)
	}

	return r
}
