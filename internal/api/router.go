package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/stylekit/internal/database"
)

// Version is reported by /health.
const Version = "1.0.0"

// base64 inflates the image by a third; the rest covers form and JSON framing.
const bodyOverhead = 1 << 20

type Dependencies struct {
	Analyzer handler.StyleAnalyzer
	Editor   handler.ImageEditor
	Remote   handler.RemoteEditor
	// DB is nil when the service runs without Postgres.
	DB database.Pinger

	MaxImageSize int
	RateLimit    middleware.RateLimiterConfig
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	if deps == nil {
		deps = &Dependencies{}
	}
	maxImage := deps.MaxImageSize
	if maxImage <= 0 {
		maxImage = handler.DefaultMaxImageSize
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "StyleKit API",
		BodyLimit:    maxImage*4/3 + bodyOverhead,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders: "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,Retry-After,Location",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(r.deps.DB, Version)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")

	// Rate limiting (per client IP)
	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	v1.Use(r.rateLimiter.Handler())

	// Analysis without a classifier answers FACE_NOT_DETECTED.
	styleHandler := handler.NewStyleHandler(r.deps.Analyzer, int64(r.deps.MaxImageSize), r.logger)
	v1.Post("/style/analyze", styleHandler.Analyze)

	if r.deps.Editor != nil || r.deps.Remote != nil {
		editHandler := handler.NewEditHandler(r.deps.Editor, r.deps.Remote, r.logger)
		if r.deps.Editor != nil {
			v1.Post("/edit-style", editHandler.Edit)
		}
		if r.deps.Remote != nil {
			v1.Post("/edit-style/remote", editHandler.SubmitRemote)
			v1.Get("/remote-jobs/:id", editHandler.GetRemoteJob)
		}
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
