package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/perimap/internal/pkg/metrics"
)

// requestTimeout bounds every REST call under /v1/sessions.
const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 600 requests per minute per IP. Every map click is a request.
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(APIError{
				Status:  fiber.StatusTooManyRequests,
				Code:    "rate_limited",
				Message: "too many requests, please try again later",
			})
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/map/config", MapConfigHandler(deps))

	sessions := v1.Group("/sessions")
	sessions.Post("/", timeout.NewWithContext(CreateSessionHandler(deps), requestTimeout))
	sessions.Get("/:id", timeout.NewWithContext(GetSessionHandler(deps), requestTimeout))
	sessions.Delete("/:id", timeout.NewWithContext(DeleteSessionHandler(deps), requestTimeout))

	sessions.Get("/:id/markers", timeout.NewWithContext(ListMarkersHandler(deps), requestTimeout))
	sessions.Post("/:id/markers", timeout.NewWithContext(PlaceMarkerHandler(deps), requestTimeout))
	sessions.Post("/:id/markers/remove", timeout.NewWithContext(RemoveMarkerHandler(deps), requestTimeout))
	sessions.Delete("/:id/markers", timeout.NewWithContext(ClearMarkersHandler(deps), requestTimeout))

	sessions.Put("/:id/perimeter", timeout.NewWithContext(SetPerimeterHandler(deps), requestTimeout))
	sessions.Delete("/:id/perimeter", timeout.NewWithContext(ClearPerimeterHandler(deps), requestTimeout))
	sessions.Post("/:id/shapes", timeout.NewWithContext(CompleteShapeHandler(deps), requestTimeout))

	sessions.Get("/:id/contains", timeout.NewWithContext(ContainsHandler(deps), requestTimeout))
	sessions.Get("/:id/geojson", timeout.NewWithContext(GeoJSONHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id", websocket.New(WebSocketHandler(deps)))
}
