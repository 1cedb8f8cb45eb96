package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/perimap/internal/pkg/config"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks the backing services the configured store and
// containment engine depend on. Services that are not in use are reported
// but never fail readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Session store
		switch {
		case deps.Store == config.StoreValkey && deps.Cache == nil:
			checks["valkey"] = "not configured"
			allOK = false
		case deps.Cache != nil:
			if err := deps.Cache.Ping(ctx); err != nil {
				checks["valkey"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["valkey"] = "ok"
			}
		default:
			checks["valkey"] = "not configured"
		}

		// Containment engine
		switch {
		case deps.Engine == config.EnginePostGIS && deps.DB == nil:
			checks["postgis"] = "not configured"
			allOK = false
		case deps.DB != nil:
			if version, err := deps.DB.PostGISVersion(ctx); err != nil {
				checks["postgis"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["postgis"] = "ok " + version
			}
		default:
			checks["postgis"] = "not configured"
		}

		// NATS
		if deps.NATS != nil {
			if deps.NATS.IsConnected() {
				checks["nats"] = "ok"
			} else {
				checks["nats"] = "disconnected"
				allOK = false
			}
		} else {
			checks["nats"] = "not configured"
		}

		status := "ready"
		code := fiber.StatusOK
		if !allOK {
			status = "not ready"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"store":  deps.Store,
			"engine": deps.Engine,
			"checks": checks,
		})
	}
}
