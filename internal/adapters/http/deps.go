package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/perimap/internal/adapters/postgres"
	"github.com/samirrijal/perimap/internal/adapters/valkey"
	"github.com/samirrijal/perimap/internal/core/usecases"
	"github.com/samirrijal/perimap/internal/pkg/config"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.SessionService
	Map      config.MapConfig
	// Store and Engine name the configured session store and containment
	// engine for readiness reporting.
	Store  string
	Engine string
	NATS   *nats.Conn
	DB     *postgres.DB
	Cache  *valkey.Cache
}
