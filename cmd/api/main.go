package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/perimap/internal/adapters/http"
	"github.com/samirrijal/perimap/internal/adapters/memory"
	natsadapter "github.com/samirrijal/perimap/internal/adapters/nats"
	"github.com/samirrijal/perimap/internal/adapters/postgres"
	"github.com/samirrijal/perimap/internal/adapters/valkey"
	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/core/ports"
	"github.com/samirrijal/perimap/internal/core/usecases"
	"github.com/samirrijal/perimap/internal/pkg/config"
	"github.com/samirrijal/perimap/internal/pkg/logging"
	"github.com/samirrijal/perimap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("perimap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second

	// Session store
	var (
		store ports.SessionStore
		cache *valkey.Cache
	)
	switch cfg.Session.Store {
	case config.StoreValkey:
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer cache.Close()
		store = valkey.NewSessionStore(cache, ttl)
	default:
		mem := memory.NewSessionStore(ttl)
		go mem.RunSweeper(ctx, time.Minute)
		store = mem
	}

	// Containment engine; nil means the in-process planar predicate.
	var (
		checker ports.ContainmentChecker
		db      *postgres.DB
	)
	if cfg.Geometry.Engine == config.EnginePostGIS {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if version, err := db.PostGISVersion(ctx); err != nil {
			slog.Warn("postgis unavailable, containment will fall back to planar", "error", err)
		} else {
			slog.Info("postgis containment enabled", "postgis_version", version)
		}
		checker = postgres.NewContainmentEngine(db)
	}

	// NATS
	var (
		publisher ports.EventPublisher
		natsConn  *nats.Conn
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		// Separate connection for the interaction subscriber and WebSocket relay
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats relay conn unavailable", "error", err)
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	sessions := usecases.NewSessionService(store, checker, publisher, cfg.Session.MaxMarkers)

	if natsConn != nil {
		sub := natsadapter.NewSubscriber(natsConn)
		defer sub.Close()
		err := sub.SubscribeInteractions(ctx, func(ctx context.Context, in *domain.Interaction) error {
			_, err := sessions.Apply(ctx, in)
			return err
		})
		if err != nil {
			slog.Warn("interaction subscribe failed", "error", err)
		} else {
			slog.Info("listening for interactions", "subject", natsadapter.InteractionSubject)
		}
	}

	deps := &http.Dependencies{
		Sessions: sessions,
		Map:      cfg.Map,
		Store:    cfg.Session.Store,
		Engine:   cfg.Geometry.Engine,
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Perimap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr,
			"store", cfg.Session.Store, "engine", cfg.Geometry.Engine, "nats", natsConn != nil)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
