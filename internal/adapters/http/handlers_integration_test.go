//go:build integration
// +build integration

package http_test

import (
	"context"
	"testing"
	"time"

	"github.com/samirrijal/perimap/internal/adapters/http"
	"github.com/samirrijal/perimap/internal/adapters/memory"
	"github.com/samirrijal/perimap/internal/adapters/postgres"
	"github.com/samirrijal/perimap/internal/core/usecases"
	"github.com/samirrijal/perimap/internal/pkg/config"
)

// setupTestDB connects to the test database and skips when PostGIS is missing.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("perimap-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if _, err := db.PostGISVersion(ctx); err != nil {
		db.Close()
		t.Skipf("postgis not installed: %v", err)
	}
	return db
}

// setupPostGISDeps wires the session service to the PostGIS containment engine.
func setupPostGISDeps(db *postgres.DB) *http.Dependencies {
	return makeDeps(func(d *http.Dependencies) {
		d.Sessions = usecases.NewSessionService(
			memory.NewSessionStore(time.Hour),
			postgres.NewContainmentEngine(db),
			nil,
			0,
		)
		d.Engine = config.EnginePostGIS
		d.DB = db
	})
}

func TestPolygonVisibility_Integration_PostGIS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupPostGISDeps(db))
	id := createSession(t, app)
	doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":0.5,"lng":0.5}`)
	doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":2,"lng":2}`)

	code, body := doJSON(t, app, "PUT", "/v1/sessions/"+id+"/perimeter", unitSquare)
	if code != 200 {
		t.Fatalf("expected 200, got %d (%s)", code, body)
	}
	v := decodeView(t, body)
	if !v.Markers[0].Visible || v.Markers[1].Visible {
		t.Errorf("expected only the inner marker visible, got %+v", v.Markers)
	}
}

func TestCircleVisibility_Integration_PostGIS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupPostGISDeps(db))
	id := createSession(t, app)
	// Roughly 1.1 km and 111 km north of the center.
	doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":43.48,"lng":-80.54}`)
	doJSON(t, app, "POST", "/v1/sessions/"+id+"/markers", `{"lat":44.47,"lng":-80.54}`)

	code, body := doJSON(t, app, "PUT", "/v1/sessions/"+id+"/perimeter",
		`{"type":"circle","center":{"lat":43.47,"lng":-80.54},"radius":5000}`)
	if code != 200 {
		t.Fatalf("expected 200, got %d (%s)", code, body)
	}
	v := decodeView(t, body)
	if v.Visible != 1 || !v.Markers[0].Visible {
		t.Errorf("expected only the nearby marker visible, got %+v", v.Markers)
	}
}

func TestReady_Integration_PostGIS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupPostGISDeps(db))
	code, body := doJSON(t, app, "GET", "/v1/ready", "")
	if code != 200 {
		t.Fatalf("expected 200, got %d (%s)", code, body)
	}
}
