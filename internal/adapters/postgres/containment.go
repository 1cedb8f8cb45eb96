package postgres

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/pkg/geospatial"
	"github.com/samirrijal/perimap/internal/pkg/metrics"
)

// ContainmentEngine implements ports.ContainmentChecker with PostGIS.
// Polygon edges are geodesic and circle distances use the PostGIS sphere.
// Nothing is written to the database.
type ContainmentEngine struct {
	db *DB
}

// NewContainmentEngine creates a new ContainmentEngine.
func NewContainmentEngine(db *DB) *ContainmentEngine {
	return &ContainmentEngine{db: db}
}

func (e *ContainmentEngine) Name() string { return "postgis" }

// Contains tests every point against p in one round trip. The result is
// ordered like pts.
func (e *ContainmentEngine) Contains(ctx context.Context, p domain.Perimeter, pts []domain.Coordinate) ([]bool, error) {
	if len(pts) == 0 {
		return []bool{}, nil
	}
	lngs, lats := splitCoordinates(pts)
	defer metrics.UpdateDBPoolMetrics(e.db.Stat())

	switch v := p.(type) {
	case domain.Polygon:
		if !v.Drawn() {
			return allInside(len(pts)), nil
		}
		return e.query(ctx, len(pts), `
			SELECT ST_Covers(ST_GeogFromText($1), ST_SetSRID(ST_MakePoint(p.lng, p.lat), 4326)::geography)
			FROM unnest($2::float8[], $3::float8[]) WITH ORDINALITY AS p(lng, lat, idx)
			ORDER BY p.idx
		`, PolygonWKT(v), lngs, lats)
	case domain.Circle:
		return e.query(ctx, len(pts), `
			SELECT ST_DWithin(
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
				ST_SetSRID(ST_MakePoint(p.lng, p.lat), 4326)::geography,
				$3, false)
			FROM unnest($4::float8[], $5::float8[]) WITH ORDINALITY AS p(lng, lat, idx)
			ORDER BY p.idx
		`, v.Center.Lng, v.Center.Lat, v.Radius, lngs, lats)
	case nil:
		return allInside(len(pts)), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedShape, p.Kind())
	}
}

func (e *ContainmentEngine) query(ctx context.Context, n int, sql string, args ...any) ([]bool, error) {
	rows, err := e.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("containment query: %w", err)
	}
	defer rows.Close()

	out := make([]bool, 0, n)
	for rows.Next() {
		var in bool
		if err := rows.Scan(&in); err != nil {
			return nil, fmt.Errorf("scan containment: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PolygonWKT renders a polygon perimeter as a closed WKT polygon.
func PolygonWKT(p domain.Polygon) string {
	return wkt.MarshalString(orb.Polygon{geospatial.ClosedRing(p.Ring())})
}

func splitCoordinates(pts []domain.Coordinate) (lngs, lats []float64) {
	lngs = make([]float64, len(pts))
	lats = make([]float64, len(pts))
	for i, c := range pts {
		lngs[i], lats[i] = c.Lng, c.Lat
	}
	return lngs, lats
}

func allInside(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}
