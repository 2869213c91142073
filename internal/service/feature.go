package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"

	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/search"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS hex_features (
	id VARCHAR PRIMARY KEY,
	min_x DOUBLE NOT NULL,
	min_y DOUBLE NOT NULL,
	max_x DOUBLE NOT NULL,
	max_y DOUBLE NOT NULL,
	geometry VARCHAR NOT NULL,
	properties VARCHAR NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS places (
	name VARCHAR NOT NULL,
	lon DOUBLE NOT NULL,
	lat DOUBLE NOT NULL,
	properties VARCHAR NOT NULL
)`,
}

// FeatureService stores hexagons and named places in DuckDB and answers
// the point-in-hexagon and place-name queries of a search.
type FeatureService struct {
	db *sql.DB
}

// NewFeatureService creates the tables if needed.
func NewFeatureService(ctx context.Context, db *sql.DB) (*FeatureService, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, eris.Wrap(err, "create feature tables")
		}
	}
	return &FeatureService{db: db}, nil
}

// ImportHexes replaces the stored hexagons with the polygons of fc.
// Features without a polygon geometry are skipped.
func (s *FeatureService) ImportHexes(ctx context.Context, fc *geojson.FeatureCollection) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "begin hex import")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM hex_features"); err != nil {
		return 0, eris.Wrap(err, "clear hexagons")
	}

	n := 0
	for i, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}

		geom, err := geojson.NewGeometry(f.Geometry).MarshalJSON()
		if err != nil {
			return 0, eris.Wrapf(err, "encode hexagon %d", i)
		}
		props, err := json.Marshal(f.Properties)
		if err != nil {
			return 0, eris.Wrapf(err, "encode hexagon %d properties", i)
		}

		id := fmt.Sprint(i)
		if f.ID != nil {
			id = fmt.Sprint(f.ID)
		}
		b := f.Geometry.Bound()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO hex_features VALUES (?, ?, ?, ?, ?, ?, ?)",
			id, b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y(), string(geom), string(props),
		); err != nil {
			return 0, eris.Wrapf(err, "insert hexagon %s", id)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "commit hex import")
	}
	return n, nil
}

// ImportPlaces replaces the stored places with the named points of fc.
func (s *FeatureService) ImportPlaces(ctx context.Context, fc *geojson.FeatureCollection) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "begin place import")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM places"); err != nil {
		return 0, eris.Wrap(err, "clear places")
	}

	n := 0
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		name := f.Properties.MustString("name", "")
		if name == "" {
			continue
		}
		props, err := json.Marshal(f.Properties)
		if err != nil {
			return 0, eris.Wrapf(err, "encode place %d properties", i)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO places VALUES (?, ?, ?, ?)",
			name, pt.Lon(), pt.Lat(), string(props),
		); err != nil {
			return 0, eris.Wrapf(err, "insert place %q", name)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "commit place import")
	}
	return n, nil
}

// QueryIntersects returns the hexagons containing p.
func (s *FeatureService) QueryIntersects(ctx context.Context, p orb.Point) ([]*geojson.Feature, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT geometry, properties FROM hex_features
		WHERE min_x <= ? AND max_x >= ? AND min_y <= ? AND max_y >= ?
		ORDER BY id`,
		p.X(), p.X(), p.Y(), p.Y(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "query hexagons")
	}
	defer rows.Close()

	var out []*geojson.Feature
	for rows.Next() {
		var geomJSON, propsJSON string
		if err := rows.Scan(&geomJSON, &propsJSON); err != nil {
			return nil, eris.Wrap(err, "scan hexagon")
		}
		g, err := geojson.UnmarshalGeometry([]byte(geomJSON))
		if err != nil {
			return nil, eris.Wrap(err, "decode hexagon geometry")
		}
		if !contains(g.Geometry(), p) {
			continue
		}
		f := geojson.NewFeature(g.Geometry())
		if err := json.Unmarshal([]byte(propsJSON), &f.Properties); err != nil {
			return nil, eris.Wrap(err, "decode hexagon properties")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "iterate hexagons")
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	}
	return false
}

// FindPlaces returns places whose name contains query, case-insensitively,
// ordered by name.
func (s *FeatureService) FindPlaces(ctx context.Context, query string, limit int) ([]search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, lon, lat, properties FROM places
		WHERE lower(name) LIKE ? ESCAPE '\'
		ORDER BY name
		LIMIT ?`,
		"%"+search.EscapeLike(strings.ToLower(query))+"%", limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "find places %q", query)
	}
	defer rows.Close()

	var out []search.Result
	for rows.Next() {
		var (
			name      string
			lon, lat  float64
			propsJSON string
		)
		if err := rows.Scan(&name, &lon, &lat, &propsJSON); err != nil {
			return nil, eris.Wrap(err, "scan place")
		}
		pt := orb.Point{lon, lat}
		f := geojson.NewFeature(pt)
		if err := json.Unmarshal([]byte(propsJSON), &f.Properties); err != nil {
			return nil, eris.Wrap(err, "decode place properties")
		}
		out = append(out, search.Result{Name: name, Point: pt, Feature: f})
	}
	return out, eris.Wrap(rows.Err(), "iterate places")
}

// Counts returns the number of stored hexagons and places.
func (s *FeatureService) Counts(ctx context.Context) (hexes, places int, err error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT (SELECT count(*) FROM hex_features), (SELECT count(*) FROM places)")
	if err := row.Scan(&hexes, &places); err != nil {
		return 0, 0, eris.Wrap(err, "count features")
	}
	return hexes, places, nil
}

// Scores extracts the hazard score attributes of a hexagon feature.
func Scores(f *geojson.Feature) map[string]float64 {
	scores := make(map[string]float64, hazard.Count)
	if f == nil {
		return scores
	}
	for _, h := range hazard.Catalog {
		if v, ok := f.Properties[h.Field()]; ok {
			if n, ok := v.(float64); ok {
				scores[h.Field()] = n
			}
		}
	}
	return scores
}
