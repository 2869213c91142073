package arcgis

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-hazard/internal/search"
)

// NameField is the attribute FindPlaces matches against.
const NameField = "NAME"

// FindPlaces returns the features whose name starts with query, as search
// results anchored at the feature's point or bounding box center.
func (c *Client) FindPlaces(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if limit <= 0 {
		limit = 5
	}
	prefix := strings.ToUpper(strings.ReplaceAll(search.EscapeLike(query), "'", "''"))
	where := fmt.Sprintf(`UPPER(%s) LIKE '%s%%' ESCAPE '\'`, NameField, prefix)

	feats, err := c.QueryWhere(ctx, where, limit)
	if err != nil {
		return nil, err
	}

	out := make([]search.Result, 0, len(feats))
	for _, f := range feats {
		if f.Geometry == nil {
			continue
		}
		out = append(out, search.Result{
			Name:    placeName(f),
			Point:   anchor(f.Geometry),
			Feature: f,
		})
	}
	return out, nil
}

func placeName(f *geojson.Feature) string {
	if name := f.Properties.MustString(NameField, ""); name != "" {
		return name
	}
	return f.Properties.MustString(strings.ToLower(NameField), "")
}

func anchor(g orb.Geometry) orb.Point {
	if p, ok := g.(orb.Point); ok {
		return p
	}
	return g.Bound().Center()
}
