package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-hazard/internal/config"
	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/observability"
	"github.com/joeblew999/plat-hazard/internal/search"
	"github.com/joeblew999/plat-hazard/internal/service"
)

type places []search.Result

func (p places) FindPlaces(ctx context.Context, query string, limit int) ([]search.Result, error) {
	var out []search.Result
	for _, r := range p {
		if strings.Contains(strings.ToLower(r.Name), strings.ToLower(query)) {
			out = append(out, r)
		}
	}
	return out, nil
}

// westHex has one hexagon covering every point west of -90.
type westHex struct{}

func (westHex) QueryIntersects(ctx context.Context, p orb.Point) ([]*geojson.Feature, error) {
	if p.Lon() >= -90 {
		return nil, nil
	}
	f := geojson.NewFeature(orb.Polygon{{{-100, 25}, {-95, 25}, {-95, 35}, {-100, 35}, {-100, 25}}})
	f.Properties["score7"] = 93.44
	f.Properties["score17"] = 12.0
	return []*geojson.Feature{f}, nil
}

func setup(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()
	preset := config.Builtin()["v1"]

	bus := service.NewEventBus()
	layers := service.NewLayerService(bus)
	require.NoError(t, layers.Build(preset))
	ctrl, err := layers.Controller(preset.Rules)
	require.NoError(t, err)

	svc := &Services{
		Layers: layers,
		Style:  ctrl,
		Bus:    bus,
		Hex:    westHex{},
		Places: places{{
			Name:    "Austin",
			Point:   orb.Point{-97.74, 30.27},
			Feature: geojson.NewFeature(orb.Point{-97.74, 30.27}),
		}},
		Preset:    preset,
		Policy:    search.HexSupersedes,
		HexSource: "local",
		Metrics:   observability.NewMetricsForTesting(),
	}

	cfg := huma.DefaultConfig("hazard test", Version)
	cfg.Transformers = append([]huma.Transformer{LinkTransformer()}, cfg.Transformers...)
	_, api := humatest.New(t, cfg)
	huma.AutoRegister(api, NewAPIHandler(svc))
	return api, svc
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestHealth(t *testing.T) {
	api, _ := setup(t)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[HealthBody](t, resp.Body.Bytes())
	assert.Equal(t, "ok", body.Status)
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/info>; rel="info"`)
}

func TestInfo(t *testing.T) {
	api, svc := setup(t)

	resp := api.Get("/api/v1/info")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[InfoBody](t, resp.Body.Bytes())
	assert.Equal(t, "plat-hazard", body.Name)
	assert.Equal(t, "v1", body.Preset)
	assert.False(t, body.DB)
	assert.Equal(t, hazard.Count+3, body.Layers)
	assert.Zero(t, body.Viewers)

	ch := svc.Bus.Subscribe()
	defer svc.Bus.Unsubscribe(ch)
	body = decode[InfoBody](t, api.Get("/api/v1/info").Body.Bytes())
	assert.Equal(t, 1, body.Viewers)
}

func TestMapAndHazards(t *testing.T) {
	api, _ := setup(t)

	resp := api.Get("/api/v1/map")
	require.Equal(t, http.StatusOK, resp.Code)
	m := decode[MapBody](t, resp.Body.Bytes())
	assert.Equal(t, 10.0, m.View.SearchZoom)
	assert.Equal(t, search.HexSupersedes, m.Policy)

	resp = api.Get("/api/v1/hazards")
	require.Equal(t, http.StatusOK, resp.Code)
	hz := decode[HazardsBody](t, resp.Body.Bytes())
	require.Len(t, hz.Hazards, hazard.Count)
	assert.Equal(t, "Heat Wave", hz.Hazards[0].Name)
	assert.Equal(t, "score7", hz.Hazards[0].Field)
	assert.NotEmpty(t, hz.Hazards[0].Color)
	assert.Equal(t, 90.0, hz.Bands.Severe)
}

func TestLayers(t *testing.T) {
	api, _ := setup(t)

	resp := api.Get("/api/v1/layers")
	require.Equal(t, http.StatusOK, resp.Code)
	layers := decode[[]service.MapLayer](t, resp.Body.Bytes())
	assert.Len(t, layers, hazard.Count+3)

	resp = api.Get("/api/v1/layers/hex")
	require.Equal(t, http.StatusOK, resp.Code)
	hex := decode[service.MapLayer](t, resp.Body.Bytes())
	assert.Equal(t, service.KindHex, hex.Kind)
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/layers/hex>; rel="self"`)

	resp = api.Get("/api/v1/layers/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStyleDoesNotApply(t *testing.T) {
	api, svc := setup(t)

	resp := api.Get("/api/v1/style?scale=4000000")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[StyleBody](t, resp.Body.Bytes())
	assert.Nil(t, body.Current)
	require.Len(t, body.Layers, 3)

	byID := map[string]LayerStyle{}
	for _, l := range body.Layers {
		byID[l.LayerID] = l
	}
	assert.Equal(t, 0.2, byID[service.LayerHex].Style.Opacity)
	assert.Equal(t, 2.0, byID[service.LayerState].Style.StrokeWidth)

	hex, _ := svc.Layers.Get(service.LayerHex)
	assert.Equal(t, 0.01, hex.Opacity)

	svc.Style.SetScale(20000000)
	resp = api.Get("/api/v1/style?scale=9244649")
	body = decode[StyleBody](t, resp.Body.Bytes())
	require.NotNil(t, body.Current)
	assert.Equal(t, 20000000.0, *body.Current)

	resp = api.Get("/api/v1/style?scale=0")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	resp = api.Get("/api/v1/style")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestLayout(t *testing.T) {
	api, _ := setup(t)

	resp := api.Get("/api/v1/layout")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[LayoutBody](t, resp.Body.Bytes())
	require.Len(t, body.Placements, hazard.Count)
	assert.Equal(t, "score7", body.Placements[0].ScoreField)
	assert.InDelta(t, 20.0, body.Placements[1].AngleDegrees, 1e-9)

	resp = api.Get("/api/v1/layout?n=4")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "colorPermutation")
}

func TestSearchByName(t *testing.T) {
	api, svc := setup(t)

	resp := api.Post("/api/v1/search", map[string]any{"query": "austin"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[SearchBody](t, resp.Body.Bytes())

	assert.True(t, body.Found)
	assert.Equal(t, "Austin", body.Name)
	require.NotNil(t, body.Target)
	assert.Equal(t, [2]float64{-97.74, 30.27}, *body.Target)
	assert.Equal(t, 10.0, body.Zoom)
	assert.Equal(t, 1, body.HexMatches)

	require.NotNil(t, body.Popup)
	assert.Equal(t, search.Hex, body.Popup.Source)
	assert.Equal(t, hazard.HexPopupTitle, body.Popup.Title)
	require.NotEmpty(t, body.Popup.Lines)
	assert.Equal(t, "Heat Wave", body.Popup.Lines[0].Hazard)
	assert.Equal(t, 93.4, body.Popup.Lines[0].Score)
	assert.NotEmpty(t, body.Opened)
	assert.Equal(t, search.Hex, body.Opened[len(body.Opened)-1].Source)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Searches.WithLabelValues("found")))
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/features/hex>; rel="hex"`)
}

type failingHex struct{}

func (failingHex) QueryIntersects(ctx context.Context, p orb.Point) ([]*geojson.Feature, error) {
	return nil, errors.New("hex service timeout")
}

func TestSearchWhenHexFails(t *testing.T) {
	api, svc := setup(t)
	svc.Hex = failingHex{}

	resp := api.Post("/api/v1/search", map[string]any{"query": "Austin"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[SearchBody](t, resp.Body.Bytes())

	assert.True(t, body.Found)
	assert.Zero(t, body.HexMatches)
	require.NotNil(t, body.Popup)
	assert.Equal(t, search.Primary, body.Popup.Source)
	require.Len(t, body.Opened, 1)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], "hex service timeout")

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Searches.WithLabelValues("partial")))
	assert.Zero(t, testutil.ToFloat64(svc.Metrics.Searches.WithLabelValues("error")))
}

func TestSearchByPoint(t *testing.T) {
	api, _ := setup(t)

	resp := api.Post("/api/v1/search", map[string]any{"lon": -80.5, "lat": 40})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[SearchBody](t, resp.Body.Bytes())

	assert.True(t, body.Found)
	assert.Equal(t, 0, body.HexMatches)
	require.NotNil(t, body.Popup)
	assert.Equal(t, search.Primary, body.Popup.Source)
	assert.Equal(t, "-80.5, 40", body.Popup.Title)
	assert.Len(t, body.Opened, 1)
}

func TestSearchWithoutResult(t *testing.T) {
	api, svc := setup(t)

	resp := api.Post("/api/v1/search", map[string]any{"query": "Atlantis"})
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[SearchBody](t, resp.Body.Bytes())
	assert.False(t, body.Found)
	assert.Nil(t, body.Popup)
	assert.Empty(t, body.Opened)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics.Searches.WithLabelValues("empty")))

	resp = api.Post("/api/v1/search", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestOverlay(t *testing.T) {
	api, _ := setup(t)

	resp := api.Post("/api/v1/overlay", map[string]any{"state": "LegendExpanded", "event": "info"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[OverlayBody](t, resp.Body.Bytes())
	assert.Equal(t, "InfoOpen", string(body.State))
	assert.Equal(t, "block", body.InfoDisplay)
	assert.Equal(t, "none", body.LegendDisplay)

	links := resp.Header().Values("Link")
	assert.Contains(t, links, `</api/v1/overlay>; rel="info"; method="POST"; title="Close info"`)
	assert.Contains(t, links, `</api/v1/overlay>; rel="legend"; method="POST"; title="Expand legend"`)

	resp = api.Post("/api/v1/overlay", map[string]any{"event": "legend"})
	body = decode[OverlayBody](t, resp.Body.Bytes())
	assert.Equal(t, "LegendExpanded", string(body.State))
	assert.Equal(t, "fa-chevron-down", body.ToggleIcon)

	resp = api.Post("/api/v1/overlay", map[string]any{"event": "zoom"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestHexFeatures(t *testing.T) {
	api, _ := setup(t)

	resp := api.Get("/api/v1/features/hex?lon=-97.5&lat=30.5")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[HexBody](t, resp.Body.Bytes())
	require.Equal(t, 1, body.Count)
	assert.Equal(t, [4]float64{-100, 25, -95, 35}, body.Features[0].Bound)
	require.Len(t, body.Features[0].Lines, 2)
	assert.Equal(t, hazard.Severe, body.Features[0].Lines[0].Level)
	assert.Equal(t, hazard.Low, body.Features[0].Lines[1].Level)
	assert.Equal(t, "🟥 Heat Wave: 93.4\n🟩 Wildfire: 12", body.Features[0].Text)

	resp = api.Get("/api/v1/features/hex?lon=-80&lat=30.5")
	body = decode[HexBody](t, resp.Body.Bytes())
	assert.Equal(t, 0, body.Count)

	resp = api.Get("/api/v1/features/hex?lon=500&lat=0")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestStoreWithoutDatabase(t *testing.T) {
	api, _ := setup(t)

	resp := api.Get("/api/v1/sources")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	resp = api.Post("/api/v1/sources/load")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = api.Get("/api/v1/features/stats")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = api.Get("/api/v1/features/places?q=aus")
	require.Equal(t, http.StatusOK, resp.Code)
	found := decode[[]Place](t, resp.Body.Bytes())
	require.Len(t, found, 1)
	assert.Equal(t, "Austin", found[0].Name)
}
