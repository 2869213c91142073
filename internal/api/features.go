package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/service"
)

// PointInput locates a query on the map.
type PointInput struct {
	Lon float64 `query:"lon" required:"true" minimum:"-180" maximum:"180" doc:"Longitude" example:"-97.74"`
	Lat float64 `query:"lat" required:"true" minimum:"-90" maximum:"90" doc:"Latitude" example:"30.27"`
}

type HexFeature struct {
	Bound  [4]float64         `json:"bound" doc:"Bounding box [minLon, minLat, maxLon, maxLat]"`
	Scores map[string]float64 `json:"scores" doc:"Hazard scores by attribute"`
	Lines  []hazard.PopupLine `json:"lines" doc:"Popup rows"`
	Text   string             `json:"text" doc:"Popup rows as text" example:"🟥 Heat Wave: 93.4"`
}

type HexBody struct {
	Count    int          `json:"count" doc:"Hexagons containing the point"`
	Features []HexFeature `json:"features" doc:"Matching hexagons"`
}

type PlacesInput struct {
	Query string `query:"q" required:"true" minLength:"1" doc:"Place name" example:"Austin"`
	Limit int    `query:"limit" minimum:"0" maximum:"50" doc:"Maximum results (default 5)"`
}

type Place struct {
	Name     string     `json:"name" doc:"Place name"`
	Location [2]float64 `json:"location" doc:"[lon, lat]"`
}

type StatsBody struct {
	Hexes  int `json:"hexes" doc:"Stored hexagons"`
	Places int `json:"places" doc:"Stored places"`
}

type LoadBody struct {
	Loaded map[string]int `json:"loaded" doc:"Features stored per file"`
}

// RegisterFeatures registers the feature store routes.
func (h *APIHandler) RegisterFeatures(api huma.API) {
	huma.Get(api, "/api/v1/features/hex", h.GetHex, huma.OperationTags("features"))
	huma.Get(api, "/api/v1/features/places", h.GetPlaces, huma.OperationTags("features"))
	huma.Get(api, "/api/v1/features/stats", h.GetStats, huma.OperationTags("features"))
}

// RegisterSources registers source listing and loading routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
	huma.Post(api, "/api/v1/sources/load", h.LoadSources, huma.OperationTags("sources"))
}

// GetHex returns the hexagons containing a point with their popup rows.
func (h *APIHandler) GetHex(ctx context.Context, input *PointInput) (*struct{ Body HexBody }, error) {
	if h.svc.Hex == nil {
		return nil, huma.Error503ServiceUnavailable("Hexagon layer not available")
	}
	feats, err := h.svc.Hex.QueryIntersects(ctx, orb.Point{input.Lon, input.Lat})
	if err != nil {
		h.svc.Logger.Warn("hex query failed", zap.Error(err))
		return nil, huma.Error502BadGateway("Hexagon query failed", err)
	}

	body := HexBody{Count: len(feats), Features: make([]HexFeature, 0, len(feats))}
	for _, f := range feats {
		scores := service.Scores(f)
		lines := hazard.PopupLines(scores, h.svc.Preset.Bands)
		hf := HexFeature{Scores: scores, Lines: lines, Text: hazard.FormatLines(lines)}
		if f.Geometry != nil {
			b := f.Geometry.Bound()
			hf.Bound = [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
		}
		body.Features = append(body.Features, hf)
	}
	return &struct{ Body HexBody }{Body: body}, nil
}

func (h *APIHandler) GetPlaces(ctx context.Context, input *PlacesInput) (*struct{ Body []Place }, error) {
	if h.svc.Places == nil {
		return nil, huma.Error503ServiceUnavailable("Place lookup not available")
	}
	results, err := h.svc.Places.FindPlaces(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Place lookup failed", err)
	}
	places := make([]Place, 0, len(results))
	for _, r := range results {
		places = append(places, Place{Name: r.Name, Location: [2]float64{r.Point.Lon(), r.Point.Lat()}})
	}
	return &struct{ Body []Place }{Body: places}, nil
}

func (h *APIHandler) GetStats(ctx context.Context, input *struct{}) (*struct{ Body StatsBody }, error) {
	if h.svc.Features == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	hexes, places, err := h.svc.Features.Counts(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to count features", err)
	}
	return &struct{ Body StatsBody }{Body: StatsBody{Hexes: hexes, Places: places}}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.DatasetFile }, error) {
	if h.svc.Sources == nil {
		return &struct{ Body []service.DatasetFile }{Body: []service.DatasetFile{}}, nil
	}
	sources, err := h.svc.Sources.List()
	if err != nil {
		return &struct{ Body []service.DatasetFile }{Body: []service.DatasetFile{}}, nil
	}
	return &struct{ Body []service.DatasetFile }{Body: sources}, nil
}

// LoadSources imports every file in the sources directory into the store.
func (h *APIHandler) LoadSources(ctx context.Context, input *struct{}) (*struct{ Body LoadBody }, error) {
	if h.svc.Sources == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	loaded, err := h.svc.Sources.LoadAll(ctx)
	if err != nil {
		return nil, huma.Error400BadRequest("Load failed: " + err.Error())
	}
	if h.svc.Features != nil {
		if hexes, places, err := h.svc.Features.Counts(ctx); err == nil {
			h.svc.Metrics.FeaturesLoaded.WithLabelValues(service.DatasetHex).Set(float64(hexes))
			h.svc.Metrics.FeaturesLoaded.WithLabelValues(service.DatasetPlaces).Set(float64(places))
		}
	}
	return &struct{ Body LoadBody }{Body: LoadBody{Loaded: loaded}}, nil
}
