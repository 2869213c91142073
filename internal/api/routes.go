// Package api defines the Huma REST routes of the hazard map.
package api

import (
	"context"
	"fmt"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-hazard/internal/config"
	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/observability"
	"github.com/joeblew999/plat-hazard/internal/overlay"
	"github.com/joeblew999/plat-hazard/internal/search"
	"github.com/joeblew999/plat-hazard/internal/service"
	"github.com/joeblew999/plat-hazard/internal/style"
	"github.com/joeblew999/plat-hazard/internal/symbology"
)

// Version is reported by /health and /api/v1/info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers. Features and
// Sources are nil when the database is unavailable.
type Services struct {
	Layers    *service.LayerService
	Style     *style.Controller
	Bus       *service.EventBus
	Features  *service.FeatureService
	Sources   *service.SourceService
	Hex       search.HexQuerier
	Places    search.Finder
	Preset    config.Preset
	Policy    search.Policy
	HexSource string
	DataDir   string
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"hex"`
}

type LayerOutput struct {
	Body service.MapLayer
}

type LayersOutput struct {
	Body []service.MapLayer
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type MapBody struct {
	Preset string            `json:"preset" doc:"Active preset" example:"v1"`
	View   config.ViewConfig `json:"view" doc:"Initial view"`
	Panels overlay.Sizes     `json:"panels" doc:"Legend panel sizes"`
	Policy search.Policy     `json:"policy" enum:"hex-supersedes,last-write-wins" doc:"Popup policy of searches"`
}

type HazardEntry struct {
	hazard.Hazard
	Field string `json:"field" doc:"Score attribute" example:"score7"`
	Color string `json:"color,omitempty" doc:"Symbol color" example:"#d82626"`
}

type HazardsBody struct {
	Hazards []HazardEntry    `json:"hazards" doc:"Hazards in popup order"`
	Bands   hazard.RiskBands `json:"bands" doc:"Risk band floors"`
}

type StyleInput struct {
	Scale float64 `query:"scale" required:"true" exclusiveMinimum:"0" doc:"Map scale denominator" example:"4000000"`
}

type LayerStyle struct {
	LayerID string      `json:"layerId" doc:"Layer ID"`
	Style   style.Style `json:"style" doc:"Style at the requested scale"`
}

type StyleBody struct {
	Scale      float64      `json:"scale" doc:"Requested scale"`
	Current    *float64     `json:"current,omitempty" doc:"Scale last applied by the map"`
	SymbolSize float64      `json:"symbolSize" doc:"Point symbol size in points"`
	Layers     []LayerStyle `json:"layers" doc:"Resolved style per rule"`
}

type LayoutInput struct {
	N      int     `query:"n" doc:"Override the number of symbols"`
	Radius float64 `query:"radius" doc:"Override the ring radius"`
}

type LayoutBody struct {
	Params     symbology.Params      `json:"params" doc:"Layout parameters"`
	Placements []symbology.Placement `json:"placements" doc:"One placement per ring slot"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}
	if svc.Metrics == nil {
		svc.Metrics = observability.NewMetricsForTesting()
	}
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

// RegisterMap registers the map and hazard catalog routes.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
	huma.Get(api, "/api/v1/hazards", h.GetHazards, huma.OperationTags("map"))
}

// RegisterLayers registers layer and style routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/style", h.GetStyle, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layout", h.GetLayout, huma.OperationTags("layers"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *struct{}) (*struct{ Body MapBody }, error) {
	p := h.svc.Preset
	return &struct{ Body MapBody }{Body: MapBody{
		Preset: p.Name,
		View:   p.View,
		Panels: p.Panels,
		Policy: h.svc.Policy,
	}}, nil
}

func (h *APIHandler) GetHazards(ctx context.Context, input *struct{}) (*struct{ Body HazardsBody }, error) {
	colors := map[string]string{}
	if h.svc.Layers != nil {
		for _, l := range h.svc.Layers.List() {
			if l.Placement != nil {
				colors[l.Placement.ScoreField] = l.Fill
			}
		}
	}

	entries := make([]HazardEntry, 0, len(hazard.Catalog))
	for _, hz := range hazard.Catalog {
		entries = append(entries, HazardEntry{Hazard: hz, Field: hz.Field(), Color: colors[hz.Field()]})
	}
	return &struct{ Body HazardsBody }{Body: HazardsBody{Hazards: entries, Bands: h.svc.Preset.Bands}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	if h.svc.Layers == nil {
		return &LayersOutput{Body: []service.MapLayer{}}, nil
	}
	return &LayersOutput{Body: h.svc.Layers.List()}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	if h.svc.Layers == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	layer, ok := h.svc.Layers.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &LayerOutput{Body: layer}, nil
}

// GetStyle resolves every scale rule at the requested scale. It does not
// change the layers; the map applies scales through the viewer.
func (h *APIHandler) GetStyle(ctx context.Context, input *StyleInput) (*struct{ Body StyleBody }, error) {
	rules := h.svc.Preset.Rules
	body := StyleBody{
		Scale:      input.Scale,
		SymbolSize: service.SymbolSize(input.Scale),
		Layers:     make([]LayerStyle, 0, len(rules)),
	}
	if h.svc.Style != nil {
		rules = h.svc.Style.Rules()
		if cur, ok := h.svc.Style.Scale(); ok {
			body.Current = &cur
		}
	}
	for _, r := range rules {
		body.Layers = append(body.Layers, LayerStyle{LayerID: r.LayerID, Style: r.Resolve(input.Scale)})
	}
	sort.SliceStable(body.Layers, func(i, j int) bool { return body.Layers[i].LayerID < body.Layers[j].LayerID })
	return &struct{ Body StyleBody }{Body: body}, nil
}

func (h *APIHandler) GetLayout(ctx context.Context, input *LayoutInput) (*struct{ Body LayoutBody }, error) {
	params := h.svc.Preset.Symbols
	if input.N != 0 {
		params.N = input.N
	}
	if input.Radius != 0 {
		params.Radius = input.Radius
	}
	placements, err := symbology.Generate(params)
	if err != nil {
		return nil, huma.Error400BadRequest(fmt.Sprintf("invalid layout: %v", err))
	}
	return &struct{ Body LayoutBody }{Body: LayoutBody{Params: params, Placements: placements}}, nil
}
