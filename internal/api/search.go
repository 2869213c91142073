package api

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-hazard/internal/humastar"
	"github.com/joeblew999/plat-hazard/internal/overlay"
	"github.com/joeblew999/plat-hazard/internal/search"
	"github.com/joeblew999/plat-hazard/internal/service"
)

const searchLimit = 5

// SearchRequest names a place or gives a location directly.
type SearchRequest struct {
	Query string   `json:"query,omitempty" doc:"Place name" example:"Austin"`
	Lon   *float64 `json:"lon,omitempty" minimum:"-180" maximum:"180" doc:"Longitude, used when query is empty"`
	Lat   *float64 `json:"lat,omitempty" minimum:"-90" maximum:"90" doc:"Latitude, used when query is empty"`
}

type SearchBody struct {
	Found      bool                `json:"found" doc:"Whether the search had a result"`
	Name       string              `json:"name,omitempty" doc:"Name of the result used"`
	Target     *[2]float64         `json:"target,omitempty" doc:"Where the view went [lon, lat]"`
	Zoom       float64             `json:"zoom,omitempty" doc:"Zoom the view went to"`
	HexMatches int                 `json:"hexMatches" doc:"Hexagons containing the result"`
	Popup      *service.PopupView  `json:"popup,omitempty" doc:"Visible popup"`
	Opened     []service.PopupView `json:"opened" doc:"Popups in the order they opened"`
	Errors     []string            `json:"errors,omitempty" doc:"Branches that failed and opened no popup"`
}

type OverlayRequest struct {
	State overlay.State `json:"state,omitempty" enum:"InfoOpen,LegendCollapsed,LegendExpanded,AllClosed" doc:"Current state; empty is the initial state"`
	Event overlay.Event `json:"event" enum:"info,legend,search" doc:"User event"`
}

// OverlayBody is the reduced overlay state with its rendered attributes.
type OverlayBody struct {
	State overlay.State `json:"state" doc:"Next state"`
	overlay.Attrs
}

// Actions offers the clicks available from the new state.
func (b OverlayBody) Actions() []humastar.Action {
	info := "Open info"
	if b.State.InfoVisible() {
		info = "Close info"
	}
	legend := "Expand legend"
	if b.State.LegendExpanded() {
		legend = "Collapse legend"
	}
	return []humastar.Action{
		{Rel: "info", Href: "/api/v1/overlay", Method: "POST", Title: info},
		{Rel: "legend", Href: "/api/v1/overlay", Method: "POST", Title: legend},
	}
}

// RegisterSearch registers the search and overlay routes.
func (h *APIHandler) RegisterSearch(api huma.API) {
	huma.Post(api, "/api/v1/search", h.PostSearch, huma.OperationTags("search"))
	huma.Post(api, "/api/v1/overlay", h.PostOverlay, huma.OperationTags("map"))
}

// recorder collects what one search did to the view and popups.
type recorder struct {
	mu     sync.Mutex
	target *orb.Point
	zoom   float64
	popups []search.Popup
}

func (r *recorder) GoTo(ctx context.Context, target orb.Point, zoom float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target, r.zoom = &target, zoom
	return nil
}

func (r *recorder) Open(ctx context.Context, p search.Popup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.popups = append(r.popups, p)
}

// PostSearch runs one search without a page attached and reports the
// popup that would be left visible.
func (h *APIHandler) PostSearch(ctx context.Context, input *struct{ Body SearchRequest }) (*struct{ Body SearchBody }, error) {
	if h.svc.Hex == nil {
		return nil, huma.Error503ServiceUnavailable("Hexagon layer not available")
	}

	results, err := h.results(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	body := SearchBody{Opened: []service.PopupView{}}
	if len(results) == 0 {
		h.svc.Metrics.Searches.WithLabelValues("empty").Inc()
		return &struct{ Body SearchBody }{Body: body}, nil
	}

	rec := &recorder{}
	handler := search.NewHandler(rec, h.svc.Hex, rec,
		search.WithPolicy(h.svc.Policy),
		search.WithZoom(h.svc.Preset.View.SearchZoom),
		search.WithLogger(h.svc.Logger),
	)
	out, err := handler.Handle(ctx, results)
	switch {
	case err != nil && !out.Navigated && out.Popup == nil:
		h.svc.Metrics.Searches.WithLabelValues("error").Inc()
		return nil, huma.Error502BadGateway("Search failed", err)
	case err != nil:
		// one branch succeeded, so the search stands without the other
		h.svc.Metrics.Searches.WithLabelValues("partial").Inc()
		h.svc.Logger.Warn("search branch failed", zap.String("name", results[0].Name), zap.Error(err))
		body.Errors = append(body.Errors, err.Error())
	default:
		h.svc.Metrics.Searches.WithLabelValues("found").Inc()
	}

	bands := h.svc.Preset.Bands
	body.Found = out.Found
	body.Name = results[0].Name
	body.HexMatches = out.HexMatches
	if rec.target != nil {
		body.Target = &[2]float64{rec.target.Lon(), rec.target.Lat()}
		body.Zoom = rec.zoom
	}
	for _, p := range rec.popups {
		h.svc.Metrics.PopupsOpened.WithLabelValues(string(p.Source)).Inc()
		body.Opened = append(body.Opened, service.NewPopupView(p, bands))
	}
	if out.Popup != nil {
		v := service.NewPopupView(*out.Popup, bands)
		body.Popup = &v
	}
	return &struct{ Body SearchBody }{Body: body}, nil
}

func (h *APIHandler) results(ctx context.Context, req SearchRequest) ([]search.Result, error) {
	if q := strings.TrimSpace(req.Query); q != "" {
		if h.svc.Places == nil {
			return nil, huma.Error503ServiceUnavailable("Place lookup not available")
		}
		results, err := h.svc.Places.FindPlaces(ctx, q, searchLimit)
		if err != nil {
			return nil, huma.Error500InternalServerError("Place lookup failed", err)
		}
		return results, nil
	}
	if req.Lon == nil || req.Lat == nil {
		return nil, huma.Error400BadRequest("query or lon/lat is required")
	}
	pt := orb.Point{*req.Lon, *req.Lat}
	return []search.Result{{Name: fmt.Sprintf("%g, %g", pt.Lon(), pt.Lat()), Point: pt}}, nil
}

// PostOverlay applies one user event to an overlay state.
func (h *APIHandler) PostOverlay(ctx context.Context, input *struct{ Body OverlayRequest }) (*struct{ Body OverlayBody }, error) {
	state := input.Body.State
	if state == "" {
		state = overlay.Initial
	}
	next, err := overlay.Reduce(state, input.Body.Event)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	h.svc.Metrics.OverlayEvents.WithLabelValues(string(input.Body.Event)).Inc()
	return &struct{ Body OverlayBody }{Body: OverlayBody{
		State: next,
		Attrs: overlay.Render(next, h.svc.Preset.Panels),
	}}, nil
}
