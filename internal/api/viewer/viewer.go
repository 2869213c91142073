// Package viewer contains the Datastar SSE handlers behind the map page.
package viewer

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-hazard/internal/config"
	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/humastar"
	"github.com/joeblew999/plat-hazard/internal/observability"
	"github.com/joeblew999/plat-hazard/internal/overlay"
	"github.com/joeblew999/plat-hazard/internal/search"
	"github.com/joeblew999/plat-hazard/internal/service"
	"github.com/joeblew999/plat-hazard/internal/style"
)

//go:embed fragments/*.html
var fragments embed.FS

// NewRenderer parses the embedded page fragments.
func NewRenderer() (*humastar.Renderer, error) {
	return humastar.NewRenderer(fragments, "fragments/*.html")
}

// Deps are the services the viewer drives.
type Deps struct {
	Layers  *service.LayerService
	Scale   *style.Debouncer
	Bus     *service.EventBus
	Places  search.Finder
	Hex     search.HexQuerier
	Preset  config.Preset
	Policy  search.Policy
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Handler serves the map page and its SSE endpoints.
type Handler struct {
	humastar.Handler
	deps     Deps
	sessions *Sessions
}

// NewHandler creates the viewer handler.
func NewHandler(deps Deps, renderer *humastar.Renderer) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetricsForTesting()
	}
	h := &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		deps:    deps,
	}
	h.sessions = NewSessions(h.newSearch)
	return h
}

// RegisterRoutes registers the viewer SSE routes.
func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("viewer")
	huma.Get(api, "/api/v1/viewer/events", h.Events, tags)
	huma.Post(api, "/api/v1/viewer/overlay/info", h.ToggleInfo, tags)
	huma.Post(api, "/api/v1/viewer/overlay/legend", h.ToggleLegend, tags)
	huma.Post(api, "/api/v1/viewer/scale", h.SetScale, tags)
	huma.Post(api, "/api/v1/viewer/search", h.Search, tags)
}

// Sessions exposes the session registry.
func (h *Handler) Sessions() *Sessions {
	return h.sessions
}

func (h *Handler) newSearch(id string) *search.Handler {
	return search.NewHandler(
		&busView{bus: h.deps.Bus, session: id},
		h.deps.Hex,
		&busPopups{bus: h.deps.Bus, session: id, metrics: h.deps.Metrics},
		search.WithPolicy(h.deps.Policy),
		search.WithZoom(h.deps.Preset.View.SearchZoom),
		search.WithLogger(h.deps.Logger.With(zap.String("session", id))),
	)
}

// LegendEntry is one hazard swatch of the legend.
type LegendEntry struct {
	Name  string
	Color string
}

// BandEntry is one risk band of the legend.
type BandEntry struct {
	Marker string
	Label  string
}

// LegendData feeds the legend fragment.
type LegendData struct {
	Hazards []LegendEntry
	Bands   []BandEntry
}

func (h *Handler) legend() LegendData {
	var d LegendData
	for _, l := range h.deps.Layers.List() {
		if l.Kind == service.KindPoint {
			d.Hazards = append(d.Hazards, LegendEntry{Name: l.Name, Color: l.Fill})
		}
	}
	b := h.deps.Preset.Bands
	d.Bands = []BandEntry{
		{Marker: hazard.Severe.Marker(), Label: fmt.Sprintf("Severe (%g+)", b.Severe)},
		{Marker: hazard.High.Marker(), Label: fmt.Sprintf("High (%g+)", b.High)},
		{Marker: hazard.Moderate.Marker(), Label: fmt.Sprintf("Moderate (%g+)", b.Moderate)},
		{Marker: hazard.Low.Marker(), Label: fmt.Sprintf("Low (below %g)", b.Moderate)},
	}
	return d
}

// PageData feeds the page template.
type PageData struct {
	Title   string
	Signals string
	Legend  LegendData
	View    config.ViewConfig
}

// Page serves the map page with the initial signals.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	signals := overlay.LoadedSignals(h.deps.Preset.Panels)
	signals["session"] = ""
	signals["query"] = ""
	signals["searchMessage"] = ""
	signals["popupOpen"] = false
	signals["scale"] = 0
	signals["symbolSize"] = 0
	signals["view"] = h.deps.Preset.View
	signals["layers"] = layerSignals(h.deps.Layers.List())
	raw, err := json.Marshal(signals)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	html, err := h.Renderer.Render("page", PageData{
		Title:   "The United States of Rising Hazards",
		Signals: string(raw),
		Legend:  h.legend(),
		View:    h.deps.Preset.View,
	})
	if err != nil {
		h.deps.Logger.Error("render page", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
