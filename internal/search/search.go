// Package search handles a completed location search: it navigates the
// view to the found point and opens a popup, while querying the hexagon
// layer for a richer popup at the same point.
package search

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-hazard/internal/hazard"
)

// DefaultZoom is the zoom level the view goes to for a search result.
const DefaultZoom = 10

// Result is one candidate returned by a location search.
type Result struct {
	Name    string
	Point   orb.Point
	Feature *geojson.Feature
}

// View is the map view being navigated.
type View interface {
	GoTo(ctx context.Context, target orb.Point, zoom float64) error
}

// HexQuerier finds hexagon features intersecting a point.
type HexQuerier interface {
	QueryIntersects(ctx context.Context, p orb.Point) ([]*geojson.Feature, error)
}

// Finder resolves a place name to candidate results, best first.
type Finder interface {
	FindPlaces(ctx context.Context, query string, limit int) ([]Result, error)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// EscapeLike escapes the LIKE wildcards in s for a pattern using
// ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Source tells which branch of a search produced a popup.
type Source string

const (
	Primary Source = "primary"
	Hex     Source = "hex"
)

// Popup is an opened popup.
type Popup struct {
	Search   uint64             `json:"search" doc:"Search generation that produced the popup"`
	Source   Source             `json:"source" enum:"primary,hex" doc:"Which branch opened the popup"`
	Title    string             `json:"title" doc:"Popup title"`
	Location orb.Point          `json:"location" doc:"Popup anchor [lon, lat]"`
	Features []*geojson.Feature `json:"-"`
}

// Popups receives popups in the order they become visible. It is called
// with the handler lock held and must not call back into the handler.
type Popups interface {
	Open(ctx context.Context, p Popup)
}

// PopupsFunc adapts a function to Popups.
type PopupsFunc func(ctx context.Context, p Popup)

func (f PopupsFunc) Open(ctx context.Context, p Popup) { f(ctx, p) }

// Policy decides which popup stays visible when both branches finish.
type Policy string

const (
	// HexSupersedes keeps the hexagon popup regardless of completion order.
	HexSupersedes Policy = "hex-supersedes"
	// LastWriteWins shows whichever popup arrived last.
	LastWriteWins Policy = "last-write-wins"
)

// ParsePolicy parses a policy name. Empty selects HexSupersedes.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", HexSupersedes:
		return HexSupersedes, nil
	case LastWriteWins:
		return LastWriteWins, nil
	}
	return "", eris.Errorf("unknown popup policy %q", s)
}

// Outcome summarizes one Handle call.
type Outcome struct {
	Found      bool
	Superseded bool
	Navigated  bool
	HexMatches int
	Popup      *Popup
}

// Handler runs searches. A newer search cancels the one in flight and
// popups from older searches are discarded.
type Handler struct {
	view   View
	hex    HexQuerier
	popups Popups
	policy Policy
	zoom   float64
	logger *zap.Logger

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	hexShown bool
	current  *Popup
}

// Option configures a Handler.
type Option func(*Handler)

// WithPolicy sets the popup policy.
func WithPolicy(p Policy) Option { return func(h *Handler) { h.policy = p } }

// WithZoom sets the target zoom level.
func WithZoom(z float64) Option { return func(h *Handler) { h.zoom = z } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(h *Handler) { h.logger = l } }

// NewHandler creates a search handler.
func NewHandler(view View, hex HexQuerier, popups Popups, opts ...Option) *Handler {
	h := &Handler{
		view:   view,
		hex:    hex,
		popups: popups,
		policy: HexSupersedes,
		zoom:   DefaultZoom,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Current returns the visible popup, if any.
func (h *Handler) Current() *Popup {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Handle processes the results of one search. Only the first result is
// used; no results is a no-op. Handle returns when both branches finish or
// the search is superseded. Branch errors are logged and returned; the
// failed branch opens no popup.
func (h *Handler) Handle(ctx context.Context, results []Result) (Outcome, error) {
	if len(results) == 0 {
		return Outcome{}, nil
	}
	res := results[0]

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.gen++
	gen := h.gen
	h.cancel = cancel
	h.hexShown = false
	h.mu.Unlock()

	log := h.logger.With(zap.Uint64("search", gen), zap.String("name", res.Name))
	out := Outcome{Found: true}
	var outMu sync.Mutex

	var g errgroup.Group
	g.Go(func() error {
		if err := h.view.GoTo(ctx, res.Point, h.zoom); err != nil {
			return eris.Wrapf(err, "go to %v", res.Point)
		}
		outMu.Lock()
		out.Navigated = true
		outMu.Unlock()

		var feats []*geojson.Feature
		if res.Feature != nil {
			feats = []*geojson.Feature{res.Feature}
		}
		h.open(ctx, gen, Popup{Source: Primary, Title: res.Name, Location: res.Point, Features: feats})
		return nil
	})
	g.Go(func() error {
		feats, err := h.hex.QueryIntersects(ctx, res.Point)
		if err != nil {
			return eris.Wrapf(err, "query hexagons at %v", res.Point)
		}
		outMu.Lock()
		out.HexMatches = len(feats)
		outMu.Unlock()
		if len(feats) > 0 {
			h.open(ctx, gen, Popup{Source: Hex, Title: hazard.HexPopupTitle, Location: res.Point, Features: feats})
		}
		return nil
	})
	err := g.Wait()

	h.mu.Lock()
	stale := gen != h.gen
	if !stale {
		h.cancel = nil
		out.Popup = h.current
	}
	h.mu.Unlock()

	if stale {
		out.Superseded = true
		if err != nil {
			log.Debug("superseded search ended", zap.Error(err))
		}
		return out, nil
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debug("search canceled", zap.Error(err))
		} else {
			log.Warn("search branch failed", zap.Error(err))
		}
		return out, err
	}
	return out, nil
}

func (h *Handler) open(ctx context.Context, gen uint64, p Popup) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if gen != h.gen {
		return
	}
	if p.Source == Primary && h.policy == HexSupersedes && h.hexShown {
		return
	}
	if p.Source == Hex {
		h.hexShown = true
	}
	p.Search = gen
	h.current = &p
	if h.popups != nil {
		h.popups.Open(ctx, p)
	}
}
