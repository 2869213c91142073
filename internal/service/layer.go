package service

import (
	"fmt"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/joeblew999/plat-hazard/internal/config"
	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/style"
	"github.com/joeblew999/plat-hazard/internal/symbology"
)

// Layer identifiers outside the point ring.
const (
	LayerHex     = "hex"
	LayerState   = "state"
	LayerCountry = "country"
)

var (
	// ErrLayerNotFound is returned for an unknown layer id.
	ErrLayerNotFound = eris.New("layer not found")
	// ErrInvalidPreset is returned when a preset cannot produce a layer set.
	ErrInvalidPreset = eris.New("invalid preset")
)

// PointLayerID is the id of the point layer driven by a score field.
func PointLayerID(scoreField string) string {
	return "point-" + scoreField
}

// LayerService holds the layer set of the active preset.
type LayerService struct {
	bus    *EventBus
	mu     sync.RWMutex
	preset string
	order  []string
	layers map[string]MapLayer
}

// NewLayerService creates an empty layer registry. bus may be nil.
func NewLayerService(bus *EventBus) *LayerService {
	return &LayerService{
		bus:    bus,
		layers: make(map[string]MapLayer),
	}
}

// Build replaces the registry with the layers described by p. On error the
// previous layer set is kept.
func (s *LayerService) Build(p config.Preset) error {
	placements, err := symbology.Generate(p.Symbols)
	if err != nil {
		return eris.Wrapf(err, "preset %q", p.Name)
	}
	if p.Layers.PointsURL == "" || p.Layers.HexURL == "" {
		return eris.Wrapf(ErrInvalidPreset, "preset %q: points and hex urls are required", p.Name)
	}

	effect := ""
	hexEffect := ""
	if p.View.Bloom {
		effect = "bloom(0.8, 0.3px, 0.1)"
		hexEffect = "bloom(1, 1px, 0.1)"
	}

	var order []string
	layers := make(map[string]MapLayer, len(placements)+3)
	add := func(l MapLayer) {
		order = append(order, l.ID)
		layers[l.ID] = l
	}

	for i := range placements {
		pl := placements[i]
		name := pl.ScoreField
		var n int
		if _, err := fmt.Sscanf(pl.ScoreField, "score%d", &n); err == nil {
			if h, ok := hazard.ByNumber(n); ok {
				name = h.Name
			}
		}
		add(MapLayer{
			ID:           PointLayerID(pl.ScoreField),
			Name:         name,
			Kind:         KindPoint,
			URL:          p.Layers.PointsURL,
			Visible:      true,
			Opacity:      p.Layers.PointOpacity,
			Fill:         pl.Color,
			BlendMode:    "lighten",
			Effect:       effect,
			Placement:    &pl,
			OpacityStops: symbology.ScoreOpacity,
			SizeStops:    symbology.ScaleSize,
		})
	}

	add(MapLayer{
		ID:          LayerHex,
		Name:        "Hexagons",
		Kind:        KindHex,
		URL:         p.Layers.HexURL,
		Visible:     true,
		Opacity:     0.01,
		StrokeWidth: 1,
		Fill:        "rgba(0, 0, 0, 0)",
		Outline:     "rgba(255, 255, 255, 0.3)",
		MinScale:    p.Layers.HexMinScale,
		Effect:      hexEffect,
	})
	if p.Layers.StateURL != "" {
		add(MapLayer{
			ID:          LayerState,
			Name:        "States",
			Kind:        KindState,
			URL:         p.Layers.StateURL,
			Visible:     true,
			Opacity:     0.5,
			StrokeWidth: 1.2,
			Fill:        "rgba(0, 0, 0, 0)",
			Outline:     "rgba(255, 255, 255, 0.1)",
		})
	}
	if p.Layers.CountryURL != "" {
		add(MapLayer{
			ID:          LayerCountry,
			Name:        "Country",
			Kind:        KindCountry,
			URL:         p.Layers.CountryURL,
			Visible:     p.Layers.ShowCountry,
			Opacity:     0.5,
			StrokeWidth: 3,
			Fill:        "rgba(255, 0, 0, 1)",
			Outline:     "rgba(255, 255, 255, 0.1)",
		})
	}

	s.mu.Lock()
	s.preset = p.Name
	s.order = order
	s.layers = layers
	s.mu.Unlock()
	return nil
}

// Preset returns the name of the preset the registry was built from.
func (s *LayerService) Preset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preset
}

// List returns all layers in drawing order.
func (s *LayerService) List() []MapLayer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]MapLayer, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.layers[id])
	}
	return result
}

// Get returns a layer by ID.
func (s *LayerService) Get(id string) (MapLayer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.layers[id]
	return layer, ok
}

// Target returns a style target that updates the layer and publishes the
// change on the bus.
func (s *LayerService) Target(id string) style.Target {
	return style.TargetFunc(func(st style.Style) {
		s.mu.Lock()
		l, ok := s.layers[id]
		if ok {
			l.Opacity = st.Opacity
			if st.StrokeWidth > 0 {
				l.StrokeWidth = st.StrokeWidth
			}
			s.layers[id] = l
		}
		s.mu.Unlock()

		if ok && s.bus != nil {
			s.bus.Publish(Event{Kind: EventStyle, LayerID: id, Style: st})
		}
	})
}

// Controller binds each rule to its layer. Every rule must name a layer in
// the registry.
func (s *LayerService) Controller(rules []style.Rule) (*style.Controller, error) {
	ctrl := style.NewController()
	for _, r := range rules {
		if _, ok := s.Get(r.LayerID); !ok {
			return nil, eris.Wrapf(ErrLayerNotFound, "style rule for %q", r.LayerID)
		}
		ctrl.Register(r, s.Target(r.LayerID))
	}
	return ctrl, nil
}

// SymbolSize is the point symbol size at scale.
func SymbolSize(scale float64) float64 {
	return symbology.ScaleSize.At(scale)
}
