// Package style derives layer opacity and stroke width from the map scale.
//
// Scale is the representative fraction denominator: larger numbers are
// further zoomed out. A rule's thresholds are evaluated in ascending
// MaxScale order and the first with scale <= MaxScale wins.
package style

import (
	"sort"
	"sync"
)

// Style is the visual state the controller owns for one layer.
// A zero StrokeWidth means the layer has no outline to adjust.
type Style struct {
	Opacity     float64 `json:"opacity" yaml:"opacity" mapstructure:"opacity" doc:"Layer opacity (0-1)" example:"0.2"`
	StrokeWidth float64 `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty" mapstructure:"strokeWidth" doc:"Outline width in points" example:"2"`
}

// Threshold applies Style at or below MaxScale.
type Threshold struct {
	MaxScale float64 `json:"maxScale" yaml:"maxScale" mapstructure:"maxScale" doc:"Largest scale the style applies to" example:"4622324"`
	Style    `yaml:",inline" mapstructure:",squash"`
}

// Rule is the scale style rule for one layer.
type Rule struct {
	LayerID    string      `json:"layerId" yaml:"layerId" mapstructure:"layerId" doc:"Layer the rule drives" example:"hex"`
	Thresholds []Threshold `json:"thresholds" yaml:"thresholds" mapstructure:"thresholds" doc:"Scale thresholds"`
	Default    Style       `json:"default" yaml:"default" mapstructure:"default" doc:"Style when no threshold matches"`
}

// Resolve returns the style for scale.
func (r Rule) Resolve(scale float64) Style {
	ts := make([]Threshold, len(r.Thresholds))
	copy(ts, r.Thresholds)
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].MaxScale < ts[j].MaxScale })

	for _, t := range ts {
		if scale <= t.MaxScale {
			return t.Style
		}
	}
	return r.Default
}

// Target receives style updates. Layers in the registry implement it.
type Target interface {
	ApplyStyle(Style)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(Style)

func (f TargetFunc) ApplyStyle(s Style) { f(s) }

// Applied reports what SetScale did for one layer.
type Applied struct {
	LayerID string `json:"layerId" doc:"Layer ID"`
	Style   Style  `json:"style" doc:"Style now in effect"`
	Changed bool   `json:"changed" doc:"Whether the layer was updated"`
}

type binding struct {
	rule    Rule
	target  Target
	current Style
	applied bool
}

// Controller applies registered rules on every scale change.
type Controller struct {
	mu       sync.Mutex
	bindings []*binding
	scale    float64
	hasScale bool
}

// NewController creates an empty controller.
func NewController() *Controller {
	return &Controller{}
}

// Register binds a rule to its target. Registration happens once at startup.
func (c *Controller) Register(rule Rule, target Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = append(c.bindings, &binding{rule: rule, target: target})
}

// Scale returns the last applied scale.
func (c *Controller) Scale() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale, c.hasScale
}

// SetScale resolves every rule at scale and pushes changed styles to their
// targets. Calling it again with the same scale is a no-op for the targets.
func (c *Controller) SetScale(scale float64) []Applied {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.scale, c.hasScale = scale, true
	out := make([]Applied, 0, len(c.bindings))
	for _, b := range c.bindings {
		s := b.rule.Resolve(scale)
		changed := !b.applied || s != b.current
		if changed {
			b.target.ApplyStyle(s)
			b.current, b.applied = s, true
		}
		out = append(out, Applied{LayerID: b.rule.LayerID, Style: s, Changed: changed})
	}
	return out
}

// Styles resolves every rule at scale without touching the targets.
func (c *Controller) Styles(scale float64) map[string]Style {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Style, len(c.bindings))
	for _, b := range c.bindings {
		out[b.rule.LayerID] = b.rule.Resolve(scale)
	}
	return out
}

// Rules returns the registered rules in registration order.
func (c *Controller) Rules() []Rule {
	c.mu.Lock()
	defer c.mu.Unlock()
	rules := make([]Rule, len(c.bindings))
	for i, b := range c.bindings {
		rules[i] = b.rule
	}
	return rules
}
