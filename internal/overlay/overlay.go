// Package overlay models the info dialog and legend panel that float over
// the map. State changes go through Reduce; Render turns a state into the
// element attributes the page applies.
package overlay

import "github.com/rotisserie/eris"

// State is the visible arrangement of the two panels.
//
// The legend is always collapsed while the info dialog is open, so at most
// one panel is expanded in every state.
type State string

const (
	InfoOpen        State = "InfoOpen"
	LegendCollapsed State = "LegendCollapsed"
	LegendExpanded  State = "LegendExpanded"
	AllClosed       State = "AllClosed"
)

// Initial is the state on page load.
const Initial = InfoOpen

// Valid reports whether s is one of the four states.
func (s State) Valid() bool {
	switch s {
	case InfoOpen, LegendCollapsed, LegendExpanded, AllClosed:
		return true
	}
	return false
}

// InfoVisible reports whether the info dialog is shown.
func (s State) InfoVisible() bool { return s == InfoOpen }

// LegendExpanded reports whether the legend content is shown.
func (s State) LegendExpanded() bool { return s == LegendExpanded }

// Event is a user action on the panels.
type Event string

const (
	ClickInfo       Event = "info"
	ClickLegend     Event = "legend"
	SearchCompleted Event = "search"
)

// Reduce applies an event to a state.
func Reduce(s State, ev Event) (State, error) {
	if !s.Valid() {
		return s, eris.Errorf("unknown overlay state %q", s)
	}
	switch ev {
	case ClickInfo:
		if s == InfoOpen {
			// opening info collapsed the legend, so that is where we return
			return AllClosed, nil
		}
		return InfoOpen, nil
	case ClickLegend:
		if s == LegendExpanded {
			return LegendCollapsed, nil
		}
		return LegendExpanded, nil
	case SearchCompleted:
		if s == InfoOpen {
			return AllClosed, nil
		}
		return s, nil
	}
	return s, eris.Errorf("unknown overlay event %q", ev)
}

// Sizes are the CSS sizes of the legend panel.
type Sizes struct {
	CollapsedHeight string `json:"collapsedHeight" yaml:"collapsedHeight" mapstructure:"collapsedHeight" doc:"Collapsed max-height" example:"50px"`
	CollapsedWidth  string `json:"collapsedWidth" yaml:"collapsedWidth" mapstructure:"collapsedWidth" doc:"Collapsed width" example:"250px"`
	ExpandedHeight  string `json:"expandedHeight" yaml:"expandedHeight" mapstructure:"expandedHeight" doc:"Expanded max-height" example:"500px"`
	ExpandedWidth   string `json:"expandedWidth" yaml:"expandedWidth" mapstructure:"expandedWidth" doc:"Expanded width" example:"500px"`
	InitialHeight   string `json:"initialHeight,omitempty" yaml:"initialHeight" mapstructure:"initialHeight" doc:"max-height on page load; empty uses the collapsed height" example:"150px"`
}

// Size presets from the versions of the page.
var (
	SizesStandard = Sizes{CollapsedHeight: "50px", CollapsedWidth: "250px", ExpandedHeight: "500px", ExpandedWidth: "500px", InitialHeight: "150px"}
	SizesCompact  = Sizes{CollapsedHeight: "50px", CollapsedWidth: "250px", ExpandedHeight: "300px", ExpandedWidth: "300px", InitialHeight: "150px"}
)

// Attrs are the element attributes for one render.
type Attrs struct {
	InfoDisplay     string `json:"infoDisplay" doc:"display of #infoDialog"`
	LegendDisplay   string `json:"legendDisplay" doc:"display of #legendContent"`
	LegendMaxHeight string `json:"legendMaxHeight" doc:"max-height of #legendContainer"`
	LegendWidth     string `json:"legendWidth" doc:"width of #legendContainer"`
	ToggleIcon      string `json:"toggleIcon" doc:"Font Awesome class of the legend toggle"`
}

// Render derives element attributes from the state.
func Render(s State, sz Sizes) Attrs {
	a := Attrs{InfoDisplay: "none"}
	if s.InfoVisible() {
		a.InfoDisplay = "block"
	}
	if s.LegendExpanded() {
		a.LegendDisplay = "block"
		a.LegendMaxHeight = sz.ExpandedHeight
		a.LegendWidth = sz.ExpandedWidth
		a.ToggleIcon = "fa-chevron-down"
	} else {
		a.LegendDisplay = "none"
		a.LegendMaxHeight = sz.CollapsedHeight
		a.LegendWidth = sz.CollapsedWidth
		a.ToggleIcon = "fa-chevron-up"
	}
	return a
}

// Loaded renders the page as first shown: the info dialog is open and the
// legend shows its content at the initial height. The state is Initial.
func Loaded(sz Sizes) Attrs {
	a := Render(Initial, sz)
	a.LegendDisplay = "block"
	if sz.InitialHeight != "" {
		a.LegendMaxHeight = sz.InitialHeight
	}
	return a
}

// Signals flattens state and attributes into Datastar signals.
func Signals(s State, sz Sizes) map[string]any {
	return signals(s, Render(s, sz))
}

// LoadedSignals are the signals of the page on load.
func LoadedSignals(sz Sizes) map[string]any {
	return signals(Initial, Loaded(sz))
}

func signals(s State, a Attrs) map[string]any {
	return map[string]any{
		"overlay":         string(s),
		"infoDisplay":     a.InfoDisplay,
		"legendDisplay":   a.LegendDisplay,
		"legendMaxHeight": a.LegendMaxHeight,
		"legendWidth":     a.LegendWidth,
		"toggleIcon":      a.ToggleIcon,
	}
}
