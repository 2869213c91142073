package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduce(t *testing.T, s State, evs ...Event) State {
	t.Helper()
	for _, ev := range evs {
		var err error
		s, err = Reduce(s, ev)
		require.NoError(t, err)
	}
	return s
}

func TestLegendThenInfo(t *testing.T) {
	s := reduce(t, Initial, ClickLegend)
	assert.Equal(t, LegendExpanded, s)
	assert.False(t, s.InfoVisible())

	s = reduce(t, s, ClickInfo)
	assert.Equal(t, InfoOpen, s)
	assert.False(t, s.LegendExpanded())
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from State
		ev   Event
		want State
	}{
		{InfoOpen, ClickInfo, AllClosed},
		{InfoOpen, ClickLegend, LegendExpanded},
		{InfoOpen, SearchCompleted, AllClosed},
		{AllClosed, ClickInfo, InfoOpen},
		{AllClosed, ClickLegend, LegendExpanded},
		{AllClosed, SearchCompleted, AllClosed},
		{LegendCollapsed, ClickInfo, InfoOpen},
		{LegendCollapsed, ClickLegend, LegendExpanded},
		{LegendExpanded, ClickInfo, InfoOpen},
		{LegendExpanded, ClickLegend, LegendCollapsed},
		{LegendExpanded, SearchCompleted, LegendExpanded},
	}
	for _, tt := range tests {
		got, err := Reduce(tt.from, tt.ev)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s + %s", tt.from, tt.ev)
	}
}

func TestNeverBothExpanded(t *testing.T) {
	events := []Event{ClickInfo, ClickLegend, SearchCompleted}
	seen := map[State]bool{Initial: true}
	queue := []State{Initial}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		assert.False(t, s.InfoVisible() && s.LegendExpanded(), "state %s", s)
		for _, ev := range events {
			next, err := Reduce(s, ev)
			require.NoError(t, err)
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	assert.Len(t, seen, 4)
}

func TestReduceRejectsUnknown(t *testing.T) {
	_, err := Reduce(InfoOpen, Event("zoom"))
	assert.Error(t, err)

	_, err = Reduce(State("Open"), ClickInfo)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	a := Render(InfoOpen, SizesStandard)
	assert.Equal(t, Attrs{
		InfoDisplay:     "block",
		LegendDisplay:   "none",
		LegendMaxHeight: "50px",
		LegendWidth:     "250px",
		ToggleIcon:      "fa-chevron-up",
	}, a)

	a = Render(LegendExpanded, SizesCompact)
	assert.Equal(t, "none", a.InfoDisplay)
	assert.Equal(t, "block", a.LegendDisplay)
	assert.Equal(t, "300px", a.LegendMaxHeight)
	assert.Equal(t, "300px", a.LegendWidth)
	assert.Equal(t, "fa-chevron-down", a.ToggleIcon)

	sig := Signals(LegendExpanded, SizesStandard)
	assert.Equal(t, "LegendExpanded", sig["overlay"])
	assert.Equal(t, "500px", sig["legendWidth"])
}

func TestLoaded(t *testing.T) {
	assert.Equal(t, Attrs{
		InfoDisplay:     "block",
		LegendDisplay:   "block",
		LegendMaxHeight: "150px",
		LegendWidth:     "250px",
		ToggleIcon:      "fa-chevron-up",
	}, Loaded(SizesStandard))

	// presets without an initial height start collapsed
	sz := SizesStandard
	sz.InitialHeight = ""
	assert.Equal(t, "50px", Loaded(sz).LegendMaxHeight)

	sig := LoadedSignals(SizesCompact)
	assert.Equal(t, string(Initial), sig["overlay"])
	assert.Equal(t, "150px", sig["legendMaxHeight"])
	assert.Equal(t, "block", sig["legendDisplay"])

	// the first toggle leaves the load layout behind
	next := reduce(t, Initial, ClickInfo)
	assert.Equal(t, "50px", Render(next, SizesStandard).LegendMaxHeight)
}
