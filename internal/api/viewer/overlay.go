package viewer

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-hazard/internal/humastar"
	"github.com/joeblew999/plat-hazard/internal/overlay"
)

// ToggleInfo handles a click on the info button or the dialog's close.
func (h *Handler) ToggleInfo(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	return h.overlayEvent(input, overlay.ClickInfo)
}

// ToggleLegend handles a click on the legend header.
func (h *Handler) ToggleLegend(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	return h.overlayEvent(input, overlay.ClickLegend)
}

func (h *Handler) overlayEvent(input *humastar.SignalsInput, ev overlay.Event) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	current, err := overlayState(signals)
	if err != nil {
		return nil, err
	}
	next, err := overlay.Reduce(current, ev)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	h.deps.Metrics.OverlayEvents.WithLabelValues(string(ev)).Inc()

	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(overlay.Signals(next, h.deps.Preset.Panels))
	}), nil
}

// overlayState reads the page's overlay signal. A page that has not sent
// one is still in the initial state.
func overlayState(signals humastar.Signals) (overlay.State, error) {
	if !signals.Has("overlay") {
		return overlay.Initial, nil
	}
	s := overlay.State(signals.String("overlay"))
	if !s.Valid() {
		return "", huma.Error400BadRequest("unknown overlay state " + string(s))
	}
	return s, nil
}
