package viewer

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-hazard/internal/humastar"
	"github.com/joeblew999/plat-hazard/internal/service"
)

// SetScale receives the map scale after a zoom. The reply carries the layer
// styles for that scale so the page is right even if it missed style events;
// other pages get them through the event stream.
func (h *Handler) SetScale(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	scale, ok := signals.Number("scale")
	if !ok {
		return nil, huma.Error400BadRequest("scale must be a number")
	}

	h.deps.Scale.Notify(scale)

	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{
			"scale":      scale,
			"symbolSize": service.SymbolSize(scale),
			"layers":     styleSignals(h.deps.Scale.Styles(scale)),
		})
	}), nil
}
