package viewer

import (
	"bytes"
	"context"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-hazard/internal/humastar"
	"github.com/joeblew999/plat-hazard/internal/service"
	"github.com/joeblew999/plat-hazard/internal/style"
)

// EventsInput identifies the page opening the stream.
type EventsInput struct {
	Session string `query:"session" doc:"Session id; empty starts a new session"`
}

// Events streams layer styles, view moves and popups to one page.
func (h *Handler) Events(ctx context.Context, input *EventsInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			ctx := humaCtx.Context()
			sse := humastar.NewSSE(humaCtx)

			sess := h.sessions.Open(input.Session)
			defer h.sessions.Remove(sess.ID)

			ch := h.deps.Bus.Subscribe()
			defer h.deps.Bus.Unsubscribe(ch)

			h.deps.Metrics.ViewerStreams.Inc()
			defer h.deps.Metrics.ViewerStreams.Dec()

			log := h.deps.Logger.With(zap.String("session", sess.ID))
			log.Debug("viewer stream opened", zap.Int("sessions", h.sessions.Len()))
			defer log.Debug("viewer stream closed")

			sse.Signals(map[string]any{
				"session": sess.ID,
				"layers":  layerSignals(h.deps.Layers.List()),
			})
			sse.Patch(h.Renderer.MustRender("legend", h.legend()), "#legendContent")

			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-ch:
					if !ok {
						return
					}
					if ev.Session != "" && ev.Session != sess.ID {
						continue
					}
					h.send(sse, ev)
				}
			}
		},
	}, nil
}

func (h *Handler) send(sse humastar.SSE, ev service.Event) {
	switch ev.Kind {
	case service.EventStyle:
		sse.Signals(map[string]any{
			"layers": map[string]any{
				ev.LayerID: styleSignal(ev.Style.Opacity, ev.Style.StrokeWidth),
			},
		})
	case service.EventScale:
		signals := map[string]any{
			"scale":      ev.Scale,
			"symbolSize": service.SymbolSize(ev.Scale),
		}
		if len(ev.Styles) > 0 {
			signals["layers"] = styleSignals(ev.Styles)
		}
		sse.Signals(signals)
	case service.EventView:
		sse.GoTo(ev.Target.Lon(), ev.Target.Lat(), ev.Zoom)
	case service.EventPopup:
		if ev.Popup == nil {
			return
		}
		view := service.NewPopupView(*ev.Popup, h.deps.Preset.Bands)
		var buf bytes.Buffer
		if err := h.Renderer.RenderToBuffer(&buf, "popup", view); err != nil {
			h.deps.Logger.Error("render popup", zap.Error(err))
			return
		}
		sse.Replace(buf.String(), "#popup")
		sse.Signals(map[string]any{"popupOpen": true, "popupSource": string(view.Source)})
	}
}

func styleSignal(opacity, strokeWidth float64) map[string]any {
	m := map[string]any{"opacity": opacity}
	if strokeWidth > 0 {
		m["strokeWidth"] = strokeWidth
	}
	return m
}

func styleSignals(styles map[string]style.Style) map[string]any {
	out := make(map[string]any, len(styles))
	for id, s := range styles {
		out[id] = styleSignal(s.Opacity, s.StrokeWidth)
	}
	return out
}

func layerSignals(layers []service.MapLayer) map[string]any {
	out := make(map[string]any, len(layers))
	for _, l := range layers {
		out[l.ID] = styleSignal(l.Opacity, l.StrokeWidth)
	}
	return out
}
