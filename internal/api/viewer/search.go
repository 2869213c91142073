package viewer

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-hazard/internal/humastar"
	"github.com/joeblew999/plat-hazard/internal/overlay"
)

const searchLimit = 5

// Candidate is one row of the search result list. The first one is used.
type Candidate struct {
	Name     string
	Lon, Lat float64
	Best     bool
}

// Search finds the typed place and hands the results to the page's search
// handler. The view move and popups arrive on the event stream.
func (h *Handler) Search(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	state, err := overlayState(signals)
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(signals.String("query"))
	sess, connected := h.sessions.Lookup(signals.String("session"))

	return h.Stream(func(sse humastar.SSE) {
		if query == "" {
			sse.Signals(map[string]any{"searchMessage": "Enter a place to search"})
			return
		}
		if h.deps.Places == nil {
			sse.Error("Place search not available")
			return
		}

		results, err := h.deps.Places.FindPlaces(ctx, query, searchLimit)
		if err != nil {
			h.deps.Metrics.Searches.WithLabelValues("error").Inc()
			h.deps.Logger.Warn("place lookup failed", zap.String("query", query), zap.Error(err))
			sse.Error("Search failed")
			return
		}
		items := make([]any, len(results))
		for i, r := range results {
			items[i] = Candidate{Name: r.Name, Lon: r.Point.Lon(), Lat: r.Point.Lat(), Best: i == 0}
		}
		sse.Patch(h.RenderList("candidate", items, "No results", "Try a city, county or state name."), "#searchResults")

		if len(results) == 0 {
			h.deps.Metrics.Searches.WithLabelValues("empty").Inc()
			sse.Signals(map[string]any{"searchMessage": fmt.Sprintf("No results for %q", query)})
			return
		}

		if !connected {
			h.deps.Metrics.Searches.WithLabelValues("error").Inc()
			sse.Error("Map is not connected, reload the page")
			return
		}

		out, err := sess.Search.Handle(ctx, results)
		switch {
		case out.Superseded:
			h.deps.Metrics.SearchSuperseded.Inc()
			return
		case err != nil:
			h.deps.Metrics.Searches.WithLabelValues("error").Inc()
			sse.Error("Search failed")
		default:
			h.deps.Metrics.Searches.WithLabelValues("found").Inc()
		}

		next, _ := overlay.Reduce(state, overlay.SearchCompleted)
		reply := overlay.Signals(next, h.deps.Preset.Panels)
		reply["session"] = sess.ID
		reply["searchMessage"] = results[0].Name
		reply["hexMatches"] = out.HexMatches
		if p := sess.Search.Current(); p != nil {
			reply["popupSource"] = string(p.Source)
		}
		sse.Signals(reply)
	}), nil
}
