package api

import (
	"context"

	"go.uber.org/zap"
)

type InfoBody struct {
	Name      string   `json:"name" doc:"Service name"`
	Version   string   `json:"version" doc:"Service version"`
	Preset    string   `json:"preset" doc:"Active preset" example:"v1"`
	HexSource string   `json:"hex_source" enum:"local,remote" doc:"Where hexagon queries go"`
	DataDir   string   `json:"data_dir" doc:"Data directory path"`
	DB        bool     `json:"db" doc:"Whether the feature store is available"`
	Hexes     int      `json:"hexes" doc:"Stored hexagons"`
	Places    int      `json:"places" doc:"Stored places"`
	Layers    int      `json:"layers" doc:"Registered map layers"`
	Viewers   int      `json:"viewers" doc:"Open viewer event streams"`
	Features  []string `json:"features" doc:"Available features"`
}

func (h *APIHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:      "plat-hazard",
		Version:   Version,
		Preset:    h.svc.Preset.Name,
		HexSource: h.svc.HexSource,
		DataDir:   h.svc.DataDir,
		DB:        h.svc.Features != nil,
		Features:  []string{"search", "overlay", "scale-styles", "symbol-layout", "sse"},
	}
	if h.svc.Layers != nil {
		body.Layers = len(h.svc.Layers.List())
	}
	if h.svc.Bus != nil {
		body.Viewers = h.svc.Bus.Subscribers()
	}
	if h.svc.Features != nil {
		hexes, places, err := h.svc.Features.Counts(ctx)
		if err != nil {
			h.svc.Logger.Warn("count features", zap.Error(err))
		}
		body.Hexes, body.Places = hexes, places
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
