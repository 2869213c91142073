// Package service contains the map's runtime state: the layer registry,
// the feature store and the event bus that feeds the viewer.
package service

import "github.com/joeblew999/plat-hazard/internal/symbology"

// LayerKind is the role a layer plays on the map.
type LayerKind string

const (
	KindPoint   LayerKind = "point"
	KindHex     LayerKind = "hex"
	KindState   LayerKind = "state"
	KindCountry LayerKind = "country"
)

// MapLayer is one feature layer as the page should build it.
type MapLayer struct {
	ID           string               `json:"id" doc:"Unique layer identifier" example:"point-score7"`
	Name         string               `json:"name" doc:"Display name" example:"Heat Wave"`
	Kind         LayerKind            `json:"kind" enum:"point,hex,state,country" doc:"Layer role"`
	URL          string               `json:"url" doc:"Feature service URL"`
	Visible      bool                 `json:"visible" doc:"Whether the layer is added to the map"`
	Opacity      float64              `json:"opacity" minimum:"0" maximum:"1" doc:"Current layer opacity" example:"0.8"`
	StrokeWidth  float64              `json:"strokeWidth,omitempty" doc:"Current outline width"`
	Fill         string               `json:"fill,omitempty" doc:"Fill color (CSS)"`
	Outline      string               `json:"outline,omitempty" doc:"Outline color (CSS)"`
	MinScale     float64              `json:"minScale,omitempty" doc:"Layer hidden above this scale"`
	BlendMode    string               `json:"blendMode,omitempty" doc:"Layer blend mode" example:"lighten"`
	Effect       string               `json:"effect,omitempty" doc:"Layer effect" example:"bloom(0.8, 0.3px, 0.1)"`
	Placement    *symbology.Placement `json:"placement,omitempty" doc:"Symbol ring slot for point layers"`
	OpacityStops symbology.Stops      `json:"opacityStops,omitempty" doc:"Symbol opacity by score"`
	SizeStops    symbology.Stops      `json:"sizeStops,omitempty" doc:"Symbol size by map scale"`
}

// DatasetFile is a GeoJSON source file in the data directory.
type DatasetFile struct {
	Name    string `json:"name" doc:"File name" example:"hex_score.geojson"`
	Size    string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	Dataset string `json:"dataset" enum:"hex,places" doc:"Table the file loads into"`
}
