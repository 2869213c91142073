package config

import (
	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/overlay"
	"github.com/joeblew999/plat-hazard/internal/style"
	"github.com/joeblew999/plat-hazard/internal/symbology"
)

// Preset is one complete, named configuration of the map page.
type Preset struct {
	Name    string           `json:"name" yaml:"name" mapstructure:"name" doc:"Preset name" example:"v1"`
	View    ViewConfig       `json:"view" yaml:"view" mapstructure:"view" doc:"Initial view"`
	Panels  overlay.Sizes    `json:"panels" yaml:"panels" mapstructure:"panels" doc:"Legend panel sizes"`
	Bands   hazard.RiskBands `json:"bands" yaml:"bands" mapstructure:"bands" doc:"Risk band floors"`
	Symbols symbology.Params `json:"symbols" yaml:"symbols" mapstructure:"symbols" doc:"Symbol ring layout"`
	Layers  LayerConfig      `json:"layers" yaml:"layers" mapstructure:"layers" doc:"Layer sources and base styles"`
	Rules   []style.Rule     `json:"rules" yaml:"rules" mapstructure:"rules" doc:"Scale style rules"`
}

// ViewConfig is the initial map view.
type ViewConfig struct {
	Basemap    string  `json:"basemap" yaml:"basemap" mapstructure:"basemap" doc:"Basemap id" example:"dark-gray"`
	CenterLon  float64 `json:"centerLon" yaml:"centerLon" mapstructure:"centerLon" doc:"Center longitude" example:"-97"`
	CenterLat  float64 `json:"centerLat" yaml:"centerLat" mapstructure:"centerLat" doc:"Center latitude" example:"38"`
	Zoom       float64 `json:"zoom" yaml:"zoom" mapstructure:"zoom" doc:"Initial zoom" example:"4"`
	MinZoom    float64 `json:"minZoom" yaml:"minZoom" mapstructure:"minZoom" doc:"Minimum zoom" example:"3"`
	MaxZoom    float64 `json:"maxZoom" yaml:"maxZoom" mapstructure:"maxZoom" doc:"Maximum zoom" example:"9"`
	SearchZoom float64 `json:"searchZoom" yaml:"searchZoom" mapstructure:"searchZoom" doc:"Zoom used for search results" example:"10"`
	Bloom      bool    `json:"bloom" yaml:"bloom" mapstructure:"bloom" doc:"Enable the bloom effect"`
}

// LayerConfig lists the feature services and their base styles.
type LayerConfig struct {
	PointsURL    string  `json:"pointsUrl" yaml:"pointsUrl" mapstructure:"pointsUrl" doc:"Hazard point feature service"`
	HexURL       string  `json:"hexUrl" yaml:"hexUrl" mapstructure:"hexUrl" doc:"Hexagon feature service"`
	StateURL     string  `json:"stateUrl" yaml:"stateUrl" mapstructure:"stateUrl" doc:"State boundary feature service"`
	CountryURL   string  `json:"countryUrl" yaml:"countryUrl" mapstructure:"countryUrl" doc:"Country boundary feature service"`
	PointOpacity float64 `json:"pointOpacity" yaml:"pointOpacity" mapstructure:"pointOpacity" doc:"Opacity of each point layer" example:"0.8"`
	HexMinScale  float64 `json:"hexMinScale" yaml:"hexMinScale" mapstructure:"hexMinScale" doc:"Hexagons hidden above this scale" example:"18489298"`
	ShowCountry  bool    `json:"showCountry" yaml:"showCountry" mapstructure:"showCountry" doc:"Whether the country outline is added"`
}

const serviceRoot = "https://services.arcgis.com/HRPe58bUyBqyyiCt/arcgis/rest/services/"

func defaultLayers() LayerConfig {
	return LayerConfig{
		PointsURL:    serviceRoot + "usbr_point/FeatureServer",
		HexURL:       serviceRoot + "hex_score/FeatureServer",
		StateURL:     serviceRoot + "us_state/FeatureServer",
		CountryURL:   serviceRoot + "us_boundary/FeatureServer",
		PointOpacity: 0.8,
		HexMinScale:  18489298,
	}
}

func defaultView() ViewConfig {
	return ViewConfig{
		Basemap:    "dark-gray",
		CenterLon:  -97,
		CenterLat:  38,
		Zoom:       4,
		MinZoom:    3,
		MaxZoom:    9,
		SearchZoom: 10,
		Bloom:      true,
	}
}

// DefaultRules are the scale rules of the hexagon and boundary layers.
func DefaultRules() []style.Rule {
	return []style.Rule{
		{
			LayerID: "hex",
			Thresholds: []style.Threshold{
				{MaxScale: 4622324, Style: style.Style{Opacity: 0.2}},
				{MaxScale: 9244649, Style: style.Style{Opacity: 0.05}},
			},
			Default: style.Style{Opacity: 0.01},
		},
		{
			LayerID:    "state",
			Thresholds: []style.Threshold{{MaxScale: 9244649, Style: style.Style{Opacity: 0.75, StrokeWidth: 2}}},
			Default:    style.Style{Opacity: 0.5, StrokeWidth: 1.2},
		},
		{
			LayerID:    "country",
			Thresholds: []style.Threshold{{MaxScale: 9244649, Style: style.Style{Opacity: 0.75, StrokeWidth: 5}}},
			Default:    style.Style{Opacity: 0.5, StrokeWidth: 3},
		},
	}
}

// Builtin returns the presets consolidated from the page's versions.
func Builtin() map[string]Preset {
	v1 := Preset{
		Name:    "v1",
		View:    defaultView(),
		Panels:  overlay.SizesStandard,
		Bands:   hazard.BandsStandard,
		Symbols: symbology.DefaultParams(),
		Layers:  defaultLayers(),
		Rules:   DefaultRules(),
	}

	v2 := v1
	v2.Name = "v2"
	v2.Bands = hazard.BandsWide
	v2.Symbols = symbology.DefaultParams()
	v2.Symbols.ScaleFactor = 1.0
	v2.Rules = DefaultRules()

	compact := v1
	compact.Name = "compact"
	compact.Panels = overlay.SizesCompact
	compact.Symbols = symbology.DefaultParams()
	compact.Rules = DefaultRules()

	return map[string]Preset{
		v1.Name:      v1,
		v2.Name:      v2,
		compact.Name: compact,
	}
}
