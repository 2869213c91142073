package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-hazard/internal/humastar"
)

// links maps operation paths to their RFC 8288 Link header values.
// Enables restish hypermedia navigation via `restish links <url>`.
var links = map[string][]string{
	"/health": {
		`</api/v1/info>; rel="info"`,
		`</api/v1/map>; rel="map"`,
		`</api/v1/layers>; rel="layers"`,
		`</api/v1/hazards>; rel="hazards"`,
	},
	"/api/v1/info": {
		`</health>; rel="health"`,
		`</api/v1/sources>; rel="sources"`,
		`</api/v1/features/stats>; rel="stats"`,
	},
	"/api/v1/map": {
		`</api/v1/layers>; rel="layers"`,
		`</api/v1/hazards>; rel="hazards"`,
		`</api/v1/overlay>; rel="overlay"`,
	},
	"/api/v1/hazards": {
		`</api/v1/layout>; rel="layout"`,
		`</api/v1/layers>; rel="layers"`,
	},
	"/api/v1/layers": {
		`</api/v1/style>; rel="style"`,
		`</api/v1/layout>; rel="layout"`,
	},
	"/api/v1/layers/{id}": {
		`</api/v1/layers>; rel="collection"`,
	},
	"/api/v1/style": {
		`</api/v1/layers>; rel="layers"`,
	},
	"/api/v1/layout": {
		`</api/v1/hazards>; rel="hazards"`,
	},
	"/api/v1/search": {
		`</api/v1/features/places>; rel="places"`,
		`</api/v1/features/hex>; rel="hex"`,
	},
	"/api/v1/sources": {
		`</api/v1/sources/load>; rel="load"`,
		`</api/v1/features/stats>; rel="stats"`,
	},
}

// LinkTransformer returns the transformer adding the API's Link headers.
func LinkTransformer() huma.Transformer {
	return humastar.LinkTransformer(links)
}
