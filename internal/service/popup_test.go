package service

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/search"
)

func TestPopupViewHex(t *testing.T) {
	f := geojson.NewFeature(square(-100, 30, 2))
	f.Properties["score7"] = 91.26
	f.Properties["score4"] = 55.04
	f.Properties["name"] = "ignored"

	v := NewPopupView(search.Popup{
		Search:   3,
		Source:   search.Hex,
		Title:    hazard.HexPopupTitle,
		Location: orb.Point{-99, 31},
		Features: []*geojson.Feature{f},
	}, hazard.BandsStandard)

	assert.Equal(t, uint64(3), v.Search)
	assert.Equal(t, [2]float64{-99, 31}, v.Location)
	assert.Empty(t, v.Fields)
	require.Len(t, v.Lines, 2)
	assert.Equal(t, hazard.PopupLine{Hazard: "Heat Wave", Score: 91.3, Level: hazard.Severe, Marker: "🟥"}, v.Lines[0])
	assert.Equal(t, "Drought", v.Lines[1].Hazard)
	assert.Equal(t, hazard.Moderate, v.Lines[1].Level)
}

func TestPopupViewPlace(t *testing.T) {
	f := geojson.NewFeature(orb.Point{-97.74, 30.27})
	f.Properties["state"] = "TX"
	f.Properties["name"] = "Austin"

	v := NewPopupView(search.Popup{Source: search.Primary, Title: "Austin", Features: []*geojson.Feature{f}}, hazard.BandsStandard)
	assert.Empty(t, v.Lines)
	assert.Equal(t, []PopupField{{Name: "name", Value: "Austin"}, {Name: "state", Value: "TX"}}, v.Fields)

	empty := NewPopupView(search.Popup{Source: search.Primary, Title: "Somewhere"}, hazard.BandsStandard)
	assert.Equal(t, "Somewhere", empty.Title)
	assert.Empty(t, empty.Fields)
}
