package service

import (
	"sort"

	"github.com/joeblew999/plat-hazard/internal/hazard"
	"github.com/joeblew999/plat-hazard/internal/search"
)

// PopupView is a popup as the page displays it.
type PopupView struct {
	Search   uint64             `json:"search" doc:"Search generation that produced the popup"`
	Source   search.Source      `json:"source" enum:"primary,hex" doc:"Which branch opened the popup"`
	Title    string             `json:"title" doc:"Popup title" example:"Risk Score in this 1K-sq-mi Hexagon"`
	Location [2]float64         `json:"location" doc:"Popup anchor [lon, lat]"`
	Lines    []hazard.PopupLine `json:"lines,omitempty" doc:"Hazard rows of a hexagon popup"`
	Fields   []PopupField       `json:"fields,omitempty" doc:"Attributes of a place popup"`
}

// PopupField is one attribute row of a place popup.
type PopupField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// NewPopupView renders p. Hexagon popups list the hazard scores of the
// first matching hexagon; place popups list the candidate's attributes.
func NewPopupView(p search.Popup, bands hazard.RiskBands) PopupView {
	v := PopupView{
		Search:   p.Search,
		Source:   p.Source,
		Title:    p.Title,
		Location: [2]float64{p.Location.Lon(), p.Location.Lat()},
	}
	if len(p.Features) == 0 {
		return v
	}

	f := p.Features[0]
	if p.Source == search.Hex {
		v.Lines = hazard.PopupLines(Scores(f), bands)
		return v
	}

	names := make([]string, 0, len(f.Properties))
	for k := range f.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		v.Fields = append(v.Fields, PopupField{Name: k, Value: f.Properties[k]})
	}
	return v
}
