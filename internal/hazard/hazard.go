// Package hazard holds the hazard catalog, risk bands and hex popup content.
package hazard

import (
	"fmt"
	"math"
	"strings"
)

// Hazard is one of the scored natural hazards.
type Hazard struct {
	Number int    `json:"number" doc:"Hazard number used in the score field name" example:"7"`
	Name   string `json:"name" doc:"Display name" example:"Heat Wave"`
}

// Field returns the attribute name carrying this hazard's score.
func (h Hazard) Field() string {
	return Field(h.Number)
}

// Field returns the score attribute name for a hazard number.
func Field(number int) string {
	return fmt.Sprintf("score%d", number)
}

// Catalog lists the hazards in popup order.
var Catalog = []Hazard{
	{7, "Heat Wave"},
	{8, "Hurricane"},
	{14, "Tornado"},
	{13, "Strong Wind"},
	{11, "Lightning"},
	{6, "Hail"},
	{9, "Ice Storm"},
	{18, "Winter Weather"},
	{3, "Cold Wave"},
	{1, "Avalanche"},
	{12, "Riverine Flooding"},
	{2, "Coastal Flooding"},
	{10, "Landslide"},
	{15, "Tsunami"},
	{5, "Earthquake"},
	{16, "Volcanic Activity"},
	{17, "Wildfire"},
	{4, "Drought"},
}

// Count is the number of hazards in the catalog.
const Count = 18

// ByNumber returns the hazard with the given number.
func ByNumber(number int) (Hazard, bool) {
	for _, h := range Catalog {
		if h.Number == number {
			return h, true
		}
	}
	return Hazard{}, false
}

// RiskLevel is the band a score falls into.
type RiskLevel string

const (
	Severe   RiskLevel = "severe"
	High     RiskLevel = "high"
	Moderate RiskLevel = "moderate"
	Low      RiskLevel = "low"
)

var markers = map[RiskLevel]string{
	Severe:   "🟥",
	High:     "🟧",
	Moderate: "🟨",
	Low:      "🟩",
}

// Marker returns the colored square shown next to a score.
func (l RiskLevel) Marker() string {
	return markers[l]
}

// RiskBands are the score floors of the upper three levels, highest first.
type RiskBands struct {
	Severe   float64 `json:"severe" yaml:"severe" mapstructure:"severe" doc:"Minimum score for severe" example:"90"`
	High     float64 `json:"high" yaml:"high" mapstructure:"high" doc:"Minimum score for high" example:"70"`
	Moderate float64 `json:"moderate" yaml:"moderate" mapstructure:"moderate" doc:"Minimum score for moderate" example:"50"`
}

// Band presets seen across versions of the map.
var (
	BandsStandard = RiskBands{Severe: 90, High: 70, Moderate: 50}
	BandsWide     = RiskBands{Severe: 80, High: 60, Moderate: 40}
)

// Classify maps a score to its risk level.
func (b RiskBands) Classify(score float64) RiskLevel {
	switch {
	case score >= b.Severe:
		return Severe
	case score >= b.High:
		return High
	case score >= b.Moderate:
		return Moderate
	default:
		return Low
	}
}

// Round rounds to the given number of decimals, half away from zero.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// PopupLine is one hazard row of the hex popup.
type PopupLine struct {
	Hazard string    `json:"hazard" doc:"Hazard name"`
	Score  float64   `json:"score" doc:"Score rounded to one decimal"`
	Level  RiskLevel `json:"level" doc:"Risk level"`
	Marker string    `json:"marker" doc:"Colored marker"`
}

// HexPopupTitle is the title of the hexagon popup.
const HexPopupTitle = "Risk Score in this 1K-sq-mi Hexagon"

// PopupLines builds the hex popup rows from a feature's scores.
// Hazards missing from scores are skipped.
func PopupLines(scores map[string]float64, bands RiskBands) []PopupLine {
	lines := make([]PopupLine, 0, len(Catalog))
	for _, h := range Catalog {
		score, ok := scores[h.Field()]
		if !ok {
			continue
		}
		level := bands.Classify(score)
		lines = append(lines, PopupLine{
			Hazard: h.Name,
			Score:  Round(score, 1),
			Level:  level,
			Marker: level.Marker(),
		})
	}
	return lines
}

// FormatLines renders popup rows as text, one hazard per line.
func FormatLines(lines []PopupLine) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s %s: %g", l.Marker, l.Hazard, l.Score)
	}
	return b.String()
}
