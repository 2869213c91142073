package symbology

import "sort"

// Stop is one breakpoint of a visual variable.
type Stop struct {
	Value float64 `json:"value" yaml:"value" mapstructure:"value" doc:"Input value (score or scale)"`
	Out   float64 `json:"out" yaml:"out" mapstructure:"out" doc:"Output (opacity or size)"`
}

// Stops interpolates linearly between breakpoints and clamps outside them.
type Stops []Stop

// At evaluates the stops at v. Empty stops evaluate to 0.
func (s Stops) At(v float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sorted := make(Stops, len(s))
	copy(sorted, s)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })

	if v <= sorted[0].Value {
		return sorted[0].Out
	}
	last := sorted[len(sorted)-1]
	if v >= last.Value {
		return last.Out
	}
	for i := 1; i < len(sorted); i++ {
		lo, hi := sorted[i-1], sorted[i]
		if v <= hi.Value {
			t := (v - lo.Value) / (hi.Value - lo.Value)
			return lo.Out + t*(hi.Out-lo.Out)
		}
	}
	return last.Out
}

// ScoreOpacity fades low-risk symbols out so only high scores glow.
var ScoreOpacity = Stops{
	{Value: 0, Out: 0.01},
	{Value: 70, Out: 0.05},
	{Value: 85, Out: 0.10},
	{Value: 100, Out: 1},
}

// ScaleSize doubles marker size with each zoom level.
var ScaleSize = Stops{
	{Value: 36978595, Out: 1.8},
	{Value: 18489298, Out: 3.6},
	{Value: 9244649, Out: 7.2},
	{Value: 4622324, Out: 14.4},
	{Value: 2311162, Out: 28.8},
	{Value: 577791, Out: 57.6},
}
