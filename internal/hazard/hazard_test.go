package hazard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCoversAllNumbers(t *testing.T) {
	require.Len(t, Catalog, Count)
	seen := map[int]bool{}
	for _, h := range Catalog {
		assert.False(t, seen[h.Number], "duplicate hazard %d", h.Number)
		seen[h.Number] = true
	}
	for n := 1; n <= Count; n++ {
		assert.True(t, seen[n], "missing hazard %d", n)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		bands RiskBands
		score float64
		want  RiskLevel
	}{
		{BandsStandard, 95, Severe},
		{BandsStandard, 90, Severe},
		{BandsStandard, 89.9, High},
		{BandsStandard, 70, High},
		{BandsStandard, 50, Moderate},
		{BandsStandard, 49.99, Low},
		{BandsWide, 85, Severe},
		{BandsWide, 65, High},
		{BandsWide, 45, Moderate},
		{BandsWide, 0, Low},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.bands.Classify(tt.score), "score %v", tt.score)
	}
}

func TestPopupLines(t *testing.T) {
	scores := map[string]float64{
		"score7": 91.26,
		"score4": 12.04,
	}
	lines := PopupLines(scores, BandsStandard)
	require.Len(t, lines, 2)

	assert.Equal(t, "Heat Wave", lines[0].Hazard)
	assert.Equal(t, 91.3, lines[0].Score)
	assert.Equal(t, Severe, lines[0].Level)
	assert.Equal(t, "🟥", lines[0].Marker)

	assert.Equal(t, "Drought", lines[1].Hazard)
	assert.Equal(t, 12.0, lines[1].Score)
	assert.Equal(t, "🟩", lines[1].Marker)

	assert.Equal(t, "🟥 Heat Wave: 91.3\n🟩 Drought: 12", FormatLines(lines))
}

func TestByNumber(t *testing.T) {
	h, ok := ByNumber(17)
	require.True(t, ok)
	assert.Equal(t, "Wildfire", h.Name)
	assert.Equal(t, "score17", h.Field())

	_, ok = ByNumber(19)
	assert.False(t, ok)
}
