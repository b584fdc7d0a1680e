package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRows() []Shipment {
	return []Shipment{
		{HSCode: "4202", OriginCountryCode: "CN", DestinationCountryCode: "US", TotalValueUSD: 1000},
		{HSCode: "4205", OriginCountryCode: "CN", DestinationCountryCode: "DE", TotalValueUSD: 500},
		{HSCode: "5407", OriginCountryCode: "VN", DestinationCountryCode: "US", TotalValueUSD: 250},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRows())
	assert.Equal(t, 4, s.DistinctCountries) // CN, US, DE, VN
	assert.Equal(t, 2, s.DistinctCategories) // 42, 54
	assert.Equal(t, 3, s.FlowCount)
	assert.InDelta(t, 1750, s.TotalValueUSD, 0.001)
}

func TestSummarize_Idempotent(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, Summarize(rows), Summarize(rows))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.DistinctCountries)
	assert.Zero(t, s.FlowCount)
}

func TestSummarize_SkipsBlankCodes(t *testing.T) {
	s := Summarize([]Shipment{{HSCode: "4", OriginCountryCode: "", DestinationCountryCode: "US"}})
	assert.Equal(t, 1, s.DistinctCountries)
	assert.Equal(t, 0, s.DistinctCategories)
}

func TestDirection_Valid(t *testing.T) {
	assert.True(t, Direction("").Valid())
	assert.True(t, DirectionBoth.Valid())
	assert.True(t, DirectionImport.Valid())
	assert.True(t, DirectionExport.Valid())
	assert.False(t, Direction("sideways").Valid())
}
