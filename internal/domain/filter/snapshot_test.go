package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradepulse/tradepulse/pkg/errors"
	"github.com/tradepulse/tradepulse/pkg/types/trade"
)

func TestMonth_Formatting(t *testing.T) {
	m := Month{2023, 4}
	assert.Equal(t, "2023-04", m.String())
	assert.Equal(t, "2023-04-01", m.FirstDay())
	assert.Equal(t, "2023-04-30", m.LastDay())

	// Leap year February.
	assert.Equal(t, "2024-02-29", Month{2024, 2}.LastDay())
	assert.Equal(t, "2023-02-28", Month{2023, 2}.LastDay())
	assert.Equal(t, "2023-12-31", Month{2023, 12}.LastDay())
}

func TestMonth_After(t *testing.T) {
	assert.True(t, Month{2024, 1}.After(Month{2023, 12}))
	assert.True(t, Month{2023, 5}.After(Month{2023, 4}))
	assert.False(t, Month{2023, 4}.After(Month{2023, 4}))
}

func TestSnapshot_Validate(t *testing.T) {
	ok := Snapshot{Start: Month{2023, 1}, End: Month{2023, 6}}
	assert.NoError(t, ok.Validate())

	// Empty selections are the valid "no filter" state.
	assert.NoError(t, Snapshot{}.Validate())

	inverted := Snapshot{Start: Month{2023, 6}, End: Month{2023, 1}}
	err := inverted.Validate()
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	half := Snapshot{Start: Month{2023, 1}}
	assert.Error(t, half.Validate())

	bad := Snapshot{Direction: trade.Direction("sideways")}
	assert.Error(t, bad.Validate())
}

func TestChannel_Fields(t *testing.T) {
	assert.Equal(t, AllFields, ChannelShipments.Fields())

	stats := ChannelCountryStats.Fields()
	assert.True(t, stats.Has(FieldTimeRange))
	assert.True(t, stats.Has(FieldCountries))
	assert.False(t, stats.Has(FieldCompanies))
	assert.False(t, stats.Has(FieldSubCategories))
}

func TestChannel_Valid(t *testing.T) {
	assert.True(t, ChannelShipments.Valid())
	assert.True(t, ChannelCountryStats.Valid())
	assert.False(t, Channel("weather").Valid())
}

func TestReason_Valid(t *testing.T) {
	assert.True(t, ReasonDrag.Valid())
	assert.True(t, ReasonClick.Valid())
	assert.False(t, Reason("hover").Valid())
}
