package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tradepulse/tradepulse/internal/domain/filter"
)

func TestInFlightTracker_SuppressesRepeatKey(t *testing.T) {
	tr := NewInFlightTracker()

	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k1"))
	assert.False(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k1"))
}

func TestInFlightTracker_NewKeyUpdatesSlot(t *testing.T) {
	tr := NewInFlightTracker()

	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k1"))
	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k2"))
	// Oscillating back issues again: k2 displaced k1 as the slot's last key.
	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k1"))
}

func TestInFlightTracker_SlotsAreIndependent(t *testing.T) {
	tr := NewInFlightTracker()

	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModePreview, "k"))
	// Same key, different mode: separate slot.
	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k"))
	// Same key, different channel: separate slot.
	assert.True(t, tr.ShouldIssue(filter.ChannelCountryStats, filter.ModeFinal, "k"))

	assert.False(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModePreview, "k"))
}

func TestInFlightTracker_ForgetAllowsRetry(t *testing.T) {
	tr := NewInFlightTracker()

	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k1"))
	tr.Forget(filter.ChannelShipments, filter.ModeFinal, "k1")
	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k1"))
}

func TestInFlightTracker_ForgetIgnoresStaleKey(t *testing.T) {
	tr := NewInFlightTracker()

	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k1"))
	assert.True(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k2"))
	// Forgetting the displaced key must not clear the slot.
	tr.Forget(filter.ChannelShipments, filter.ModeFinal, "k1")
	assert.False(t, tr.ShouldIssue(filter.ChannelShipments, filter.ModeFinal, "k2"))
}
