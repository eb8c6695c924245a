package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaymentStatus(t *testing.T) {
	for raw, label := range map[string]string{"P": "Pending", "C": "Complete", "F": "Failed"} {
		got, err := ParsePaymentStatus(raw)
		require.NoError(t, err, raw)
		assert.True(t, got.IsValid())
		assert.Equal(t, label, got.Label())
	}
	_, err := ParsePaymentStatus("pending")
	assert.EqualError(t, err, `invalid payment status "pending"`)
	assert.Empty(t, PaymentStatus("X").Label())
}

func TestParseMembershipTier(t *testing.T) {
	got, err := ParseMembershipTier("G")
	require.NoError(t, err)
	assert.Equal(t, MembershipGold, got)
	assert.False(t, MembershipTier("X").IsValid())
	assert.False(t, MembershipTier("").IsValid())
}

func TestOutboxEnums(t *testing.T) {
	assert.True(t, EventOrderCreated.IsValid())
	assert.True(t, AggregateOrder.IsValid())
	assert.True(t, OutboxDLQReasonMaxAttempts.IsValid())
	assert.False(t, OutboxDLQErrorReason("gave_up").IsValid())

	_, err := ParseOutboxEventType("order_state_changed")
	assert.Error(t, err)
}
