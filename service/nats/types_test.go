package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/squidish/solana-whale-watcher/service/solana"
)

func TestFromBalanceChange(t *testing.T) {
	change := solana.BalanceChange{
		Account:       "So11111111111111111111111111111111111111112",
		DeltaLamports: -1_500_000_000,
		DeltaSOL:      -1.5,
		Direction:     solana.DirectionLoss,
		Reason:        solana.ReasonSentOrFee,
	}

	before := time.Now().UTC()
	event := FromBalanceChange("sig123", 42, change)

	assert.Equal(t, "sig123", event.Signature)
	assert.Equal(t, uint64(42), event.Slot)
	assert.Equal(t, change.Account, event.Account)
	assert.Equal(t, int64(-1_500_000_000), event.DeltaLamports)
	assert.Equal(t, -1.5, event.DeltaSOL)
	assert.Equal(t, "loss", event.Direction)
	assert.Equal(t, "sent SOL or fee", event.Reason)
	assert.False(t, event.PublishedAt.Before(before))
}

func TestMockPublisher_RecordsEvents(t *testing.T) {
	ctx := context.Background()
	mock := NewMockPublisher()

	change := solana.BalanceChange{
		Account:       "So11111111111111111111111111111111111111112",
		DeltaLamports: 1_000_000_000,
		DeltaSOL:      1.0,
		Direction:     solana.DirectionGain,
		Reason:        solana.ReasonReceived,
	}

	require.NoError(t, mock.PublishBalanceChange(ctx, "sig1", 10, change))
	require.NoError(t, mock.PublishBalanceChange(ctx, "sig2", 11, change))

	events := mock.GetPublishedEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "sig1", events[0].Signature)
	assert.Equal(t, uint64(11), events[1].Slot)
}

func TestMockPublisher_PublishError(t *testing.T) {
	ctx := context.Background()
	mock := NewMockPublisher()
	mock.SetPublishError(errors.New("nats down"))

	err := mock.PublishBalanceChange(ctx, "sig1", 10, solana.BalanceChange{})
	require.Error(t, err)
	assert.Empty(t, mock.GetPublishedEvents())
}

func TestMockPublisher_Close(t *testing.T) {
	mock := NewMockPublisher()
	require.NoError(t, mock.Close())
	assert.True(t, mock.IsClosed())
}
