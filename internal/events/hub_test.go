package events

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubReplaysBufferedEvents(t *testing.T) {
	hub := NewHub()
	branchID := snowflake.ID(101)

	first, _, err := hub.Subscribe(branchID)
	require.NoError(t, err)
	defer first.Close()

	hub.Publish(Event{
		EventType: TypeOrderCreated,
		OrderID:   snowflake.ID(1),
		BranchID:  branchID,
		Status:    "ACTIVE",
		Totals:    Totals{NetTotal: decimal.RequireFromString("25.00")},
	})

	got := <-first.Events()
	assert.Equal(t, TypeOrderCreated, got.EventType)
	assert.True(t, got.Totals.NetTotal.Equal(decimal.RequireFromString("25.00")))

	second, replay, err := hub.Subscribe(branchID)
	require.NoError(t, err)
	defer second.Close()
	require.Len(t, replay, 1)
	assert.Equal(t, snowflake.ID(1), replay[0].OrderID)
}

func TestHubDoesNotCrossBranches(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe(snowflake.ID(201))
	require.NoError(t, err)
	defer sub.Close()

	hub.Publish(Event{EventType: TypeOrderVoided, OrderID: 9, BranchID: snowflake.ID(202)})

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event for other branch: %+v", ev)
	default:
	}
}

func TestHubSkipsSlowSubscribers(t *testing.T) {
	hub := NewHub()
	branchID := snowflake.ID(301)

	sub, _, err := hub.Subscribe(branchID)
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < defaultSubscriberBuffer+10; i++ {
		hub.Publish(Event{EventType: TypeOrderClosed, OrderID: snowflake.ID(i + 1), BranchID: branchID})
	}

	// The channel holds at most its buffer; overflow is dropped, not blocked on.
	assert.Len(t, sub.Events(), defaultSubscriberBuffer)
}

func TestHubRejectsZeroBranch(t *testing.T) {
	hub := NewHub()
	_, _, err := hub.Subscribe(0)
	assert.Error(t, err)
}
