package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-ravena/usecase/bottest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusEmoji(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		connected bool
		last      time.Time
		want      string
	}{
		{"disconnected", false, now, StatusDisconnected},
		{"never received", true, time.Time{}, StatusInactive},
		{"active", true, now.Add(-time.Minute), StatusActive},
		{"alert", true, now.Add(-3 * time.Minute), StatusAlert},
		{"attention", true, now.Add(-10 * time.Minute), StatusAttention},
		{"inactive", true, now.Add(-15 * time.Minute), StatusInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusEmoji(tt.connected, tt.last, now))
		})
	}
}

func TestHealth_ListsBotsWithHourlyTraffic(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	now := time.Now()

	online := bottest.New("a")
	offline := bottest.New("b")
	offline.Connected = false
	reg := &registry{bots: []*bottest.Bot{online, offline}}

	seedReports(t, store,
		report("a", now.Add(-30*time.Minute), 7, 3),
		report("a", now.Add(-3*time.Hour), 100, 0),
	)
	live := NewLoadReporter(store, reg, time.Minute)
	live.TrackReceived("a", false)
	live.TrackReceived("b", true)

	svc := NewHealthService(reg, store, live)
	got, err := svc.GetHealth(ctx)
	require.NoError(t, err)

	assert.Equal(t, "ok", got.Status)
	require.Len(t, got.Bots, 2)

	assert.Equal(t, "a", got.Bots[0].ID)
	assert.Equal(t, "5511000000000", got.Bots[0].PhoneNumber)
	assert.True(t, got.Bots[0].Connected)
	assert.Equal(t, 8, got.Bots[0].MsgsHr)
	assert.Equal(t, StatusInactive, got.Bots[0].Status)
	assert.Zero(t, got.Bots[0].LastMessageReceived)
	assert.Equal(t, "1h 0m 0s", got.Bots[0].Uptime)

	assert.Equal(t, StatusDisconnected, got.Bots[1].Status)
	assert.Equal(t, 1, got.Bots[1].MsgsHr)
	assert.Empty(t, got.Bots[1].Uptime)
}
