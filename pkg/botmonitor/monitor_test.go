package botmonitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_RingBufferKeepsNewest(t *testing.T) {
	m := New(3, 0)
	for i := 0; i < 5; i++ {
		m.Record(Event{BotID: "ravena", ChatID: fmt.Sprint(i), Stage: StageInbound, Status: StatusOK})
	}

	stats := m.GetStats("")
	require.Len(t, stats.RecentEvents, 3)
	assert.Equal(t, "2", stats.RecentEvents[0].ChatID)
	assert.Equal(t, "4", stats.RecentEvents[2].ChatID)
	assert.Equal(t, int64(5), stats.TotalInbound)
}

func TestMonitor_Counters(t *testing.T) {
	m := New(10, 0)
	m.Record(Event{Stage: StageFiltered, Status: StatusOK})
	m.Record(Event{Stage: StageCommand, Status: StatusOK})
	m.Record(Event{Stage: StageCommand, Status: StatusError})
	m.Record(Event{Stage: StageOutbound, Status: StatusOK})
	m.Record(Event{Stage: StageOutbound, Status: StatusError})

	stats := m.GetStats("")
	assert.Equal(t, int64(1), stats.TotalFiltered)
	assert.Equal(t, int64(2), stats.TotalCommands)
	assert.Equal(t, int64(1), stats.TotalOutbound)
	assert.Equal(t, int64(2), stats.TotalErrors)
}

func TestMonitor_FilterByBot(t *testing.T) {
	m := New(10, 0)
	m.Record(Event{BotID: "a", Stage: StageInbound})
	m.Record(Event{BotID: "b", Stage: StageInbound})

	stats := m.GetStats("b")
	require.Len(t, stats.RecentEvents, 1)
	assert.Equal(t, "b", stats.RecentEvents[0].BotID)
}

func TestMonitor_OnRecordHook(t *testing.T) {
	var seen []Event
	OnRecord = func(e Event) { seen = append(seen, e) }
	t.Cleanup(func() { OnRecord = nil })

	m := New(2, 0)
	m.Record(Event{BotID: "a", Stage: StageCommand, Command: "tts"})

	require.Len(t, seen, 1)
	assert.Equal(t, "tts", seen[0].Command)
	assert.False(t, seen[0].Timestamp.IsZero())
}
