package botmonitor

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Pipeline stages recorded by the event handler and the bots.
const (
	StageInbound     = "inbound"
	StageFiltered    = "filtered"
	StageCommand     = "command"
	StageLLMRequest  = "llm_request"
	StageLLMResponse = "llm_response"
	StageOutbound    = "outbound"
	StageJob         = "job"

	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// OnRecord, when set, sees every event after it is stored.
var OnRecord func(e Event)

type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	BotID      string            `json:"bot_id"`
	ChatID     string            `json:"chat_id"`
	Command    string            `json:"command,omitempty"`
	Stage      string            `json:"stage"`
	Kind       string            `json:"kind"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
}

type Stats struct {
	TotalInbound  int64   `json:"total_inbound"`
	TotalFiltered int64   `json:"total_filtered"`
	TotalCommands int64   `json:"total_commands"`
	TotalLLMCalls int64   `json:"total_llm_calls"`
	TotalOutbound int64   `json:"total_outbound"`
	TotalErrors   int64   `json:"total_errors"`
	RecentEvents  []Event `json:"recent_events"`
}

// Monitor is a fixed-size ring buffer of recent pipeline events plus counters.
type Monitor struct {
	eventsMu sync.Mutex
	events   []Event
	idx      int
	count    int
	ttl      time.Duration

	totalInbound  int64
	totalFiltered int64
	totalCommands int64
	totalLLMCalls int64
	totalOutbound int64
	totalErrors   int64
}

func New(size int, ttl time.Duration) *Monitor {
	if size <= 0 {
		size = 200
	}
	return &Monitor{events: make([]Event, size), ttl: ttl}
}

func (m *Monitor) Record(e Event) {
	e.Timestamp = time.Now().UTC()

	switch e.Stage {
	case StageInbound:
		atomic.AddInt64(&m.totalInbound, 1)
	case StageFiltered:
		atomic.AddInt64(&m.totalFiltered, 1)
	case StageCommand:
		atomic.AddInt64(&m.totalCommands, 1)
	case StageLLMRequest:
		atomic.AddInt64(&m.totalLLMCalls, 1)
	case StageOutbound:
		if e.Status == StatusOK {
			atomic.AddInt64(&m.totalOutbound, 1)
		}
	}
	if e.Status == StatusError {
		atomic.AddInt64(&m.totalErrors, 1)
	}

	m.eventsMu.Lock()
	m.events[m.idx] = e
	m.idx = (m.idx + 1) % len(m.events)
	if m.count < len(m.events) {
		m.count++
	}
	m.eventsMu.Unlock()

	if OnRecord != nil {
		OnRecord(e)
	}
}

// GetStats returns the counters and the buffered events, oldest first.
// botID filters the events when not empty.
func (m *Monitor) GetStats(botID string) Stats {
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	res := make([]Event, 0, m.count)
	var cutoff time.Time
	if m.ttl > 0 {
		cutoff = time.Now().UTC().Add(-m.ttl)
	}
	start := (m.idx - m.count + len(m.events)) % len(m.events)
	for i := 0; i < m.count; i++ {
		e := m.events[(start+i)%len(m.events)]
		if !cutoff.IsZero() && e.Timestamp.Before(cutoff) {
			continue
		}
		if botID != "" && e.BotID != botID {
			continue
		}
		res = append(res, e)
	}

	return Stats{
		TotalInbound:  atomic.LoadInt64(&m.totalInbound),
		TotalFiltered: atomic.LoadInt64(&m.totalFiltered),
		TotalCommands: atomic.LoadInt64(&m.totalCommands),
		TotalLLMCalls: atomic.LoadInt64(&m.totalLLMCalls),
		TotalOutbound: atomic.LoadInt64(&m.totalOutbound),
		TotalErrors:   atomic.LoadInt64(&m.totalErrors),
		RecentEvents:  res,
	}
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return def
	}
	return time.Duration(sec) * time.Second
}

var defaultMonitor = New(envInt("BOT_MONITOR_BUFFER", 200), envDuration("BOT_MONITOR_TTL", 0))

func Record(e Event) {
	defaultMonitor.Record(e)
}

func GetStats(botID string) Stats {
	return defaultMonitor.GetStats(botID)
}
