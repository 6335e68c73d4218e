package dispatch

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeSent     Outcome = "sent"
	OutcomeFailed   Outcome = "failed"
	OutcomeDemoSent Outcome = "demo-sent"
)

// Stats are the counters of a single batch.
type Stats struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type RecipientResult struct {
	Phone  string  `json:"phone"`
	Status Outcome `json:"status"`
	Error  string  `json:"error,omitempty"`
}

type BatchResult struct {
	ID      string            `json:"id"`
	Results []RecipientResult `json:"results"`
	Stats   Stats             `json:"stats"`
}

// Progress is published after every attempt of a batch.
type Progress struct {
	BatchID   string    `json:"batchId"`
	Stats     Stats     `json:"stats"`
	Done      bool      `json:"done"`
	StartedAt time.Time `json:"startedAt"`
}

// batch holds the counters of one send operation. Each call gets its own
// batch, so concurrent operations never write into each other's counters.
type batch struct {
	id        string
	startedAt time.Time

	mu    sync.Mutex
	stats Stats
	done  bool
}

func newBatch(total int) *batch {
	return &batch{
		id:        uuid.NewString(),
		startedAt: time.Now().UTC(),
		stats:     Stats{Total: total},
	}
}

func (b *batch) record(o Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch o {
	case OutcomeSent, OutcomeDemoSent:
		b.stats.Sent++
	case OutcomeFailed:
		b.stats.Failed++
	}
}

func (b *batch) finish() {
	b.mu.Lock()
	b.done = true
	b.mu.Unlock()
}

func (b *batch) snapshot() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *batch) progress() Progress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Progress{BatchID: b.id, Stats: b.stats, Done: b.done, StartedAt: b.startedAt}
}
