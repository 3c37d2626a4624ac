// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpIntentParse    = "intent_parse"
	OpOracleComplete = "oracle_complete"
	OpMailboxCall    = "mailbox_call"
	OpDispatch       = "dispatch"
	OpStoreAppend    = "store_append"
)

// Dispatch outcomes.
const (
	OutcomeExecuted      = "executed"
	OutcomeClarification = "clarification"
	OutcomeError         = "error"
)

// OperationMetrics holds aggregated timing for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot represents the full assistant statistics at a point in time.
type Snapshot struct {
	UptimeSeconds  float64                     `json:"uptime_seconds"`
	IntentParse    *OperationSnapshot          `json:"intent_parse,omitempty"`
	OracleComplete *OperationSnapshot          `json:"oracle_complete,omitempty"`
	MailboxCall    *OperationSnapshot          `json:"mailbox_call,omitempty"`
	Dispatch       *OperationSnapshot          `json:"dispatch,omitempty"`
	StoreAppend    *OperationSnapshot          `json:"store_append,omitempty"`
	Intents        map[string]map[string]int64 `json:"intents,omitempty"`
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics

	// intents counts dispatched intents by kind and outcome.
	intents map[string]map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		intents:   make(map[string]map[string]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime: time.Duration(math.MaxInt64),
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordIntent counts one dispatched intent by kind and outcome.
func (c *Collector) RecordIntent(kind, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byOutcome, ok := c.intents[kind]
	if !ok {
		byOutcome = make(map[string]int64)
		c.intents[kind] = byOutcome
	}
	byOutcome[outcome]++
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	intents := make(map[string]map[string]int64, len(c.intents))
	for kind, byOutcome := range c.intents {
		copied := make(map[string]int64, len(byOutcome))
		for outcome, n := range byOutcome {
			copied[outcome] = n
		}
		intents[kind] = copied
	}

	return Snapshot{
		UptimeSeconds:  time.Since(c.startTime).Seconds(),
		IntentParse:    snapshotOp(c.ops[OpIntentParse]),
		OracleComplete: snapshotOp(c.ops[OpOracleComplete]),
		MailboxCall:    snapshotOp(c.ops[OpMailboxCall]),
		Dispatch:       snapshotOp(c.ops[OpDispatch]),
		StoreAppend:    snapshotOp(c.ops[OpStoreAppend]),
		Intents:        intents,
	}
}
