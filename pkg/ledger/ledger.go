// Package ledger is an in-memory record of predictions and their settled
// outcomes. It lives for the life of the process only; nothing is persisted.
package ledger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when settling an id the ledger has never seen.
// Settling an unknown id never creates a record.
var ErrNotFound = fmt.Errorf("prediction not found")

// Record is a single logged prediction. Caller-supplied fields are stored
// verbatim; Result, Hit and SettledAt stay nil until the prediction settles.
type Record struct {
	ID        string
	CreatedAt time.Time
	Fields    map[string]interface{}
	Result    *string
	Hit       *bool
	SettledAt *time.Time
}

// MarshalJSON flattens the caller fields into the record object alongside
// the ledger-owned keys, which always win on collision.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Fields)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["id"] = r.ID
	out["createdAt"] = r.CreatedAt
	out["result"] = r.Result
	out["hit"] = r.Hit
	out["settledAt"] = r.SettledAt
	return json.Marshal(out)
}

func (r *Record) settled() bool {
	return r.Result != nil
}

// stringField reads a caller-supplied field as a string, for grouping.
func (r *Record) stringField(key string) string {
	v, ok := r.Fields[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// GroupStats is the per-group slice of the settled population.
type GroupStats struct {
	Total int `json:"total"`
	Hits  int `json:"hits"`
}

// Stats is the aggregate view over all records. HitRate is a formatted
// percentage of hits over settled records, or "N/A" when nothing settled.
type Stats struct {
	Total   int                   `json:"total"`
	Settled int                   `json:"settled"`
	Pending int                   `json:"pending"`
	Hits    int                   `json:"hits"`
	Misses  int                   `json:"misses"`
	HitRate string                `json:"hitRate"`
	BySport map[string]GroupStats `json:"bySport"`
	ByTier  map[string]GroupStats `json:"byTier"`
}

// Ledger stores prediction records. A map keyed by id gives O(1) settlement
// and a separate ordered id slice keeps aggregation order stable. One mutex
// serializes appends, settlements and stats reads.
type Ledger struct {
	mu      sync.Mutex
	records map[string]*Record
	order   []string
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		records: make(map[string]*Record),
	}
}

// Append logs a new prediction and returns the stored record. The ledger
// assigns the id and creation timestamp; fields are copied so later caller
// mutation cannot tear a stored record.
func (l *Ledger) Append(fields map[string]interface{}) *Record {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	rec := &Record{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Fields:    copied,
	}

	l.mu.Lock()
	l.records[rec.ID] = rec
	l.order = append(l.order, rec.ID)
	l.mu.Unlock()

	snap := *rec
	return &snap
}

// Settle attaches an outcome to a previously appended prediction. Settling
// the same id again overwrites the prior outcome (last write wins); there is
// deliberately no double-settlement guard.
func (l *Ledger) Settle(id, result string, hit bool) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	rec.Result = &result
	rec.Hit = &hit
	rec.SettledAt = &now

	// Snapshot so callers never observe a record mid-mutation.
	snap := *rec
	return &snap, nil
}

// Get returns a snapshot of a record by id.
func (l *Ledger) Get(id string) (*Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[id]
	if !ok {
		return nil, false
	}
	snap := *rec
	return &snap, true
}

// Len returns the number of records logged so far.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// Stats aggregates all settled records into hit/miss counts, an overall hit
// rate, and per-sport and per-tier breakdowns. Unsettled records only count
// toward pending.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := Stats{
		Total:   len(l.order),
		BySport: make(map[string]GroupStats),
		ByTier:  make(map[string]GroupStats),
	}

	for _, id := range l.order {
		rec := l.records[id]
		if !rec.settled() {
			continue
		}
		stats.Settled++

		hit := rec.Hit != nil && *rec.Hit
		if hit {
			stats.Hits++
		} else {
			stats.Misses++
		}

		if sport := rec.stringField("sport"); sport != "" {
			g := stats.BySport[sport]
			g.Total++
			if hit {
				g.Hits++
			}
			stats.BySport[sport] = g
		}
		if tier := rec.stringField("tier"); tier != "" {
			g := stats.ByTier[tier]
			g.Total++
			if hit {
				g.Hits++
			}
			stats.ByTier[tier] = g
		}
	}

	stats.Pending = stats.Total - stats.Settled
	stats.HitRate = "N/A"
	if stats.Settled > 0 {
		rate := decimal.NewFromInt(int64(stats.Hits)).
			Div(decimal.NewFromInt(int64(stats.Settled))).
			Mul(decimal.NewFromInt(100))
		stats.HitRate = rate.StringFixed(1) + "%"
	}

	return stats
}
