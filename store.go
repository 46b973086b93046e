package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// IdempotencyRecord is one completed signing operation. Records are append-only:
// they are never rewritten or removed, so the log doubles as an audit trail.
// (Scope, Key) is the logical identity; the same key may appear under
// unrelated scopes without the records shadowing each other.
type IdempotencyRecord struct {
	Key       string          `json:"key"`
	Scope     string          `json:"scope"`
	CreatedAt time.Time       `json:"createdAt"`
	Response  json.RawMessage `json:"response"`
}

// EnclaveStore is the durable state the enclave reads and appends to.
// Implementations must treat AppendRecord as append-only and must skip, not
// fail on, malformed records encountered during lookups and scans.
type EnclaveStore interface {
	// LoadPolicy returns the current policy document. A missing document
	// yields the empty policy, not an error.
	LoadPolicy(ctx context.Context) (Policy, error)

	// LookupRecord returns the most recently appended record matching
	// (scope, key), or nil when none exists.
	LookupRecord(ctx context.Context, scope, key string) (*IdempotencyRecord, error)

	// AppendRecord appends a completed-operation record.
	AppendRecord(ctx context.Context, record IdempotencyRecord) error

	// ScanRecords returns every well-formed record in append order.
	ScanRecords(ctx context.Context) ([]IdempotencyRecord, error)
}

// ScopeLock serializes operations sharing a (scope, key) pair so that
// concurrent duplicate requests cannot both miss the idempotency lookup and
// double-sign. Entries are reference-counted and removed when released.
type ScopeLock struct {
	mu      sync.Mutex
	entries map[string]*scopeLockEntry
}

type scopeLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewScopeLock() *ScopeLock {
	return &ScopeLock{entries: make(map[string]*scopeLockEntry)}
}

// Acquire blocks until the (scope, key) pair is exclusively held and returns
// the release function. Pairs never contend with unrelated pairs.
func (l *ScopeLock) Acquire(scope, key string) func() {
	id := scope + "\x00" + key

	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &scopeLockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.entries, id)
			}
			l.mu.Unlock()
		})
	}
}
