package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-response/aegis_console/internal/gateway"
	"github.com/aegis-response/aegis_console/internal/subscriber"
)

// ErrConflict reports a mutation whose resolution arrived after a newer
// mutation on the same record was issued; the stale resolution is discarded.
var ErrConflict = errors.New("stale mutation discarded")

const defaultMutationTimeout = 10 * time.Second

// Gateway is the persistence surface the manager reconciles against.
// *gateway.Client satisfies it.
type Gateway interface {
	List(ctx context.Context) ([]subscriber.Record, error)
	Create(ctx context.Context, candidate subscriber.Record) (subscriber.Record, error)
	Update(ctx context.Context, id string, patch subscriber.Patch) (subscriber.Record, error)
	Delete(ctx context.Context, id string) error
}

// Manager owns the in-session snapshot of subscriber records. Every mutation
// applies optimistically, resolves against the gateway in the background, and
// rolls back to the exact pre-mutation state on failure. The manager is the
// sole writer of the snapshot; readers get copies via Snapshot.
//
// Mutations carry a per-id sequence number taken at issue time. A resolution
// applies only while it is still the newest issued mutation for its id and
// newer than the last commit; anything else is discarded with ErrConflict.
// That makes the newest mutation win when an update and a delete race on the
// same id.
type Manager struct {
	mu        sync.Mutex
	records   []subscriber.Record
	seq       map[string]uint64
	committed map[string]uint64

	gw      Gateway
	logger  *slog.Logger
	timeout time.Duration
}

// New builds a manager over the given gateway.
func New(gw Gateway, logger *slog.Logger) *Manager {
	return &Manager{
		seq:       make(map[string]uint64),
		committed: make(map[string]uint64),
		gw:        gw,
		logger:    logger,
		timeout:   defaultMutationTimeout,
	}
}

// SetMutationTimeout bounds how long a pending optimistic mutation may stay
// unresolved; expiry counts as failure and triggers rollback.
func (m *Manager) SetMutationTimeout(d time.Duration) {
	if d > 0 {
		m.timeout = d
	}
}

// Seed installs a fallback snapshot if the collection is still empty. Intended
// for development setups without a reachable backend.
func (m *Manager) Seed(records []subscriber.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) > 0 {
		return
	}
	m.records = cloneAll(records)
}

// Snapshot returns a deep copy of the current collection in order.
func (m *Manager) Snapshot() []subscriber.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.records)
}

// Len reports the current collection size.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// LoadAll replaces the snapshot with the gateway's listing. On failure the
// prior snapshot stays untouched and the error is returned to the caller.
func (m *Manager) LoadAll(ctx context.Context) error {
	records, err := m.gw.List(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = cloneAll(records)
	return nil
}

// Pending tracks the background resolution of one mutation.
type Pending struct {
	done   chan struct{}
	err    error
	record subscriber.Record
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Done is closed once the mutation resolved either way.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the mutation resolves or ctx ends.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return p.err
	}
}

// Record returns the server-confirmed record. Valid after Wait returned nil
// for Add and Update resolutions.
func (p *Pending) Record() subscriber.Record {
	return p.record
}

func (p *Pending) finish(rec subscriber.Record, err error) {
	p.record = rec
	p.err = err
	close(p.done)
}

// Add inserts the candidate optimistically and creates it in the background.
// The candidate is visible in the snapshot as soon as Add returns; if the
// create fails it disappears again before the failure is reported.
func (m *Manager) Add(ctx context.Context, candidate subscriber.Record) *Pending {
	pending := newPending()

	m.mu.Lock()
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	if m.indexOf(candidate.ID) >= 0 {
		m.mu.Unlock()
		pending.finish(subscriber.Record{}, subscriber.ErrDuplicateID)
		return pending
	}
	tempID := candidate.ID
	m.records = append([]subscriber.Record{candidate.Clone()}, m.records...)
	myseq := m.nextSeq(tempID)
	m.mu.Unlock()

	go func() {
		rctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		confirmed, err := m.gw.Create(rctx, candidate)

		m.mu.Lock()
		defer m.mu.Unlock()

		if m.stale(tempID, myseq) {
			if err == nil {
				m.logWarn("create resolved after the optimistic row changed, server record orphaned",
					"temp_id", tempID, "server_id", confirmed.ID)
			}
			pending.finish(subscriber.Record{}, ErrConflict)
			return
		}

		if err != nil {
			if idx := m.indexOf(tempID); idx >= 0 {
				m.records = append(m.records[:idx], m.records[idx+1:]...)
			}
			delete(m.seq, tempID)
			delete(m.committed, tempID)
			pending.finish(subscriber.Record{}, err)
			return
		}

		if idx := m.indexOf(tempID); idx >= 0 {
			m.records[idx] = confirmed.Clone()
		}
		delete(m.seq, tempID)
		delete(m.committed, tempID)
		pending.finish(confirmed, nil)
	}()

	return pending
}

// Update merges the named fields optimistically and reconciles with the
// gateway in the background. Unknown ids fail immediately with
// gateway.ErrNotFound.
func (m *Manager) Update(ctx context.Context, id string, patch subscriber.Patch) (*Pending, error) {
	m.mu.Lock()
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		return nil, gateway.ErrNotFound
	}
	pre := m.records[idx].Clone()
	m.records[idx] = patch.Apply(m.records[idx])
	myseq := m.nextSeq(id)
	m.mu.Unlock()

	pending := newPending()
	go func() {
		rctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		confirmed, err := m.gw.Update(rctx, id, patch)

		m.mu.Lock()
		defer m.mu.Unlock()

		if m.stale(id, myseq) {
			pending.finish(subscriber.Record{}, ErrConflict)
			return
		}

		if err != nil {
			if i := m.indexOf(id); i >= 0 {
				m.records[i] = pre
			}
			pending.finish(subscriber.Record{}, err)
			return
		}

		if i := m.indexOf(id); i >= 0 {
			m.records[i] = confirmed.Clone()
		}
		m.committed[id] = myseq
		pending.finish(confirmed, nil)
	}()

	return pending, nil
}

// Delete removes the record optimistically; on failure it reappears at its
// original position.
func (m *Manager) Delete(ctx context.Context, id string) (*Pending, error) {
	m.mu.Lock()
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		return nil, gateway.ErrNotFound
	}
	pre := m.records[idx].Clone()
	pos := idx
	m.records = append(m.records[:idx], m.records[idx+1:]...)
	myseq := m.nextSeq(id)
	m.mu.Unlock()

	pending := newPending()
	go func() {
		rctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		err := m.gw.Delete(rctx, id)

		m.mu.Lock()
		defer m.mu.Unlock()

		if m.stale(id, myseq) {
			pending.finish(subscriber.Record{}, ErrConflict)
			return
		}

		if err != nil {
			at := pos
			if at > len(m.records) {
				at = len(m.records)
			}
			m.records = append(m.records[:at], append([]subscriber.Record{pre}, m.records[at:]...)...)
			pending.finish(subscriber.Record{}, err)
			return
		}

		m.committed[id] = myseq
		pending.finish(subscriber.Record{}, nil)
	}()

	return pending, nil
}

// nextSeq must be called with the lock held.
func (m *Manager) nextSeq(id string) uint64 {
	m.seq[id]++
	return m.seq[id]
}

// stale must be called with the lock held.
func (m *Manager) stale(id string, myseq uint64) bool {
	return m.seq[id] != myseq || m.committed[id] >= myseq
}

// indexOf must be called with the lock held.
func (m *Manager) indexOf(id string) int {
	for i, rec := range m.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) logWarn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}

func cloneAll(records []subscriber.Record) []subscriber.Record {
	out := make([]subscriber.Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.Clone())
	}
	return out
}
