package collection

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/aegis-response/aegis_console/internal/gateway"
	"github.com/aegis-response/aegis_console/internal/logging"
	"github.com/aegis-response/aegis_console/internal/subscriber"
)

type fakeGateway struct {
	listFn   func(ctx context.Context) ([]subscriber.Record, error)
	createFn func(ctx context.Context, candidate subscriber.Record) (subscriber.Record, error)
	updateFn func(ctx context.Context, id string, patch subscriber.Patch) (subscriber.Record, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeGateway) List(ctx context.Context) ([]subscriber.Record, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx)
}

func (f *fakeGateway) Create(ctx context.Context, candidate subscriber.Record) (subscriber.Record, error) {
	if f.createFn == nil {
		candidate.ID = "server-" + candidate.ID
		return candidate, nil
	}
	return f.createFn(ctx, candidate)
}

func (f *fakeGateway) Update(ctx context.Context, id string, patch subscriber.Patch) (subscriber.Record, error) {
	if f.updateFn == nil {
		return subscriber.Record{ID: id}, nil
	}
	return f.updateFn(ctx, id, patch)
}

func (f *fakeGateway) Delete(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

func seeded(t *testing.T, gw *fakeGateway, records []subscriber.Record) *Manager {
	t.Helper()
	prior := gw.listFn
	gw.listFn = func(context.Context) ([]subscriber.Record, error) {
		return records, nil
	}
	m := New(gw, logging.Discard())
	if err := m.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	gw.listFn = prior
	return m
}

func baseRecords() []subscriber.Record {
	return []subscriber.Record{
		{ID: "1", Name: "Bob", Email: "b@x.com", Phone: 100},
		{ID: "2", Name: "Ann", Email: "a@x.com", Phone: 200},
		{ID: "3", Name: "Cleo", Email: "c@x.com", Phone: 300},
	}
}

func mustWait(t *testing.T, p *Pending) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := p.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		t.Fatalf("pending mutation never resolved")
	}
	return err
}

func TestLoadAllFailureKeepsPriorSnapshot(t *testing.T) {
	gw := &fakeGateway{}
	m := seeded(t, gw, baseRecords())

	gw.listFn = func(context.Context) ([]subscriber.Record, error) {
		return nil, &gateway.TransportError{Op: "GET /api/users", Err: errors.New("backend down")}
	}

	before := m.Snapshot()
	if err := m.LoadAll(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Fatalf("snapshot changed on failed load")
	}
}

func TestAddOptimisticallyVisibleThenConfirmed(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{
		createFn: func(_ context.Context, candidate subscriber.Record) (subscriber.Record, error) {
			<-release
			candidate.ID = "srv-9"
			return candidate, nil
		},
	}
	m := seeded(t, gw, baseRecords())

	pending := m.Add(context.Background(), subscriber.Record{ID: "tmp-1", Name: "New", Email: "n@x.com"})

	snap := m.Snapshot()
	if len(snap) != 4 || snap[0].ID != "tmp-1" {
		t.Fatalf("candidate must be visible immediately, got %v", snap)
	}

	close(release)
	if err := mustWait(t, pending); err != nil {
		t.Fatalf("add: %v", err)
	}

	snap = m.Snapshot()
	if snap[0].ID != "srv-9" {
		t.Fatalf("expected server id to replace temp id, got %s", snap[0].ID)
	}
	if pending.Record().ID != "srv-9" {
		t.Fatalf("pending result mismatch: %s", pending.Record().ID)
	}
}

func TestAddFailureRemovesGhost(t *testing.T) {
	gw := &fakeGateway{
		createFn: func(context.Context, subscriber.Record) (subscriber.Record, error) {
			return subscriber.Record{}, &gateway.ValidationError{Message: "email taken"}
		},
	}
	m := seeded(t, gw, baseRecords())

	pending := m.Add(context.Background(), subscriber.Record{ID: "tmp-2", Name: "Ghost", Email: "g@x.com"})
	err := mustWait(t, pending)

	var vErr *gateway.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, rec := range m.Snapshot() {
		if rec.ID == "tmp-2" {
			t.Fatalf("rejected candidate still visible")
		}
	}
}

func TestAddDuplicateIDRejected(t *testing.T) {
	gw := &fakeGateway{}
	m := seeded(t, gw, baseRecords())

	pending := m.Add(context.Background(), subscriber.Record{ID: "2", Name: "Clone"})
	if err := mustWait(t, pending); !errors.Is(err, subscriber.ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}

	seen := 0
	for _, rec := range m.Snapshot() {
		if rec.ID == "2" {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("expected exactly one record with id 2, got %d", seen)
	}
}

func TestUpdateOptimisticMergeAndConfirm(t *testing.T) {
	gw := &fakeGateway{
		updateFn: func(_ context.Context, id string, patch subscriber.Patch) (subscriber.Record, error) {
			rec := subscriber.Record{ID: id, Name: "Ann", Email: "a@x.com", Phone: 555}
			return rec, nil
		},
	}
	m := seeded(t, gw, baseRecords())

	pending, err := m.Update(context.Background(), "2", subscriber.Patch{"phone": float64(555)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// optimistic merge applies before resolution; only the named field changes
	for _, rec := range m.Snapshot() {
		if rec.ID == "2" {
			if rec.Phone != 555 || rec.Name != "Ann" {
				t.Fatalf("optimistic merge wrong: %+v", rec)
			}
		}
	}

	if err := mustWait(t, pending); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}

func TestUpdateFailureRollsBackExactly(t *testing.T) {
	gw := &fakeGateway{
		updateFn: func(context.Context, string, subscriber.Patch) (subscriber.Record, error) {
			return subscriber.Record{}, &gateway.TransportError{Op: "PATCH /api/users", Err: errors.New("boom")}
		},
	}
	m := seeded(t, gw, baseRecords())
	before := m.Snapshot()

	pending, err := m.Update(context.Background(), "1", subscriber.Patch{"phone": float64(999)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mustWait(t, pending); err == nil {
		t.Fatalf("expected failure")
	}

	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Fatalf("rollback not exact:\nbefore %+v\nafter  %+v", before, m.Snapshot())
	}
}

func TestUpdateUnknownID(t *testing.T) {
	gw := &fakeGateway{}
	m := seeded(t, gw, baseRecords())

	if _, err := m.Update(context.Background(), "missing", subscriber.Patch{"name": "X"}); !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteFailureRestoresPosition(t *testing.T) {
	gw := &fakeGateway{
		deleteFn: func(context.Context, string) error {
			return &gateway.TransportError{Op: "DELETE /api/users", Err: errors.New("boom")}
		},
	}
	m := seeded(t, gw, baseRecords())
	before := m.Snapshot()

	pending, err := m.Delete(context.Background(), "2")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	snap := m.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected optimistic removal, got %d records", len(snap))
	}

	if err := mustWait(t, pending); err == nil {
		t.Fatalf("expected failure")
	}

	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Fatalf("record must reappear at its original position:\nbefore %+v\nafter  %+v", before, m.Snapshot())
	}
}

func TestDeleteSuccessIsFinal(t *testing.T) {
	gw := &fakeGateway{}
	m := seeded(t, gw, baseRecords())

	pending, err := m.Delete(context.Background(), "2")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mustWait(t, pending); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, rec := range m.Snapshot() {
		if rec.ID == "2" {
			t.Fatalf("deleted record still present")
		}
	}
}

// A delete issued after a still-pending update wins: the update's late
// resolution is discarded with ErrConflict and the record stays gone.
func TestStaleUpdateDiscardedAfterDelete(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{
		updateFn: func(_ context.Context, id string, _ subscriber.Patch) (subscriber.Record, error) {
			<-release
			return subscriber.Record{ID: id, Name: "Late"}, nil
		},
	}
	m := seeded(t, gw, baseRecords())

	updPending, err := m.Update(context.Background(), "2", subscriber.Patch{"name": "Late"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	delPending, err := m.Delete(context.Background(), "2")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mustWait(t, delPending); err != nil {
		t.Fatalf("delete resolve: %v", err)
	}

	close(release)
	if err := mustWait(t, updPending); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for stale update, got %v", err)
	}

	for _, rec := range m.Snapshot() {
		if rec.ID == "2" {
			t.Fatalf("stale update resurrected a deleted record")
		}
	}
}

func TestMutationTimeoutRollsBack(t *testing.T) {
	gw := &fakeGateway{
		updateFn: func(ctx context.Context, _ string, _ subscriber.Patch) (subscriber.Record, error) {
			<-ctx.Done()
			return subscriber.Record{}, ctx.Err()
		},
	}
	m := seeded(t, gw, baseRecords())
	m.SetMutationTimeout(20 * time.Millisecond)
	before := m.Snapshot()

	pending, err := m.Update(context.Background(), "3", subscriber.Patch{"name": "Slow"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := mustWait(t, pending); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Fatalf("timeout must roll back the optimistic change")
	}
}

func TestOverlappingMutationsOnDifferentIDs(t *testing.T) {
	releaseUpdate := make(chan struct{})
	gw := &fakeGateway{
		updateFn: func(_ context.Context, id string, _ subscriber.Patch) (subscriber.Record, error) {
			<-releaseUpdate
			return subscriber.Record{}, errors.New("boom")
		},
	}
	m := seeded(t, gw, baseRecords())

	// Failing update on "1" overlaps a successful delete of "3"; the rollback
	// of "1" must not undo the committed delete.
	updPending, err := m.Update(context.Background(), "1", subscriber.Patch{"name": "X"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	delPending, err := m.Delete(context.Background(), "3")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mustWait(t, delPending); err != nil {
		t.Fatalf("delete resolve: %v", err)
	}

	close(releaseUpdate)
	if err := mustWait(t, updPending); err == nil {
		t.Fatalf("expected update failure")
	}

	snap := m.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snap))
	}
	for _, rec := range snap {
		if rec.ID == "3" {
			t.Fatalf("delete of 3 undone by unrelated rollback")
		}
		if rec.ID == "1" && rec.Name != "Bob" {
			t.Fatalf("update rollback incomplete: %+v", rec)
		}
	}
}

func TestSeedOnlyFillsEmptySnapshot(t *testing.T) {
	gw := &fakeGateway{}
	m := New(gw, logging.Discard())

	m.Seed(baseRecords())
	if m.Len() != 3 {
		t.Fatalf("seed should populate empty manager")
	}

	m.Seed([]subscriber.Record{{ID: "x"}})
	if m.Len() != 3 {
		t.Fatalf("seed must not override an existing snapshot")
	}
}
