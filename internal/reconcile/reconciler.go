// Package reconcile keeps local state and the remote document store
// consistent. The reconciler owns all remote communication: it opens one
// realtime subscription per collection, guards the first delivery of each so
// an empty remote can never wipe non-empty local data, runs the one-shot
// legacy schema migration, and ships the sync actions of every local
// mutation as one atomic remote batch. Remote failures are logged and
// contained; local state stays authoritative regardless of remote outcome.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/remote"
	"github.com/daygrid/daygrid/internal/store"
)

// RemoteStore is the black-box contract of the remote side. Subscribe
// returns a stream of full-collection snapshots, the first delivered shortly
// after subscribing; Commit applies a batch atomically.
type RemoteStore interface {
	Subscribe(ctx context.Context, c remote.Collection) (<-chan remote.Event, error)
	Commit(ctx context.Context, ops []remote.Op) error
}

const dispatchBuffer = 64

type Reconciler struct {
	st  *store.Store
	rs  RemoteStore
	log *slog.Logger
	now func() time.Time

	mu       sync.Mutex
	enabled  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	hydrated map[remote.Collection]bool
	lastRoot remote.RootDocument
	actions  chan []store.Action
}

func New(st *store.Store, rs RemoteStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		st:  st,
		rs:  rs,
		log: logger,
		now: time.Now,
	}
}

// Enable opens all subscriptions and attaches the reconciler as the store's
// action recorder. Hydration flags start false for every collection.
func (r *Reconciler) Enable(ctx context.Context) error {
	if err := r.start(ctx); err != nil {
		return err
	}
	// Attached outside the reconciler lock; see Disable for the lock order.
	r.st.SetRecorder(r)
	r.log.Info("sync enabled")
	return nil
}

func (r *Reconciler) start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enabled {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	channels := make(map[remote.Collection]<-chan remote.Event, len(remote.Collections))
	for _, c := range remote.Collections {
		ch, err := r.rs.Subscribe(runCtx, c)
		if err != nil {
			cancel()
			return fmt.Errorf("reconcile: subscribe %s: %w", c, err)
		}
		channels[c] = ch
	}

	r.cancel = cancel
	r.hydrated = make(map[remote.Collection]bool, len(remote.Collections))
	r.actions = make(chan []store.Action, dispatchBuffer)
	r.enabled = true

	for c, ch := range channels {
		r.wg.Add(1)
		go r.consume(runCtx, c, ch)
	}
	r.wg.Add(1)
	go r.dispatch(runCtx, r.actions)
	return nil
}

// Disable tears down every subscription and resets the hydration flags.
// Batches already queued by Record are flushed before Disable returns;
// nothing already written is rolled back or resent.
// The recorder is detached before the reconciler lock is taken: Record runs
// under both the store and reconciler locks, so detaching inside the
// critical section could deadlock against an in-flight mutation.
func (r *Reconciler) Disable() {
	r.st.SetRecorder(nil)
	r.mu.Lock()
	if !r.enabled {
		r.mu.Unlock()
		return
	}
	r.enabled = false
	r.hydrated = nil
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
	r.log.Info("sync disabled")
}

// Record receives the action batch of one local mutation. It never blocks
// the mutation path: when the dispatch queue is saturated the batch is
// dropped with a warning, and the data stays locally durable until the next
// mutation or sync session pushes it again.
func (r *Reconciler) Record(batch []store.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	select {
	case r.actions <- batch:
	default:
		r.log.Warn("sync dispatch queue full, dropping batch", "actions", len(batch))
	}
}

// dispatch ships mutation batches in arrival order, one atomic commit each.
// A failed commit is logged and never retried here; local state is already
// durable. Cancellation flushes whatever Record already queued before the
// goroutine exits, so a mutation made just before Disable is not lost.
func (r *Reconciler) dispatch(ctx context.Context, actions <-chan []store.Action) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			r.drain(actions)
			return
		case batch := <-actions:
			if ctx.Err() != nil {
				// Teardown raced the queue; this batch and any behind it
				// still have to go out.
				r.shipBounded(batch)
				r.drain(actions)
				return
			}
			r.ship(ctx, batch)
		}
	}
}

// drain empties the queue after cancellation. The recorder is already
// detached at this point, so the queue only shrinks.
func (r *Reconciler) drain(actions <-chan []store.Action) {
	for {
		select {
		case batch := <-actions:
			r.shipBounded(batch)
		default:
			return
		}
	}
}

// shipBounded commits one batch after the run context is dead, under its
// own deadline.
func (r *Reconciler) shipBounded(batch []store.Action) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.ship(ctx, batch)
}

func (r *Reconciler) ship(ctx context.Context, batch []store.Action) {
	ops, err := r.opsFor(batch)
	if err != nil {
		r.log.Error("derive remote ops", "error", err)
		return
	}
	if len(ops) == 0 {
		return
	}
	if err := r.rs.Commit(ctx, ops); err != nil {
		r.log.Error("remote batch write failed, local state remains authoritative",
			"error", err, "ops", len(ops))
	}
}

// opsFor translates one mutation's action batch into remote ops.
func (r *Reconciler) opsFor(batch []store.Action) ([]remote.Op, error) {
	ops := make([]remote.Op, 0, len(batch))
	for _, a := range batch {
		switch a.Entity {
		case store.EntityTask:
			ops = append(ops, entityOp(remote.CollectionTasks, a))
		case store.EntityLog:
			ops = append(ops, entityOp(remote.CollectionLogs, a))
		case store.EntityObservation:
			ops = append(ops, entityOp(remote.CollectionObservations, a))
		case store.EntityOffDays, store.EntityConfig:
			ops = append(ops, r.rootPut())
		case store.EntityFull:
			var snap model.Snapshot
			if err := json.Unmarshal(a.Payload, &snap); err != nil {
				return nil, fmt.Errorf("decode overwrite payload: %w", err)
			}
			ops = append(ops, overwriteOps(snap, r.migratedAt())...)
		default:
			return nil, fmt.Errorf("unknown action entity %q", a.Entity)
		}
	}
	return ops, nil
}

func entityOp(c remote.Collection, a store.Action) remote.Op {
	if a.Op == store.OpDelete {
		return remote.Op{Collection: c, Action: remote.OpDelete, ID: a.ID}
	}
	return remote.Op{Collection: c, Action: remote.OpPut, ID: a.ID, Doc: a.Payload}
}

// rootPut rebuilds the settings document from local state, preserving the
// migration stamp last seen on the remote.
func (r *Reconciler) rootPut() remote.Op {
	cfg := r.st.Config()
	doc := remote.RootDocument{
		AppConfig:  &cfg,
		OffDays:    r.st.OffDays(),
		MigratedAt: r.migratedAt(),
	}
	return remote.Op{
		Collection: remote.CollectionRoot,
		Action:     remote.OpPut,
		ID:         remote.RootDocID,
		Doc:        mustJSON(doc),
	}
}

func (r *Reconciler) migratedAt() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRoot.MigratedAt
}

// overwriteOps resets every remote collection and the root document to
// mirror the snapshot, as one batch.
func overwriteOps(snap model.Snapshot, migratedAt *time.Time) []remote.Op {
	ops := []remote.Op{
		{Collection: remote.CollectionTasks, Action: remote.OpClear},
	}
	for _, t := range snap.Tasks {
		ops = append(ops, remote.Op{Collection: remote.CollectionTasks, Action: remote.OpPut, ID: t.ID, Doc: mustJSON(t)})
	}
	ops = append(ops, remote.Op{Collection: remote.CollectionLogs, Action: remote.OpClear})
	for _, l := range snap.Logs {
		ops = append(ops, remote.Op{Collection: remote.CollectionLogs, Action: remote.OpPut, ID: l.ID, Doc: mustJSON(l)})
	}
	ops = append(ops, remote.Op{Collection: remote.CollectionObservations, Action: remote.OpClear})
	for _, o := range snap.Observations {
		ops = append(ops, remote.Op{Collection: remote.CollectionObservations, Action: remote.OpPut, ID: o.ID, Doc: mustJSON(o)})
	}
	cfg := snap.AppConfig
	root := remote.RootDocument{AppConfig: &cfg, OffDays: snap.OffDays, MigratedAt: migratedAt}
	ops = append(ops, remote.Op{Collection: remote.CollectionRoot, Action: remote.OpPut, ID: remote.RootDocID, Doc: mustJSON(root)})
	return ops
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Wire types are plain data; marshal cannot fail on them.
		panic(err)
	}
	return b
}
