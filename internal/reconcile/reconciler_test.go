package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/remote"
	"github.com/daygrid/daygrid/internal/store"
)

// fakeRemote is an in-memory remote document store with the same contract as
// the real one: full-snapshot subscriptions and atomic batches.
type fakeRemote struct {
	mu          sync.Mutex
	collections map[remote.Collection]map[string]json.RawMessage
	subs        map[remote.Collection][]chan remote.Event
	commits     [][]remote.Op
	failNext    error
}

func newFakeRemote() *fakeRemote {
	f := &fakeRemote{
		collections: make(map[remote.Collection]map[string]json.RawMessage),
		subs:        make(map[remote.Collection][]chan remote.Event),
	}
	for _, c := range remote.Collections {
		f.collections[c] = make(map[string]json.RawMessage)
	}
	return f
}

func (f *fakeRemote) Subscribe(ctx context.Context, c remote.Collection) (<-chan remote.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan remote.Event, 16)
	f.subs[c] = append(f.subs[c], ch)
	ch <- f.snapshotLocked(c)
	return ch, nil
}

func (f *fakeRemote) Commit(_ context.Context, ops []remote.Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err // atomic: nothing from the batch is applied
	}
	touched := make(map[remote.Collection]bool)
	for _, op := range ops {
		touched[op.Collection] = true
		switch op.Action {
		case remote.OpClear:
			f.collections[op.Collection] = make(map[string]json.RawMessage)
		case remote.OpPut:
			f.collections[op.Collection][op.ID] = op.Doc
		case remote.OpDelete:
			delete(f.collections[op.Collection], op.ID)
		}
	}
	f.commits = append(f.commits, ops)
	for c := range touched {
		ev := f.snapshotLocked(c)
		for _, ch := range f.subs[c] {
			select {
			case ch <- ev:
			default:
			}
		}
	}
	return nil
}

func (f *fakeRemote) snapshotLocked(c remote.Collection) remote.Event {
	docs := make([]remote.Document, 0, len(f.collections[c]))
	for id, data := range f.collections[c] {
		docs = append(docs, remote.Document{ID: id, Data: data})
	}
	return remote.Event{Collection: c, Docs: docs}
}

func (f *fakeRemote) rows(c remote.Collection) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.collections[c])
}

func (f *fakeRemote) seed(c remote.Collection, id string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	f.collections[c][id] = raw
}

func (f *fakeRemote) root(t *testing.T) remote.RootDocument {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.collections[remote.CollectionRoot][remote.RootDocID]
	require.True(t, ok, "root document missing")
	var doc remote.RootDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

type nopPersister struct{}

func (nopPersister) Save(model.Snapshot) error { return nil }

func testDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func testTask(t *testing.T, id, displayID string) model.Task {
	t.Helper()
	return model.Task{
		ID:          id,
		DisplayID:   displayID,
		Description: "task " + displayID,
		DueDate:     testDate(t, "2024-01-01"),
		Status:      "not-started",
		CreatedAt:   time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func newStoreWith(t *testing.T, tasks ...model.Task) *store.Store {
	t.Helper()
	snap := model.EmptySnapshot()
	snap.Tasks = append(snap.Tasks, tasks...)
	seq := 0
	return store.New(snap, nopPersister{},
		store.WithIDGenerator(func() string { seq++; return fmt.Sprintf("gen-%d", seq) }),
	)
}

func enable(t *testing.T, r *Reconciler) {
	t.Helper()
	require.NoError(t, r.Enable(context.Background()))
	t.Cleanup(r.Disable)
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func TestHydrationGuardPushesLocalToEmptyRemote(t *testing.T) {
	st := newStoreWith(t, testTask(t, "a", "DG-A"), testTask(t, "b", "DG-B"))
	fr := newFakeRemote()
	r := New(st, fr, nil)
	enable(t, r)

	eventually(t, func() bool { return fr.rows(remote.CollectionTasks) == 2 },
		"local tasks never pushed to empty remote")
	assert.Len(t, st.Tasks(), 2, "local state overwritten by empty first event")
}

func TestHydrationGuardAcceptsNonEmptyRemote(t *testing.T) {
	st := newStoreWith(t, testTask(t, "a", "DG-A"), testTask(t, "b", "DG-B"))
	fr := newFakeRemote()
	fr.seed(remote.CollectionTasks, "c", testTask(t, "c", "DG-C"))
	r := New(st, fr, nil)
	enable(t, r)

	eventually(t, func() bool {
		tasks := st.Tasks()
		return len(tasks) == 1 && tasks[0].ID == "c"
	}, "non-empty remote payload must replace local tasks")
}

func TestEmptyEventAfterHydrationIsAuthoritative(t *testing.T) {
	st := newStoreWith(t, testTask(t, "a", "DG-A"))
	fr := newFakeRemote()
	fr.seed(remote.CollectionTasks, "c", testTask(t, "c", "DG-C"))
	r := New(st, fr, nil)
	enable(t, r)

	eventually(t, func() bool {
		tasks := st.Tasks()
		return len(tasks) == 1 && tasks[0].ID == "c"
	}, "first event not applied")

	// The user deletes everything from another device: the remote clears the
	// collection and the resulting empty event must be accepted.
	require.NoError(t, fr.Commit(context.Background(),
		[]remote.Op{{Collection: remote.CollectionTasks, Action: remote.OpClear}}))

	eventually(t, func() bool { return len(st.Tasks()) == 0 },
		"post-hydration empty event must clear local state")
}

func TestGuardEvaluatedPerCollection(t *testing.T) {
	st := newStoreWith(t, testTask(t, "a", "DG-A"))
	_, err := st.CreateObservation(model.Observation{Text: "only local"})
	require.NoError(t, err)

	fr := newFakeRemote()
	fr.seed(remote.CollectionLogs, "l1", model.DailyLog{ID: "l1", Date: testDate(t, "2024-01-02"), Text: "remote log"})
	r := New(st, fr, nil)
	enable(t, r)

	// Tasks and observations hydrate outward, logs hydrate inward.
	eventually(t, func() bool { return fr.rows(remote.CollectionTasks) == 1 }, "tasks not pushed")
	eventually(t, func() bool { return fr.rows(remote.CollectionObservations) == 1 }, "observations not pushed")
	eventually(t, func() bool {
		logs := st.Logs()
		return len(logs) == 1 && logs[0].ID == "l1"
	}, "remote logs not adopted")
}

func TestDisableResetsHydrationGuard(t *testing.T) {
	st := newStoreWith(t)
	fr := newFakeRemote()
	r := New(st, fr, nil)
	require.NoError(t, r.Enable(context.Background()))

	eventually(t, func() bool { return r.isHydrated(remote.CollectionTasks) },
		"tasks collection never hydrated")
	r.Disable()

	// While offline the user creates a task; re-enabling must run the guard
	// again and push it.
	_, err := st.CreateTask(testTask(t, "x", "DG-X"))
	require.NoError(t, err)

	require.NoError(t, r.Enable(context.Background()))
	defer r.Disable()
	eventually(t, func() bool { return fr.rows(remote.CollectionTasks) == 1 },
		"guard did not re-run after sync was re-enabled")
}

func TestMutationDispatchesOneAtomicBatch(t *testing.T) {
	st := newStoreWith(t)
	fr := newFakeRemote()
	r := New(st, fr, nil)
	enable(t, r)

	task, err := st.CreateTask(testTask(t, "", "DG-1"))
	require.NoError(t, err)
	eventually(t, func() bool { return fr.rows(remote.CollectionTasks) == 1 }, "create not shipped")

	_, err = st.SetTaskStatus(task.ID, "in-progress")
	require.NoError(t, err)

	eventually(t, func() bool { return fr.rows(remote.CollectionLogs) == 1 }, "status log not shipped")

	fr.mu.Lock()
	last := fr.commits[len(fr.commits)-1]
	fr.mu.Unlock()
	require.Len(t, last, 2, "status change must ship task update and log create together")
	assert.Equal(t, remote.CollectionTasks, last[0].Collection)
	assert.Equal(t, remote.CollectionLogs, last[1].Collection)
}

func TestFailedBatchLeavesRemoteUntouchedAndLocalIntact(t *testing.T) {
	st := newStoreWith(t)
	fr := newFakeRemote()
	r := New(st, fr, nil)
	enable(t, r)

	task, err := st.CreateTask(testTask(t, "", "DG-1"))
	require.NoError(t, err)
	eventually(t, func() bool { return fr.rows(remote.CollectionTasks) == 1 }, "create not shipped")

	fr.mu.Lock()
	fr.failNext = errors.New("simulated outage")
	commitsBefore := len(fr.commits)
	fr.mu.Unlock()

	got, err := st.SetTaskStatus(task.ID, "in-progress")
	require.NoError(t, err, "local mutation must succeed regardless of remote outcome")
	assert.Equal(t, "in-progress", got.Status)

	// Give the dispatcher time to hit the failure, then confirm neither the
	// task update nor the log create became visible remotely.
	eventually(t, func() bool {
		fr.mu.Lock()
		defer fr.mu.Unlock()
		return len(fr.commits) == commitsBefore
	}, "failed batch must not be recorded")
	assert.Equal(t, 0, fr.rows(remote.CollectionLogs), "half of a failed batch is visible")
}

func TestDisableFlushesQueuedBatches(t *testing.T) {
	// The import command records one overwrite and tears sync down right
	// after; the batch must be on the remote once Disable returns.
	st := newStoreWith(t)
	fr := newFakeRemote()
	r := New(st, fr, nil)
	require.NoError(t, r.Enable(context.Background()))

	snap := model.EmptySnapshot()
	snap.Tasks = []model.Task{testTask(t, "t1", "DG-1")}
	require.NoError(t, st.ImportSnapshot(snap))
	r.Disable()

	assert.Equal(t, 1, fr.rows(remote.CollectionTasks),
		"overwrite recorded before Disable was dropped")
}

func TestFullOverwriteShipsAsSingleCommit(t *testing.T) {
	st := newStoreWith(t)
	fr := newFakeRemote()
	r := New(st, fr, nil)
	enable(t, r)

	snap := model.EmptySnapshot()
	snap.Tasks = []model.Task{testTask(t, "t1", "DG-1"), testTask(t, "t2", "DG-2")}
	snap.Logs = []model.DailyLog{{ID: "l1", Date: testDate(t, "2024-01-02"), Text: "imported"}}
	require.NoError(t, st.ImportSnapshot(snap))

	eventually(t, func() bool {
		return fr.rows(remote.CollectionTasks) == 2 && fr.rows(remote.CollectionLogs) == 1
	}, "overwrite not applied remotely")

	fr.mu.Lock()
	last := fr.commits[len(fr.commits)-1]
	fr.mu.Unlock()
	assert.Equal(t, remote.OpClear, last[0].Action, "overwrite must reset collections before repopulating")
	root := fr.root(t)
	require.NotNil(t, root.AppConfig)
	assert.False(t, root.IsLegacy())
}

func TestSettingsPushedToBrandNewRemote(t *testing.T) {
	st := newStoreWith(t)
	require.NoError(t, st.ToggleOffDay(testDate(t, "2024-01-05")))
	fr := newFakeRemote()
	r := New(st, fr, nil)
	enable(t, r)

	eventually(t, func() bool { return fr.rows(remote.CollectionRoot) == 1 },
		"settings never published to empty remote")
	root := fr.root(t)
	require.NotNil(t, root.AppConfig)
	assert.Equal(t, []model.Date{testDate(t, "2024-01-05")}, root.OffDays)
}

func TestRemoteSettingsAdopted(t *testing.T) {
	st := newStoreWith(t)
	cfg := model.DefaultConfig()
	cfg.Statuses = append(cfg.Statuses, model.OptionDef{Value: "waiting", Label: "Waiting", Color: "#777"})
	fr := newFakeRemote()
	fr.seed(remote.CollectionRoot, remote.RootDocID, remote.RootDocument{
		AppConfig: &cfg,
		OffDays:   []model.Date{testDate(t, "2024-02-01")},
	})
	r := New(st, fr, nil)
	enable(t, r)

	eventually(t, func() bool {
		return len(st.Config().Statuses) == len(cfg.Statuses) && len(st.OffDays()) == 1
	}, "remote settings not adopted")
}
