package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/daygrid/daygrid/internal/remote"
)

func newTestServer(t *testing.T) (*httptest.Server, *DocStore) {
	t.Helper()
	store, err := OpenDocStore(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := httptest.NewServer(New(store, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func putOp(c remote.Collection, id, doc string) remote.Op {
	return remote.Op{Collection: c, Action: remote.OpPut, ID: id, Doc: json.RawMessage(doc)}
}

func recvEvent(t *testing.T, events <-chan remote.Event) remote.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "subscription closed early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return remote.Event{}
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	client := remote.NewClient(srv.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, client.Commit(ctx, []remote.Op{
		putOp(remote.CollectionTasks, "t1", `{"id":"t1"}`),
		putOp(remote.CollectionTasks, "t2", `{"id":"t2"}`),
	}))

	events, err := client.Subscribe(ctx, remote.CollectionTasks)
	require.NoError(t, err)

	ev := recvEvent(t, events)
	require.Equal(t, remote.CollectionTasks, ev.Collection)
	require.Len(t, ev.Docs, 2)
	require.Equal(t, "t1", ev.Docs[0].ID)
	require.Equal(t, "t2", ev.Docs[1].ID)
}

func TestCommitBroadcastsToSubscribers(t *testing.T) {
	srv, _ := newTestServer(t)
	client := remote.NewClient(srv.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := client.Subscribe(ctx, remote.CollectionLogs)
	require.NoError(t, err)
	require.Empty(t, recvEvent(t, events).Docs)

	require.NoError(t, client.Commit(ctx, []remote.Op{
		putOp(remote.CollectionLogs, "l1", `{"id":"l1","text":"done"}`),
	}))

	ev := recvEvent(t, events)
	require.Len(t, ev.Docs, 1)
	require.Equal(t, "l1", ev.Docs[0].ID)

	require.NoError(t, client.Commit(ctx, []remote.Op{
		{Collection: remote.CollectionLogs, Action: remote.OpDelete, ID: "l1"},
	}))
	require.Empty(t, recvEvent(t, events).Docs)
}

func TestCommitOnlyNotifiesTouchedCollections(t *testing.T) {
	srv, _ := newTestServer(t)
	client := remote.NewClient(srv.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	taskEvents, err := client.Subscribe(ctx, remote.CollectionTasks)
	require.NoError(t, err)
	recvEvent(t, taskEvents)
	obsEvents, err := client.Subscribe(ctx, remote.CollectionObservations)
	require.NoError(t, err)
	recvEvent(t, obsEvents)

	require.NoError(t, client.Commit(ctx, []remote.Op{
		putOp(remote.CollectionTasks, "t1", `{"id":"t1"}`),
	}))

	recvEvent(t, taskEvents)
	select {
	case ev := <-obsEvents:
		t.Fatalf("observations subscriber got unrelated event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClearEmptiesCollectionAtomically(t *testing.T) {
	srv, _ := newTestServer(t)
	client := remote.NewClient(srv.URL, nil)
	ctx := context.Background()

	require.NoError(t, client.Commit(ctx, []remote.Op{
		putOp(remote.CollectionTasks, "old1", `{"id":"old1"}`),
		putOp(remote.CollectionTasks, "old2", `{"id":"old2"}`),
	}))
	require.NoError(t, client.Commit(ctx, []remote.Op{
		{Collection: remote.CollectionTasks, Action: remote.OpClear},
		putOp(remote.CollectionTasks, "new1", `{"id":"new1"}`),
	}))

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, err := client.Subscribe(subCtx, remote.CollectionTasks)
	require.NoError(t, err)
	ev := recvEvent(t, events)
	require.Len(t, ev.Docs, 1)
	require.Equal(t, "new1", ev.Docs[0].ID)
}

func TestRejectedBatchAppliesNothing(t *testing.T) {
	srv, store := newTestServer(t)
	client := remote.NewClient(srv.URL, nil)
	ctx := context.Background()

	err := client.Commit(ctx, []remote.Op{
		putOp(remote.CollectionTasks, "t1", `{"id":"t1"}`),
		putOp("bogus", "x", `{}`),
	})
	require.Error(t, err)

	ev, err := store.Snapshot(ctx, remote.CollectionTasks)
	require.NoError(t, err)
	require.Empty(t, ev.Docs)
}

func TestSubscribeUnknownCollection(t *testing.T) {
	srv, _ := newTestServer(t)
	client := remote.NewClient(srv.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := client.Subscribe(ctx, "bogus")
	require.Error(t, err)
}

func TestRootDocumentRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	client := remote.NewClient(srv.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, client.Commit(ctx, []remote.Op{
		putOp(remote.CollectionRoot, remote.RootDocID, `{"appConfig":{"statuses":[{"value":"open","label":"Open"}]}}`),
	}))

	events, err := client.Subscribe(ctx, remote.CollectionRoot)
	require.NoError(t, err)
	ev := recvEvent(t, events)
	require.Len(t, ev.Docs, 1)
	require.Equal(t, remote.RootDocID, ev.Docs[0].ID)

	var root remote.RootDocument
	require.NoError(t, json.Unmarshal(ev.Docs[0].Data, &root))
	require.NotNil(t, root.AppConfig)
	require.False(t, root.IsLegacy())
}

func TestBroadcastKeepsNewestForSlowSubscriber(t *testing.T) {
	h := newHub()
	sub := h.subscribe(remote.CollectionTasks)

	// Overflow the subscriber's buffer without draining it.
	for i := 0; i < 12; i++ {
		h.broadcast(remote.Event{
			Collection: remote.CollectionTasks,
			Docs:       []remote.Document{{ID: fmt.Sprintf("v%d", i)}},
		})
	}

	var last remote.Event
	for drained := false; !drained; {
		select {
		case ev := <-sub.events:
			last = ev
		default:
			drained = true
		}
	}
	require.Len(t, last.Docs, 1)
	require.Equal(t, "v11", last.Docs[0].ID, "lagging subscriber must end on the newest snapshot")
}
