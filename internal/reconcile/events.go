package reconcile

import (
	"context"
	"encoding/json"

	"github.com/daygrid/daygrid/internal/model"
	"github.com/daygrid/daygrid/internal/remote"
)

// consume is the single consumer of one collection's subscription. One
// goroutine per collection, never concurrent with itself, which is what
// makes the hydration guard's once-per-collection evaluation sound.
func (r *Reconciler) consume(ctx context.Context, c remote.Collection, ch <-chan remote.Event) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				r.log.Warn("subscription closed", "collection", string(c))
				return
			}
			r.handleEvent(ctx, ev)
		}
	}
}

func (r *Reconciler) handleEvent(ctx context.Context, ev remote.Event) {
	if ev.Collection == remote.CollectionRoot {
		r.handleRootEvent(ctx, ev)
		return
	}

	first := !r.isHydrated(ev.Collection)

	// Hydration guard: the first delivery after enabling sync may be an
	// empty collection simply because the remote has never seen our data.
	// In exactly that case we push local state instead of accepting the
	// empty payload. Every other first event, and every later event, is
	// remote-authoritative.
	if first && len(ev.Docs) == 0 && r.localCount(ev.Collection) > 0 {
		r.pushCollection(ctx, ev.Collection)
		r.markHydrated(ev.Collection)
		return
	}

	if err := r.applyRemote(ev); err != nil {
		r.log.Error("apply remote event", "collection", string(ev.Collection), "error", err)
		return
	}
	r.markHydrated(ev.Collection)
}

func (r *Reconciler) isHydrated(c remote.Collection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hydrated[c]
}

func (r *Reconciler) markHydrated(c remote.Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hydrated != nil {
		r.hydrated[c] = true
	}
}

func (r *Reconciler) localCount(c remote.Collection) int {
	switch c {
	case remote.CollectionTasks:
		return len(r.st.Tasks())
	case remote.CollectionLogs:
		return len(r.st.Logs())
	case remote.CollectionObservations:
		return len(r.st.Observations())
	default:
		return 0
	}
}

// pushCollection sends the local collection to the remote as an overwrite of
// that collection only: clear it, then put every local row.
func (r *Reconciler) pushCollection(ctx context.Context, c remote.Collection) {
	ops := []remote.Op{{Collection: c, Action: remote.OpClear}}
	switch c {
	case remote.CollectionTasks:
		for _, t := range r.st.Tasks() {
			ops = append(ops, remote.Op{Collection: c, Action: remote.OpPut, ID: t.ID, Doc: mustJSON(t)})
		}
	case remote.CollectionLogs:
		for _, l := range r.st.Logs() {
			ops = append(ops, remote.Op{Collection: c, Action: remote.OpPut, ID: l.ID, Doc: mustJSON(l)})
		}
	case remote.CollectionObservations:
		for _, o := range r.st.Observations() {
			ops = append(ops, remote.Op{Collection: c, Action: remote.OpPut, ID: o.ID, Doc: mustJSON(o)})
		}
	}
	r.log.Info("hydrating empty remote collection from local state",
		"collection", string(c), "rows", len(ops)-1)
	if err := r.rs.Commit(ctx, ops); err != nil {
		r.log.Error("hydration push failed", "collection", string(c), "error", err)
	}
}

// applyRemote replaces the local collection with the remote payload through
// the store's remote-origin entry points.
func (r *Reconciler) applyRemote(ev remote.Event) error {
	switch ev.Collection {
	case remote.CollectionTasks:
		tasks := make([]model.Task, 0, len(ev.Docs))
		for _, doc := range ev.Docs {
			var t model.Task
			if err := json.Unmarshal(doc.Data, &t); err != nil {
				return err
			}
			tasks = append(tasks, t)
		}
		return r.st.ReplaceTasks(tasks)
	case remote.CollectionLogs:
		logs := make([]model.DailyLog, 0, len(ev.Docs))
		for _, doc := range ev.Docs {
			var l model.DailyLog
			if err := json.Unmarshal(doc.Data, &l); err != nil {
				return err
			}
			logs = append(logs, l)
		}
		return r.st.ReplaceLogs(logs)
	case remote.CollectionObservations:
		obs := make([]model.Observation, 0, len(ev.Docs))
		for _, doc := range ev.Docs {
			var o model.Observation
			if err := json.Unmarshal(doc.Data, &o); err != nil {
				return err
			}
			obs = append(obs, o)
		}
		return r.st.ReplaceObservations(obs)
	}
	return nil
}

// handleRootEvent applies the settings singleton. A root document still
// carrying embedded entity arrays is the legacy monolithic schema and
// triggers the one-shot migration.
func (r *Reconciler) handleRootEvent(ctx context.Context, ev remote.Event) {
	var doc remote.RootDocument
	found := false
	for _, d := range ev.Docs {
		if d.ID == remote.RootDocID {
			if err := json.Unmarshal(d.Data, &doc); err != nil {
				r.log.Error("decode root document", "error", err)
				return
			}
			found = true
			break
		}
	}

	if !found {
		// Brand-new remote: publish local settings so other devices can
		// hydrate from them.
		cfg := r.st.Config()
		if !cfg.IsZero() && !r.isHydrated(remote.CollectionRoot) {
			if err := r.rs.Commit(ctx, []remote.Op{r.rootPut()}); err != nil {
				r.log.Error("settings push failed", "error", err)
			}
		}
		r.markHydrated(remote.CollectionRoot)
		return
	}

	if doc.IsLegacy() {
		if err := r.Migrate(ctx, doc); err != nil {
			r.log.Error("legacy migration failed", "error", err)
			return
		}
		// Migrate recorded the cleared root; adopt the settings it carried
		// and let the collection subscriptions deliver the partitioned rows.
		var cfg model.AppConfig
		if doc.AppConfig != nil {
			cfg = *doc.AppConfig
		}
		if err := r.st.ReplaceSettings(cfg, doc.OffDays); err != nil {
			r.log.Error("apply migrated settings", "error", err)
			return
		}
		r.markHydrated(remote.CollectionRoot)
		return
	}

	r.setLastRoot(doc)
	var cfg model.AppConfig
	if doc.AppConfig != nil {
		cfg = *doc.AppConfig
	}
	if err := r.st.ReplaceSettings(cfg, doc.OffDays); err != nil {
		r.log.Error("apply remote settings", "error", err)
		return
	}
	r.markHydrated(remote.CollectionRoot)
}

func (r *Reconciler) setLastRoot(doc remote.RootDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRoot = doc
}
