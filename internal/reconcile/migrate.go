package reconcile

import (
	"context"
	"fmt"

	"github.com/daygrid/daygrid/internal/remote"
)

// Migrate moves a legacy monolithic root document into the partitioned
// schema: every embedded task, log and observation becomes its own document
// in the matching collection, then the embedded arrays are cleared from the
// root and a migration stamp is written. The whole procedure is one atomic
// batch, and re-running it on the same payload is harmless because every
// write is an upsert keyed by the row's existing id.
func (r *Reconciler) Migrate(ctx context.Context, doc remote.RootDocument) error {
	if !doc.IsLegacy() {
		return nil
	}

	ops := make([]remote.Op, 0, len(doc.Tasks)+len(doc.Logs)+len(doc.Observations)+1)
	for _, t := range doc.Tasks {
		ops = append(ops, remote.Op{Collection: remote.CollectionTasks, Action: remote.OpPut, ID: t.ID, Doc: mustJSON(t)})
	}
	for _, l := range doc.Logs {
		ops = append(ops, remote.Op{Collection: remote.CollectionLogs, Action: remote.OpPut, ID: l.ID, Doc: mustJSON(l)})
	}
	for _, o := range doc.Observations {
		ops = append(ops, remote.Op{Collection: remote.CollectionObservations, Action: remote.OpPut, ID: o.ID, Doc: mustJSON(o)})
	}

	stamp := r.now()
	cleared := remote.RootDocument{
		AppConfig:  doc.AppConfig,
		OffDays:    doc.OffDays,
		MigratedAt: &stamp,
	}
	ops = append(ops, remote.Op{
		Collection: remote.CollectionRoot,
		Action:     remote.OpPut,
		ID:         remote.RootDocID,
		Doc:        mustJSON(cleared),
	})

	if err := r.rs.Commit(ctx, ops); err != nil {
		return fmt.Errorf("reconcile: migrate legacy schema: %w", err)
	}
	r.setLastRoot(cleared)
	r.log.Info("migrated legacy schema",
		"tasks", len(doc.Tasks), "logs", len(doc.Logs), "observations", len(doc.Observations))
	return nil
}
