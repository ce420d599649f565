// Package remote defines the wire contract of the remote document store and
// a client for it. The core depends only on three primitives: realtime
// subscribe-by-collection, atomic batched writes, and one settings root
// document addressed outside the collections.
package remote

import (
	"encoding/json"
	"time"

	"github.com/daygrid/daygrid/internal/model"
)

// Collection names one remotely partitioned dataset.
type Collection string

const (
	CollectionTasks        Collection = "tasks"
	CollectionLogs         Collection = "logs"
	CollectionObservations Collection = "observations"
	CollectionRoot         Collection = "root"
)

// Collections lists every subscription a sync session opens.
var Collections = []Collection{
	CollectionTasks,
	CollectionLogs,
	CollectionObservations,
	CollectionRoot,
}

// RootDocID is the fixed id of the settings document inside CollectionRoot.
const RootDocID = "root"

// Document is one remote row: an opaque JSON payload under an id.
type Document struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Event is one realtime delivery: the full current snapshot of a collection.
// The store pushes one on subscribe and one after every committed change
// that touches the collection.
type Event struct {
	Collection Collection `json:"collection"`
	Docs       []Document `json:"docs"`
}

// OpAction is what a batch op does to its target.
type OpAction string

const (
	OpPut    OpAction = "put"    // upsert one document
	OpDelete OpAction = "delete" // remove one document
	OpClear  OpAction = "clear"  // empty the collection (overwrite prelude)
)

// Op is one entry of an atomic commit batch. All ops in a batch are applied
// in order inside a single transaction: all visible together or not at all.
type Op struct {
	Collection Collection      `json:"collection"`
	Action     OpAction        `json:"action"`
	ID         string          `json:"id,omitempty"`
	Doc        json.RawMessage `json:"doc,omitempty"`
}

// RootDocument is the settings singleton. The legacy monolithic schema kept
// the entity collections embedded here; their presence is what triggers the
// one-shot migration.
type RootDocument struct {
	AppConfig    *model.AppConfig    `json:"appConfig,omitempty"`
	OffDays      []model.Date        `json:"offDays,omitempty"`
	Tasks        []model.Task        `json:"tasks,omitempty"`
	Logs         []model.DailyLog    `json:"logs,omitempty"`
	Observations []model.Observation `json:"observations,omitempty"`
	MigratedAt   *time.Time          `json:"migratedAt,omitempty"`
}

// IsLegacy reports whether the root document still carries embedded entity
// arrays, the pre-partitioned schema.
func (r RootDocument) IsLegacy() bool {
	return len(r.Tasks) > 0 || len(r.Logs) > 0 || len(r.Observations) > 0
}
