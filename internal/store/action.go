package store

import (
	"encoding/json"

	"github.com/daygrid/daygrid/internal/model"
)

// Entity names the dataset a sync action targets.
type Entity string

const (
	EntityTask        Entity = "task"
	EntityLog         Entity = "log"
	EntityObservation Entity = "observation"
	EntityOffDays     Entity = "offDays"
	EntityConfig      Entity = "config"
	EntityFull        Entity = "full"
)

// Op is what the action does to its entity.
type Op string

const (
	OpCreate    Op = "create"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpOverwrite Op = "overwrite"
)

// Action is the minimal typed unit of remote write work derived from one
// local mutation. A mutation emits an ordered batch of these; the reconciler
// ships each batch as one atomic remote commit.
type Action struct {
	Entity  Entity          `json:"entity"`
	Op      Op              `json:"op"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Recorder receives the action batch of a mutation after local state has
// been applied and persisted. A nil recorder means sync is disabled and
// actions are dropped; local state stays authoritative either way.
type Recorder interface {
	Record(batch []Action)
}

func taskAction(op Op, t model.Task) Action {
	return Action{Entity: EntityTask, Op: op, ID: t.ID, Payload: encode(t)}
}

func taskDelete(id string) Action {
	return Action{Entity: EntityTask, Op: OpDelete, ID: id}
}

func logAction(op Op, l model.DailyLog) Action {
	return Action{Entity: EntityLog, Op: op, ID: l.ID, Payload: encode(l)}
}

func logDelete(id string) Action {
	return Action{Entity: EntityLog, Op: OpDelete, ID: id}
}

func observationAction(op Op, o model.Observation) Action {
	return Action{Entity: EntityObservation, Op: op, ID: o.ID, Payload: encode(o)}
}

func observationDelete(id string) Action {
	return Action{Entity: EntityObservation, Op: OpDelete, ID: id}
}

func offDaysAction(days []model.Date) Action {
	return Action{Entity: EntityOffDays, Op: OpUpdate, Payload: encode(days)}
}

func configAction(cfg model.AppConfig) Action {
	return Action{Entity: EntityConfig, Op: OpUpdate, Payload: encode(cfg)}
}

// FullOverwrite carries an entire snapshot; restore, import, purge and the
// hydration-guard push all use it so the remote reset is atomic.
func FullOverwrite(snap model.Snapshot) Action {
	return Action{Entity: EntityFull, Op: OpOverwrite, Payload: encode(snap)}
}

func encode(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Payload types are plain data structs; marshal cannot fail on them.
		panic(err)
	}
	return b
}
