package backup

import (
	"reflect"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/daygrid/daygrid/internal/model"
)

type fixedSource struct {
	snap model.Snapshot
}

func (f fixedSource) Snapshot() model.Snapshot { return f.snap }

func sampleSnapshot() model.Snapshot {
	snap := model.EmptySnapshot()
	snap.Tasks = []model.Task{{
		ID:          "t1",
		DisplayID:   "T-1",
		Description: "water the plants",
		DueDate:     model.NewDate(2024, time.March, 1),
		Status:      "not-started",
		Priority:    "low",
		CreatedAt:   time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC),
	}}
	snap.OffDays = []model.Date{model.NewDate(2024, time.March, 8)}
	snap.AppConfig = model.DefaultConfig()
	return snap
}

func newTestExporter(t *testing.T, keep int) (*Exporter, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	e := NewExporter(fs, "/backups", fixedSource{snap: sampleSnapshot()}, keep, nil)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return e, fs
}

func TestExportRoundTrip(t *testing.T) {
	e, fs := newTestExporter(t, 0)

	path, err := e.Export()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	got, err := ReadSnapshot(fs, path)
	if err != nil {
		t.Fatalf("read snapshot failed: %v", err)
	}
	if !reflect.DeepEqual(got, sampleSnapshot()) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, sampleSnapshot())
	}
}

func TestExportLeavesNoTempFiles(t *testing.T) {
	e, fs := newTestExporter(t, 0)
	if _, err := e.Export(); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	infos, err := afero.ReadDir(fs, "/backups")
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	for _, info := range infos {
		if info.Name()[len(info.Name())-4:] == ".tmp" {
			t.Fatalf("temp file left behind: %s", info.Name())
		}
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	e, _ := newTestExporter(t, 2)

	var last string
	for i := 0; i < 4; i++ {
		path, err := e.Export()
		if err != nil {
			t.Fatalf("export %d failed: %v", i, err)
		}
		last = path
	}

	paths, err := e.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("kept %d snapshots, want 2: %v", len(paths), paths)
	}
	if paths[len(paths)-1] != last {
		t.Fatalf("newest snapshot missing: %v", paths)
	}
}

func TestReadSnapshotRejectsGarbage(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/backups/daygrid-bad.json", []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(fs, "/backups/daygrid-bad.json"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ReadSnapshot(fs, "/backups/missing.json"); err == nil {
		t.Fatal("expected read error")
	}
}
