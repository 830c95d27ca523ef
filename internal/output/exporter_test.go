package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"coupler-sim/internal/model"
)

func sampleSnaps() []model.ModuleState {
	num := 12.5
	yes := true
	return []model.ModuleState{
		{
			ModuleID:     "m0",
			ModelNumber:  "750-455",
			SlotPosition: 0,
			LastUpdateMs: 1000,
			Channels: []model.ChannelState{
				{Index: 0, Number: &num, Raw: 4000, Status: 0, SourceTag: model.SourceManual, Manual: true},
				{Index: 1, Bool: &yes, Raw: 1, Status: 0, SourceTag: model.SourceForce, Forced: true, ScenarioBehavior: "b1"},
			},
		},
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := WriteJSON(path, sampleSnaps()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	var got []model.ModuleState
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal written JSON: %v", err)
	}
	if len(got) != 1 || len(got[0].Channels) != 2 {
		t.Fatalf("unexpected round-tripped snapshot: %+v", got)
	}
	if got[0].Channels[0].Number == nil || *got[0].Channels[0].Number != 12.5 {
		t.Fatalf("expected channel 0 number to round-trip as 12.5, got %+v", got[0].Channels[0])
	}
}

func TestWriteCSVProducesExpectedHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.csv")
	if err := WriteCSV(path, sampleSnaps()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open written file: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read CSV: %v", err)
	}
	if len(records) != 3 { // header + 2 channel rows
		t.Fatalf("expected 3 CSV rows (header + 2 channels), got %d", len(records))
	}
	if records[0][0] != "module_id" || records[0][len(records[0])-1] != "last_update_ms" {
		t.Fatalf("unexpected CSV header: %v", records[0])
	}
	if records[1][0] != "m0" || records[1][3] != "0" || records[1][5] != "12.5" {
		t.Fatalf("unexpected first data row: %v", records[1])
	}
	if records[2][8] != string(model.SourceForce) || records[2][9] != "true" {
		t.Fatalf("unexpected second data row (force channel): %v", records[2])
	}
}

func TestWriteCSVEmptySnapshotStillWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := WriteCSV(path, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(mustOpen(t, path)).ReadAll()
	if err != nil {
		t.Fatalf("read CSV: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header-only CSV for an empty snapshot, got %d rows", len(records))
	}
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}
