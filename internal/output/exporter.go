// Package output snapshots rack state to JSON/CSV, following the
// teacher's WriteJSON/WriteCSV shape (internal/output/exporter.go) but
// flattening module/channel state instead of server/device/point state.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"coupler-sim/internal/model"
)

// WriteJSON writes module snapshots to a JSON file with pretty formatting.
func WriteJSON(path string, snaps []model.ModuleState) error {
	b, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteCSV flattens module snapshots and writes to a CSV file. Columns:
// module_id,model_number,slot_position,channel,raw,number,bool,status,
// source_tag,forced,manual,scenario_behavior_id,last_update_ms.
func WriteCSV(path string, snaps []model.ModuleState) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{
		"module_id", "model_number", "slot_position", "channel", "raw",
		"number", "bool", "status", "source_tag", "forced", "manual",
		"scenario_behavior_id", "last_update_ms",
	}
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, m := range snaps {
		for _, c := range m.Channels {
			var numStr, boolStr string
			if c.Number != nil {
				numStr = fmt.Sprintf("%g", *c.Number)
			}
			if c.Bool != nil {
				if *c.Bool {
					boolStr = "1"
				} else {
					boolStr = "0"
				}
			}
			rec := []string{
				m.ModuleID,
				m.ModelNumber,
				fmt.Sprintf("%d", m.SlotPosition),
				fmt.Sprintf("%d", c.Index),
				fmt.Sprintf("%d", c.Raw),
				numStr,
				boolStr,
				fmt.Sprintf("%d", c.Status),
				string(c.SourceTag),
				fmt.Sprintf("%t", c.Forced),
				fmt.Sprintf("%t", c.Manual),
				c.ScenarioBehavior,
				fmt.Sprintf("%d", m.LastUpdateMs),
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
	}
	w.Flush()
	return w.Error()
}
