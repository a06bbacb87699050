package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Checkpoint is the on-disk resume state: progress counters plus the
// config that produced them, so a resumed run can detect drift.
type Checkpoint struct {
	Progress  Snapshot `json:"progress"`
	Config    Config   `json:"config"`
	Timestamp string   `json:"timestamp"`
}

// SaveCheckpoint writes the checkpoint atomically (temp file + rename).
func SaveCheckpoint(path string, progress Snapshot, cfg Config) error {
	cp := Checkpoint{
		Progress:  progress,
		Config:    cfg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("migrate: encode checkpoint: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("migrate: write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("migrate: commit checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint. A missing file is not an error; the
// bool reports whether one was found.
func LoadCheckpoint(path string) (Checkpoint, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("migrate: read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("migrate: parse checkpoint: %w", err)
	}
	return cp, true, nil
}

// DeleteCheckpoint removes the checkpoint file if present.
func DeleteCheckpoint(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("migrate: delete checkpoint: %w", err)
	}
	return nil
}
