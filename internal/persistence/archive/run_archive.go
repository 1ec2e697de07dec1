// Package archive lays out a finished run on disk as runs/<run_id>/ with a
// meta.json next to a copy of the replay log.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tickarena.ai/internal/game"
)

type RunMeta struct {
	RunID     string            `json:"run_id"`
	Game      string            `json:"game"`
	Mode      string            `json:"mode"`
	Seed      *uint64           `json:"seed,omitempty"`
	Ticks     int               `json:"ticks"`
	Replay    string            `json:"replay,omitempty"`
	Results   *game.FullResults `json:"results,omitempty"`
	CreatedAt string            `json:"created_at"`
}

func NewRunID() string { return uuid.NewString() }

// RunDir is where a run's files live under dataDir.
func RunDir(dataDir, runID string) string {
	return filepath.Join(dataDir, "runs", runID)
}

// ArchiveRun writes meta.json for the run and copies replayPath, if set, into
// the run directory. It returns the directory.
func ArchiveRun(dataDir string, meta RunMeta, replayPath string) (string, error) {
	if meta.RunID == "" {
		return "", fmt.Errorf("archive: empty run id")
	}
	dir := RunDir(dataDir, meta.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if replayPath != "" {
		dst := filepath.Join(dir, filepath.Base(replayPath))
		if abs(dst) != abs(replayPath) {
			if err := copyFile(replayPath, dst); err != nil {
				return "", err
			}
		}
		meta.Replay = filepath.Base(dst)
	}
	if meta.CreatedAt == "" {
		meta.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// ReadRunMeta loads the meta.json of a run.
func ReadRunMeta(dataDir, runID string) (RunMeta, error) {
	var m RunMeta
	b, err := os.ReadFile(filepath.Join(RunDir(dataDir, runID), "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func abs(p string) string {
	a, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return a
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
