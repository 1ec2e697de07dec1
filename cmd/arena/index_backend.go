package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"tickarena.ai/internal/persistence/indexdb"
)

func openRunIndex(s settings, logger *log.Logger) (*indexdb.SQLiteIndex, error) {
	if s.DisableDB {
		return nil, nil
	}
	switch backend := strings.ToLower(strings.TrimSpace(s.IndexBackend)); backend {
	case "none", "off", "disabled":
		return nil, nil
	case "", "sqlite":
		path := filepath.Join(s.Data, "index", "runs.sqlite")
		idx, err := indexdb.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("run index open", "path", path)
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", backend)
	}
}

func listRuns(ctx context.Context, s settings, logger *log.Logger) error {
	idx, err := openRunIndex(s, logger)
	if err != nil {
		return err
	}
	if idx == nil {
		return fmt.Errorf("run index is disabled")
	}
	defer idx.Close()

	runs, err := idx.ListRuns(ctx, s.List)
	if err != nil {
		return err
	}
	for _, r := range runs {
		started := r.StartedAt
		if t, err := time.Parse(time.RFC3339Nano, r.StartedAt); err == nil {
			started = humanize.Time(t)
		}
		status := "running"
		if r.Finished {
			status = "finished"
		}
		fmt.Printf("%s  %-6s %-8s seed=%-20s players=%d crashed=%d ticks=%d %s (%s)\n",
			r.ID, r.Mode, status, r.Seed, r.Players, r.Crashed, r.Ticks, r.ReplayPath, started)
	}
	return nil
}
