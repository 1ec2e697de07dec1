package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"tickarena.ai/internal/game"
	"tickarena.ai/internal/persistence/archive"
	"tickarena.ai/internal/persistence/indexdb"
	"tickarena.ai/internal/persistence/replay"
	"tickarena.ai/internal/persistence/snapshot"
	"tickarena.ai/internal/processor"
	"tickarena.ai/internal/protocol"
	"tickarena.ai/internal/scheduler"
	"tickarena.ai/internal/sim/coins"
)

const gameName = "coins"

type recorder = processor.ReplayRecorder[*coins.State, coins.Delta, coins.Event]

func run(ctx context.Context, logger *log.Logger, s settings) error {
	if s.MetricsAddr != "" {
		serveMetrics(ctx, s.MetricsAddr, logger.WithPrefix("metrics"))
	}
	if s.List > 0 {
		return listRuns(ctx, s, logger)
	}
	if s.Options == "" {
		return errors.New("missing -options")
	}
	opts, err := game.LoadOptions[coins.Options](s.Options)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}

	idx, err := openRunIndex(s, logger)
	if err != nil {
		return fmt.Errorf("open run index: %w", err)
	}
	if idx != nil {
		defer idx.Close()
	}

	runID := archive.NewRunID()
	runDir := archive.RunDir(s.Data, runID)
	logger = logger.With("run", runID)

	mode := "live"
	var proc *coins.Processor
	if s.Repeat != "" {
		mode = "repeat"
		r, err := replay.Open(s.Repeat)
		if err != nil {
			return fmt.Errorf("open replay: %w", err)
		}
		defer r.Close()
		proc, err = processor.RepeatFull[*coins.State, coins.Delta, coins.Action, coins.Event, coins.View](ctx, r, opts, logger)
		if err != nil {
			return err
		}
	} else {
		proc, err = processor.NewFull[*coins.State, coins.Delta, coins.Action, coins.Event, coins.View](ctx, opts, coins.Init, game.CryptoSeeds{}, logger)
		if err != nil {
			return err
		}
	}
	defer proc.Close()

	replayPath := s.ReplayOut
	if replayPath == "" && mode == "live" {
		replayPath = filepath.Join(runDir, "replay.jsonl.zst")
	}
	var (
		w   *replay.Writer
		rec *recorder
	)
	if replayPath != "" {
		w, err = replay.Create(replayPath)
		if err != nil {
			return fmt.Errorf("create replay: %w", err)
		}
		defer w.Close()
		rec = processor.NewReplayRecorder[*coins.State, coins.Delta, coins.Event](w, protocol.ReplayHeader{Game: gameName, Seed: proc.Seed()})
	}

	if idx != nil {
		slots := make([]string, len(opts.Players))
		for i, p := range opts.Players {
			slots[i] = p.String()
		}
		idx.BeginRun(indexdb.Run{
			ID:         runID,
			Game:       gameName,
			Mode:       mode,
			Seed:       proc.Seed(),
			Players:    slots,
			ReplayPath: replayPath,
		})
	}

	var results game.FullResults
	finished := make(chan struct{})
	proc.SetResultsHandler(func(r game.FullResults) {
		results = r
		close(finished)
	})
	proc.SetTickHandler(func(tick int, events []coins.Event, g *coins.State) {
		if rec != nil {
			rec.Handle(tick, events, g)
		}
		if idx != nil && tick > 0 {
			idx.WriteTick(runID, tick, len(events), proc.Alive())
		}
	})

	logger.Info("run started", "mode", mode, "players", proc.PlayerCount(), "background", s.Background)
	if s.Background {
		err = runBackground(ctx, proc, finished, s.TPS, logger)
	} else {
		err = proc.Run(ctx)
	}
	if err != nil {
		return err
	}
	select {
	case <-finished:
	default:
		return errors.New("run stopped before the game finished")
	}

	if w != nil {
		if err := rec.Err(); err != nil {
			logger.Error("replay incomplete", "err", err)
		}
		if err := w.Close(); err != nil {
			logger.Error("close replay", "err", err)
		}
	}
	snapPath := filepath.Join(runDir, "final.snap.zst")
	if err := snapshot.Write(snapPath, snapshot.Header{Game: gameName, Tick: proc.Ticks()}, proc.Game()); err != nil {
		logger.Error("write final snapshot", "err", err)
	}
	if idx != nil {
		idx.RecordResults(runID, proc.Ticks(), results)
	}
	dir, err := archive.ArchiveRun(s.Data, archive.RunMeta{
		RunID:   runID,
		Game:    gameName,
		Mode:    mode,
		Seed:    proc.Seed(),
		Ticks:   proc.Ticks(),
		Results: &results,
	}, replayPath)
	if err != nil {
		logger.Error("archive run", "err", err)
	} else {
		logger.Info("run archived", "dir", dir, "ticks", proc.Ticks())
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// runBackground hands the processor to the scheduler and grants one tick per
// 1/tps seconds. The main goroutine follows the run through a History.
func runBackground(ctx context.Context, proc *coins.Processor, finished <-chan struct{}, tps float64, logger *log.Logger) error {
	if tps <= 0 {
		tps = 10
	}
	h := coins.NewHistory(proc.Game())
	dbg := &processor.DebugInterface{Command: h.DebugHandler()}
	bg := scheduler.New[*coins.State, coins.Delta, coins.Action, coins.Event, coins.View](proc, h.TickHandler(), dbg, logger)

	pace := rate.NewLimiter(rate.Limit(tps), 1)
	for {
		if err := pace.Wait(ctx); err != nil {
			_ = bg.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		select {
		case <-bg.Done():
			return bg.Close()
		case <-finished:
			return bg.Close()
		default:
		}
		h.GoTo(h.Len()-1, false)
		cur := h.Current()
		bg.SetDebugState(cur.Game)
		bg.Proceed(1)
		logger.Debug("tick", "tick", cur.Tick, "scores", cur.Game.Scores, "events", len(cur.Events))
	}
}
