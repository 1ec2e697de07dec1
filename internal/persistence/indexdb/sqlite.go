// Package indexdb keeps a queryable SQLite index of runs: who played, how
// each run ended and per-tick counters. Replay logs remain the source of
// truth; the index may drop tick rows when it falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"tickarena.ai/internal/game"
)

type SQLiteIndex struct {
	db *sqlx.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropTick atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqTick
	reqResults
)

type req struct {
	kind reqKind

	run     Run
	tick    tickRow
	results resultsRow
}

// Run describes a run when it starts.
type Run struct {
	ID         string
	Game       string
	Mode       string
	Seed       *uint64
	Players    []string
	ReplayPath string
	StartedAt  time.Time
}

type tickRow struct {
	RunID  string
	Tick   int
	Events int
	Alive  int
}

type resultsRow struct {
	RunID      string
	Ticks      int
	Results    game.FullResults
	FinishedAt time.Time
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTickTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			mode TEXT NOT NULL,
			seed TEXT,
			players INTEGER NOT NULL,
			replay_path TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			ticks INTEGER,
			results_json TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS run_players (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			idx INTEGER NOT NULL,
			slot TEXT NOT NULL,
			crashed INTEGER,
			comment TEXT,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			tick INTEGER NOT NULL,
			events INTEGER NOT NULL,
			alive INTEGER NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTick.Load(),
	}
}

// BeginRun records a new run. Unlike tick rows it is never dropped.
func (s *SQLiteIndex) BeginRun(r Run) {
	if s == nil || s.closed.Load() {
		return
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	s.ch <- req{kind: reqRun, run: r}
}

func (s *SQLiteIndex) WriteTick(runID string, tick, events, alive int) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqTick, tick: tickRow{RunID: runID, Tick: tick, Events: events, Alive: alive}}:
	default:
		s.dropTick.Add(1)
	}
}

func (s *SQLiteIndex) RecordResults(runID string, ticks int, res game.FullResults) {
	if s == nil || s.closed.Load() {
		return
	}
	s.ch <- req{kind: reqResults, results: resultsRow{RunID: runID, Ticks: ticks, Results: res, FinishedAt: time.Now()}}
}

// RunSummary is one row of ListRuns.
type RunSummary struct {
	ID         string `db:"run_id"`
	Game       string `db:"game"`
	Mode       string `db:"mode"`
	Seed       string `db:"seed"`
	Players    int    `db:"players"`
	Crashed    int    `db:"crashed"`
	Ticks      int    `db:"ticks"`
	ReplayPath string `db:"replay_path"`
	StartedAt  string `db:"started_at"`
	Finished   bool   `db:"finished"`
}

// ListRuns returns the most recent runs first.
func (s *SQLiteIndex) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	var out []RunSummary
	err := s.db.SelectContext(ctx, &out, `
		SELECT r.run_id, r.game, r.mode, COALESCE(r.seed,'') AS seed, r.players,
			COALESCE((SELECT SUM(p.crashed) FROM run_players p WHERE p.run_id=r.run_id),0) AS crashed,
			COALESCE(r.ticks,0) AS ticks, r.replay_path, r.started_at, r.finished_at IS NOT NULL AS finished
		FROM runs r ORDER BY r.started_at DESC LIMIT ?`, limit)
	return out, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,game,mode,seed,players,replay_path,started_at) VALUES(?,?,?,?,?,?,?)`)
	insertPlayer, _ := s.db.Prepare(`INSERT OR REPLACE INTO run_players(run_id,idx,slot) VALUES(?,?,?)`)
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(run_id,tick,events,alive) VALUES(?,?,?,?)`)
	finishRun, _ := s.db.Prepare(`UPDATE runs SET finished_at=?, ticks=?, results_json=? WHERE run_id=?`)
	finishPlayer, _ := s.db.Prepare(`UPDATE run_players SET crashed=?, comment=? WHERE run_id=? AND idx=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRun, insertPlayer, insertTick, finishRun, finishPlayer} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil || tx == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			run := r.run
			var seed any
			if run.Seed != nil {
				seed = fmt.Sprint(*run.Seed)
			}
			if !exec(insertRun, run.ID, run.Game, run.Mode, seed, len(run.Players), run.ReplayPath, run.StartedAt.UTC().Format(time.RFC3339Nano)) {
				continue
			}
			for i, slot := range run.Players {
				if !exec(insertPlayer, run.ID, i, slot) {
					break
				}
			}
			// Run rows are committed right away.
			commit()

		case reqTick:
			t := r.tick
			exec(insertTick, t.RunID, t.Tick, t.Events, t.Alive)

		case reqResults:
			res := r.results
			b, _ := json.Marshal(res.Results)
			if !exec(finishRun, res.FinishedAt.UTC().Format(time.RFC3339Nano), res.Ticks, string(b), res.RunID) {
				continue
			}
			for i, p := range res.Results.Players {
				if !exec(finishPlayer, boolInt(p.Crashed), p.Comment, res.RunID, i) {
					break
				}
			}
			commit()
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
