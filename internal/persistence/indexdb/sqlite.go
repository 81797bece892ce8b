// Package indexdb keeps a queryable sqlite index of every game the watcher
// has seen. Writes go through a single writer goroutine so the log pipeline
// never blocks on disk; the JSONL archives remain the source of truth.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed       atomic.Bool
	dropInsert   atomic.Uint64
	dropComplete atomic.Uint64
}

// IndexStats reports writer-queue pressure for /healthz style endpoints.
type IndexStats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropInsertTotal   uint64 `json:"drop_insert_total"`
	DropCompleteTotal uint64 `json:"drop_complete_total"`
}

type reqKind int

const (
	reqInsert reqKind = iota + 1
	reqComplete
)

type req struct {
	kind     reqKind
	insert   GameRow
	complete CompletedRow
}

// GameRow is the record made when a game starts.
type GameRow struct {
	ID        string
	Source    string
	StartedAt time.Time
}

// CompletedRow replaces the start record once the game ends or poisons.
type CompletedRow struct {
	GameRow
	EndedAt        time.Time
	FriendlyPlayer int
	Player1        string
	Player2        string
	PacketCount    int
	Digest         string
	// Completed is false when the game aborted (export failure, truncated
	// log); the row stays so the gap is visible.
	Completed bool
}

// GameSummary is the read-side shape of one games row.
type GameSummary struct {
	ID             string `json:"id"`
	Source         string `json:"source,omitempty"`
	StartedAt      string `json:"started_at,omitempty"`
	EndedAt        string `json:"ended_at,omitempty"`
	FriendlyPlayer int    `json:"friendly_player,omitempty"`
	Player1        string `json:"player1,omitempty"`
	Player2        string `json:"player2,omitempty"`
	PacketCount    int    `json:"packet_count"`
	Digest         string `json:"digest,omitempty"`
	Completed      bool   `json:"completed"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Games finish minutes apart, but a directory backfill can burst.
		ch: make(chan req, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
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
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL DEFAULT '',
			ended_at TEXT NOT NULL DEFAULT '',
			friendly_player INTEGER NOT NULL DEFAULT 0,
			player1 TEXT NOT NULL DEFAULT '',
			player2 TEXT NOT NULL DEFAULT '',
			packet_count INTEGER NOT NULL DEFAULT 0,
			digest TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_started_at ON games(started_at);`,
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

// InsertGame records a game the moment it starts. Non-blocking; drops when
// the writer is saturated.
func (s *SQLiteIndex) InsertGame(row GameRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqInsert, insert: row}:
	default:
		s.dropInsert.Add(1)
	}
}

// CompleteGame replaces the row with the end-of-game summary.
func (s *SQLiteIndex) CompleteGame(row CompletedRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqComplete, complete: row}:
	default:
		s.dropComplete.Add(1)
	}
}

func (s *SQLiteIndex) Stats() IndexStats {
	return IndexStats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropInsertTotal:   s.dropInsert.Load(),
		DropCompleteTotal: s.dropComplete.Load(),
	}
}

// RecentGames lists the newest games first.
func (s *SQLiteIndex) RecentGames(ctx context.Context, limit int) ([]GameSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,source,started_at,ended_at,friendly_player,player1,player2,packet_count,digest,completed
		 FROM games ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var g GameSummary
		if err := rows.Scan(&g.ID, &g.Source, &g.StartedAt, &g.EndedAt, &g.FriendlyPlayer,
			&g.Player1, &g.Player2, &g.PacketCount, &g.Digest, &g.Completed); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GameByID fetches one row; ok is false when the id is unknown.
func (s *SQLiteIndex) GameByID(ctx context.Context, id string) (GameSummary, bool, error) {
	var g GameSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT id,source,started_at,ended_at,friendly_player,player1,player2,packet_count,digest,completed
		 FROM games WHERE id=?`, id).
		Scan(&g.ID, &g.Source, &g.StartedAt, &g.EndedAt, &g.FriendlyPlayer,
			&g.Player1, &g.Player2, &g.PacketCount, &g.Digest, &g.Completed)
	if err == sql.ErrNoRows {
		return GameSummary{}, false, nil
	}
	if err != nil {
		return GameSummary{}, false, err
	}
	return g, true, nil
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertGame, _ := s.db.Prepare(`INSERT OR REPLACE INTO games(id,source,started_at) VALUES(?,?,?)`)
	completeGame, _ := s.db.Prepare(`INSERT OR REPLACE INTO games(id,source,started_at,ended_at,friendly_player,player1,player2,packet_count,digest,completed) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertGame != nil {
			_ = insertGame.Close()
		}
		if completeGame != nil {
			_ = completeGame.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 64
		commitMaxWait = 500 * time.Millisecond
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

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqInsert:
			row := r.insert
			if insertGame != nil {
				if _, err := tx.Stmt(insertGame).Exec(row.ID, row.Source, fmtTime(row.StartedAt)); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqComplete:
			row := r.complete
			if completeGame != nil {
				if _, err := tx.Stmt(completeGame).Exec(
					row.ID,
					row.Source,
					fmtTime(row.StartedAt),
					fmtTime(row.EndedAt),
					row.FriendlyPlayer,
					row.Player1,
					row.Player2,
					row.PacketCount,
					row.Digest,
					row.Completed,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
