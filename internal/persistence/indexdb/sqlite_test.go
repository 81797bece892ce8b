package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func TestSQLiteIndex_InsertAndComplete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	started := time.Date(2025, 3, 14, 20, 1, 2, 0, time.UTC)
	ended := started.Add(9 * time.Minute)

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	idx.InsertGame(GameRow{ID: "g-1", Source: "Power.log", StartedAt: started})
	idx.CompleteGame(CompletedRow{
		GameRow:        GameRow{ID: "g-1", Source: "Power.log", StartedAt: started},
		EndedAt:        ended,
		FriendlyPlayer: 2,
		Player1:        "Malto",
		Player2:        "Ragnaros",
		PacketCount:    412,
		Digest:         "abc123",
		Completed:      true,
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		source    string
		startedAt string
		endedAt   string
		friendly  int
		p1, p2    string
		packets   int
		digest    string
		completed bool
	)
	row := db.QueryRow(`SELECT source,started_at,ended_at,friendly_player,player1,player2,packet_count,digest,completed FROM games WHERE id='g-1'`)
	if err := row.Scan(&source, &startedAt, &endedAt, &friendly, &p1, &p2, &packets, &digest, &completed); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if source != "Power.log" || friendly != 2 || p1 != "Malto" || p2 != "Ragnaros" || packets != 412 || digest != "abc123" || !completed {
		t.Fatalf("row mismatch: source=%q friendly=%d p1=%q p2=%q packets=%d digest=%q completed=%v",
			source, friendly, p1, p2, packets, digest, completed)
	}
	if startedAt != started.Format(time.RFC3339Nano) || endedAt != ended.Format(time.RFC3339Nano) {
		t.Fatalf("time mismatch: started=%q ended=%q", startedAt, endedAt)
	}
}

func TestSQLiteIndex_ReadSide(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	base := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	for i, id := range []string{"g-old", "g-mid", "g-new"} {
		idx.InsertGame(GameRow{ID: id, Source: "Power.log", StartedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	idx.CompleteGame(CompletedRow{
		GameRow:   GameRow{ID: "g-mid", Source: "Power.log", StartedAt: base.Add(time.Hour)},
		EndedAt:   base.Add(90 * time.Minute),
		Player1:   "Malto",
		Player2:   "Ragnaros",
		Completed: true,
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reads go through a fresh handle; the writer committed on Close.
	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()

	recent, err := idx.RecentGames(ctx, 2)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "g-new" || recent[1].ID != "g-mid" {
		t.Fatalf("recent order wrong: %+v", recent)
	}
	if !recent[1].Completed || recent[1].Player1 != "Malto" {
		t.Fatalf("completed row not folded in: %+v", recent[1])
	}

	g, ok, err := idx.GameByID(ctx, "g-old")
	if err != nil || !ok {
		t.Fatalf("GameByID(g-old): ok=%v err=%v", ok, err)
	}
	if g.Completed || g.EndedAt != "" {
		t.Fatalf("g-old should be incomplete: %+v", g)
	}

	if _, ok, err := idx.GameByID(ctx, "nope"); err != nil || ok {
		t.Fatalf("GameByID(nope): ok=%v err=%v", ok, err)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqInsert, insert: GameRow{ID: "seed"}}

	s.InsertGame(GameRow{ID: "g-2"})
	s.CompleteGame(CompletedRow{GameRow: GameRow{ID: "g-2"}})

	st := s.Stats()
	if st.DropInsertTotal != 1 {
		t.Fatalf("DropInsertTotal=%d want=1", st.DropInsertTotal)
	}
	if st.DropCompleteTotal != 1 {
		t.Fatalf("DropCompleteTotal=%d want=1", st.DropCompleteTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}
