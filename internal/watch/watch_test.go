package watch

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hearthlog.gg/internal/config"
	"hearthlog.gg/internal/persistence/archive"
	"hearthlog.gg/internal/persistence/indexdb"
	"hearthlog.gg/internal/persistence/snapshot"
	"hearthlog.gg/internal/protocol"
	"hearthlog.gg/internal/transport/ws"
)

// One short ranked game. The bare TAG_CHANGE line is deliberately malformed;
// the pipeline must report it and keep going.
const pipelineLog = `D 10:00:00.0000000 GameState.DebugPrintPower() - CREATE_GAME
D 10:00:00.0000000 GameState.DebugPrintPower() -     GameEntity EntityID=1
D 10:00:00.0000000 GameState.DebugPrintPower() -         tag=TURN value=1
D 10:00:00.0000000 GameState.DebugPrintPower() -     Player EntityID=2 PlayerID=1 GameAccountId=[hi=144115193835963207 lo=127487329]
D 10:00:00.0000000 GameState.DebugPrintPower() -     Player EntityID=3 PlayerID=2 GameAccountId=[hi=144115193835963207 lo=50471234]
D 10:00:00.1000000 GameState.DebugPrintPower() - FULL_ENTITY - Creating ID=4 CardID=HERO_08
D 10:00:00.1000000 GameState.DebugPrintPower() -     tag=ZONE value=PLAY
D 10:00:00.1000000 GameState.DebugPrintPower() -     tag=CONTROLLER value=1
D 10:00:00.2000000 GameState.DebugPrintGame() - BuildNumber=25770
D 10:00:00.2000000 GameState.DebugPrintGame() - GameType=GT_RANKED
D 10:00:00.2000000 GameState.DebugPrintGame() - FormatType=FT_STANDARD
D 10:00:00.2000000 GameState.DebugPrintGame() - ScenarioID=2
D 10:00:00.2000000 GameState.DebugPrintGame() - PlayerID=1, PlayerName=Malto
D 10:00:00.2000000 GameState.DebugPrintGame() - PlayerID=2, PlayerName=Ragnaros
D 10:00:00.3000000 GameState.DebugPrintPower() - FULL_ENTITY - Creating ID=5 CardID=
D 10:00:00.3000000 GameState.DebugPrintPower() -     tag=ZONE value=DECK
D 10:00:00.3000000 GameState.DebugPrintPower() -     tag=CONTROLLER value=2
D 10:00:00.4000000 GameState.DebugPrintPower() - TAG_CHANGE Entity=oops
D 10:00:00.5000000 GameState.DebugPrintPower() - BLOCK_START BlockType=TRIGGER Entity=GameEntity EffectCardId= EffectIndex=-1 Target=0
D 10:00:00.5000000 GameState.DebugPrintPower() -     SHOW_ENTITY - Updating Entity=5 CardID=CS2_023
D 10:00:00.5000000 GameState.DebugPrintPower() -         tag=COST value=3
D 10:00:00.5000000 GameState.DebugPrintPower() -         tag=ZONE value=HAND
D 10:00:00.5000000 GameState.DebugPrintPower() -         tag=CONTROLLER value=1
D 10:00:00.6000000 GameState.DebugPrintPower() - BLOCK_END
D 10:00:00.7000000 GameState.DebugPrintPower() - TAG_CHANGE Entity=GameEntity tag=STATE value=COMPLETE
`

func testConfig(t *testing.T) config.Watch {
	t.Helper()
	dir := t.TempDir()
	return config.Watch{
		LogPath:  filepath.Join(dir, "Power.log"),
		DataDir:  dir,
		Archive:  config.ArchiveSpec{Enabled: true, Dir: filepath.Join(dir, "archive")},
		Snapshot: config.SnapshotSpec{Enabled: true, Dir: filepath.Join(dir, "snapshots")},
		Index:    config.IndexSpec{Enabled: true, Path: filepath.Join(dir, "index", "games.db")},
	}
}

func TestWatcherPipeline(t *testing.T) {
	cfg := testConfig(t)
	logger := log.New(io.Discard, "", 0)
	feed := ws.NewFeed(logger, 4)

	index, err := indexdb.OpenSQLite(cfg.Index.Path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	w := New(cfg, feed, index, nil, logger)
	if err := w.RunReader(strings.NewReader(pipelineLog)); err != nil {
		t.Fatalf("RunReader: %v", err)
	}
	if err := index.Close(); err != nil {
		t.Fatalf("index close: %v", err)
	}
	if got := feed.LiveGame(); got != "" {
		t.Fatalf("live game %q still set after the game ended", got)
	}

	// The watcher names outputs by its generated game id; the archive
	// listing is how we learn it.
	entries, err := os.ReadDir(cfg.Archive.Dir)
	if err != nil {
		t.Fatalf("read archive dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d archives, want 1", len(entries))
	}
	gameID := strings.TrimSuffix(entries[0].Name(), ".jsonl.zst")
	if gameID == entries[0].Name() {
		t.Fatalf("unexpected archive name %q", entries[0].Name())
	}

	msgs, err := archive.ReadAll(filepath.Join(cfg.Archive.Dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	wantKinds := []string{
		"CREATE_GAME", "FULL_ENTITY", "FULL_ENTITY",
		"BLOCK_START", "SHOW_ENTITY", protocol.KindBlockEnd, "TAG_CHANGE",
	}
	if len(msgs) != len(wantKinds) {
		t.Fatalf("archived %d frames, want %d", len(msgs), len(wantKinds))
	}
	for i, msg := range msgs {
		if msg.Packet.Kind != wantKinds[i] {
			t.Fatalf("frame %d kind = %q, want %q", i, msg.Packet.Kind, wantKinds[i])
		}
		if msg.Seq != uint64(i) {
			t.Fatalf("frame %d seq = %d", i, msg.Seq)
		}
		if msg.GameID != gameID {
			t.Fatalf("frame %d game id = %q, want %q", i, msg.GameID, gameID)
		}
	}
	players := msgs[0].Packet.Players
	if len(players) != 2 || players[0].AccountHi != 144115193835963207 {
		t.Fatalf("archived CREATE_GAME players: %+v", players)
	}
	if msgs[5].Packet.BlockType != "TRIGGER" {
		t.Fatalf("block end frame: %+v", msgs[5].Packet)
	}

	snap, err := snapshot.LatestSnapshot(cfg.Snapshot.Dir)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if snap.Header.GameID != gameID {
		t.Fatalf("snapshot game id = %q, want %q", snap.Header.GameID, gameID)
	}
	if snap.Build != 25770 || snap.GameType != "GT_RANKED" || snap.ScenarioID != 2 {
		t.Fatalf("snapshot metadata: %+v", snap)
	}
	if snap.PacketCount != 6 {
		t.Fatalf("snapshot packet count = %d, want 6", snap.PacketCount)
	}
	if snap.FriendlyPlayer != 1 {
		t.Fatalf("snapshot friendly player = %d, want 1", snap.FriendlyPlayer)
	}
	if snap.Names[1] != "Malto" || snap.Names[2] != "Ragnaros" {
		t.Fatalf("snapshot names: %v", snap.Names)
	}
	if snap.Digest == "" {
		t.Fatalf("snapshot missing digest")
	}
	if !snap.EndedAt.After(snap.StartedAt) {
		t.Fatalf("snapshot times: start %v end %v", snap.StartedAt, snap.EndedAt)
	}
	if snap.State.GameEntity != 1 || len(snap.State.Entities) != 5 {
		t.Fatalf("snapshot state: entity %d, %d entities",
			snap.State.GameEntity, len(snap.State.Entities))
	}

	reopened, err := indexdb.OpenSQLite(cfg.Index.Path)
	if err != nil {
		t.Fatalf("reopen index: %v", err)
	}
	defer reopened.Close()
	row, ok, err := reopened.GameByID(context.Background(), gameID)
	if err != nil {
		t.Fatalf("GameByID: %v", err)
	}
	if !ok {
		t.Fatalf("game %s missing from index", gameID)
	}
	if !row.Completed {
		t.Fatalf("index row not marked completed: %+v", row)
	}
	if row.Player1 != "Malto" || row.Player2 != "Ragnaros" {
		t.Fatalf("index players: %+v", row)
	}
	if row.FriendlyPlayer != 1 || row.PacketCount != 6 {
		t.Fatalf("index row: %+v", row)
	}
	if row.Digest != snap.Digest {
		t.Fatalf("index digest %q != snapshot digest %q", row.Digest, snap.Digest)
	}
	if row.Source != cfg.LogPath {
		t.Fatalf("index source = %q, want %q", row.Source, cfg.LogPath)
	}
}

// A reference to an entity nobody created poisons the export but not the
// stream: the game is indexed as incomplete and the next game is unaffected.
func TestWatcherSurvivesExportFailure(t *testing.T) {
	poisoned := `D 11:00:00.0000000 GameState.DebugPrintPower() - CREATE_GAME
D 11:00:00.0000000 GameState.DebugPrintPower() -     GameEntity EntityID=1
D 11:00:00.0000000 GameState.DebugPrintPower() -     Player EntityID=2 PlayerID=1 GameAccountId=[hi=1 lo=2]
D 11:00:00.0000000 GameState.DebugPrintPower() -     Player EntityID=3 PlayerID=2 GameAccountId=[hi=1 lo=3]
D 11:00:00.1000000 GameState.DebugPrintPower() - TAG_CHANGE Entity=99 tag=DAMAGE value=1
` + pipelineLog

	cfg := testConfig(t)
	cfg.Snapshot.Enabled = false
	index, err := indexdb.OpenSQLite(cfg.Index.Path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	w := New(cfg, nil, index, nil, nil)
	if err := w.RunReader(strings.NewReader(poisoned)); err != nil {
		t.Fatalf("RunReader: %v", err)
	}
	if err := index.Close(); err != nil {
		t.Fatalf("index close: %v", err)
	}

	reopened, err := indexdb.OpenSQLite(cfg.Index.Path)
	if err != nil {
		t.Fatalf("reopen index: %v", err)
	}
	defer reopened.Close()
	rows, err := reopened.RecentGames(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("indexed %d games, want 2", len(rows))
	}

	var sound, broken int
	for _, row := range rows {
		if row.Completed {
			sound++
			if row.Digest == "" || row.Player1 != "Malto" {
				t.Fatalf("sound game row: %+v", row)
			}
		} else {
			broken++
			if row.Digest != "" {
				t.Fatalf("poisoned game carries a digest: %+v", row)
			}
			if row.PacketCount != 2 {
				t.Fatalf("poisoned game packet count = %d, want 2", row.PacketCount)
			}
		}
	}
	if sound != 1 || broken != 1 {
		t.Fatalf("got %d sound and %d broken games", sound, broken)
	}
}
