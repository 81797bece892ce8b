package snapshot

import (
	"errors"
	"os"
	"testing"
	"time"

	"hearthlog.gg/internal/entities"
	"hearthlog.gg/internal/enums"
)

func testState(t *testing.T) (entities.GameState, string) {
	t.Helper()
	g := entities.NewGame(1)
	g.Register(g)
	p := entities.NewPlayer(2, 1, 144115193835963207, 127487329)
	p.SetName("Malto")
	g.Register(p)
	c := entities.NewCard(4, "HERO_08")
	c.TagChange(enums.TagController, 1)
	g.Register(c)
	return g.State(), g.Digest()
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	state, digest := testState(t)
	snap := GameStateV1{
		Header:         Header{Version: 1, GameID: "game-1", SavedAt: time.Now().UTC()},
		Build:          25770,
		GameType:       "GT_RANKED",
		PacketCount:    42,
		FriendlyPlayer: 1,
		Names:          map[int]string{1: "Malto", 2: "Ragnaros"},
		Digest:         digest,
		State:          state,
	}
	path := PathFor(dir, "game-1")
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.Header.GameID != "game-1" || got.Header.Version != 1 {
		t.Fatalf("header wrong: %+v", got.Header)
	}
	if got.Build != 25770 || got.PacketCount != 42 || got.FriendlyPlayer != 1 {
		t.Fatalf("metadata wrong: %+v", got)
	}
	if got.Digest != digest {
		t.Fatalf("digest mismatch: got %s want %s", got.Digest, digest)
	}
	if len(got.State.Entities) != len(state.Entities) {
		t.Fatalf("graph lost entities: got %d want %d", len(got.State.Entities), len(state.Entities))
	}
	if got.Names[2] != "Ragnaros" {
		t.Fatalf("names lost: %v", got.Names)
	}
}

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	state, digest := testState(t)
	for i, id := range []string{"game-1", "game-2"} {
		snap := GameStateV1{
			Header: Header{Version: 1, GameID: id, SavedAt: time.Now().UTC()},
			Digest: digest,
			State:  state,
		}
		path := PathFor(dir, id)
		if err := WriteSnapshot(path, snap); err != nil {
			t.Fatalf("WriteSnapshot: %v", err)
		}
		// Filesystem mtimes can collide inside one test; spread them.
		mod := time.Now().Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}

	got, err := LatestSnapshot(dir)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if got.Header.GameID != "game-2" {
		t.Fatalf("latest = %s, want game-2", got.Header.GameID)
	}
}

func TestLatestSnapshotEmptyDir(t *testing.T) {
	_, err := LatestSnapshot(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v, want not-exist", err)
	}
}
