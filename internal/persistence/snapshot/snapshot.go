// Package snapshot stores the exported end-of-game entity graph, compressed,
// with a JSON header line in front of a gob body. The header lets tools peek
// at what a file contains without decoding the graph.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"hearthlog.gg/internal/entities"
)

const fileSuffix = ".state.zst"

type Header struct {
	Version int       `json:"version"`
	GameID  string    `json:"game_id"`
	SavedAt time.Time `json:"saved_at"`
}

// GameStateV1 is one finished game: the canonical exported graph plus the
// metadata needed to interpret it without the packet archive.
type GameStateV1 struct {
	Header Header `json:"header"`

	Build      int    `json:"build,omitempty"`
	GameType   string `json:"game_type,omitempty"`
	FormatType string `json:"format_type,omitempty"`
	ScenarioID int    `json:"scenario_id,omitempty"`

	PacketCount    int            `json:"packet_count"`
	FriendlyPlayer int            `json:"friendly_player,omitempty"`
	Names          map[int]string `json:"names,omitempty"`
	StartedAt      time.Time      `json:"started_at"`
	EndedAt        time.Time      `json:"ended_at"`

	Digest string             `json:"digest"`
	State  entities.GameState `json:"state"`
}

func PathFor(dir, gameID string) string {
	return filepath.Join(dir, gameID+fileSuffix)
}

func WriteSnapshot(path string, snap GameStateV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (GameStateV1, error) {
	var snap GameStateV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the most recently written snapshot in dir, or
// os.ErrNotExist when the directory holds none.
func LatestSnapshot(dir string) (GameStateV1, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return GameStateV1{}, err
	}
	var newest string
	var newestMod time.Time
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = e.Name()
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return GameStateV1{}, os.ErrNotExist
	}
	return ReadSnapshot(filepath.Join(dir, newest))
}
