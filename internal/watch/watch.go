package watch

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"hearthlog.gg/internal/config"
	"hearthlog.gg/internal/enums"
	"hearthlog.gg/internal/packets"
	"hearthlog.gg/internal/parser"
	"hearthlog.gg/internal/persistence/archive"
	"hearthlog.gg/internal/persistence/indexdb"
	"hearthlog.gg/internal/persistence/snapshot"
	"hearthlog.gg/internal/protocol"
	"hearthlog.gg/internal/transport/ws"
)

// Watcher owns one parser and fans its output to the archive, the index, the
// snapshot store and the live feed. A fatal export error poisons only the
// game it happened in; the watcher keeps following the log.
type Watcher struct {
	cfg    config.Watch
	log    *log.Logger
	feed   *ws.Feed
	index  *indexdb.SQLiteIndex
	upload *indexdb.Uploader

	parser *parser.Parser

	game *liveGame
	cur  *parser.Game

	games  int
	failed int
}

type liveGame struct {
	id          string
	seq         uint64
	arch        *archive.Writer
	startedWall time.Time
	announced   bool
}

// New wires a watcher. feed, index and upload may each be nil; the watcher
// simply skips that output.
func New(cfg config.Watch, feed *ws.Feed, index *indexdb.SQLiteIndex, upload *indexdb.Uploader, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &Watcher{
		cfg:    cfg,
		log:    logger,
		feed:   feed,
		index:  index,
		upload: upload,
	}
	w.parser = parser.New(parser.Hooks{
		GameStart: w.onGameStart,
		Packet:    w.onPacket,
		BlockEnd:  w.onBlockEnd,
		GameEnd:   w.onGameEnd,
	})
	return w
}

// Run tails the configured log until ctx is cancelled. Cancellation is a
// clean stop: the game in progress is flushed and finalized.
func (w *Watcher) Run(ctx context.Context) error {
	lines := make(chan string, 4096)
	errc := make(chan error, 1)
	go func() {
		errc <- Tail(ctx, w.cfg.LogPath, w.cfg.FromStart, lines, w.log)
	}()
	for line := range lines {
		w.feedLine(line)
	}
	w.parser.Flush()
	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunReader drives the same pipeline from a static reader, for replays.
func (w *Watcher) RunReader(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		w.feedLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	w.parser.Flush()
	return nil
}

// feedLine parses one line. Malformed lines are reported and skipped; the
// parser stays consistent across them.
func (w *Watcher) feedLine(line string) {
	err := w.parser.Line(line)
	if err == nil {
		return
	}
	w.log.Printf("parse: %v", err)
	if w.feed != nil {
		frame := protocol.ErrorMsg{
			Type:            protocol.TypeError,
			ProtocolVersion: protocol.Version,
			Code:            protocol.ErrParseRejected,
			Message:         err.Error(),
		}
		if w.game != nil {
			frame.GameID = w.game.id
		}
		w.feed.Broadcast(frame)
	}
}

func (w *Watcher) onGameStart(g *parser.Game) {
	lg := &liveGame{
		id:          uuid.NewString(),
		startedWall: time.Now(),
	}
	if w.cfg.Archive.Enabled {
		arch, err := archive.Create(w.cfg.Archive.Dir, lg.id)
		if err != nil {
			w.log.Printf("game %s: archive disabled: %v", lg.id, err)
		} else {
			lg.arch = arch
		}
	}
	if w.index != nil {
		w.index.InsertGame(indexdb.GameRow{
			ID:        lg.id,
			Source:    w.cfg.LogPath,
			StartedAt: lg.startedWall,
		})
	}
	w.game = lg
	w.cur = g
	w.log.Printf("game %s started", lg.id)
}

func (w *Watcher) onPacket(pkt packets.Packet) {
	lg := w.game
	if lg == nil {
		return
	}
	// The first announced packet of a game is its completed CreateGame; the
	// GAME_START envelope rides just ahead of it.
	if !lg.announced {
		if cg, ok := pkt.(*packets.CreateGame); ok && w.feed != nil {
			w.feed.BeginGame(lg.id, w.buildGameStart(lg.id, cg))
		}
		lg.announced = true
	}
	msg, err := protocol.EncodePacket(lg.id, lg.seq, pkt)
	if err != nil {
		w.log.Printf("game %s: %v", lg.id, err)
		return
	}
	lg.seq++
	w.emit(lg, msg)
}

func (w *Watcher) onBlockEnd(b *packets.Block) {
	lg := w.game
	if lg == nil {
		return
	}
	msg := protocol.EncodeBlockEnd(lg.id, lg.seq, b)
	lg.seq++
	w.emit(lg, msg)
}

func (w *Watcher) emit(lg *liveGame, msg protocol.PacketMsg) {
	if lg.arch != nil {
		if err := lg.arch.Write(msg); err != nil {
			w.log.Printf("game %s: archive write failed, disabling: %v", lg.id, err)
			_ = lg.arch.Close()
			lg.arch = nil
		}
	}
	if w.feed != nil {
		w.feed.Broadcast(msg)
	}
}

func (w *Watcher) buildGameStart(gameID string, cg *packets.CreateGame) protocol.GameStartMsg {
	msg := protocol.GameStartMsg{
		Type:            protocol.TypeGameStart,
		ProtocolVersion: protocol.Version,
		GameID:          gameID,
		StartedAt:       protocol.FormatTime(cg.Ts),
	}
	for _, d := range cg.Players {
		ref := protocol.PlayerRef{
			PlayerID:  d.PlayerID,
			Entity:    d.Entity,
			AccountHi: d.Hi,
			AccountLo: d.Lo,
		}
		if w.cur != nil {
			ref.Name = w.cur.Names[d.PlayerID]
		}
		msg.Players = append(msg.Players, ref)
	}
	return msg
}

// Processed reports how many games ended and how many of those failed to
// export.
func (w *Watcher) Processed() (games, failed int) {
	return w.games, w.failed
}

func (w *Watcher) onGameEnd(g *parser.Game) {
	lg := w.game
	w.game = nil
	w.cur = nil
	if lg == nil {
		return
	}
	w.games++
	if lg.arch != nil {
		if err := lg.arch.Close(); err != nil {
			w.log.Printf("game %s: archive close: %v", lg.id, err)
		}
		lg.arch = nil
	}

	endedWall := time.Now()
	packetCount := g.Tree.Len()
	started, _ := g.Tree.StartTime()
	ended, _ := g.Tree.EndTime()

	row := indexdb.CompletedRow{
		GameRow: indexdb.GameRow{
			ID:        lg.id,
			Source:    w.cfg.LogPath,
			StartedAt: lg.startedWall,
		},
		EndedAt:     endedWall,
		Player1:     g.Names[1],
		Player2:     g.Names[2],
		PacketCount: packetCount,
	}
	end := protocol.GameEndMsg{
		Type:            protocol.TypeGameEnd,
		ProtocolVersion: protocol.Version,
		GameID:          lg.id,
		PacketCount:     packetCount,
		Build:           g.Build,
		GameType:        g.GameType,
		FormatType:      g.FormatType,
		ScenarioID:      g.ScenarioID,
		Names:           g.Names,
		StartedAt:       protocol.FormatTime(started),
		EndedAt:         protocol.FormatTime(ended),
	}

	graph, err := g.Export()
	if err != nil {
		// Poisoned: this game's state cannot be trusted, but the stream
		// itself is fine and the next game parses normally.
		w.failed++
		w.log.Printf("game %s: export failed: %v", lg.id, err)
		if w.feed != nil {
			w.feed.Broadcast(protocol.ErrorMsg{
				Type:            protocol.TypeError,
				ProtocolVersion: protocol.Version,
				Code:            protocol.ErrExportFailed,
				Message:         err.Error(),
				GameID:          lg.id,
			})
		}
		w.finish(lg, row, end)
		return
	}

	row.Digest = graph.Digest()
	row.Completed = enums.State(graph.Tag(enums.TagState)) == enums.StateComplete
	legacy := w.cfg.LegacyFriendly || g.LegacyHand()
	if friendly, ok := g.Tree.GuessFriendlyPlayer(legacy); ok {
		row.FriendlyPlayer = friendly
	}
	end.Digest = row.Digest
	end.FriendlyPlayer = row.FriendlyPlayer

	if w.cfg.Snapshot.Enabled {
		snap := snapshot.GameStateV1{
			Header: snapshot.Header{
				Version: 1,
				GameID:  lg.id,
				SavedAt: endedWall,
			},
			Build:          g.Build,
			GameType:       g.GameType,
			FormatType:     g.FormatType,
			ScenarioID:     g.ScenarioID,
			PacketCount:    packetCount,
			FriendlyPlayer: row.FriendlyPlayer,
			Names:          g.Names,
			StartedAt:      started,
			EndedAt:        ended,
			Digest:         row.Digest,
			State:          graph.State(),
		}
		path := snapshot.PathFor(w.cfg.Snapshot.Dir, lg.id)
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			w.log.Printf("game %s: snapshot: %v", lg.id, err)
		}
	}

	w.finish(lg, row, end)
	w.log.Printf("game %s ended players=%q/%q packets=%d friendly=%d completed=%v duration=%s digest=%.12s",
		lg.id, row.Player1, row.Player2, packetCount, row.FriendlyPlayer,
		row.Completed, ended.Sub(started).Round(time.Millisecond), row.Digest)
}

// finish records the completion row and closes out the live broadcast.
func (w *Watcher) finish(lg *liveGame, row indexdb.CompletedRow, end protocol.GameEndMsg) {
	if w.index != nil {
		w.index.CompleteGame(row)
	}
	if w.upload != nil {
		w.upload.UploadGame(row)
	}
	if w.feed != nil {
		w.feed.EndGame(end)
	}
}
