// Package ws serves the live packet feed over websockets. Clients send one
// HELLO, get a WELCOME back, then receive GAME_START/PACKET/GAME_END frames
// as the watcher produces them. The feed never waits on a client: a consumer
// that cannot keep up is disconnected.
package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"hearthlog.gg/internal/protocol"
)

const (
	serverName = "hearthlog-watch"

	writeWait  = 5 * time.Second
	readWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	// One game's worth of frames kept for FromStart joiners. A game that
	// somehow exceeds this streams live-only; clients can spot the gap by
	// packet seq.
	backlogCap = 1 << 16
)

type Feed struct {
	log      *log.Logger
	maxQueue int

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu         sync.Mutex
	clients    map[string]*client
	liveGameID string
	backlog    [][]byte
	truncated  bool
}

type client struct {
	id  string
	out chan []byte
}

func NewFeed(logger *log.Logger, maxQueue int) *Feed {
	if maxQueue <= 0 {
		maxQueue = 256
	}
	return &Feed{
		log:      logger,
		maxQueue: maxQueue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: make(map[string]*client),
	}
}

// BeginGame resets the live-game backlog and broadcasts the frame.
func (f *Feed) BeginGame(gameID string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.liveGameID = gameID
	f.backlog = f.backlog[:0]
	f.truncated = false
	f.stashLocked(b)
	f.fanLocked(b)
	f.mu.Unlock()
}

// Broadcast sends one frame to every connected client. Frames sent while a
// game is live also land in the backlog for FromStart joiners.
func (f *Feed) Broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	f.mu.Lock()
	if f.liveGameID != "" {
		f.stashLocked(b)
	}
	f.fanLocked(b)
	f.mu.Unlock()
}

// EndGame broadcasts the frame and clears the live game.
func (f *Feed) EndGame(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	f.mu.Lock()
	f.fanLocked(b)
	f.liveGameID = ""
	f.backlog = nil
	f.truncated = false
	f.mu.Unlock()
}

func (f *Feed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *Feed) LiveGame() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liveGameID
}

// Shutdown disconnects every client. New connections still upgrade; callers
// stop the listener first.
func (f *Feed) Shutdown() {
	f.mu.Lock()
	for id, c := range f.clients {
		delete(f.clients, id)
		close(c.out)
	}
	f.mu.Unlock()
}

func (f *Feed) stashLocked(b []byte) {
	if f.truncated {
		return
	}
	if len(f.backlog) >= backlogCap {
		f.backlog = nil
		f.truncated = true
		return
	}
	f.backlog = append(f.backlog, b)
}

func (f *Feed) fanLocked(b []byte) {
	for id, c := range f.clients {
		select {
		case c.out <- b:
		default:
			delete(f.clients, id)
			close(c.out)
			f.printf("feed client %s too slow; dropped", id)
		}
	}
}

func (f *Feed) remove(id string) {
	f.mu.Lock()
	if c, ok := f.clients[id]; ok {
		delete(f.clients, id)
		close(c.out)
	}
	f.mu.Unlock()
}

func (f *Feed) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sid, out, backlog := f.handshake(conn)
		if sid == "" {
			return
		}
		defer f.remove(sid)

		for _, b := range backlog {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}

		// Writer goroutine. Owns all writes from here on; closes the conn
		// when it stops so the reader unblocks.
		go func() {
			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()
			defer conn.Close()
			for {
				select {
				case b, ok := <-out:
					if !ok {
						_ = conn.WriteControl(websocket.CloseMessage,
							websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
							time.Now().Add(time.Second))
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				case <-ticker.C:
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop: the feed is one-way, so inbound frames only keep the
		// connection alive.
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (f *Feed) handshake(conn *websocket.Conn) (sid string, out chan []byte, backlog [][]byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		f.reject(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return "", nil, nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		f.reject(conn, protocol.ErrProtoBadRequest, "bad HELLO")
		return "", nil, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		f.reject(conn, protocol.ErrUnsupportedVersion, "want "+protocol.Version)
		return "", nil, nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "observer"
	}

	sid = fmt.Sprintf("S%d", f.nextID.Add(1))
	out = make(chan []byte, f.maxQueue)

	f.mu.Lock()
	f.clients[sid] = &client{id: sid, out: out}
	live := f.liveGameID
	if hello.FromStart && live != "" && !f.truncated {
		backlog = make([][]byte, len(f.backlog))
		copy(backlog, f.backlog)
	}
	f.mu.Unlock()

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sid,
		Server:          serverName,
		LiveGameID:      live,
	}
	if err := writeJSON(conn, welcome); err != nil {
		f.remove(sid)
		return "", nil, nil
	}

	f.printf("feed client %s connected name=%q from_start=%v", sid, hello.ClientName, hello.FromStart)
	return sid, out, backlog
}

func (f *Feed) reject(conn *websocket.Conn, code, detail string) {
	_ = writeJSON(conn, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         detail,
	})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, detail),
		time.Now().Add(time.Second))
}

func (f *Feed) printf(format string, args ...any) {
	if f.log != nil {
		f.log.Printf(format, args...)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}
