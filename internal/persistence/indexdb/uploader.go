package indexdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// UploadConfig points the watcher at a remote games endpoint. Endpoint is
// required; everything else has defaults.
type UploadConfig struct {
	Endpoint      string
	Token         string
	Source        string
	BatchSize     int
	FlushInterval time.Duration
	HTTPTimeout   time.Duration
	Logger        *log.Logger
}

// Uploader ships completed-game summaries to a remote endpoint in batches.
// It is best-effort: the local sqlite index and the JSONL archives stay
// authoritative whether or not the endpoint is reachable.
type Uploader struct {
	cfg        UploadConfig
	httpClient *http.Client

	ch   chan GameSummary
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	queueDropped atomic.Uint64
	flushFail    atomic.Uint64
	uploaded     atomic.Uint64
}

type UploadStats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	QueueDroppedTotal uint64 `json:"queue_dropped_total"`
	FlushFailTotal    uint64 `json:"flush_fail_total"`
	UploadedTotal     uint64 `json:"uploaded_total"`
}

func OpenUploader(cfg UploadConfig) (*Uploader, error) {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty upload endpoint")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	u := &Uploader{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		ch: make(chan GameSummary, 1024),
	}

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		u.loop()
	}()

	return u, nil
}

func (u *Uploader) Close() error {
	if u == nil {
		return nil
	}
	u.once.Do(func() {
		u.closed.Store(true)
		close(u.ch)
		u.wg.Wait()
	})
	return nil
}

// UploadGame queues one finished game. Non-blocking; drops when saturated.
func (u *Uploader) UploadGame(row CompletedRow) {
	if u == nil || u.closed.Load() {
		return
	}
	select {
	case u.ch <- row.Summary():
	default:
		u.queueDropped.Add(1)
		u.printf("game upload queue full; drop id=%s", row.ID)
	}
}

func (u *Uploader) Stats() UploadStats {
	return UploadStats{
		QueueDepth:        len(u.ch),
		QueueCapacity:     cap(u.ch),
		QueueDroppedTotal: u.queueDropped.Load(),
		FlushFailTotal:    u.flushFail.Load(),
		UploadedTotal:     u.uploaded.Load(),
	}
}

// Summary converts a completion record to the wire/read shape.
func (r CompletedRow) Summary() GameSummary {
	return GameSummary{
		ID:             r.ID,
		Source:         r.Source,
		StartedAt:      fmtTime(r.StartedAt),
		EndedAt:        fmtTime(r.EndedAt),
		FriendlyPlayer: r.FriendlyPlayer,
		Player1:        r.Player1,
		Player2:        r.Player2,
		PacketCount:    r.PacketCount,
		Digest:         r.Digest,
		Completed:      r.Completed,
	}
}

func (u *Uploader) loop() {
	ticker := time.NewTicker(u.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]GameSummary, 0, u.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := u.sendBatch(batch); err != nil {
			u.flushFail.Add(1)
			u.printf("game upload flush failed batch=%d err=%v", len(batch), err)
			// Keep the batch; the next flush retries it. Bound growth so a
			// long outage cannot hold unlimited memory.
			if limit := u.cfg.BatchSize * 8; len(batch) > limit {
				over := len(batch) - limit
				batch = append(batch[:0], batch[over:]...)
				u.queueDropped.Add(uint64(over))
			}
			return
		}
		u.uploaded.Add(uint64(len(batch)))
		batch = batch[:0]
	}

	for {
		select {
		case g, ok := <-u.ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, g)
			if len(batch) >= u.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (u *Uploader) sendBatch(games []GameSummary) error {
	if len(games) == 0 {
		return nil
	}

	body := struct {
		Source string        `json:"source,omitempty"`
		Games  []GameSummary `json:"games"`
	}{Source: u.cfg.Source, Games: games}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequest(http.MethodPost, u.cfg.Endpoint, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("content-type", "application/json")
		if u.cfg.Token != "" {
			req.Header.Set("x-hl-index-token", u.cfg.Token)
		}

		resp, err := u.httpClient.Do(req)
		if err == nil {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			err = fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		lastErr = err
		time.Sleep(time.Duration(100*(1<<attempt)) * time.Millisecond)
	}
	return lastErr
}

func (u *Uploader) printf(format string, args ...any) {
	if u != nil && u.cfg.Logger != nil {
		u.cfg.Logger.Printf(format, args...)
	}
}
