package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hearthlog.gg/internal/config"
	"hearthlog.gg/internal/persistence/indexdb"
	"hearthlog.gg/internal/transport/ws"
	"hearthlog.gg/internal/watch"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to watch.yaml (optional)")
		logPath    = flag.String("log", "", "Power.log path override")
		addr       = flag.String("addr", "", "feed listen address override")
		fromStart  = flag.Bool("from_start", false, "read the log from the beginning")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(*logPath) != "" {
		cfg.LogPath = *logPath
	}
	if strings.TrimSpace(*addr) != "" {
		cfg.Feed.Addr = *addr
	}
	if *fromStart {
		cfg.FromStart = true
	}

	feed := ws.NewFeed(logger, cfg.Feed.MaxQueue)

	var index *indexdb.SQLiteIndex
	if cfg.Index.Enabled {
		index, err = indexdb.OpenSQLite(cfg.Index.Path)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
	}

	var uploader *indexdb.Uploader
	if cfg.Upload.Endpoint != "" {
		uploader, err = indexdb.OpenUploader(indexdb.UploadConfig{
			Endpoint: cfg.Upload.Endpoint,
			Token:    cfg.Upload.Token,
			Source:   cfg.Upload.Source,
			Logger:   logger,
		})
		if err != nil {
			logger.Fatalf("open uploader: %v", err)
		}
	}

	w := watch.New(cfg, feed, index, uploader, logger)

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		resp := struct {
			OK       bool                 `json:"ok"`
			Clients  int                  `json:"feed_clients"`
			LiveGame string               `json:"live_game,omitempty"`
			Index    *indexdb.IndexStats  `json:"index,omitempty"`
			Upload   *indexdb.UploadStats `json:"upload,omitempty"`
		}{OK: true, Clients: feed.ClientCount(), LiveGame: feed.LiveGame()}
		if index != nil {
			st := index.Stats()
			resp.Index = &st
		}
		if uploader != nil {
			st := uploader.Stats()
			resp.Upload = &st
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})
	mux.HandleFunc("/games", func(rw http.ResponseWriter, r *http.Request) {
		if index == nil {
			http.Error(rw, "index disabled", http.StatusNotFound)
			return
		}
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				limit = n
			}
		}
		rows, err := index.RecentGames(r.Context(), limit)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(struct {
			Games []indexdb.GameSummary `json:"games"`
		}{Games: rows})
	})
	mux.HandleFunc("/games/", func(rw http.ResponseWriter, r *http.Request) {
		if index == nil {
			http.Error(rw, "index disabled", http.StatusNotFound)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/games/")
		row, ok, err := index.GameByID(r.Context(), id)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.NotFound(rw, r)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(row)
	})
	mux.HandleFunc("/ws", feed.Handler())

	srv := &http.Server{
		Addr:              cfg.Feed.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()
	go func() {
		logger.Printf("feed listening on %s", cfg.Feed.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("ListenAndServe: %v", err)
		}
	}()

	logger.Printf("watching %s", cfg.LogPath)
	if err := w.Run(ctx); err != nil {
		logger.Printf("watch: %v", err)
	}

	// The tail is stopped and the last game flushed; now drain the stores.
	feed.Shutdown()
	if uploader != nil {
		uploader.Close()
	}
	if index != nil {
		if err := index.Close(); err != nil {
			logger.Printf("close index: %v", err)
		}
	}
	games, failed := w.Processed()
	logger.Printf("done: %d games, %d failed exports", games, failed)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
