package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"hearthlog.gg/internal/config"
	"hearthlog.gg/internal/persistence/indexdb"
	"hearthlog.gg/internal/watch"
)

func main() {
	var (
		logPath   = flag.String("log", "", "path to Power.log")
		dataDir   = flag.String("data", "hearthlog-data", "output directory")
		doArchive = flag.Bool("archive", false, "write packet archives")
		doSnaps   = flag.Bool("snapshots", false, "write state snapshots")
		doIndex   = flag.Bool("index", false, "write the sqlite game index")
		legacy    = flag.Bool("legacy", false, "force the old-build friendly-player heuristic")
		quiet     = flag.Bool("q", false, "suppress per-game output")
	)
	flag.Parse()

	if *logPath == "" {
		fmt.Fprintln(os.Stderr, "missing -log")
		os.Exit(2)
	}

	out := io.Writer(os.Stdout)
	if *quiet {
		out = io.Discard
	}
	logger := log.New(out, "[export] ", log.LstdFlags|log.Lmicroseconds)

	cfg := config.Watch{
		LogPath:        *logPath,
		DataDir:        *dataDir,
		LegacyFriendly: *legacy,
		Archive:        config.ArchiveSpec{Enabled: *doArchive},
		Snapshot:       config.SnapshotSpec{Enabled: *doSnaps},
		Index:          config.IndexSpec{Enabled: *doIndex},
	}
	cfg.Normalize()

	var index *indexdb.SQLiteIndex
	if cfg.Index.Enabled {
		var err error
		index, err = indexdb.OpenSQLite(cfg.Index.Path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open index:", err)
			os.Exit(1)
		}
	}

	f, err := os.Open(*logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log:", err)
		os.Exit(1)
	}

	w := watch.New(cfg, nil, index, nil, logger)
	runErr := w.RunReader(f)
	f.Close()
	if index != nil {
		if err := index.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close index:", err)
		}
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "read log:", runErr)
		os.Exit(1)
	}

	games, failed := w.Processed()
	fmt.Printf("exported %d games from %s (%d failed)\n", games, *logPath, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
