// Package config loads the watcher's watch.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Watch struct {
	// LogPath is the Power.log the watcher tails.
	LogPath string `yaml:"log_path"`
	// DataDir roots every output the watcher produces; the per-concern dirs
	// below default to subdirectories of it.
	DataDir string `yaml:"data_dir"`
	// FromStart reads the log from its beginning instead of seeking to the
	// end, useful for replaying a finished session.
	FromStart bool `yaml:"from_start"`
	// LegacyFriendly forces the old-build friendly-player heuristic even on
	// builds that could use the current one.
	LegacyFriendly bool `yaml:"legacy_friendly"`

	Archive  ArchiveSpec  `yaml:"archive"`
	Snapshot SnapshotSpec `yaml:"snapshot"`
	Index    IndexSpec    `yaml:"index"`
	Upload   UploadSpec   `yaml:"upload,omitempty"`
	Feed     FeedSpec     `yaml:"feed"`
}

type ArchiveSpec struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
}

type SnapshotSpec struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
}

type IndexSpec struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// UploadSpec enables the remote games uploader when Endpoint is set.
type UploadSpec struct {
	Endpoint string `yaml:"endpoint,omitempty"`
	Token    string `yaml:"token,omitempty"`
	Source   string `yaml:"source,omitempty"`
}

type FeedSpec struct {
	Addr     string `yaml:"addr"`
	MaxQueue int    `yaml:"max_queue"`
}

func Load(path string) (Watch, error) {
	cfg := defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("watch.yaml: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("watch.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Watch {
	return Watch{
		LogPath: "Power.log",
		DataDir: "hearthlog-data",
		Archive: ArchiveSpec{Enabled: true},
		Snapshot: SnapshotSpec{
			Enabled: true,
		},
		Index: IndexSpec{Enabled: true},
		Feed: FeedSpec{
			Addr:     "127.0.0.1:9001",
			MaxQueue: 256,
		},
	}
}

func (c *Watch) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("HLWATCH_ADDR")); v != "" {
		c.Feed.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("HLWATCH_FROM_START")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.FromStart = b
		}
	}
}

func (c *Watch) Normalize() {
	if c == nil {
		return
	}
	c.LogPath = strings.TrimSpace(c.LogPath)
	c.DataDir = strings.TrimSpace(c.DataDir)
	if c.DataDir == "" {
		c.DataDir = "hearthlog-data"
	}
	if strings.TrimSpace(c.Archive.Dir) == "" {
		c.Archive.Dir = filepath.Join(c.DataDir, "archive")
	}
	if strings.TrimSpace(c.Snapshot.Dir) == "" {
		c.Snapshot.Dir = filepath.Join(c.DataDir, "snapshots")
	}
	if strings.TrimSpace(c.Index.Path) == "" {
		c.Index.Path = filepath.Join(c.DataDir, "index", "games.db")
	}
	c.Upload.Endpoint = strings.TrimSpace(c.Upload.Endpoint)
	c.Upload.Token = strings.TrimSpace(c.Upload.Token)
	c.Upload.Source = strings.TrimSpace(c.Upload.Source)
	if c.Feed.Addr == "" {
		c.Feed.Addr = "127.0.0.1:9001"
	}
	if c.Feed.MaxQueue <= 0 {
		c.Feed.MaxQueue = 256
	}
	if c.Feed.MaxQueue > 4096 {
		c.Feed.MaxQueue = 4096
	}
}

func (c Watch) Validate() error {
	if c.LogPath == "" {
		return fmt.Errorf("log_path must not be empty")
	}
	if c.Feed.Addr == "" {
		return fmt.Errorf("feed.addr must not be empty")
	}
	if c.Upload.Endpoint == "" && c.Upload.Token != "" {
		return fmt.Errorf("upload.token set but upload.endpoint empty")
	}
	return nil
}
