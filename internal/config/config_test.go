package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_WatchYAML(t *testing.T) {
	cfg, err := Load("../../configs/watch.yaml")
	if err != nil {
		t.Fatalf("load watch.yaml: %v", err)
	}
	if cfg.LogPath != "Power.log" {
		t.Fatalf("log_path = %q", cfg.LogPath)
	}
	if !cfg.Archive.Enabled || !cfg.Snapshot.Enabled || !cfg.Index.Enabled {
		t.Fatalf("persistence should default on: %+v", cfg)
	}
	if cfg.Archive.Dir != filepath.Join("hearthlog-data", "archive") {
		t.Fatalf("archive dir not derived: %q", cfg.Archive.Dir)
	}
	if cfg.Index.Path != filepath.Join("hearthlog-data", "index", "games.db") {
		t.Fatalf("index path not derived: %q", cfg.Index.Path)
	}
	if cfg.Upload.Endpoint != "" {
		t.Fatalf("upload should be off by default: %+v", cfg.Upload)
	}
	if cfg.Feed.Addr != "127.0.0.1:9001" || cfg.Feed.MaxQueue != 256 {
		t.Fatalf("feed defaults wrong: %+v", cfg.Feed)
	}
}

func TestLoadOverridesAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watch.yaml")
	body := `
log_path: /games/hs/Logs/Power.log
data_dir: /var/lib/hearthlog
legacy_friendly: true
archive:
  enabled: false
snapshot:
  enabled: true
  dir: /mnt/fast/snaps
feed:
  addr: 0.0.0.0:9100
  max_queue: 99999
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("HLWATCH_ADDR", "127.0.0.1:7777")
	t.Setenv("HLWATCH_FROM_START", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogPath != "/games/hs/Logs/Power.log" || !cfg.LegacyFriendly {
		t.Fatalf("yaml fields not applied: %+v", cfg)
	}
	if cfg.Archive.Enabled {
		t.Fatalf("archive.enabled should be false")
	}
	if cfg.Snapshot.Dir != "/mnt/fast/snaps" {
		t.Fatalf("explicit snapshot dir lost: %q", cfg.Snapshot.Dir)
	}
	if cfg.Index.Path != filepath.Join("/var/lib/hearthlog", "index", "games.db") {
		t.Fatalf("index path should derive from data_dir: %q", cfg.Index.Path)
	}
	if cfg.Feed.Addr != "127.0.0.1:7777" {
		t.Fatalf("HLWATCH_ADDR override lost: %q", cfg.Feed.Addr)
	}
	if !cfg.FromStart {
		t.Fatalf("HLWATCH_FROM_START override lost")
	}
	if cfg.Feed.MaxQueue != 4096 {
		t.Fatalf("max_queue should clamp to 4096: %d", cfg.Feed.MaxQueue)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Watch)
	}{
		{"empty log path", func(c *Watch) { c.LogPath = "" }},
		{"token without endpoint", func(c *Watch) { c.Upload.Token = "sekrit" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaults()
			cfg.Normalize()
			tc.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("want error")
			}
		})
	}
}
