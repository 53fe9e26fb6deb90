package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "STORE_DRIVER", "GYM_CELL_LEVEL", "EVENTS_ENABLED", "KAFKA_BROKERS"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Addr != ":8090" || c.StoreDriver != "memory" || c.GymCellLevel != 14 || c.PoiCellLevel != 17 || c.GymCenterLevel != 20 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Events.Enabled || len(c.Events.Brokers) != 1 {
		t.Fatalf("unexpected events defaults: %+v", c.Events)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "REDIS")
	t.Setenv("CACHE_OP_TIMEOUT", "1s")
	t.Setenv("EVENTS_ENABLED", "yes")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("IMPORT_WORKERS", "not-a-number")
	c := FromEnv()
	if c.StoreDriver != "redis" || c.CacheOpTimeout != time.Second || !c.Events.Enabled {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if len(c.Events.Brokers) != 2 || c.Events.Brokers[1] != "b:9092" {
		t.Fatalf("brokers=%v", c.Events.Brokers)
	}
	if c.ImportWorkers != 8 {
		t.Fatalf("bad int should keep default, got %d", c.ImportWorkers)
	}
}

func TestValidate(t *testing.T) {
	c := FromEnv()
	c.StoreDriver = "memory"
	c.PoiCellLevel = 14
	if err := c.Validate(); err == nil {
		t.Fatalf("expected level order error")
	}
	c = FromEnv()
	c.StoreDriver = "sqlite"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected driver error")
	}
}

func TestLoadSettings(t *testing.T) {
	s, err := LoadSettings("")
	if err != nil || len(s.Grids) != 2 || s.Grids[0].Color != "#004D40" {
		t.Fatalf("defaults: %+v, %v", s, err)
	}

	path := filepath.Join(t.TempDir(), "overlay.toml")
	body := `
highlight_gym_center = true

[[grids]]
level = 16
width = 3
color = "#123456"
opacity = 0.25

[colors.missing_stops_1]
color = "#00ff00"
opacity = 0.8
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err = LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if !s.HighlightGymCenter || !s.HighlightGymCandidateCells {
		t.Fatalf("toggles: %+v", s)
	}
	if len(s.Grids) != 1 || s.Grids[0].Level != 16 {
		t.Fatalf("grids: %+v", s.Grids)
	}
	if s.Colors.MissingStops1.Color != "#00ff00" || s.Colors.MissingStops2.Color != "#E64A19" {
		t.Fatalf("colors: %+v", s.Colors)
	}
}

func TestLoadSettings_Rejects(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown": "no_such_key = 1\n",
		"colour":  "[colors.cell14_filled]\ncolor = \"red\"\nopacity = 0.5\n",
		"opacity": "[colors.cell14_filled]\ncolor = \"#fff\"\nopacity = 2.0\n",
		"level":   "[[grids]]\nlevel = 31\nwidth = 1\ncolor = \"#fff\"\nopacity = 1.0\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".toml")
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadSettings(path); err == nil || !strings.Contains(err.Error(), path) {
			t.Fatalf("%s: expected error mentioning path, got %v", name, err)
		}
	}
}

func TestColorsMissingStops(t *testing.T) {
	c := DefaultSettings().Colors
	if st, ok := c.MissingStops(3); !ok || st.Color != "#FF5722" {
		t.Fatalf("bucket 3 = %+v %v", st, ok)
	}
	if _, ok := c.MissingStops(4); ok {
		t.Fatalf("bucket 4 should not exist")
	}
}
