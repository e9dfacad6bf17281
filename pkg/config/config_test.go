package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlags(args ...string) *pflag.FlagSet {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("config", "", "")
	f.String("location", "graph.json", "")
	f.Int("port", 8080, "")
	f.Int("depth", 2, "")
	f.Bool("watch", false, "")
	f.CountP("verbose", "v", "")
	if err := f.Parse(args); err != nil {
		panic(err)
	}
	return f
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Data.Location != "graph.json" {
		t.Errorf("Expected location graph.json, got %q", cfg.Data.Location)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Web.Port)
	}
	if cfg.Watch.Quiet != 300*time.Millisecond || cfg.Watch.MaxWait != 2*time.Second {
		t.Errorf("Expected 300ms/2s debounce, got %s/%s", cfg.Watch.Quiet, cfg.Watch.MaxWait)
	}
	if cfg.Layout.Depth != 2 || cfg.Layout.Settle != time.Second {
		t.Errorf("Expected depth 2 and 1s settle, got %d and %s", cfg.Layout.Depth, cfg.Layout.Settle)
	}
	if cfg.Layout.Placement.StartDeg != 210 || cfg.Layout.Scaling.RootScale != 2 {
		t.Errorf("Unexpected placement/scaling defaults %+v %+v", cfg.Layout.Placement, cfg.Layout.Scaling)
	}
	if cfg.Forces.Tree.LinkDistance != 55 || cfg.Forces.Interface.Charge != -700 || cfg.Forces.CollideIterations != 2 {
		t.Errorf("Unexpected force defaults %+v", cfg.Forces)
	}

	opts := cfg.LayoutOptions()
	if opts.FitDuration != 200*time.Millisecond || opts.CurvatureBase != 0.22 {
		t.Errorf("Unexpected layout options %+v", opts)
	}
}

func TestLoad_Layers(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	toml := `
[data]
location = "s3://graphs/fmea.json"
region = "eu-north-1"

[web]
port = 7070

[layout]
depth = 4
settle = "1500ms"

[forces.tree]
distance = 70
`
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(toml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("CAUSEGRAPH_WEB_PORT", "9090")
	t.Setenv("CAUSEGRAPH_FORCES_BOOST", "2.5")

	cfg, err := Load(newFlags("--depth=5", "-vv"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Data.Location != "s3://graphs/fmea.json" || cfg.Data.Region != "eu-north-1" {
		t.Errorf("Expected data section from file, got %+v", cfg.Data)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("Expected env to override file port, got %d", cfg.Web.Port)
	}
	if cfg.Layout.Depth != 5 {
		t.Errorf("Expected flag to override file depth, got %d", cfg.Layout.Depth)
	}
	if cfg.Layout.Settle != 1500*time.Millisecond {
		t.Errorf("Expected settle 1.5s, got %s", cfg.Layout.Settle)
	}
	if cfg.Forces.Tree.LinkDistance != 70 || cfg.Forces.Tree.LinkStrength != 0.9 {
		t.Errorf("Expected partial override of tree forces, got %+v", cfg.Forces.Tree)
	}
	if cfg.Forces.BoostFactor != 2.5 {
		t.Errorf("Expected boost from env, got %v", cfg.Forces.BoostFactor)
	}
	if cfg.VerboseCnt != 2 {
		t.Errorf("Expected verbose count 2, got %d", cfg.VerboseCnt)
	}
}

func TestLoad_UnchangedFlagsKeepLowerLayers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CAUSEGRAPH_WEB_PORT", "9090")

	cfg, err := Load(newFlags())
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("Expected env port to survive an unchanged flag, got %d", cfg.Web.Port)
	}

	cfg, err = Load(newFlags("--port=9999", "--watch"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Web.Port != 9999 || !cfg.Watch.Enabled {
		t.Errorf("Expected flags to win, got port %d watch %v", cfg.Web.Port, cfg.Watch.Enabled)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := Load(newFlags("--config=" + filepath.Join(dir, "missing.toml"))); err == nil {
		t.Error("Expected error for explicit missing config file")
	}

	if _, err := Load(newFlags("--depth=9")); err == nil || !strings.Contains(err.Error(), "layout.depth") {
		t.Errorf("Expected depth validation error, got %v", err)
	}

	t.Setenv("CAUSEGRAPH_FORCES_CHARGEMAX", "0.5")
	if _, err := Load(nil); err == nil || !strings.Contains(err.Error(), "forces") {
		t.Errorf("Expected forces validation error, got %v", err)
	}
}

func TestWebConfig_Addr(t *testing.T) {
	if got := (WebConfig{Port: 8080}).Addr(); got != ":8080" {
		t.Errorf("Expected :8080, got %s", got)
	}
	if got := (WebConfig{Host: "127.0.0.1", Port: 9}).Addr(); got != "127.0.0.1:9" {
		t.Errorf("Expected 127.0.0.1:9, got %s", got)
	}
}
