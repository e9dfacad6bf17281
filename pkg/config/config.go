package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/causegraph/pkg/forces"
	"github.com/ritzau/causegraph/pkg/layout"
)

// DefaultFile is the config file read from the working directory.
const DefaultFile = "causegraph.toml"

const envPrefix = "CAUSEGRAPH_"

// Config holds all configuration for the application
type Config struct {
	Data       DataConfig    `koanf:"data"`
	Web        WebConfig     `koanf:"web"`
	Watch      WatchConfig   `koanf:"watch"`
	Layout     LayoutConfig  `koanf:"layout"`
	Forces     forces.Params `koanf:"forces"`
	Verbosity  string        `koanf:"verbosity"`
	VerboseCnt int           `koanf:"verbose"`
	JSONLogs   bool          `koanf:"json"`
}

// DataConfig says where the graph document lives.
type DataConfig struct {
	// Location is a local path or s3://bucket/key.
	Location string `koanf:"location"`
	Region   string `koanf:"region"`
	// Endpoint overrides the S3 endpoint and enables path-style addressing.
	Endpoint string `koanf:"endpoint"`
}

type WebConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr is the listen address of the HTTP server.
func (w WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// WatchConfig controls reloading when a local document changes.
type WatchConfig struct {
	Enabled bool          `koanf:"enabled"`
	Quiet   time.Duration `koanf:"quiet"`
	MaxWait time.Duration `koanf:"maxwait"`
}

// LayoutConfig holds the tunables of the layout controller.
type LayoutConfig struct {
	Depth     int              `koanf:"depth"`
	Settle    time.Duration    `koanf:"settle"`
	Jitter    float64          `koanf:"jitter"`
	Kick      float64          `koanf:"kick"`
	Curvature float64          `koanf:"curvature"`
	Fit       time.Duration    `koanf:"fit"`
	Padding   float64          `koanf:"padding"`
	Seed      int64            `koanf:"seed"`
	Placement layout.Placement `koanf:"placement"`
	Scaling   layout.Scaling   `koanf:"scaling"`
}

// flagKeys maps command line flag names to config keys. Flags not listed
// use their own name as key.
var flagKeys = map[string]string{
	"location": "data.location",
	"region":   "data.region",
	"endpoint": "data.endpoint",
	"host":     "web.host",
	"port":     "web.port",
	"watch":    "watch.enabled",
	"depth":    "layout.depth",
	"seed":     "layout.seed",
}

// defaults returns the flattened default configuration.
func defaults() map[string]interface{} {
	lo := layout.DefaultOptions()
	fp := lo.Forces

	return map[string]interface{}{
		"data.location": "graph.json",
		"data.region":   "",
		"data.endpoint": "",

		"web.host": "",
		"web.port": 8080,

		"watch.enabled": false,
		"watch.quiet":   "300ms",
		"watch.maxwait": "2s",

		"verbosity": "",
		"verbose":   0,
		"json":      false,

		"layout.depth":     lo.Depth,
		"layout.settle":    lo.SettleDuration.String(),
		"layout.jitter":    lo.JitterRadius,
		"layout.kick":      lo.KickVelocity,
		"layout.curvature": lo.CurvatureBase,
		"layout.fit":       lo.FitDuration.String(),
		"layout.padding":   lo.FitPadding,
		"layout.seed":      int64(0),

		"layout.placement.radius": lo.Placement.RingRadius,
		"layout.placement.start":  lo.Placement.StartDeg,
		"layout.placement.end":    lo.Placement.EndDeg,
		"layout.placement.margin": lo.Placement.MarginDeg,

		"layout.scaling.radius":    lo.Scaling.NodeRadius,
		"layout.scaling.root":      lo.Scaling.RootScale,
		"layout.scaling.decay":     lo.Scaling.DepthDecay,
		"layout.scaling.function":  lo.Scaling.FunctionRootScale,
		"layout.scaling.interface": lo.Scaling.InterfaceScale,

		"forces.tree.distance":      fp.Tree.LinkDistance,
		"forces.tree.strength":      fp.Tree.LinkStrength,
		"forces.tree.charge":        fp.Tree.Charge,
		"forces.interface.distance": fp.Interface.LinkDistance,
		"forces.interface.strength": fp.Interface.LinkStrength,
		"forces.interface.charge":   fp.Interface.Charge,
		"forces.boost":              fp.BoostFactor,
		"forces.settleinterface":    fp.SettleInterfaceStrength,
		"forces.collideradius":      fp.CollideRadius,
		"forces.collidestrength":    fp.CollideStrength,
		"forces.collideiterations":  fp.CollideIterations,
		"forces.chargemin":          fp.ChargeDistanceMin,
		"forces.chargemax":          fp.ChargeDistanceMax,
		"forces.decay":              fp.VelocityDecay,
		"forces.alpha":              fp.AlphaTarget,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
//
// The config file is DefaultFile unless the flag set carries a non-empty
// "config" flag. A missing default file is not an error.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional)
	path, explicit := configPath(f)
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	// Prefix: CAUSEGRAPH_ (e.g., CAUSEGRAPH_WEB_PORT=9090, CAUSEGRAPH_LAYOUT_DEPTH=3)
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, flagKey(f)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func configPath(f *pflag.FlagSet) (string, bool) {
	if f != nil {
		if path, err := f.GetString("config"); err == nil && path != "" {
			return path, true
		}
	}
	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		return path, true
	}
	return DefaultFile, false
}

// flagKey renames flags to their config keys. The config flag itself is not
// a setting.
func flagKey(set *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		if f.Name == "config" {
			return "", nil
		}
		key := f.Name
		if mapped, ok := flagKeys[f.Name]; ok {
			key = mapped
		}
		return key, posflag.FlagVal(set, f)
	}
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		errs = append(errs, fmt.Errorf("web.port %d out of range", c.Web.Port))
	}
	if c.Layout.Depth < layout.MinDepth || c.Layout.Depth > layout.MaxDepth {
		errs = append(errs, fmt.Errorf("layout.depth %d outside [%d, %d]", c.Layout.Depth, layout.MinDepth, layout.MaxDepth))
	}
	if c.Layout.Settle <= 0 {
		errs = append(errs, fmt.Errorf("layout.settle must be positive, got %s", c.Layout.Settle))
	}
	if c.Layout.Scaling.NodeRadius <= 0 {
		errs = append(errs, fmt.Errorf("layout.scaling.radius must be positive, got %v", c.Layout.Scaling.NodeRadius))
	}
	if c.Watch.Quiet <= 0 || c.Watch.MaxWait < c.Watch.Quiet {
		errs = append(errs, fmt.Errorf("watch.quiet (%s) must be positive and not exceed watch.maxwait (%s)", c.Watch.Quiet, c.Watch.MaxWait))
	}
	if err := c.Forces.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("forces: %w", err))
	}
	return errors.Join(errs...)
}

// LayoutOptions returns the controller options described by the config.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		Forces:         c.Forces,
		Placement:      c.Layout.Placement,
		Scaling:        c.Layout.Scaling,
		Depth:          c.Layout.Depth,
		SettleDuration: c.Layout.Settle,
		JitterRadius:   c.Layout.Jitter,
		KickVelocity:   c.Layout.Kick,
		CurvatureBase:  c.Layout.Curvature,
		FitDuration:    c.Layout.Fit,
		FitPadding:     c.Layout.Padding,
		Seed:           c.Layout.Seed,
	}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return maps.Unflatten(p.m, "."), nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
