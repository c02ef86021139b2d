// Package config loads service settings from rigpath.json, RIGPATH_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rigpath/backend/internal/path"
	"rigpath/backend/internal/playback"
)

// ErrInvalidWaypoint is returned for waypoints that are not x, y, z triples.
var ErrInvalidWaypoint = errors.New("waypoint must have exactly 3 coordinates")

const (
	ConfigName = "rigpath"
	EnvPrefix  = "RIGPATH"
)

type HTTPConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

type GRPCConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

type StaticConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

type AssetsConfig struct {
	Dir         string        `json:"dir" mapstructure:"dir"`
	Concurrency int           `json:"concurrency" mapstructure:"concurrency"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

type PlaybackConfig struct {
	TotalFrames int     `json:"totalFrames" mapstructure:"totalFrames"`
	TPS         int     `json:"tps" mapstructure:"tps"`
	OffsetX     float64 `json:"offsetX" mapstructure:"offsetX"`
	OffsetY     float64 `json:"offsetY" mapstructure:"offsetY"`
}

type PathConfig struct {
	Waypoints [][]float64 `json:"waypoints" mapstructure:"waypoints"`
}

type StreamConfig struct {
	Interval time.Duration `json:"interval" mapstructure:"interval"`
	Ping     time.Duration `json:"ping" mapstructure:"ping"`
}

type TelemetryConfig struct {
	Enabled       bool          `json:"enabled" mapstructure:"enabled"`
	MaxEntries    int           `json:"maxEntries" mapstructure:"maxEntries"`
	PrintInterval time.Duration `json:"printInterval" mapstructure:"printInterval"`
}

// Config is the full service configuration.
type Config struct {
	LogLevel  string          `json:"logLevel" mapstructure:"logLevel"`
	LogPretty bool            `json:"logPretty" mapstructure:"logPretty"`
	HTTP      HTTPConfig      `json:"http" mapstructure:"http"`
	GRPC      GRPCConfig      `json:"grpc" mapstructure:"grpc"`
	Static    StaticConfig    `json:"static" mapstructure:"static"`
	Assets    AssetsConfig    `json:"assets" mapstructure:"assets"`
	Playback  PlaybackConfig  `json:"playback" mapstructure:"playback"`
	Path      PathConfig      `json:"path" mapstructure:"path"`
	Stream    StreamConfig    `json:"stream" mapstructure:"stream"`
	Telemetry TelemetryConfig `json:"telemetry" mapstructure:"telemetry"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logPretty", true)

	viper.SetDefault("http.addr", ":8080")

	viper.SetDefault("grpc.enabled", true)
	viper.SetDefault("grpc.addr", ":50051")

	viper.SetDefault("static.dir", "./static")

	viper.SetDefault("assets.dir", "./static/public")
	viper.SetDefault("assets.concurrency", 5)
	viper.SetDefault("assets.timeout", "30s")

	layout := playback.DefaultLayout()
	viper.SetDefault("playback.totalFrames", 300)
	viper.SetDefault("playback.tps", playback.DefaultTPS)
	viper.SetDefault("playback.offsetX", layout.OffsetX)
	viper.SetDefault("playback.offsetY", layout.OffsetY)

	demo := path.DemoWaypoints()
	wps := make([][]float64, len(demo))
	for i, wp := range demo {
		wps[i] = []float64{wp[0], wp[1], wp[2]}
	}
	viper.SetDefault("path.waypoints", wps)

	viper.SetDefault("stream.interval", "50ms")
	viper.SetDefault("stream.ping", "2s")

	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.maxEntries", 600)
	viper.SetDefault("telemetry.printInterval", "10s")
}

// Load reads configDir/rigpath.json on top of the defaults. A missing file
// is not an error; a malformed one is.
func Load(configDir string) (*Config, error) {
	setDefaults()

	viper.SetConfigName(ConfigName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the playback driver depends on.
func (c *Config) Validate() error {
	if _, err := c.Waypoints(); err != nil {
		return err
	}
	if c.Playback.TotalFrames <= 0 {
		return fmt.Errorf("playback.totalFrames: %w", playback.ErrInvalidTotalFrames)
	}
	if c.Playback.TPS <= 0 {
		return fmt.Errorf("playback.tps must be positive, got %d", c.Playback.TPS)
	}
	return nil
}

// Waypoints converts path.waypoints to sampler input.
func (c *Config) Waypoints() ([]path.Waypoint, error) {
	out := make([]path.Waypoint, 0, len(c.Path.Waypoints))
	for i, wp := range c.Path.Waypoints {
		if len(wp) != 3 {
			return nil, fmt.Errorf("path.waypoints[%d]: %w", i, ErrInvalidWaypoint)
		}
		out = append(out, path.Waypoint{wp[0], wp[1], wp[2]})
	}
	if err := path.Validate(out); err != nil {
		return nil, fmt.Errorf("path.waypoints: %w", err)
	}
	return out, nil
}

// Layout returns the configured rig offsets.
func (c *Config) Layout() playback.Layout {
	return playback.Layout{OffsetX: c.Playback.OffsetX, OffsetY: c.Playback.OffsetY}
}

// Flags returns the command line overrides understood by BindFlags plus the
// config directory flag.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", ".", "directory containing "+ConfigName+".json")
	fs.String("http.addr", "", "HTTP listen address")
	fs.String("grpc.addr", "", "gRPC health listen address")
	fs.String("assets.dir", "", "directory with the .glb models")
	fs.String("static.dir", "", "directory served at /")
	fs.String("logLevel", "", "log level")
	return fs
}

// BindFlags lets every flag that was set on the command line override file
// and environment values. The config flag itself is skipped.
func BindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if bindErr := viper.BindPFlag(f.Name, f); bindErr != nil {
			err = errors.Join(err, fmt.Errorf("binding flag %s: %w", f.Name, bindErr))
		}
	})
	return err
}
