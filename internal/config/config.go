package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults. Every knob has one so the binary runs with zero configuration.
const (
	DefaultDBPath       = "weighit.db"
	DefaultLogLevel     = "info"
	DefaultPollInterval = 100 * time.Millisecond

	DefaultStabilityWindow    = 4
	DefaultStabilityEpsilonLb = 0.02
	DefaultNoiseFloorLb       = 0.05

	DefaultQueryLimit = 15
)

// Stability holds the stable-reading classification parameters.
type Stability struct {
	Window    int     // consecutive samples considered
	EpsilonLb float64 // max spread across the window, pounds
	FloorLb   float64 // readings at/below this never count as stable
}

// Scale configures the device reader.
type Scale struct {
	PollInterval time.Duration
	DevicePaths  []string // hidraw candidates tried in order
	ForceMock    bool
	Stability    Stability
}

// Ledger configures query behavior.
type Ledger struct {
	DefaultLimit int
}

// Config is the full application configuration.
type Config struct {
	DBPath   string
	LogLevel string
	LogFile  string
	Scale    Scale
	Ledger   Ledger
}

// Load reads configs/config.yml if present, applies WEIGHIT_* environment
// overrides, and falls back to the documented defaults for everything else.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("db.path", DefaultDBPath)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("scale.poll_interval", DefaultPollInterval)
	v.SetDefault("scale.device_paths", []string{
		"/dev/hidraw0", "/dev/hidraw1", "/dev/hidraw2", "/dev/hidraw3",
	})
	v.SetDefault("scale.force_mock", false)
	v.SetDefault("scale.stability.window", DefaultStabilityWindow)
	v.SetDefault("scale.stability.epsilon_lb", DefaultStabilityEpsilonLb)
	v.SetDefault("scale.stability.floor_lb", DefaultNoiseFloorLb)
	v.SetDefault("ledger.default_limit", DefaultQueryLimit)

	v.SetEnvPrefix("weighit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.AddConfigPath("configs")
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		DBPath:   v.GetString("db.path"),
		LogLevel: v.GetString("log.level"),
		LogFile:  v.GetString("log.file"),
		Scale: Scale{
			PollInterval: v.GetDuration("scale.poll_interval"),
			DevicePaths:  v.GetStringSlice("scale.device_paths"),
			ForceMock:    v.GetBool("scale.force_mock"),
			Stability: Stability{
				Window:    v.GetInt("scale.stability.window"),
				EpsilonLb: v.GetFloat64("scale.stability.epsilon_lb"),
				FloorLb:   v.GetFloat64("scale.stability.floor_lb"),
			},
		},
		Ledger: Ledger{
			DefaultLimit: v.GetInt("ledger.default_limit"),
		},
	}

	if cfg.Scale.PollInterval <= 0 {
		cfg.Scale.PollInterval = DefaultPollInterval
	}
	if cfg.Scale.Stability.Window < 2 {
		cfg.Scale.Stability.Window = DefaultStabilityWindow
	}
	if cfg.Ledger.DefaultLimit <= 0 {
		cfg.Ledger.DefaultLimit = DefaultQueryLimit
	}
	return cfg, nil
}
