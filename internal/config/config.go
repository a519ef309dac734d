// Package config loads the single YAML configuration document described
// in spec.md §6: server, world, packs, permissions, and the database
// connection used by internal/db. Shape follows the teacher's
// LoginServer/GameServer config split: one struct per concern, yaml tags,
// a DSN() helper, and a Load that applies defaults after unmarshaling.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Generator is the world generator selection.
type Generator string

const (
	GeneratorFlat      Generator = "flat"
	GeneratorOverworld Generator = "default"
	GeneratorNether    Generator = "nether"
	GeneratorEnd       Generator = "end"
	GeneratorVoid      Generator = "void"
	GeneratorLegacy    Generator = "legacy"
)

// ServerConfig holds the network/gamemode/difficulty/online-mode
// section of the config document.
type ServerConfig struct {
	BindAddress     string `yaml:"bind_address"`
	Port            int    `yaml:"port"`
	Gamemode        string `yaml:"gamemode"` // survival, creative, adventure, spectator
	Difficulty      string `yaml:"difficulty"`
	OnlineMode      bool   `yaml:"online_mode"`
	MaxPlayers      int    `yaml:"max_players"`
	LogLevel        string `yaml:"log_level"`
	ViewDistanceCap int    `yaml:"view_distance_cap"` // server cap on chunk radius, spec §4.1 (<= 8)
}

// WorldConfig holds world name/seed/generator/auto-save settings.
type WorldConfig struct {
	Name                string    `yaml:"name"`
	Seed                int64     `yaml:"seed"`
	Generator           Generator `yaml:"generator"`
	AutoSaveIntervalSec int       `yaml:"auto_save_interval_seconds"`
	DoDaylightCycle     bool      `yaml:"do_daylight_cycle"`
	DoWeatherCycle      bool      `yaml:"do_weather_cycle"`
}

// PacksConfig holds behavior-pack discovery settings.
type PacksConfig struct {
	Directory  string `yaml:"directory"`
	ForcePacks bool   `yaml:"force_packs"`
}

// PermissionsConfig holds whitelist toggling.
type PermissionsConfig struct {
	WhitelistEnabled bool `yaml:"whitelist_enabled"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns          int32  `yaml:"max_conns"`
	MinConns          int32  `yaml:"min_conns"`
	MaxConnLifetime   string `yaml:"max_conn_lifetime"`
	MaxConnIdleTime   string `yaml:"max_conn_idle_time"`
	HealthCheckPeriod string `yaml:"health_check_period"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)

	var params []string
	if d.MaxConns > 0 {
		params = append(params, fmt.Sprintf("pool_max_conns=%d", d.MaxConns))
	}
	if d.MinConns > 0 {
		params = append(params, fmt.Sprintf("pool_min_conns=%d", d.MinConns))
	}
	if d.MaxConnLifetime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_lifetime=%s", d.MaxConnLifetime))
	}
	if d.MaxConnIdleTime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_idle_time=%s", d.MaxConnIdleTime))
	}
	if d.HealthCheckPeriod != "" {
		params = append(params, fmt.Sprintf("pool_health_check_period=%s", d.HealthCheckPeriod))
	}

	if len(params) > 0 {
		return base + "&" + strings.Join(params, "&")
	}
	return base
}

// RedisConfig holds optional cross-process session-counter store
// settings (internal/ratelimit); if Address is empty the server falls
// back to the in-process rate limiter.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the top-level configuration document.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	World       WorldConfig       `yaml:"world"`
	Packs       PacksConfig       `yaml:"packs"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
}

// Default returns a Config with sensible defaults, mirroring the
// DefaultLoginServer pattern.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// Load reads and parses the YAML config at path, applying defaults for
// anything left zero-valued. A missing file yields defaults, matching
// LoadLoginServer's behavior.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.BindAddress == "" {
		cfg.Server.BindAddress = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 19132
	}
	if cfg.Server.Gamemode == "" {
		cfg.Server.Gamemode = "survival"
	}
	if cfg.Server.Difficulty == "" {
		cfg.Server.Difficulty = "normal"
	}
	if cfg.Server.MaxPlayers == 0 {
		cfg.Server.MaxPlayers = 20
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.ViewDistanceCap == 0 || cfg.Server.ViewDistanceCap > 8 {
		cfg.Server.ViewDistanceCap = 8
	}
	if cfg.World.Name == "" {
		cfg.World.Name = "world"
	}
	if cfg.World.Generator == "" {
		cfg.World.Generator = GeneratorOverworld
	}
	if cfg.World.AutoSaveIntervalSec == 0 {
		cfg.World.AutoSaveIntervalSec = 300
	}
	if cfg.Packs.Directory == "" {
		cfg.Packs.Directory = "packs"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
}

// AutoSaveInterval returns the configured auto-save interval as a
// time.Duration.
func (c *Config) AutoSaveInterval() time.Duration {
	return time.Duration(c.World.AutoSaveIntervalSec) * time.Second
}
