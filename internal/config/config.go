package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config aggregates runtime settings. Values come from defaults, then an
// optional TOML file named by RELAY_CONFIG, then environment variables.
type Config struct {
	BindHost         string   `toml:"bind_host"`
	HTTPPort         string   `toml:"port"`
	WebPort          string   `toml:"web_port"`
	StaticDir        string   `toml:"static_dir"`
	Decks            []string `toml:"decks"`
	Channels         []string `toml:"channels"`
	ObserverBuffer   int      `toml:"observer_buffer"`
	ObserverMaxDrops int      `toml:"observer_max_drops"`
	WriteTimeoutMS   int      `toml:"write_timeout_ms"`
	PongWaitMS       int      `toml:"pong_wait_ms"`
	AdminToken       string   `toml:"admin_token"`
	MaintenanceFlag  string   `toml:"maintenance_flag"`
	LockFile         string   `toml:"lock_file"`
}

// Defaults mirrors the original relay: producer API on 8080, visualizer and
// push channel on 8081, decks A-D, channels 1-4.
func Defaults() Config {
	return Config{
		BindHost:         "0.0.0.0",
		HTTPPort:         "8080",
		WebPort:          "8081",
		Decks:            []string{"A", "B", "C", "D"},
		Channels:         []string{"1", "2", "3", "4"},
		ObserverBuffer:   64,
		ObserverMaxDrops: 32,
		WriteTimeoutMS:   10000,
		PongWaitMS:       60000,
		MaintenanceFlag:  "maintenance.flag",
	}
}

// Load builds a Config from defaults, the optional file and the environment.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	var fromFile Config
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fromFile); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.BindHost = firstNonEmpty(fromFile.BindHost, c.BindHost)
	c.HTTPPort = firstNonEmpty(fromFile.HTTPPort, c.HTTPPort)
	c.WebPort = firstNonEmpty(fromFile.WebPort, c.WebPort)
	c.StaticDir = firstNonEmpty(fromFile.StaticDir, c.StaticDir)
	c.AdminToken = firstNonEmpty(fromFile.AdminToken, c.AdminToken)
	c.MaintenanceFlag = firstNonEmpty(fromFile.MaintenanceFlag, c.MaintenanceFlag)
	c.LockFile = firstNonEmpty(fromFile.LockFile, c.LockFile)
	if len(fromFile.Decks) > 0 {
		c.Decks = fromFile.Decks
	}
	if len(fromFile.Channels) > 0 {
		c.Channels = fromFile.Channels
	}
	c.ObserverBuffer = firstPositive(fromFile.ObserverBuffer, c.ObserverBuffer)
	c.WriteTimeoutMS = firstPositive(fromFile.WriteTimeoutMS, c.WriteTimeoutMS)
	c.PongWaitMS = firstPositive(fromFile.PongWaitMS, c.PongWaitMS)
	if fromFile.ObserverMaxDrops != 0 {
		c.ObserverMaxDrops = fromFile.ObserverMaxDrops
	}
	return nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func (c *Config) applyEnv() {
	c.BindHost = firstNonEmpty(os.Getenv("BIND_HOST"), c.BindHost)
	c.HTTPPort = firstNonEmpty(os.Getenv("PORT"), c.HTTPPort)
	c.WebPort = firstNonEmpty(os.Getenv("WEB_PORT"), c.WebPort)
	c.StaticDir = firstNonEmpty(os.Getenv("STATIC_DIR"), c.StaticDir)
	c.AdminToken = firstNonEmpty(os.Getenv("ADMIN_TOKEN"), c.AdminToken)
	c.MaintenanceFlag = firstNonEmpty(os.Getenv("MAINTENANCE_FLAG"), c.MaintenanceFlag)
	c.LockFile = firstNonEmpty(os.Getenv("LOCK_FILE"), c.LockFile)

	if raw := os.Getenv("DECKS"); raw != "" {
		c.Decks = splitList(raw)
	}
	if raw := os.Getenv("CHANNELS"); raw != "" {
		c.Channels = splitList(raw)
	}
	c.ObserverBuffer = intFromEnv("OBSERVER_BUFFER", c.ObserverBuffer)
	c.ObserverMaxDrops = intFromEnv("OBSERVER_MAX_DROPS", c.ObserverMaxDrops)
	c.WriteTimeoutMS = intFromEnv("WRITE_TIMEOUT_MS", c.WriteTimeoutMS)
	c.PongWaitMS = intFromEnv("PONG_WAIT_MS", c.PongWaitMS)
}

func (c *Config) normalize() {
	for i, d := range c.Decks {
		c.Decks[i] = strings.ToUpper(strings.TrimSpace(d))
	}
	for i, ch := range c.Channels {
		c.Channels[i] = strings.TrimSpace(ch)
	}
}

// Validate reports settings the relay cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	if len(c.Decks) == 0 {
		errs = append(errs, errors.New("at least one deck is required"))
	}
	if len(c.Channels) == 0 {
		errs = append(errs, errors.New("at least one channel is required"))
	}
	for _, d := range c.Decks {
		if d == "" {
			errs = append(errs, errors.New("deck ids must not be empty"))
			break
		}
	}
	if c.ObserverBuffer <= 0 {
		errs = append(errs, fmt.Errorf("observer_buffer must be positive, got %d", c.ObserverBuffer))
	}
	if c.WriteTimeoutMS <= 0 || c.PongWaitMS <= 0 {
		errs = append(errs, errors.New("write_timeout_ms and pong_wait_ms must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) APIAddr() string {
	return c.BindHost + ":" + c.HTTPPort
}

// WebAddr is empty when the web listener shares the API port.
func (c Config) WebAddr() string {
	if c.WebPort == "" || c.WebPort == c.HTTPPort {
		return ""
	}
	return c.BindHost + ":" + c.WebPort
}

func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

func (c Config) PongWait() time.Duration {
	return time.Duration(c.PongWaitMS) * time.Millisecond
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func intFromEnv(name string, fallback int) int {
	if raw := os.Getenv(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
