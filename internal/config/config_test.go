package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"RELAY_CONFIG", "BIND_HOST", "PORT", "WEB_PORT", "STATIC_DIR", "ADMIN_TOKEN",
		"MAINTENANCE_FLAG", "LOCK_FILE", "DECKS", "CHANNELS", "OBSERVER_BUFFER",
		"OBSERVER_MAX_DROPS", "WRITE_TIMEOUT_MS", "PONG_WAIT_MS",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	assert.Equal(t, nil, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.APIAddr())
	assert.Equal(t, "0.0.0.0:8081", cfg.WebAddr())
	assert.Equal(t, []string{"A", "B", "C", "D"}, cfg.Decks)
	assert.Equal(t, []string{"1", "2", "3", "4"}, cfg.Channels)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout())
	assert.Equal(t, time.Minute, cfg.PongWait())
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.toml")
	content := `
port = "9000"
web_port = "9000"
decks = ["a", "b"]
observer_buffer = 16
static_dir = "/srv/relay"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RELAY_CONFIG", path)
	t.Setenv("CHANNELS", "1, 2")
	t.Setenv("OBSERVER_BUFFER", "128")

	cfg, err := Load()
	assert.Equal(t, nil, err)
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "", cfg.WebAddr())
	assert.Equal(t, []string{"A", "B"}, cfg.Decks)
	assert.Equal(t, []string{"1", "2"}, cfg.Channels)
	assert.Equal(t, 128, cfg.ObserverBuffer)
	assert.Equal(t, "/srv/relay", cfg.StaticDir)
}

func TestUnknownFileKeyIsRejected(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "relay.toml")
	if err := os.WriteFile(path, []byte("colour = \"red\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RELAY_CONFIG", path)

	_, err := Load()
	assert.NotEqual(t, nil, err)
}

func TestMissingFileIsAnError(t *testing.T) {
	clearEnv(t)
	t.Setenv("RELAY_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	assert.Equal(t, true, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Decks = nil
	cfg.ObserverBuffer = 0
	assert.NotEqual(t, nil, cfg.Validate())

	assert.Equal(t, nil, Defaults().Validate())
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.lock")

	release, err := AcquireLock(path)
	assert.Equal(t, nil, err)

	_, err = AcquireLock(path)
	assert.Equal(t, true, errors.Is(err, ErrAlreadyRunning))

	assert.Equal(t, nil, release())
	release, err = AcquireLock(path)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, release())
}

func TestAcquireLockDisabled(t *testing.T) {
	release, err := AcquireLock("")
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, release())
}
