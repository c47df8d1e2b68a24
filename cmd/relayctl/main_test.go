package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/lord-carlos/traktor-api-client/internal/config"
	relayhttp "github.com/lord-carlos/traktor-api-client/internal/http"
	"github.com/lord-carlos/traktor-api-client/internal/realtime"
	"github.com/lord-carlos/traktor-api-client/internal/state"
	"github.com/lord-carlos/traktor-api-client/internal/validation"
)

func startRelay(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Defaults()
	cfg.StaticDir = ""
	cfg.MaintenanceFlag = ""
	store := state.NewStore()
	hub := realtime.NewHub(store, realtime.HubOptions{})
	engine := state.NewEngine(store, hub)
	router := relayhttp.NewRouter(relayhttp.RouterDeps{
		Handler: relayhttp.NewHandler(engine, store, hub, validation.New(cfg.Decks, cfg.Channels), cfg),
		Socket:  realtime.NewHandler(hub, realtime.SessionConfig{}),
		Config:  cfg,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return srv.URL
}

func runCLI(t *testing.T, relay string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(`{"isPlaying":true}`))
	cmd.SetArgs(append([]string{"--relay", relay}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestLoadUpdateAndSnapshot(t *testing.T) {
	relay := startRelay(t)

	out, err := runCLI(t, relay, "load", "A", `{"title":"X","artist":"Y"}`, "--set", "bpm=128")
	assert.Equal(t, nil, err)
	var committed map[string]any
	assert.Equal(t, nil, json.Unmarshal([]byte(out), &committed))
	assert.Equal(t, "X", committed["title"])
	assert.Equal(t, 128.0, committed["bpm"])

	_, err = runCLI(t, relay, "update", "deck", "A", "--set", "tempo=1.05")
	assert.Equal(t, nil, err)
	_, err = runCLI(t, relay, "update", "deck", "A", "-")
	assert.Equal(t, nil, err)
	_, err = runCLI(t, relay, "update", "channel", "2", "--set", "onAirLevel=0.5")
	assert.Equal(t, nil, err)
	_, err = runCLI(t, relay, "update", "master-clock", `{"deck":"A","bpm":134.4}`)
	assert.Equal(t, nil, err)

	out, err = runCLI(t, relay, "snapshot", "--format", "table")
	assert.Equal(t, nil, err)
	requireContains(t, out, "134.40")
	requireContains(t, out, "Playing")
	requireContains(t, out, "50%")
	requireContains(t, out, "Off Air")
	requireContains(t, out, "Master clock: deck A at 134.40 BPM")
	requireContains(t, out, "Browser: unknown")

	out, err = runCLI(t, relay, "snapshot")
	assert.Equal(t, nil, err)
	var snap state.Snapshot
	assert.Equal(t, nil, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 128.0, snap.BaseBPM["A"])
	assert.Equal(t, 1, len(snap.Channels))
}

func TestRelayRejectionsSurface(t *testing.T) {
	relay := startRelay(t)

	_, err := runCLI(t, relay, "update", "deck", "E", "--set", "title=X")
	assert.NotEqual(t, nil, err)
	requireContains(t, err.Error(), "400")

	_, err = runCLI(t, relay, "update", "browser", "[1]")
	assert.NotEqual(t, nil, err)

	_, err = runCLI(t, relay, "update", "browser")
	assert.NotEqual(t, nil, err)

	_, err = runCLI(t, relay, "snapshot", "--format", "yaml")
	assert.NotEqual(t, nil, err)
}

func TestWatchPrintsSnapshotThenUpdates(t *testing.T) {
	relay := startRelay(t)

	_, err := runCLI(t, relay, "load", "B", "--set", "title=Opening", "--set", "bpm=120")
	assert.Equal(t, nil, err)

	out, err := runCLI(t, relay, "watch", "--count", "1")
	assert.Equal(t, nil, err)
	requireContains(t, out, "Connected, current state:")
	requireContains(t, out, "Opening")
	requireContains(t, out, "120.00")
}

func TestParseUpdate(t *testing.T) {
	update, err := parseUpdate([]string{`{"title":"X"}`}, []string{"isPlaying=true", "key=8A", "elapsedTime=12.5"}, nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "X", update["title"])
	assert.Equal(t, true, update["isPlaying"])
	assert.Equal(t, "8A", update["key"])
	assert.Equal(t, 12.5, update["elapsedTime"])

	_, err = parseUpdate(nil, []string{"novalue"}, nil)
	assert.NotEqual(t, nil, err)

	_, err = parseUpdate([]string{"null"}, nil, nil)
	assert.NotEqual(t, nil, err)
}
