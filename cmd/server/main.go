package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"

	"github.com/lord-carlos/traktor-api-client/internal/config"
	relayhttp "github.com/lord-carlos/traktor-api-client/internal/http"
	"github.com/lord-carlos/traktor-api-client/internal/realtime"
	"github.com/lord-carlos/traktor-api-client/internal/state"
	"github.com/lord-carlos/traktor-api-client/internal/validation"
)

const shutdownTimeout = 5 * time.Second

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load()
	if err != nil {
		glog.Fatalf("load config: %v", err)
	}

	release, err := config.AcquireLock(cfg.LockFile)
	if err != nil {
		glog.Fatalf("lock: %v", err)
	}
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := state.NewStore()
	hub := realtime.NewHub(store, realtime.HubOptions{MaxDrops: cfg.ObserverMaxDrops})
	engine := state.NewEngine(store, hub)
	handler := relayhttp.NewHandler(engine, store, hub, validation.New(cfg.Decks, cfg.Channels), cfg)
	socket := realtime.NewHandler(hub, realtime.SessionConfig{
		Buffer:       cfg.ObserverBuffer,
		WriteTimeout: cfg.WriteTimeout(),
		PongWait:     cfg.PongWait(),
	})

	router := relayhttp.NewRouter(relayhttp.RouterDeps{
		Handler: handler,
		Socket:  socket,
		Config:  cfg,
	})

	// The producer and the visualizer historically used separate ports; both
	// serve the same routes.
	servers := []*http.Server{{Addr: cfg.APIAddr(), Handler: router}}
	if addr := cfg.WebAddr(); addr != "" {
		servers = append(servers, &http.Server{Addr: addr, Handler: router})
	}

	for _, srv := range servers {
		go func(srv *http.Server) {
			glog.Infof("traktor relay listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				glog.Fatalf("listen %s: %v", srv.Addr, err)
			}
		}(srv)
	}

	<-ctx.Done()
	stop()
	glog.Info("shutting down...")

	// Hijacked observer connections are not tracked by Shutdown, so the hub
	// closes them explicitly.
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			glog.Warningf("shutdown %s: %v", srv.Addr, err)
		}
	}
}

// ensure gin uses release mode in production
func init() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
