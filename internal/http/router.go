package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lord-carlos/traktor-api-client/internal/config"
	"github.com/lord-carlos/traktor-api-client/internal/http/middleware"
)

type RouterDeps struct {
	Handler *Handler
	// Socket serves the observer push channel.
	Socket http.Handler
	Config config.Config
}

// NewRouter wires producer ingestion, observer push, reads and the optional
// visualizer pages on one Gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	ingest := r.Group("/")
	if deps.Config.MaintenanceFlag != "" {
		ingest.Use(middleware.Maintenance(deps.Config.MaintenanceFlag))
	}
	registerIngestRoutes(ingest, deps)
	registerStateRoutes(r.Group("/state"), deps)

	r.GET("/socket", gin.WrapH(deps.Socket))
	r.GET("/health", deps.Handler.Health)
	r.POST("/admin/toggle-maintenance", deps.Handler.ToggleMaintenance)

	r.GET("/", deps.Handler.Index)
	r.GET("/deck/:deck", deps.Handler.DeckPage)
	r.NoRoute(deps.Handler.StaticFallback)

	return r
}

func registerIngestRoutes(r *gin.RouterGroup, deps RouterDeps) {
	r.POST("/deckLoaded/:deck", deps.Handler.DeckLoaded)
	r.POST("/updateDeck/:deck", deps.Handler.UpdateDeck)
	r.POST("/updateChannel/:channel", deps.Handler.UpdateChannel)
	r.POST("/updateMasterClock", deps.Handler.UpdateMasterClock)
	r.POST("/updateBrowser", deps.Handler.UpdateBrowser)
}

func registerStateRoutes(r *gin.RouterGroup, deps RouterDeps) {
	r.GET("", deps.Handler.Snapshot)
	r.GET("/:category", deps.Handler.Entity)
	r.GET("/:category/:id", deps.Handler.Entity)
}
