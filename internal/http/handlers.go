package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/golang/glog"

	"github.com/lord-carlos/traktor-api-client/internal/config"
	"github.com/lord-carlos/traktor-api-client/internal/realtime"
	"github.com/lord-carlos/traktor-api-client/internal/state"
	"github.com/lord-carlos/traktor-api-client/internal/validation"
)

type Handler struct {
	engine    *state.Engine
	store     *state.Store
	hub       *realtime.Hub
	validator *validation.Validator
	cfg       config.Config
}

func NewHandler(engine *state.Engine, store *state.Store, hub *realtime.Hub, validator *validation.Validator, cfg config.Config) *Handler {
	return &Handler{engine: engine, store: store, hub: hub, validator: validator, cfg: cfg}
}

// ---------------------- INGESTION ----------------------

func (h *Handler) DeckLoaded(ctx *gin.Context) {
	deck, ok := h.validator.DeckID(ctx, ctx.Param("deck"))
	if !ok {
		return
	}
	var req deckPayload
	fields, ok := h.bind(ctx, &req)
	if !ok {
		return
	}
	title := "Unknown"
	if req.Title != nil && *req.Title != "" {
		title = *req.Title
	}
	glog.Infof("Deck %s loaded with track: %s", deck, title)

	committed, err := h.engine.Load(deck, fields)
	h.respond(ctx, committed, err)
}

func (h *Handler) UpdateDeck(ctx *gin.Context) {
	deck, ok := h.validator.DeckID(ctx, ctx.Param("deck"))
	if !ok {
		return
	}
	var req deckPayload
	fields, ok := h.bind(ctx, &req)
	if !ok {
		return
	}
	glog.V(1).Infof("Deck %s updated: %v", deck, fields)

	committed, err := h.engine.Apply(state.Decks, deck, fields)
	h.respond(ctx, committed, err)
}

func (h *Handler) UpdateChannel(ctx *gin.Context) {
	channel, ok := h.validator.ChannelID(ctx, ctx.Param("channel"))
	if !ok {
		return
	}
	var req channelPayload
	fields, ok := h.bind(ctx, &req)
	if !ok {
		return
	}
	glog.V(1).Infof("Channel %s updated: %v", channel, fields)

	committed, err := h.engine.Apply(state.Channels, channel, fields)
	h.respond(ctx, committed, err)
}

func (h *Handler) UpdateMasterClock(ctx *gin.Context) {
	var req masterClockPayload
	fields, ok := h.bind(ctx, &req)
	if !ok {
		return
	}
	glog.V(1).Infof("Master clock updated: %v", fields)

	committed, err := h.engine.Apply(state.MasterClock, "", fields)
	h.respond(ctx, committed, err)
}

func (h *Handler) UpdateBrowser(ctx *gin.Context) {
	var req browserPayload
	fields, ok := h.bind(ctx, &req)
	if !ok {
		return
	}
	glog.V(1).Infof("Browser updated: %v", fields)

	committed, err := h.engine.Apply(state.Browser, "", fields)
	h.respond(ctx, committed, err)
}

// bind rejects bodies that are not a JSON object or that fail the typed
// checks, then returns the raw field map for the merge.
func (h *Handler) bind(ctx *gin.Context, typed any) (state.Fields, bool) {
	if err := ctx.ShouldBindBodyWith(typed, binding.JSON); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return nil, false
	}
	if !h.validator.ValidateStruct(ctx, typed) {
		return nil, false
	}
	var fields state.Fields
	if err := ctx.ShouldBindBodyWith(&fields, binding.JSON); err != nil || fields == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object"})
		return nil, false
	}
	return fields, true
}

// respond answers the producer. Plain "OK" matches what controller scripts
// expect; clients asking for JSON get the committed state back.
func (h *Handler) respond(ctx *gin.Context, committed state.Fields, err error) {
	if err != nil {
		glog.Errorf("commit failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if strings.Contains(ctx.GetHeader("Accept"), gin.MIMEJSON) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "data": committed})
		return
	}
	ctx.String(http.StatusOK, "OK")
}

// ---------------------- READS ----------------------

func (h *Handler) Snapshot(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.store.GetAll())
}

// Entity reports one entity. Never-seen ids answer known=false rather than
// an error.
func (h *Handler) Entity(ctx *gin.Context) {
	category, ok := state.ParseCategory(ctx.Param("category"))
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "unknown category " + ctx.Param("category")})
		return
	}
	id := ctx.Param("id")
	if category == state.Decks {
		id = strings.ToUpper(id)
	}

	fields, known := h.store.Get(category, id)
	resp := gin.H{"category": category, "id": id, "known": known}
	if known {
		resp["data"] = fields
		if category == state.Decks {
			resp["baseBpm"] = h.engine.BaseBPM(id)
			resp["displayBpm"] = h.engine.DisplayBPM(id)
		}
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *Handler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"entities": h.store.Len(),
		"hub":      h.hub.Stats(),
	})
}

// ---------------------- PAGES ----------------------

func (h *Handler) Index(ctx *gin.Context) {
	h.servePage(ctx, "index.html")
}

func (h *Handler) DeckPage(ctx *gin.Context) {
	if !h.validator.IsDeck(ctx.Param("deck")) {
		ctx.String(http.StatusNotFound, "Deck not found")
		return
	}
	h.servePage(ctx, "deck.html")
}

// StaticFallback serves files from the static dir for unmatched GETs.
func (h *Handler) StaticFallback(ctx *gin.Context) {
	if ctx.Request.Method == http.MethodGet || ctx.Request.Method == http.MethodHead {
		if path, ok := h.staticPath(ctx.Request.URL.Path); ok {
			ctx.File(path)
			return
		}
	}
	ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func (h *Handler) servePage(ctx *gin.Context, name string) {
	path, ok := h.staticPath(name)
	if !ok {
		ctx.String(http.StatusNotFound, "visualizer not installed")
		return
	}
	ctx.File(path)
}

func (h *Handler) staticPath(name string) (string, bool) {
	if h.cfg.StaticDir == "" {
		return "", false
	}
	path := filepath.Join(h.cfg.StaticDir, filepath.Clean("/"+name))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// ---------------------- ADMIN ----------------------

func (h *Handler) ToggleMaintenance(ctx *gin.Context) {
	token := ctx.GetHeader("x-admin-token")
	if token == "" {
		token = ctx.Query("admin_token")
	}
	if h.cfg.AdminToken == "" || token != h.cfg.AdminToken {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	flag := h.cfg.MaintenanceFlag
	if _, err := os.Stat(flag); err == nil {
		if err := os.Remove(flag); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not leave maintenance mode"})
			return
		}
		glog.Infof("maintenance disabled")
		ctx.JSON(http.StatusOK, gin.H{"message": "maintenance_disabled"})
		return
	}
	if err := os.WriteFile(flag, []byte("on"), 0o644); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not enter maintenance mode"})
		return
	}
	glog.Infof("maintenance enabled, ingestion paused")
	ctx.JSON(http.StatusOK, gin.H{"message": "maintenance_enabled"})
}
