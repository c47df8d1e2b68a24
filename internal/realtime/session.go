package realtime

import (
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPongWait     = 60 * time.Second
	maxObserverMessage  = 512
)

type SessionConfig struct {
	Buffer       int
	WriteTimeout time.Duration
	// PongWait bounds how long a silent observer is kept. Pings go out at
	// 9/10 of it.
	PongWait time.Duration
}

// Handler upgrades observer connections and serves one push session per
// connection.
type Handler struct {
	hub      *Hub
	cfg      SessionConfig
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, cfg SessionConfig) *Handler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaultPongWait
	}
	return &Handler{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Infof("[ws]upgrade failed remote=%s: %v", r.RemoteAddr, err)
		return
	}

	observer := NewObserver(h.cfg.Buffer)
	observer.RemoteAddr = r.RemoteAddr
	if err := h.hub.Connect(observer); err != nil {
		glog.Errorf("[ws]connect %s: %v", r.RemoteAddr, err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"))
		conn.Close()
		return
	}

	go h.readPump(conn, observer)
	h.writePump(conn, observer)
}

// readPump only watches for close and pongs; observers have nothing to say.
func (h *Handler) readPump(conn *websocket.Conn, observer *Observer) {
	defer h.hub.Disconnect(observer.ID)

	conn.SetReadLimit(maxObserverMessage)
	conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				glog.Infof("[ws]%s<- error = %s", observer.ID, err)
			}
			return
		}
		glog.V(2).Infof("[ws]%s<- ignored observer message", observer.ID)
	}
}

func (h *Handler) writePump(conn *websocket.Conn, observer *Observer) {
	ticker := time.NewTicker(h.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		conn.Close()
		h.hub.Disconnect(observer.ID)
	}()

	for {
		select {
		case payload, ok := <-observer.Messages():
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				// a write deadline timeout cannot be recovered
				glog.Infof("[ws]%s-> error = %s", observer.ID, err)
				return
			}
			glog.V(2).Infof("[ws]%s-> %d bytes", observer.ID, len(payload))
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
