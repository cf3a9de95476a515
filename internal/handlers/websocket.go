package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apierrors "github.com/yukikurage/teamtask-api/internal/errors"
	"github.com/yukikurage/teamtask-api/internal/metrics"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/realtime"
	"github.com/yukikurage/teamtask-api/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// WebSocketHandler streams realtime events to authenticated clients.
type WebSocketHandler struct {
	hub            *realtime.Hub
	resolver       middleware.UserResolver
	projectService *services.ProjectService
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

func NewWebSocketHandler(
	hub *realtime.Hub,
	resolver middleware.UserResolver,
	projectService *services.ProjectService,
	allowedOrigins []string,
	logger *slog.Logger,
) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:            hub,
		resolver:       resolver,
		projectService: projectService,
		logger:         logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Connect authenticates with a bearer token (header or "token" query) and
// subscribes the connection to the rooms the caller may read.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		apierrors.Unauthorized(c, "Not authorized to access this route. Please login.")
		return
	}

	user, err := h.resolver.Authenticate(token)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !user.IsActive {
		apierrors.Unauthorized(c, "Your account has been deactivated")
		return
	}

	rooms, err := h.projectService.RealtimeRooms(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	sub := h.hub.Subscribe(rooms...)
	metrics.IncrementConnections()
	defer func() {
		h.hub.Unsubscribe(sub)
		metrics.DecrementConnections()
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Incoming messages are ignored; reading detects closed connections.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Debug("websocket write failed",
					slog.Uint64("user_id", user.ID),
					slog.String("error", err.Error()),
				)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
