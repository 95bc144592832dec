package relay

import (
	"Lumen/internal/pkg/response"
	"Lumen/internal/pkg/security"
	"Lumen/internal/service"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Connect GET /ws?token=，没有 token 的连接只能收到广播
func (s *Handler) Connect(c *gin.Context) {
	var userID uint64
	if token := c.Query("token"); token != "" {
		claims, err := security.ValidateToken(token)
		if err != nil {
			log.WarnContext(c.Request.Context(), "relay auth failed", "err", err)
			response.Error(c, service.UnauthorizedError)
			return
		}
		userID = claims.UserID
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "websocket upgrade failed", "err", err)
		return
	}

	NewClient(s.hub, conn, userID).Start()
}

// Health 在线连接数
func (s *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"connections": s.hub.Count()})
}

// RegisterRoutes 挂载 relay 的路由
func (s *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", s.Connect)
	r.GET("/health", s.Health)
}
