package websocket

import (
	"net/http"

	"SuperRPS/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// NewUpgrader allowedOrigins 为空时放行所有来源（开发环境）
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || allowed[origin]
		},
	}
}

// GET /ws  (需带 JWT，middleware 注入 participant)
func ServeWS(hub *Hub, upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		participant := c.GetString("participant")

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			utils.Log.Warn("upgrade failed", "err", err)
			return
		}

		client := NewClient(uuid.NewString(), participant, conn, hub)
		if !hub.registerClient(client) {
			_ = conn.Close()
			return
		}
		client.Deliver(OutgoingMessage{
			Event: EventConnected,
			Data:  Connected{ID: client.id, Participant: participant},
		})

		go client.writePump()
		go client.readPump()
	}
}
