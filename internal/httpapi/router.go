package httpapi

import (
	"net/http"
	"time"

	"SuperRPS/internal/auth"
	"SuperRPS/internal/game/engine"
	"SuperRPS/internal/middleware"
	"SuperRPS/internal/relay"
	"SuperRPS/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps 路由需要的全部依赖，由 main 构造后注入
type Deps struct {
	Hub            *websocket.Hub
	Registry       *relay.Registry
	Secret         []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
	Defaults       engine.Settings
	RevealDelay    time.Duration
}

// SettingsResponse GET /game/settings
type SettingsResponse struct {
	engine.Settings
	RevealDelayMs int64 `json:"revealDelayMs"`
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(d.AllowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		h := auth.NewHandler(d.Secret, d.TokenTTL)
		authGroup.GET("/nonce", h.GetNonce)
		authGroup.POST("/nonce", h.PostNonce)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/guest", h.Guest)
	}

	r.GET("/game/settings", func(c *gin.Context) {
		c.JSON(http.StatusOK, SettingsResponse{
			Settings:      d.Defaults,
			RevealDelayMs: d.RevealDelay.Milliseconds(),
		})
	})

	protected := r.Group("/", middleware.JwtAuthMiddleware(d.Secret))
	{
		protected.GET("/ws", websocket.ServeWS(d.Hub, websocket.NewUpgrader(d.AllowedOrigins)))

		rooms := relay.NewHandler(d.Registry)
		protected.GET("/rooms/:id", rooms.Room)
	}

	return r
}
