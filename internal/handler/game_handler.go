package handler

import (
	"net/http"
	"time"

	"mystic-forest-server/internal/interfaces"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHeader - альтернатива cookie для API клиентов.
const SessionHeader = "X-Session-ID"

// CookieConfig описывает cookie, в котором хранится токен сессии.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// GameHandler обслуживает HTTP API игры.
type GameHandler struct {
	gameService interfaces.GameService
	cookie      CookieConfig
	logger      *zap.Logger
}

func NewGameHandler(gameService interfaces.GameService, cookie CookieConfig, logger *zap.Logger) *GameHandler {
	if cookie.Name == "" {
		cookie.Name = "session_id"
	}
	return &GameHandler{
		gameService: gameService,
		cookie:      cookie,
		logger:      logger.Named("GameHandler"),
	}
}

// RegisterRoutes регистрирует маршруты. mutationMiddleware (например, rate limiter)
// применяется только к запросам, которые меняют сессию.
func (h *GameHandler) RegisterRoutes(router *gin.Engine, mutationMiddleware ...gin.HandlerFunc) {
	router.GET("/health", h.health)
	router.HEAD("/health", h.health)

	api := router.Group("/api")
	{
		api.GET("/test", h.test)
		api.GET("/state", h.getState)
		api.GET("/progress", h.getProgress)
	}

	mutations := router.Group("/api", mutationMiddleware...)
	{
		mutations.POST("/choice", h.makeChoice)
		mutations.POST("/reset", h.resetSession)
	}
}

// sessionToken достает токен из заголовка X-Session-ID, затем из cookie.
func (h *GameHandler) sessionToken(c *gin.Context) string {
	if token := c.GetHeader(SessionHeader); token != "" {
		return token
	}
	token, err := c.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return token
}

func (h *GameHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.MaxAge.Seconds()), "/", "", h.cookie.Secure, true)
	c.Header(SessionHeader, token)
}
