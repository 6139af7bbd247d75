package handler

import (
	"fmt"
	"net/http"
	"time"

	"mystic-forest-server/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary Проверка работоспособности
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *GameHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "Mystic Forest API is running"})
}

// @Summary Служебная статистика
// @Description Количество узлов истории и активных сессий
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/test [get]
func (h *GameHandler) test(c *gin.Context) {
	stats, err := h.gameService.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "API is working",
		"timestamp":           float64(time.Now().UnixMilli()) / 1000,
		"story_nodes_count":   stats.StoryNodesCount,
		"user_sessions_count": stats.UserSessionsCount,
	})
}

// @Summary Текущее состояние истории
// @Description Создает сессию при первом обращении и выставляет cookie session_id
// @Tags game
// @Produce json
// @Param X-Session-ID header string false "Токен сессии (альтернатива cookie)"
// @Success 200 {object} models.StoryView
// @Failure 500 {object} models.ErrorResponse
// @Router /api/state [get]
//
// getState возвращает текущий узел и при необходимости создает сессию.
// Cookie выставляется на каждом ответе, срок жизни продлевается.
func (h *GameHandler) getState(c *gin.Context) {
	view, err := h.gameService.GetView(c.Request.Context(), h.sessionToken(c))
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	h.setSessionCookie(c, view.Token)
	c.JSON(http.StatusOK, view)
}

// @Summary Сделать выбор
// @Tags game
// @Accept json
// @Produce json
// @Param request body models.ChoiceRequest true "Индекс выбора"
// @Success 200 {object} models.AckResponse
// @Failure 400 {object} models.ErrorResponse "session_not_found, invalid_choice_index, bad_request"
// @Failure 429 {object} models.ErrorResponse "rate_limited"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/choice [post]
func (h *GameHandler) makeChoice(c *gin.Context) {
	var req models.ChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: choice_index is required: %v", models.ErrBadRequest, err), h.logger)
		return
	}

	token := h.sessionToken(c)
	if token == "" {
		handleServiceError(c, models.ErrSessionNotFound, h.logger)
		return
	}

	if err := h.gameService.ApplyChoice(c.Request.Context(), token, *req.ChoiceIndex); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, models.AckResponse{OK: true, Message: "Choice processed"})
}

// @Summary Начать историю заново
// @Tags game
// @Produce json
// @Success 200 {object} models.AckResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /api/reset [post]
func (h *GameHandler) resetSession(c *gin.Context) {
	token := h.sessionToken(c)
	if token == "" {
		handleServiceError(c, models.ErrSessionNotFound, h.logger)
		return
	}
	if err := h.gameService.ResetSession(c.Request.Context(), token); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, models.AckResponse{OK: true, Message: "Story restarted"})
}

// @Summary Прогресс сессии
// @Tags game
// @Produce json
// @Success 200 {object} models.SessionProgress
// @Failure 400 {object} models.ErrorResponse
// @Router /api/progress [get]
func (h *GameHandler) getProgress(c *gin.Context) {
	token := h.sessionToken(c)
	if token == "" {
		handleServiceError(c, models.ErrSessionNotFound, h.logger)
		return
	}
	progress, err := h.gameService.GetProgress(c.Request.Context(), token)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, progress)
}
