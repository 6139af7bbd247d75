package handler

import (
	"errors"
	"net/http"

	"mystic-forest-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError переводит ошибку движка в HTTP статус и JSON ответ.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Error: models.ErrCodeSessionNotFound, Message: "No session found, reload the story to start a new one"}
	case errors.Is(err, models.ErrInvalidChoiceIndex):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Error: models.ErrCodeInvalidChoiceIndex, Message: "Invalid choice"}
	case errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Error: models.ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidNodeReference):
		logger.Error("Session refers to a node missing from the story", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Error: models.ErrCodeInvalidNodeReference, Message: "Story state is inconsistent"}
	default:
		logger.Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Error: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
