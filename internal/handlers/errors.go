package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"orubacontacts/internal/apperrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError переводит ошибку сервиса в HTTP-ответ. Неожиданные ошибки
// логируются целиком, клиент получает только fallback.
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	var incomplete *apperrors.IncompleteMatchingError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           fmt.Sprintf("Cannot complete matching. %d items still unmatched", incomplete.UnmatchedPhones+incomplete.UnmatchedEmails),
			"unmatchedPhones": incomplete.UnmatchedPhones,
			"unmatchedEmails": incomplete.UnmatchedEmails,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidFormat),
		errors.Is(err, apperrors.ErrAlreadyMatched):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrLockContention):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error(fallback,
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// bindJSON читает тело запроса; ошибка разбора - 400.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
