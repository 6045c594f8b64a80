package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verte-zerg/typist/internal/service"
)

const (
	defaultTextLang  = "ru"
	defaultWordsLang = "en"
	defaultWordCount = 35
	maxWordCount     = 500
)

type handlers struct {
	svc    Service
	pinger Pinger
	log    *zap.Logger
}

func (h *handlers) health(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			h.log.Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) adaptiveText(c *gin.Context) {
	text, err := h.svc.AdaptiveText(c.Request.Context(), userID(c), c.DefaultQuery("lang", defaultTextLang))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *handlers) plainText(c *gin.Context) {
	text, err := h.svc.PlainText(c.Request.Context(), c.DefaultQuery("lang", defaultTextLang), 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *handlers) words(c *gin.Context) {
	count := defaultWordCount
	if raw := c.Query("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			count = min(max(n, 1), maxWordCount)
		}
	}
	text, err := h.svc.PlainText(c.Request.Context(), c.DefaultQuery("lang", defaultWordsLang), count)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (h *handlers) frequentErrors(c *gin.Context) {
	freqs, err := h.svc.FrequentErrors(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, freqs)
}

func (h *handlers) saveResult(c *gin.Context) {
	var req service.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "validation failed: malformed request body")
		return
	}
	saved, err := h.svc.SaveResult(c.Request.Context(), userID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Result saved successfully!",
		"data":    saved,
	})
}

func (h *handlers) userStats(c *gin.Context) {
	stat, err := h.svc.UserStats(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"best_wpm":     stat.BestWPM,
		"avg_accuracy": stat.AvgAccuracy,
		"total_tests":  stat.TotalTests,
	})
}

// fail maps service errors to responses.
func (h *handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDictionaryNotFound):
		respondError(c, http.StatusNotFound, service.ErrDictionaryNotFound.Error())
	case errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		internalError(c, h.log, err)
	}
}
