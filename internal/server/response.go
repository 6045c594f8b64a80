package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// internalError logs err and hides it from the client.
func internalError(c *gin.Context, log *zap.Logger, err error) {
	log.Error("internal server error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	respondError(c, http.StatusInternalServerError, "internal server error")
}
