package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/errs"
)

// respondError maps the core's two failure kinds onto status codes:
// ValidationFailure -> 400, AuthorizationFailure -> 403 (401 is the
// middleware's — it means the credential itself did not resolve).
// Anything else is an internal error: logged with detail, returned
// without it.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errs.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errs.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		logger.Error("internal error", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
