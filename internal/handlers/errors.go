package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"group-service/internal/repositories"
	"group-service/internal/services"
)

// abortWithError maps service and repository errors onto stable HTTP
// statuses.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrGroupNotFound),
		errors.Is(err, repositories.ErrPostNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
