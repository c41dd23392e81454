package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// respondError maps domain error kinds to HTTP status codes in one
// place. Unclassified errors become opaque 500s.
func respondError(c *gin.Context, err error) {
	var de *entities.Error
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	switch de.Kind {
	case entities.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": de.Message})
	case entities.KindValidation, entities.KindBlocked:
		c.JSON(http.StatusBadRequest, gin.H{"error": de.Message})
	case entities.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": de.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
