// Package handlers exposes the portal and admin surfaces over HTTP.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wixxidevelop/blue/internal/session"
	"github.com/wixxidevelop/blue/internal/store"
)

// respondError maps document store failures onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var corrupt *store.CorruptDataError
	switch {
	case errors.As(err, &corrupt):
		log.Printf("corrupt document %s: %v", corrupt.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "corrupt data", "document": corrupt.Name})
	case errors.Is(err, session.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "session busy"})
	case store.IsStorage(err):
		log.Printf("storage failure: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
