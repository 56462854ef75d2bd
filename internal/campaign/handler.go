package campaign

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler exposes campaign triggering over HTTP.
type Handler struct {
	Dispatcher *Dispatcher

	// Base is the process root context. Dispatched calls and the settle
	// phase must keep running after the triggering request returns.
	Base context.Context
}

// Trigger accepts a multipart roster upload under the "file" field, places
// one call per entry and responds with the placement log.
func (h Handler) Trigger(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "roster file required"})
		return
	}
	defer file.Close()

	entries, err := ParseRoster(file)
	if err != nil {
		if errors.Is(err, ErrEmptyRoster) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "roster contains no entries"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	base := h.Base
	if base == nil {
		base = context.Background()
	}
	lines, err := h.Dispatcher.Run(base, entries)
	if err != nil {
		if errors.Is(err, ErrCampaignRunning) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign dispatch failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": len(entries), "results": lines})
}
