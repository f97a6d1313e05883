package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ActivateClickTask is the one-time opt-in for the daily micro-task.
func (h *Handler) ActivateClickTask(c *gin.Context) {
	if err := h.engine.Clicks.Activate(c.Request.Context(), callerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "activated"})
}

// RecordClick rewards one click, subject to the daily count and budget caps.
func (h *Handler) RecordClick(c *gin.Context) {
	result, err := h.engine.Clicks.Record(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
