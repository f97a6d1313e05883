package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

type withdrawalRequest struct {
	Source      models.Source      `json:"source"`
	Amount      decimal.Decimal    `json:"amount"`
	Destination models.Destination `json:"destination"`
}

// RequestWithdrawal files a PENDING cash-out against one source.
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	request, err := h.engine.Withdrawals.Request(c.Request.Context(), callerID(c), req.Source, req.Amount, req.Destination)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ListWithdrawals lists the caller's requests. Admins may pass account_id or
// all=true.
func (h *Handler) ListWithdrawals(c *gin.Context) {
	accountID := callerID(c)
	if isAdmin(c) {
		if c.Query("all") == "true" {
			accountID = ""
		} else if requested := c.Query("account_id"); requested != "" {
			accountID = requested
		}
	}

	requests, err := h.engine.Withdrawals.List(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

type decideRequest struct {
	Decision string `json:"decision"` // APPROVE or REJECT
}

// DecideWithdrawal is the admin approval/rejection.
func (h *Handler) DecideWithdrawal(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var approve bool
	switch strings.ToUpper(req.Decision) {
	case "APPROVE":
		approve = true
	case "REJECT":
		approve = false
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be APPROVE or REJECT"})
		return
	}

	request, err := h.engine.Withdrawals.Decide(c.Request.Context(), c.Param("id"), approve, callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}
