package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

type createAccountRequest struct {
	ID       string `json:"id"`
	UplineID string `json:"upline_id"`
}

// CreateAccount is the admin operation run at registration approval.
func (h *Handler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := h.engine.CreateAccount(c.Request.Context(), req.ID, req.UplineID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// GetAccount returns one participant.
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.engine.Account(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// DeactivateAccount soft-deactivates a participant.
func (h *Handler) DeactivateAccount(c *gin.Context) {
	if err := h.engine.DeactivateAccount(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

// GetBalances returns all four source balances plus the referral aggregate.
func (h *Handler) GetBalances(c *gin.Context) {
	accountID := c.Param("id")
	if accountID != callerID(c) && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your account"})
		return
	}

	balances, err := h.engine.Ledger.Balances(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	referralTotal := balances[models.SourceReferralDirect].Add(balances[models.SourceReferralIndirect])
	c.JSON(http.StatusOK, gin.H{
		"account_id":     accountID,
		"balances":       balances,
		"referral_total": referralTotal,
	})
}

// GetBalance returns one source balance.
func (h *Handler) GetBalance(c *gin.Context) {
	accountID := c.Param("id")
	if accountID != callerID(c) && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your account"})
		return
	}

	source := models.Source(c.Query("source"))
	balance, err := h.engine.Ledger.Balance(c.Request.Context(), accountID, source)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id": accountID,
		"source":     source,
		"balance":    balance,
	})
}

// ListEntries returns an account's ledger history.
func (h *Handler) ListEntries(c *gin.Context) {
	accountID := c.Param("id")
	if accountID != callerID(c) && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your account"})
		return
	}

	entries, err := h.engine.Ledger.Entries(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ReverseEntry posts a correcting REVERSAL for an existing entry.
func (h *Handler) ReverseEntry(c *gin.Context) {
	entry, err := h.engine.ReverseEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
