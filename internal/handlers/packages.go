package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type openPackageRequest struct {
	Tier      string          `json:"tier"`
	Principal decimal.Decimal `json:"principal"`
}

// OpenPackage debits the caller's shared-capital wallet and opens a package.
func (h *Handler) OpenPackage(c *gin.Context) {
	var req openPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pkg, err := h.engine.Packages.Open(c.Request.Context(), callerID(c), req.Tier, req.Principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewPackage(pkg, h.engine.Packages.Now()()))
}

// ClaimPackage settles a matured package.
func (h *Handler) ClaimPackage(c *gin.Context) {
	pkg, err := h.engine.Packages.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if pkg.AccountID != callerID(c) && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your package"})
		return
	}

	claimed, err := h.engine.Packages.Claim(c.Request.Context(), pkg.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewPackage(claimed, h.engine.Packages.Now()()))
}

// GetPackage returns one package with derived state and accrued income.
func (h *Handler) GetPackage(c *gin.Context) {
	pkg, err := h.engine.Packages.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if pkg.AccountID != callerID(c) && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your package"})
		return
	}
	c.JSON(http.StatusOK, viewPackage(pkg, h.engine.Packages.Now()()))
}

// ListPackages lists the caller's packages; admins may pass account_id.
func (h *Handler) ListPackages(c *gin.Context) {
	accountID := callerID(c)
	if requested := c.Query("account_id"); requested != "" && isAdmin(c) {
		accountID = requested
	}

	pkgs, err := h.engine.Packages.List(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.engine.Packages.Now()()
	views := make([]packageView, 0, len(pkgs))
	for _, pkg := range pkgs {
		views = append(views, viewPackage(pkg, now))
	}
	c.JSON(http.StatusOK, views)
}
