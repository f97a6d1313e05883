// Package handlers is the thin HTTP surface over the engine. No money logic
// lives here; handlers decode, call one engine operation and encode.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/agent-earnings-engine/internal/engine"
	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/middleware"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
)

type Handler struct {
	engine *engine.Engine
	log    *zap.Logger
}

func New(e *engine.Engine, log *zap.Logger) *Handler {
	return &Handler{engine: e, log: log}
}

func callerID(c *gin.Context) string {
	return c.GetString(middleware.CtxAccountID)
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.CtxRole) == "admin"
}

func respondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)

	status := http.StatusBadRequest
	switch code {
	case apperrors.CodeNotFound:
		status = http.StatusNotFound
	case apperrors.CodeAlreadyClaimed, apperrors.CodeAlreadyDecided:
		status = http.StatusConflict
	case apperrors.CodeInsufficientFunds:
		status = http.StatusUnprocessableEntity
	case apperrors.CodeTransientFailure:
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"code": string(code), "error": err.Error()})
}

// packageView decorates a package with its derived state and accrued income.
type packageView struct {
	models.InvestmentPackage
	State   models.PackageState `json:"state"`
	Accrued decimal.Decimal     `json:"accrued_income"`
}

func viewPackage(pkg models.InvestmentPackage, now time.Time) packageView {
	return packageView{
		InvestmentPackage: pkg,
		State:             pkg.StateAt(now),
		Accrued:           pkg.AccruedAt(now),
	}
}
