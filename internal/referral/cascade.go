// Package referral posts commissions up the referral forest when a
// commission-qualifying event occurs.
package referral

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/sheikh-saqib/agent-earnings-engine/internal/errors"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/interfaces"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/ledger"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/models"
	"github.com/sheikh-saqib/agent-earnings-engine/internal/monitoring"
)

// Config holds the commission rates and walk bounds. PayInactive controls
// whether a deactivated upline still receives its commission.
type Config struct {
	DirectRate   decimal.Decimal
	IndirectRate decimal.Decimal
	MaxDepth     int
	PayInactive  bool
}

// Cascade walks the upline chain and posts bounded-depth commission entries.
type Cascade struct {
	ledger   *ledger.Ledger
	accounts interfaces.AccountStore
	cfg      Config
	log      *zap.Logger
}

func New(l *ledger.Ledger, accounts interfaces.AccountStore, cfg Config, log *zap.Logger) *Cascade {
	return &Cascade{ledger: l, accounts: accounts, cfg: cfg, log: log}
}

// Distribute posts one commission entry per upline hop for the event. Level 1
// earns principal × directRate as REFERRAL_DIRECT; deeper levels earn
// principal × indirectRate as REFERRAL_INDIRECT, up to MaxDepth. Each hop is
// its own atomic unit keyed by (eventID, recipient, source), so re-running a
// partially delivered cascade only posts the missing hops.
func (c *Cascade) Distribute(ctx context.Context, eventID, accountID string, principal decimal.Decimal) error {
	account, err := c.accounts.Account(ctx, accountID)
	if err != nil {
		return err
	}

	// The walk is iterative with an explicit depth counter and a visited
	// guard; a cycle would mean corrupted upline data, so it stops the walk
	// rather than looping.
	visited := map[string]bool{accountID: true}
	uplineID := account.UplineID

	for depth := 1; uplineID != "" && depth <= c.cfg.MaxDepth; depth++ {
		if visited[uplineID] {
			c.log.Warn("upline cycle detected, stopping cascade",
				zap.String("event_id", eventID),
				zap.String("account_id", uplineID))
			break
		}
		visited[uplineID] = true

		upline, err := c.accounts.Account(ctx, uplineID)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				c.log.Warn("upline missing, stopping cascade",
					zap.String("event_id", eventID),
					zap.String("account_id", uplineID))
				break
			}
			return err
		}

		source := models.SourceReferralIndirect
		rate := c.cfg.IndirectRate
		if depth == 1 {
			source = models.SourceReferralDirect
			rate = c.cfg.DirectRate
		}
		amount := principal.Mul(rate).RoundBank(0)

		if amount.IsPositive() && (upline.IsActive || c.cfg.PayInactive) {
			level := depth
			err := c.ledger.Apply(ctx, upline.ID, source, func(v *ledger.View) error {
				exists, err := v.ReferenceExists(eventID)
				if err != nil {
					return err
				}
				if exists {
					return nil // this hop already delivered
				}
				if _, err := v.Append(models.LedgerEntry{
					Amount:    amount,
					Kind:      models.KindCreditEarning,
					Reference: eventID,
				}); err != nil {
					return err
				}
				monitoring.CommissionsPostedTotal.WithLabelValues(strconv.Itoa(level)).Inc()
				return nil
			})
			if err != nil {
				return err
			}
		}

		uplineID = upline.UplineID
	}
	return nil
}
