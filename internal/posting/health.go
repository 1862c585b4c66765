package posting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oussamaFadhli/leads-generator/internal/config"
	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
)

// RiskSignal is an advisory account health warning. Signals never block a
// run on their own; only an unreachable account does.
type RiskSignal string

const (
	SignalLowKarma        RiskSignal = "low_karma"
	SignalNewAccount      RiskSignal = "new_account"
	SignalUnverifiedEmail RiskSignal = "unverified_email"
)

// Assessment is the health gate's verdict on the posting account.
type Assessment struct {
	Reachable bool
	Account   *domain.Account
	Signals   []RiskSignal
}

// HealthGate inspects the authenticated account's public signals before any
// write action. It never mutates account state.
type HealthGate struct {
	Platform ports.Platform
	Config   config.HealthConfig
}

func NewHealthGate(platform ports.Platform, cfg config.HealthConfig) *HealthGate {
	return &HealthGate{Platform: platform, Config: cfg}
}

// Check queries the account and evaluates the risk thresholds. An error
// means the session cannot be queried at all, which is fatal to the whole
// posting run.
func (g *HealthGate) Check(ctx context.Context) (Assessment, error) {
	account, err := g.Platform.Me(ctx)
	if err != nil {
		return Assessment{}, fmt.Errorf("%w: %v", domain.ErrAuthFailure, err)
	}

	slog.Info("account health",
		"account", account.Name,
		"karma", account.Karma,
		"age_days", fmt.Sprintf("%.1f", account.AgeDays),
		"verified_email", account.VerifiedEmail,
	)

	a := Assessment{Reachable: true, Account: account}
	if account.Karma < g.Config.MinKarma {
		a.Signals = append(a.Signals, SignalLowKarma)
		slog.Warn("low karma account - high spam detection risk", "karma", account.Karma)
	}
	if account.AgeDays < g.Config.MinAgeDays {
		a.Signals = append(a.Signals, SignalNewAccount)
		slog.Warn("new account - high spam detection risk", "age_days", account.AgeDays)
	}
	if !account.VerifiedEmail {
		a.Signals = append(a.Signals, SignalUnverifiedEmail)
		slog.Warn("email not verified - posts may be auto-removed")
	}
	return a, nil
}
