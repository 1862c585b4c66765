package posting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamaFadhli/leads-generator/internal/config"
	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
)

func TestHealthGateHealthyAccount(t *testing.T) {
	platform := &fakePlatform{
		me: func(ctx context.Context) (*domain.Account, error) {
			return &domain.Account{Name: "bot", Karma: 50, AgeDays: 7, VerifiedEmail: true}, nil
		},
	}
	gate := NewHealthGate(platform, config.HealthConfig{MinKarma: 50, MinAgeDays: 7})

	a, err := gate.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, a.Reachable)
	assert.Empty(t, a.Signals)
}

func TestHealthGateSignalsAreAdvisory(t *testing.T) {
	platform := &fakePlatform{
		me: func(ctx context.Context) (*domain.Account, error) {
			return &domain.Account{Name: "bot", Karma: 49, AgeDays: 6.9, VerifiedEmail: false}, nil
		},
	}
	gate := NewHealthGate(platform, config.HealthConfig{MinKarma: 50, MinAgeDays: 7})

	a, err := gate.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, a.Reachable)
	assert.ElementsMatch(t,
		[]RiskSignal{SignalLowKarma, SignalNewAccount, SignalUnverifiedEmail},
		a.Signals)
}

func TestHealthGateUnreachableAccountIsFatal(t *testing.T) {
	platform := &fakePlatform{
		me: func(ctx context.Context) (*domain.Account, error) {
			return nil, errors.New("connection refused")
		},
	}
	gate := NewHealthGate(platform, config.HealthConfig{MinKarma: 50, MinAgeDays: 7})

	_, err := gate.Check(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthFailure)
}

func TestDuplicateGuard(t *testing.T) {
	store := newTestStore(t)
	guard := NewDuplicateGuard(store)
	ctx := context.Background()

	already, err := guard.AlreadyPosted(ctx, 1, "sub")
	require.NoError(t, err)
	assert.False(t, already)

	// A failed attempt does not consume the (lead, community) slot.
	require.NoError(t, store.RecordAttempt(ctx, domain.PostingAttempt{
		ID: "a1", LeadID: 1, PostID: 10, Subreddit: "sub", Succeeded: false,
	}))
	already, err = guard.AlreadyPosted(ctx, 1, "sub")
	require.NoError(t, err)
	assert.False(t, already)

	require.NoError(t, store.RecordAttempt(ctx, domain.PostingAttempt{
		ID: "a2", LeadID: 1, PostID: 10, Subreddit: "sub", Succeeded: true,
	}))
	already, err = guard.AlreadyPosted(ctx, 1, "sub")
	require.NoError(t, err)
	assert.True(t, already)

	// Other leads and other communities are unaffected.
	already, err = guard.AlreadyPosted(ctx, 2, "sub")
	require.NoError(t, err)
	assert.False(t, already)

	already, err = guard.AlreadyPosted(ctx, 1, "other")
	require.NoError(t, err)
	assert.False(t, already)
}
