package posting

import (
	"context"
	"log/slog"

	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
)

// DuplicateGuard enforces at-most-once posting per (lead, subreddit) pair
// by consulting persisted attempt history.
//
// The check-then-act window is not atomic against concurrent invocations
// for the same key; callers must guarantee single-flight processing per
// Post id (the run loop does, by processing posts sequentially).
type DuplicateGuard struct {
	Store ports.Storage
}

func NewDuplicateGuard(store ports.Storage) *DuplicateGuard {
	return &DuplicateGuard{Store: store}
}

// AlreadyPosted reports whether a prior successful attempt exists for the
// (lead, subreddit) key. Checked immediately before the first
// side-effecting call for that target.
func (g *DuplicateGuard) AlreadyPosted(ctx context.Context, leadID int64, subreddit string) (bool, error) {
	posted, err := g.Store.HasSuccessfulAttempt(ctx, leadID, subreddit)
	if err != nil {
		return false, err
	}
	if posted {
		slog.Warn("already posted for lead, skipping duplicate", "lead_id", leadID, "subreddit", subreddit)
	}
	return posted, nil
}
