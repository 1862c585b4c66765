package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/oussamaFadhli/leads-generator/internal/config"
	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
	"github.com/oussamaFadhli/leads-generator/internal/platform/reddit"
)

// Orchestrator gates, paces and sequences write actions for one generated
// post: health gate, duplicate guard, paced write with reply-to-submission
// fallback, outcome recording.
//
// Targets are processed strictly in order; no attempt for target N+1 begins
// before target N's attempt and its pacing delay complete. The caller must
// guarantee at most one concurrent run per post id.
type Orchestrator struct {
	Store    ports.Storage
	Platform ports.Platform
	Gate     *HealthGate
	Guard    *DuplicateGuard
	Targets  []string
	Config   config.PostingConfig
}

func NewOrchestrator(store ports.Storage, platform ports.Platform, gate *HealthGate, targets []string, cfg config.PostingConfig) *Orchestrator {
	return &Orchestrator{
		Store:    store,
		Platform: platform,
		Gate:     gate,
		Guard:    NewDuplicateGuard(store),
		Targets:  targets,
		Config:   cfg,
	}
}

// Post attempts to publish the generated content of the given post into the
// configured target communities. It returns true if at least one target
// succeeded; false leaves the post retriable by a later invocation.
func (o *Orchestrator) Post(ctx context.Context, postID int64) (bool, error) {
	post, err := o.Store.GetPost(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("post %d: %w", postID, err)
	}

	// Preconditions; each is a hard abort with no state change.
	if post.GeneratedTitle == "" || post.GeneratedContent == "" {
		return false, fmt.Errorf("post %d has no generated content: %w", postID, domain.ErrGenerationFailure)
	}
	if !post.AIGenerated {
		return false, fmt.Errorf("post %d is not marked as AI-generated", postID)
	}
	if post.IsPosted {
		slog.Warn("post already marked as posted, skipping", "post_id", postID)
		return false, nil
	}

	// A stale posted_url without the flag means an earlier run died between
	// the platform write and the persist. Repair instead of double-posting.
	if post.PostedURL != "" {
		slog.Info("post has an existing posted_url, marking as posted", "post_id", postID, "posted_url", post.PostedURL)
		if err := o.markPosted(ctx, post, post.PostedURL, firstTarget(o.Targets)); err != nil {
			return false, err
		}
		return false, nil
	}

	if _, err := o.Gate.Check(ctx); err != nil {
		return false, fmt.Errorf("account health check failed, aborting run: %w", err)
	}

	if len(o.Targets) == 0 {
		slog.Warn("no target subreddits configured, skipping", "post_id", postID)
		return false, nil
	}

	posted := false
	for _, target := range o.Targets {
		done, err := o.attemptTarget(ctx, post, target)
		if done {
			// A confirmed, persisted write counts even when the pacing delay
			// after it was cancelled.
			posted = true
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, domain.ErrAuthFailure) {
				return posted, err
			}
			slog.Error("failed to post to target", "post_id", postID, "subreddit", target, "error", err)
			continue
		}
		if done && !o.Config.PostPerTarget {
			break
		}
	}

	if !posted {
		slog.Warn("post was not successfully posted to any target", "post_id", postID)
	}
	return posted, nil
}

// attemptTarget runs guard, pacing and the write sequence for one target.
// The bool is true only after a confirmed write with a permalink.
func (o *Orchestrator) attemptTarget(ctx context.Context, post *domain.Post, target string) (bool, error) {
	already, err := o.Guard.AlreadyPosted(ctx, post.LeadID, target)
	if err != nil {
		return false, fmt.Errorf("duplicate check for r/%s: %w", target, err)
	}
	if already {
		return false, nil
	}

	slog.Info("waiting before posting (anti-spam delay)", "subreddit", target, "delay", o.Config.PrePostDelay)
	if err := wait(ctx, o.Config.PrePostDelay); err != nil {
		return false, err
	}

	permalink, writeErr := o.attemptWrite(ctx, post, target)

	if writeErr == nil {
		// Persist the success before the post-action delay so a cancel
		// during pacing cannot lose a confirmed write. The persist itself
		// runs detached from the cancellable context for the same reason.
		if err := o.markPosted(context.WithoutCancel(ctx), post, permalink, target); err != nil {
			return false, err
		}
	} else {
		o.recordAttempt(context.WithoutCancel(ctx), post, target, false, "")
	}

	if err := wait(ctx, jitter(o.Config.PostActionDelayMin, o.Config.PostActionDelayMax)); err != nil {
		if writeErr == nil {
			// The write landed and is persisted; a cancelled pacing delay
			// only stops further targets.
			return true, err
		}
		return false, err
	}

	if writeErr != nil {
		return false, writeErr
	}
	slog.Info("successfully posted", "subreddit", target, "permalink", permalink)
	return true, nil
}

// attemptWrite performs the two-step attempt sequence: when the original
// url is a reply context, try replying under that submission first and fall
// back to a fresh submission; otherwise submit directly.
func (o *Orchestrator) attemptWrite(ctx context.Context, post *domain.Post, target string) (string, error) {
	if submissionID, ok := reddit.SubmissionID(post.URL); ok {
		if err := wait(ctx, jitter(o.Config.ReplyDelayMin, o.Config.ReplyDelayMax)); err != nil {
			return "", err
		}
		permalink, replyErr := o.Platform.Reply(ctx, "t3_"+submissionID, post.GeneratedContent)
		if replyErr == nil {
			slog.Info("posted comment under original thread", "subreddit", target, "submission", submissionID)
			return permalink, nil
		}
		if ctx.Err() != nil {
			return "", replyErr
		}
		slog.Error("failed to post as comment, trying as new post", "submission", submissionID, "error", replyErr)
	}
	return o.Platform.Submit(ctx, target, post.GeneratedTitle, post.GeneratedContent)
}

// markPosted flips is_posted together with posted_url (they change in one
// update; partial cancellation cannot split them) and records the
// successful attempt for the duplicate guard.
func (o *Orchestrator) markPosted(ctx context.Context, post *domain.Post, permalink, target string) error {
	posted := true
	update := domain.PostUpdate{IsPosted: &posted, PostedURL: &permalink}
	if err := o.Store.UpdatePost(ctx, post.ID, update); err != nil {
		return fmt.Errorf("persist posted state for post %d: %w", post.ID, err)
	}
	post.IsPosted = true
	post.PostedURL = permalink
	o.recordAttempt(ctx, post, target, true, permalink)
	return nil
}

func (o *Orchestrator) recordAttempt(ctx context.Context, post *domain.Post, target string, succeeded bool, permalink string) {
	attempt := domain.PostingAttempt{
		ID:        uuid.NewString(),
		LeadID:    post.LeadID,
		PostID:    post.ID,
		Subreddit: target,
		Succeeded: succeeded,
		Permalink: permalink,
		CreatedAt: time.Now(),
	}
	if err := o.Store.RecordAttempt(ctx, attempt); err != nil {
		slog.Error("failed to record posting attempt", "post_id", post.ID, "subreddit", target, "error", err)
	}
}

// wait is a cancellable pacing delay: a supervising context can cancel or
// time out a stuck run without stalling unrelated work.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func firstTarget(targets []string) string {
	if len(targets) == 0 {
		return "N/A"
	}
	return targets[0]
}
