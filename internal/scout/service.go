// Package scout fetches community material for a lead and scores it
// against the SaaS descriptor.
package scout

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/oussamaFadhli/leads-generator/internal/config"
	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
	"github.com/oussamaFadhli/leads-generator/internal/normalize"
)

// scoredSpec is the normalization contract for the scoring pass: a wrapper
// object with a "posts" key, each record carrying the original url plus the
// score fields.
var scoredSpec = normalize.Spec{
	WrapperKey: "posts",
	Required:   []string{"url", "lead_score", "score_justification"},
	ListFields: []string{"subreddits"},
}

// scoredPost is the slice of a scored record this pass consumes; the rest
// of the record (echoed original fields) is dropped.
type scoredPost struct {
	URL                string  `json:"url"`
	LeadScore          float64 `json:"lead_score"`
	ScoreJustification string  `json:"score_justification"`
}

type Service struct {
	Brain    ports.Brain
	Platform ports.Platform
	Store    ports.Storage
	Config   config.ScoutConfig
}

func NewService(brain ports.Brain, platform ports.Platform, store ports.Storage, cfg config.ScoutConfig) *Service {
	return &Service{Brain: brain, Platform: platform, Store: store, Config: cfg}
}

// ScoutSubreddit fetches the community's top posts for the configured
// window, persists them deduplicated by (lead, url), and runs the scoring
// pass over everything saved for the lead.
func (s *Service) ScoutSubreddit(ctx context.Context, saasInfoID, leadID int64, subreddit string) error {
	slog.Info("starting subreddit analysis", "subreddit", subreddit, "lead_id", leadID)

	saas, err := s.Store.GetSaaSInfo(ctx, saasInfoID)
	if err != nil {
		return fmt.Errorf("saas info %d: %w", saasInfoID, err)
	}
	if _, err := s.Store.GetLead(ctx, leadID); err != nil {
		return fmt.Errorf("lead %d: %w", leadID, err)
	}

	// Review the community's rules before ever posting there.
	if rules, err := s.Platform.Rules(ctx, subreddit); err == nil {
		slog.Info("fetched subreddit rules, review them before posting", "subreddit", subreddit, "rules", len(rules))
	} else {
		slog.Debug("could not fetch subreddit rules", "subreddit", subreddit, "error", err)
	}

	if err := pause(ctx, s.Config.FetchDelayMin, s.Config.FetchDelayMax); err != nil {
		return err
	}

	posts, err := s.Platform.TopPosts(ctx, subreddit, s.Config.TimeWindow, s.Config.PostLimit)
	if err != nil {
		return fmt.Errorf("fetch posts from r/%s: %w", subreddit, err)
	}

	saved := 0
	for _, post := range posts {
		post.LeadID = leadID
		if _, created, err := s.Store.CreatePost(ctx, post); err != nil {
			slog.Error("error saving post", "url", post.URL, "error", err)
		} else if created {
			saved++
		}
	}
	slog.Info("saved posts", "subreddit", subreddit, "lead_id", leadID, "saved", saved, "fetched", len(posts))

	return s.scoreLead(ctx, *saas, leadID)
}

// scoreLead asks the backend to rank the lead's saved posts and writes the
// scores back onto the matching rows, keyed by url.
func (s *Service) scoreLead(ctx context.Context, saas domain.SaaSInfo, leadID int64) error {
	posts, err := s.Store.ListPosts(ctx, leadID)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		slog.Warn("no posts found for lead to analyze", "lead_id", leadID)
		return nil
	}

	raw, err := s.Brain.ScorePosts(ctx, saas, posts)
	if err != nil {
		return fmt.Errorf("score posts for lead %d: %w", leadID, err)
	}

	scored, err := normalize.Decode[scoredPost](raw, scoredSpec)
	if err != nil {
		return fmt.Errorf("scoring result for lead %d: %w", leadID, err)
	}
	slog.Info("lead analysis completed", "lead_id", leadID, "scored", len(scored))

	for _, sp := range scored {
		post, err := s.Store.GetPostByURL(ctx, leadID, sp.URL)
		if err != nil {
			slog.Warn("scored post not found for update", "url", sp.URL)
			continue
		}
		update := domain.PostUpdate{
			LeadScore:          &sp.LeadScore,
			ScoreJustification: &sp.ScoreJustification,
		}
		if err := s.Store.UpdatePost(ctx, post.ID, update); err != nil {
			slog.Error("error updating scored post", "post_id", post.ID, "error", err)
		}
	}
	return nil
}

// FetchComments captures a submission's top-level comments for the reply
// flow, skipping deleted ones.
func (s *Service) FetchComments(ctx context.Context, postURL string) ([]domain.Comment, error) {
	if err := pause(ctx, s.Config.FetchDelayMin, s.Config.FetchDelayMax); err != nil {
		return nil, err
	}
	comments, err := s.Platform.TopLevelComments(ctx, postURL)
	if err != nil {
		return nil, fmt.Errorf("fetch comments from %s: %w", postURL, err)
	}

	var saved []domain.Comment
	for _, comment := range comments {
		c, err := s.Store.CreateComment(ctx, comment)
		if err != nil {
			slog.Error("error saving comment", "comment_id", comment.CommentID, "error", err)
			continue
		}
		saved = append(saved, *c)
	}
	slog.Info("fetched top-level comments", "url", postURL, "saved", len(saved))
	return saved, nil
}

func pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
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
