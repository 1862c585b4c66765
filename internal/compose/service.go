// Package compose asks the backend to rewrite community material into
// disguised promotional drafts and attaches them to the owning Post.
package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
	"github.com/oussamaFadhli/leads-generator/internal/normalize"
)

// generatedPost is the {title, content} shape a new-post generation must
// conform to.
type generatedPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// generatedReply is the {content} shape a reply generation must conform to.
type generatedReply struct {
	Content string `json:"content"`
}

type Service struct {
	Brain ports.Brain
	Store ports.Storage
}

func NewService(brain ports.Brain, store ports.Storage) *Service {
	return &Service{Brain: brain, Store: store}
}

// ComposePost generates a disguised {title, content} pair for the post and
// persists it with ai_generated set. An empty or non-conforming response is
// a generation failure and never updates persisted state.
func (s *Service) ComposePost(ctx context.Context, saasInfoID, postID int64) error {
	slog.Info("starting post generation", "post_id", postID)
	saas, err := s.Store.GetSaaSInfo(ctx, saasInfoID)
	if err != nil {
		return fmt.Errorf("saas info %d: %w", saasInfoID, err)
	}
	post, err := s.Store.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("post %d: %w", postID, err)
	}

	raw, err := s.Brain.GeneratePost(ctx, *saas, *post)
	if err != nil {
		return fmt.Errorf("generate for post %d: %w", postID, err)
	}

	var generated generatedPost
	if err := json.Unmarshal([]byte(normalize.CleanJSON(raw)), &generated); err != nil {
		return fmt.Errorf("post %d: %w: %v", postID, domain.ErrGenerationFailure, err)
	}
	if generated.Title == "" || generated.Content == "" {
		return fmt.Errorf("post %d: %w: empty title or content", postID, domain.ErrGenerationFailure)
	}

	aiGenerated := true
	update := domain.PostUpdate{
		GeneratedTitle:   &generated.Title,
		GeneratedContent: &generated.Content,
		AIGenerated:      &aiGenerated,
	}
	if err := s.Store.UpdatePost(ctx, postID, update); err != nil {
		return fmt.Errorf("persist generated content for post %d: %w", postID, err)
	}
	slog.Info("post generation completed", "post_id", postID)
	return nil
}

// ComposeReply generates a disguised reply for an original comment. The
// text is returned, not persisted; the reply flow decides what to do with it.
func (s *Service) ComposeReply(ctx context.Context, saasInfoID int64, originalComment string) (string, error) {
	saas, err := s.Store.GetSaaSInfo(ctx, saasInfoID)
	if err != nil {
		return "", fmt.Errorf("saas info %d: %w", saasInfoID, err)
	}

	raw, err := s.Brain.GenerateReply(ctx, *saas, originalComment)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	var generated generatedReply
	if err := json.Unmarshal([]byte(normalize.CleanJSON(raw)), &generated); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailure, err)
	}
	if generated.Content == "" {
		return "", fmt.Errorf("%w: empty reply content", domain.ErrGenerationFailure)
	}
	return generated.Content, nil
}

// Preview is the review payload shown to a human before posting.
type Preview struct {
	PostID           int64
	OriginalTitle    string
	OriginalContent  string
	GeneratedTitle   string
	GeneratedContent string
	Subreddits       []string
	LeadScore        float64
	IsPosted         bool
}

// PreviewPost returns the post's original and generated fields for manual
// review. Long original content is truncated for display.
func (s *Service) PreviewPost(ctx context.Context, postID int64) (*Preview, error) {
	post, err := s.Store.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", postID, err)
	}

	original := post.Content
	if len(original) > 200 {
		original = original[:200] + "..."
	}
	return &Preview{
		PostID:           post.ID,
		OriginalTitle:    post.Title,
		OriginalContent:  original,
		GeneratedTitle:   post.GeneratedTitle,
		GeneratedContent: post.GeneratedContent,
		Subreddits:       post.Subreddits,
		LeadScore:        post.LeadScore,
		IsPosted:         post.IsPosted,
	}, nil
}
