package compose

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/storage"
)

type fakeBrain struct {
	generatePost  func(ctx context.Context, saas domain.SaaSInfo, original domain.Post) (string, error)
	generateReply func(ctx context.Context, saas domain.SaaSInfo, comment string) (string, error)
}

func (f *fakeBrain) SearchLeads(ctx context.Context, saas domain.SaaSInfo) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeBrain) ScorePosts(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeBrain) GeneratePost(ctx context.Context, saas domain.SaaSInfo, original domain.Post) (string, error) {
	return f.generatePost(ctx, saas, original)
}

func (f *fakeBrain) GenerateReply(ctx context.Context, saas domain.SaaSInfo, comment string) (string, error) {
	return f.generateReply(ctx, saas, comment)
}

func setup(t *testing.T) (*storage.JSONStorage, int64, *domain.Post) {
	t.Helper()
	store, err := storage.NewJSONStorage(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	info, err := store.SeedSaaSInfo(domain.SaaSInfo{Name: "Octopus"})
	require.NoError(t, err)
	post, _, err := store.CreatePost(context.Background(), domain.Post{
		LeadID:  1,
		Title:   "struggling with acme pricing",
		Content: "it doubled overnight and support went silent",
		URL:     "https://www.reddit.com/r/saas/comments/abc/x/",
	})
	require.NoError(t, err)
	return store, info.ID, post
}

func TestComposePostPersistsGeneratedPair(t *testing.T) {
	store, infoID, post := setup(t)
	brain := &fakeBrain{
		generatePost: func(ctx context.Context, saas domain.SaaSInfo, original domain.Post) (string, error) {
			assert.Equal(t, "struggling with acme pricing", original.Title)
			return "```json\n{\"title\":\"anyone else fighting pricing surprises?\",\"content\":\"found a tool that fixed this for me\"}\n```", nil
		},
	}

	svc := NewService(brain, store)
	require.NoError(t, svc.ComposePost(context.Background(), infoID, post.ID))

	after, err := store.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "anyone else fighting pricing surprises?", after.GeneratedTitle)
	assert.Equal(t, "found a tool that fixed this for me", after.GeneratedContent)
	assert.True(t, after.AIGenerated)
	// Original fields stay intact for later review.
	assert.Equal(t, "struggling with acme pricing", after.Title)
}

func TestComposePostEmptyGenerationMutatesNothing(t *testing.T) {
	store, infoID, post := setup(t)
	brain := &fakeBrain{
		generatePost: func(ctx context.Context, saas domain.SaaSInfo, original domain.Post) (string, error) {
			return `{"title":"","content":""}`, nil
		},
	}

	svc := NewService(brain, store)
	err := svc.ComposePost(context.Background(), infoID, post.ID)
	assert.ErrorIs(t, err, domain.ErrGenerationFailure)

	after, getErr := store.GetPost(context.Background(), post.ID)
	require.NoError(t, getErr)
	assert.Empty(t, after.GeneratedTitle)
	assert.Empty(t, after.GeneratedContent)
	assert.False(t, after.AIGenerated)
}

func TestComposePostNonConformingGeneration(t *testing.T) {
	store, infoID, post := setup(t)
	brain := &fakeBrain{
		generatePost: func(ctx context.Context, saas domain.SaaSInfo, original domain.Post) (string, error) {
			return "Sure! Here is a great post idea for you.", nil
		},
	}

	svc := NewService(brain, store)
	err := svc.ComposePost(context.Background(), infoID, post.ID)
	assert.ErrorIs(t, err, domain.ErrGenerationFailure)
}

func TestComposeReplyReturnsContent(t *testing.T) {
	store, infoID, _ := setup(t)
	brain := &fakeBrain{
		generateReply: func(ctx context.Context, saas domain.SaaSInfo, comment string) (string, error) {
			assert.Equal(t, "same here, acme keeps raising prices", comment)
			return `{"content":"I switched recently and it has been painless"}`, nil
		},
	}

	svc := NewService(brain, store)
	reply, err := svc.ComposeReply(context.Background(), infoID, "same here, acme keeps raising prices")
	require.NoError(t, err)
	assert.Equal(t, "I switched recently and it has been painless", reply)
}

func TestComposeReplyEmptyContentIsFailure(t *testing.T) {
	store, infoID, _ := setup(t)
	brain := &fakeBrain{
		generateReply: func(ctx context.Context, saas domain.SaaSInfo, comment string) (string, error) {
			return `{"content":""}`, nil
		},
	}

	svc := NewService(brain, store)
	_, err := svc.ComposeReply(context.Background(), infoID, "some comment")
	assert.ErrorIs(t, err, domain.ErrGenerationFailure)
}

func TestPreviewPostTruncatesLongOriginal(t *testing.T) {
	store, _, _ := setup(t)
	longPost, _, err := store.CreatePost(context.Background(), domain.Post{
		LeadID: 1, URL: "https://example.com/long", Title: "long one", Content: strings.Repeat("a", 500),
	})
	require.NoError(t, err)

	svc := NewService(&fakeBrain{}, store)
	preview, err := svc.PreviewPost(context.Background(), longPost.ID)
	require.NoError(t, err)
	assert.Len(t, preview.OriginalContent, 203)
	assert.True(t, strings.HasSuffix(preview.OriginalContent, "..."))
	assert.Equal(t, "long one", preview.OriginalTitle)
}
