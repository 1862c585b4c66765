package scout

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamaFadhli/leads-generator/internal/config"
	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/storage"
)

type fakeBrain struct {
	scorePosts func(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error)
}

func (f *fakeBrain) SearchLeads(ctx context.Context, saas domain.SaaSInfo) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeBrain) ScorePosts(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error) {
	return f.scorePosts(ctx, saas, posts)
}

func (f *fakeBrain) GeneratePost(ctx context.Context, saas domain.SaaSInfo, original domain.Post) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeBrain) GenerateReply(ctx context.Context, saas domain.SaaSInfo, comment string) (string, error) {
	return "", errors.New("not implemented")
}

type fakePlatform struct {
	topPosts         func(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error)
	rules            func(ctx context.Context, subreddit string) ([]string, error)
	topLevelComments func(ctx context.Context, postURL string) ([]domain.Comment, error)
}

func (f *fakePlatform) Me(ctx context.Context) (*domain.Account, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePlatform) TopPosts(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error) {
	return f.topPosts(ctx, subreddit, window, limit)
}

func (f *fakePlatform) Rules(ctx context.Context, subreddit string) ([]string, error) {
	if f.rules != nil {
		return f.rules(ctx, subreddit)
	}
	return nil, errors.New("rules unavailable")
}

func (f *fakePlatform) TopLevelComments(ctx context.Context, postURL string) ([]domain.Comment, error) {
	return f.topLevelComments(ctx, postURL)
}

func (f *fakePlatform) Submit(ctx context.Context, subreddit, title, body string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakePlatform) Reply(ctx context.Context, parentFullname, body string) (string, error) {
	return "", errors.New("not implemented")
}

func setup(t *testing.T) (*storage.JSONStorage, int64, *domain.Lead) {
	t.Helper()
	store, err := storage.NewJSONStorage(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	info, err := store.SeedSaaSInfo(domain.SaaSInfo{Name: "Octopus"})
	require.NoError(t, err)
	lead, err := store.CreateLead(context.Background(), domain.Lead{
		SaaSInfoID: info.ID, CompetitorName: "Acme", RelatedSubreddits: []string{"saas"},
	})
	require.NoError(t, err)
	return store, info.ID, lead
}

func TestScoutSubredditSavesAndScores(t *testing.T) {
	store, infoID, lead := setup(t)

	platform := &fakePlatform{
		topPosts: func(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error) {
			assert.Equal(t, "saas", subreddit)
			assert.Equal(t, "week", window)
			assert.Equal(t, 10, limit)
			return []domain.Post{
				{Title: "acme pricing rant", URL: "https://example.com/a"},
				{Title: "looking for alternatives", URL: "https://example.com/b"},
			}, nil
		},
	}
	brain := &fakeBrain{
		scorePosts: func(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error) {
			assert.Len(t, posts, 2)
			return `{"posts":[
				{"url":"https://example.com/a","lead_score":9.0,"score_justification":"direct complaint"},
				{"url":"https://example.com/b","lead_score":6.5,"score_justification":"open to switching"}
			]}`, nil
		},
	}

	svc := NewService(brain, platform, store, config.ScoutConfig{TimeWindow: "week", PostLimit: 10})
	require.NoError(t, svc.ScoutSubreddit(context.Background(), infoID, lead.ID, "saas"))

	posts, err := store.ListPosts(context.Background(), lead.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	scored, err := store.GetPostByURL(context.Background(), lead.ID, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, 9.0, scored.LeadScore)
	assert.Equal(t, "direct complaint", scored.ScoreJustification)
}

func TestScoutSubredditRefetchDoesNotDuplicate(t *testing.T) {
	store, infoID, lead := setup(t)

	platform := &fakePlatform{
		topPosts: func(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error) {
			return []domain.Post{{Title: "same post", URL: "https://example.com/a"}}, nil
		},
	}
	brain := &fakeBrain{
		scorePosts: func(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error) {
			return `{"posts":[{"url":"https://example.com/a","lead_score":5,"score_justification":"ok"}]}`, nil
		},
	}

	svc := NewService(brain, platform, store, config.ScoutConfig{})
	require.NoError(t, svc.ScoutSubreddit(context.Background(), infoID, lead.ID, "saas"))
	require.NoError(t, svc.ScoutSubreddit(context.Background(), infoID, lead.ID, "saas"))

	posts, err := store.ListPosts(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestScoutSubredditUnknownScoredURLIsSkipped(t *testing.T) {
	store, infoID, lead := setup(t)

	platform := &fakePlatform{
		topPosts: func(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error) {
			return []domain.Post{{Title: "known", URL: "https://example.com/a"}}, nil
		},
	}
	brain := &fakeBrain{
		scorePosts: func(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error) {
			return `{"posts":[
				{"url":"https://example.com/hallucinated","lead_score":10,"score_justification":"made up"},
				{"url":"https://example.com/a","lead_score":4,"score_justification":"real"}
			]}`, nil
		},
	}

	svc := NewService(brain, platform, store, config.ScoutConfig{})
	require.NoError(t, svc.ScoutSubreddit(context.Background(), infoID, lead.ID, "saas"))

	scored, err := store.GetPostByURL(context.Background(), lead.ID, "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, 4.0, scored.LeadScore)
}

func TestScoutSubredditMalformedScoringFails(t *testing.T) {
	store, infoID, lead := setup(t)

	platform := &fakePlatform{
		topPosts: func(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error) {
			return []domain.Post{{Title: "known", URL: "https://example.com/a"}}, nil
		},
	}
	brain := &fakeBrain{
		scorePosts: func(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error) {
			return "cannot produce json right now", nil
		},
	}

	svc := NewService(brain, platform, store, config.ScoutConfig{})
	err := svc.ScoutSubreddit(context.Background(), infoID, lead.ID, "saas")
	assert.ErrorIs(t, err, domain.ErrMalformedResult)

	// The fetched post survives even when scoring fails.
	posts, listErr := store.ListPosts(context.Background(), lead.ID)
	require.NoError(t, listErr)
	assert.Len(t, posts, 1)
}

func TestScoutSubredditFetchFailure(t *testing.T) {
	store, infoID, lead := setup(t)

	platform := &fakePlatform{
		topPosts: func(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error) {
			return nil, errors.New("503 service unavailable")
		},
	}

	svc := NewService(&fakeBrain{}, platform, store, config.ScoutConfig{})
	err := svc.ScoutSubreddit(context.Background(), infoID, lead.ID, "saas")
	assert.ErrorContains(t, err, "fetch posts from r/saas")
}

func TestScoutSubredditUnknownLead(t *testing.T) {
	store, infoID, _ := setup(t)

	svc := NewService(&fakeBrain{}, &fakePlatform{}, store, config.ScoutConfig{})
	err := svc.ScoutSubreddit(context.Background(), infoID, 999, "saas")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchCommentsPersists(t *testing.T) {
	store, _, _ := setup(t)

	platform := &fakePlatform{
		topLevelComments: func(ctx context.Context, postURL string) ([]domain.Comment, error) {
			return []domain.Comment{
				{CommentID: "c1", Author: "alice", Content: "same problem here"},
				{CommentID: "c2", Author: "bob", Content: "any alternatives?"},
			}, nil
		},
	}

	svc := NewService(&fakeBrain{}, platform, store, config.ScoutConfig{})
	saved, err := svc.FetchComments(context.Background(), "https://www.reddit.com/r/saas/comments/abc/x/")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotZero(t, saved[0].ID)
	assert.Equal(t, "c1", saved[0].CommentID)
}
