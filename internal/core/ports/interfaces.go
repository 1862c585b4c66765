package ports

import (
	"context"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
)

// Brain is the generative backend. All operations return the backend's raw
// textual output; callers are responsible for normalizing and validating it
// because the backend gives no guarantee of exact shape compliance.
type Brain interface {
	// SearchLeads runs the search mode: discover a competitor and related
	// subreddits for the product.
	SearchLeads(ctx context.Context, saas domain.SaaSInfo) (string, error)
	// ScorePosts ranks fetched posts as leads for the product.
	ScorePosts(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error)
	// GeneratePost rewrites an original post into a disguised {title, content} pair.
	GeneratePost(ctx context.Context, saas domain.SaaSInfo, original domain.Post) (string, error)
	// GenerateReply rewrites an original comment into a disguised {content} reply.
	GenerateReply(ctx context.Context, saas domain.SaaSInfo, comment string) (string, error)
}

// Platform is the social platform adapter (read and write surface).
type Platform interface {
	// Me reports the authenticated account's public signals. An error here
	// means the session is unusable and the whole posting run must abort.
	Me(ctx context.Context) (*domain.Account, error)
	TopPosts(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error)
	Rules(ctx context.Context, subreddit string) ([]string, error)
	TopLevelComments(ctx context.Context, postURL string) ([]domain.Comment, error)
	// Submit creates a new self post and returns its permalink.
	Submit(ctx context.Context, subreddit, title, body string) (string, error)
	// Reply comments under the given submission or comment fullname and
	// returns the reply's permalink.
	Reply(ctx context.Context, parentFullname, body string) (string, error)
}

// Storage is id-keyed persistence for descriptors, leads, posts, comments
// and posting attempts.
type Storage interface {
	GetSaaSInfo(ctx context.Context, id int64) (*domain.SaaSInfo, error)

	CreateLead(ctx context.Context, lead domain.Lead) (*domain.Lead, error)
	GetLead(ctx context.Context, id int64) (*domain.Lead, error)
	ListLeads(ctx context.Context, saasInfoID int64) ([]domain.Lead, error)

	// CreatePost persists a fetched post, deduplicated by (lead, url).
	// The second return is false when the url already existed for the lead.
	CreatePost(ctx context.Context, post domain.Post) (*domain.Post, bool, error)
	GetPost(ctx context.Context, id int64) (*domain.Post, error)
	GetPostByURL(ctx context.Context, leadID int64, url string) (*domain.Post, error)
	ListPosts(ctx context.Context, leadID int64) ([]domain.Post, error)
	UpdatePost(ctx context.Context, id int64, update domain.PostUpdate) error

	CreateComment(ctx context.Context, comment domain.Comment) (*domain.Comment, error)
	MarkCommentReplied(ctx context.Context, id int64, replyURL string) error

	RecordAttempt(ctx context.Context, attempt domain.PostingAttempt) error
	// HasSuccessfulAttempt answers the duplicate guard's question for a
	// (lead, subreddit) key.
	HasSuccessfulAttempt(ctx context.Context, leadID int64, subreddit string) (bool, error)
}

type UserAction string

const (
	ActionApprove    UserAction = "approve"
	ActionRegenerate UserAction = "regenerate"
	ActionSkip       UserAction = "skip"
)

// Interaction is a human approval surface for generated content.
type Interaction interface {
	Confirm(ctx context.Context, title, body string) (UserAction, error)
}
