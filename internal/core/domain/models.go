package domain

import "time"

// SaaSInfo describes the product being promoted. It is the seed for lead
// discovery and for every generation prompt; this core never mutates it.
type SaaSInfo struct {
	ID             int64
	Name           string
	OneLiner       string
	Features       []Feature
	Pricing        []PricingPlan
	TargetSegments []string
}

// Feature is a single capability of the SaaS product.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"desc"`
}

// PricingPlan is one pricing tier of the SaaS product.
type PricingPlan struct {
	PlanName string   `json:"plan_name"`
	Price    string   `json:"price"`
	Features []string `json:"features"`
	Link     string   `json:"link"`
}

// Lead is a candidate outreach target discovered for one SaaS descriptor:
// a competitor plus the communities where its users talk.
type Lead struct {
	ID                int64
	SaaSInfoID        int64
	CompetitorName    string   `json:"competitor_name"`
	Strength          string   `json:"strength"`
	Weakness          string   `json:"weakness"`
	RelatedSubreddits []string `json:"related_subreddits"`
}

// Post is a social-platform item owned by a Lead. It starts as fetched
// original content and is enriched in place by the scoring and generation
// passes, then by posting.
type Post struct {
	ID          int64
	LeadID      int64
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Score       int      `json:"score"`
	NumComments int      `json:"num_comments"`
	Author      string   `json:"author"`
	URL         string   `json:"url"`
	Subreddits  []string `json:"subreddits"`

	GeneratedTitle   string
	GeneratedContent string
	AIGenerated      bool

	IsPosted  bool
	PostedURL string

	LeadScore          float64 `json:"lead_score"`
	ScoreJustification string  `json:"score_justification"`
}

// PostUpdate carries the mutable fields of a Post. Nil pointers mean
// "leave unchanged" so the enrichment passes never clobber each other.
type PostUpdate struct {
	GeneratedTitle     *string
	GeneratedContent   *string
	AIGenerated        *bool
	IsPosted           *bool
	PostedURL          *string
	LeadScore          *float64
	ScoreJustification *string
}

// Comment is a top-level platform comment captured for the reply flow.
type Comment struct {
	ID        int64
	PostID    string
	CommentID string
	Author    string
	Content   string
	Score     int
	Permalink string
	Replied   bool
	ReplyURL  string
}

// PostingAttempt records one write attempt for a (lead, subreddit) pair.
// Successful attempts back the at-most-once guarantee of the duplicate guard.
type PostingAttempt struct {
	ID        string
	LeadID    int64
	PostID    int64
	Subreddit string
	Succeeded bool
	Permalink string
	CreatedAt time.Time
}

// Account holds the public signals of the authenticated platform account
// that the health gate inspects.
type Account struct {
	Name          string
	Karma         int
	AgeDays       float64
	VerifiedEmail bool
}
