package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
)

const (
	DefaultAuthURL = "https://www.reddit.com"
	DefaultAPIURL  = "https://oauth.reddit.com"
	publicBaseURL  = "https://www.reddit.com"
)

// Credentials are the script-app credentials for the posting account.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

// Client is the adapter for the Reddit data API. It authenticates with the
// password grant and handles data mapping and API communication.
type Client struct {
	AuthURL    string
	APIURL     string
	HTTPClient *http.Client
	creds      Credentials
	userAgent  string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(creds Credentials) *Client {
	return &Client{
		AuthURL:    DefaultAuthURL,
		APIURL:     DefaultAPIURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		creds:      creds,
		// Descriptive, unique user agent: platform:app_name:version (by /u/username)
		userAgent: fmt.Sprintf("golang:octopus:v1.0 (by /u/%s)", creds.Username),
	}
}

// Ensure Client implements Platform interface
var _ ports.Platform = (*Client)(nil)

// authenticate obtains (or refreshes) the OAuth token. Any failure here is
// an auth failure: the session is unusable for the whole run.
func (c *Client) authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	req, err := http.NewRequestWithContext(ctx, "POST", c.AuthURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthFailure, err)
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: token endpoint status %d", domain.ErrAuthFailure, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthFailure, err)
	}
	if tok.Error != "" || tok.AccessToken == "" {
		return fmt.Errorf("%w: %s", domain.ErrAuthFailure, tok.Error)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body url.Values, out any) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.APIURL+path, strings.NewReader(body.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.APIURL+path, nil)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	c.mu.Unlock()
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d on %s", domain.ErrAuthFailure, resp.StatusCode, path)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s %s failed with status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Me implements ports.Platform. A failure means the account/session cannot
// be queried at all.
func (c *Client) Me(ctx context.Context) (*domain.Account, error) {
	var me meResponse
	if err := c.do(ctx, "GET", "/api/v1/me", nil, &me); err != nil {
		return nil, err
	}
	return &domain.Account{
		Name:          me.Name,
		Karma:         me.LinkKarma + me.CommentKarma,
		AgeDays:       time.Since(time.Unix(int64(me.CreatedUTC), 0)).Hours() / 24,
		VerifiedEmail: me.HasVerifiedEmail,
	}, nil
}

// TopPosts lists the top items of a community for a time window and limit.
func (c *Client) TopPosts(ctx context.Context, subreddit, window string, limit int) ([]domain.Post, error) {
	path := fmt.Sprintf("/r/%s/top?t=%s&limit=%d", subreddit, window, limit)
	var page listing
	if err := c.do(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}

	var posts []domain.Post
	for _, child := range page.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		posts = append(posts, domain.Post{
			Title:       child.Data.Title,
			Content:     child.Data.SelfText,
			Score:       child.Data.Score,
			NumComments: child.Data.NumComments,
			Author:      child.Data.Author,
			URL:         absoluteURL(child.Data.Permalink, child.Data.URL),
			Subreddits:  []string{subreddit},
		})
	}
	return posts, nil
}

// Rules lists a community's posting rules by short name.
func (c *Client) Rules(ctx context.Context, subreddit string) ([]string, error) {
	var res rulesResponse
	if err := c.do(ctx, "GET", "/r/"+subreddit+"/about/rules", nil, &res); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Rules))
	for _, r := range res.Rules {
		names = append(names, r.ShortName)
	}
	return names, nil
}

// TopLevelComments flattens a submission's comment tree to its top-level
// comments, dropping deleted ones (no author or body).
func (c *Client) TopLevelComments(ctx context.Context, postURL string) ([]domain.Comment, error) {
	submissionID, ok := SubmissionID(postURL)
	if !ok {
		return nil, fmt.Errorf("no submission id in url %q", postURL)
	}

	var pages []listing
	path := fmt.Sprintf("/comments/%s?depth=1&limit=100", submissionID)
	if err := c.do(ctx, "GET", path, nil, &pages); err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, nil
	}

	var comments []domain.Comment
	for _, child := range pages[1].Data.Children {
		if child.Kind != "t1" || child.Data.Author == "" || child.Data.Body == "" {
			continue
		}
		comments = append(comments, domain.Comment{
			PostID:    submissionID,
			CommentID: child.Data.ID,
			Author:    child.Data.Author,
			Content:   child.Data.Body,
			Score:     child.Data.Score,
			Permalink: child.Data.Permalink,
		})
	}
	return comments, nil
}

// Submit creates a new self post in a community and returns its permalink.
func (c *Client) Submit(ctx context.Context, subreddit, title, body string) (string, error) {
	form := url.Values{}
	form.Set("sr", subreddit)
	form.Set("kind", "self")
	form.Set("title", title)
	form.Set("text", body)
	form.Set("api_type", "json")

	var res writeResponse
	if err := c.do(ctx, "POST", "/api/submit", form, &res); err != nil {
		return "", &domain.WriteError{Op: "submit", Subreddit: subreddit, Err: err}
	}
	if len(res.JSON.Errors) > 0 {
		return "", &domain.WriteError{Op: "submit", Subreddit: subreddit,
			Err: fmt.Errorf("api errors: %v", res.JSON.Errors)}
	}
	if res.JSON.Data.URL == "" {
		return "", &domain.WriteError{Op: "submit", Subreddit: subreddit,
			Err: fmt.Errorf("no permalink in response")}
	}
	return res.JSON.Data.URL, nil
}

// Reply comments under the given fullname (t3_* submission or t1_* comment)
// and returns the reply's permalink.
func (c *Client) Reply(ctx context.Context, parentFullname, body string) (string, error) {
	form := url.Values{}
	form.Set("thing_id", parentFullname)
	form.Set("text", body)
	form.Set("api_type", "json")

	var res writeResponse
	if err := c.do(ctx, "POST", "/api/comment", form, &res); err != nil {
		return "", &domain.WriteError{Op: "reply", Subreddit: parentFullname, Err: err}
	}
	if len(res.JSON.Errors) > 0 {
		return "", &domain.WriteError{Op: "reply", Subreddit: parentFullname,
			Err: fmt.Errorf("api errors: %v", res.JSON.Errors)}
	}
	if len(res.JSON.Data.Things) == 0 || res.JSON.Data.Things[0].Data.Permalink == "" {
		return "", &domain.WriteError{Op: "reply", Subreddit: parentFullname,
			Err: fmt.Errorf("no permalink in response")}
	}
	return publicBaseURL + res.JSON.Data.Things[0].Data.Permalink, nil
}

// SubmissionID extracts the submission id from a reply-context url, i.e.
// one containing the /comments/ thread marker.
func SubmissionID(postURL string) (string, bool) {
	const marker = "/comments/"
	idx := strings.Index(postURL, marker)
	if idx == -1 {
		return "", false
	}
	rest := postURL[idx+len(marker):]
	if end := strings.IndexAny(rest, "/?"); end != -1 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

func absoluteURL(permalink, fallback string) string {
	if permalink != "" {
		return publicBaseURL + permalink
	}
	return fallback
}
