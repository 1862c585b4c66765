package reddit

// tokenResponse is the password-grant token endpoint's answer.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// meResponse is the authenticated identity payload.
type meResponse struct {
	Name             string  `json:"name"`
	LinkKarma        int     `json:"link_karma"`
	CommentKarma     int     `json:"comment_karma"`
	CreatedUTC       float64 `json:"created_utc"`
	HasVerifiedEmail bool    `json:"has_verified_email"`
}

// listing is the generic Reddit envelope around a page of things.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

// thingData covers the fields this agent reads from both t3 (submission)
// and t1 (comment) things.
type thingData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Body        string  `json:"body"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
}

// rulesResponse is /r/{sub}/about/rules.
type rulesResponse struct {
	Rules []struct {
		ShortName   string `json:"short_name"`
		Description string `json:"description"`
	} `json:"rules"`
}

// writeResponse is the api_type=json envelope returned by /api/submit and
// /api/comment.
type writeResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			URL    string `json:"url"`
			ID     string `json:"id"`
			Name   string `json:"name"`
			Things []struct {
				Kind string    `json:"kind"`
				Data thingData `json:"data"`
			} `json:"things"`
		} `json:"data"`
	} `json:"json"`
}
