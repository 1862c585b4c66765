package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the behavior configuration of the agent. Secrets never live
// here; they come from the environment (see Secrets).
type Config struct {
	// TargetSubreddits is the ordered, deterministic set of communities the
	// orchestrator iterates. Order matters for pacing and test determinism.
	TargetSubreddits []string `yaml:"target_subreddits"`

	Posting PostingConfig `yaml:"posting"`
	Scout   ScoutConfig   `yaml:"scout"`
	Health  HealthConfig  `yaml:"health"`

	// ScanSchedule is a cron spec for the periodic discovery cycle.
	ScanSchedule string `yaml:"scan_schedule"`
}

// PostingConfig holds the pacing windows and the posting policy.
type PostingConfig struct {
	// PrePostDelay runs before every write attempt.
	PrePostDelay time.Duration `yaml:"pre_post_delay"`
	// ReplyDelayMin/Max bound the extra pause before a reply write.
	ReplyDelayMin time.Duration `yaml:"reply_delay_min"`
	ReplyDelayMax time.Duration `yaml:"reply_delay_max"`
	// PostActionDelayMin/Max bound the pause after every write attempt.
	PostActionDelayMin time.Duration `yaml:"post_action_delay_min"`
	PostActionDelayMax time.Duration `yaml:"post_action_delay_max"`
	// PostPerTarget, when true, keeps iterating targets after a success
	// instead of stopping at the first successful write.
	PostPerTarget bool `yaml:"post_per_target"`
}

// ScoutConfig bounds the community scraping pass.
type ScoutConfig struct {
	TimeWindow    string        `yaml:"time_window"`
	PostLimit     int           `yaml:"post_limit"`
	FetchDelayMin time.Duration `yaml:"fetch_delay_min"`
	FetchDelayMax time.Duration `yaml:"fetch_delay_max"`
}

// HealthConfig holds the account risk thresholds.
type HealthConfig struct {
	MinKarma   int     `yaml:"min_karma"`
	MinAgeDays float64 `yaml:"min_age_days"`
}

// Secrets are credentials pulled from the environment.
type Secrets struct {
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	GeminiAPIKey       string
	TelegramBotToken   string
	TelegramChatID     string
	DatabaseURL        string
}

// Default returns the configuration used when no file is present. The
// single test community mirrors what the posting flow was exercised with.
func Default() Config {
	return Config{
		TargetSubreddits: []string{"testingground4bots"},
		Posting: PostingConfig{
			PrePostDelay:       60 * time.Second,
			ReplyDelayMin:      5 * time.Second,
			ReplyDelayMax:      15 * time.Second,
			PostActionDelayMin: 10 * time.Second,
			PostActionDelayMax: 20 * time.Second,
		},
		Scout: ScoutConfig{
			TimeWindow:    "week",
			PostLimit:     10,
			FetchDelayMin: 2 * time.Second,
			FetchDelayMax: 5 * time.Second,
		},
		Health: HealthConfig{
			MinKarma:   50,
			MinAgeDays: 7,
		},
		ScanSchedule: "@every 10m",
	}
}

// Load reads the yaml config at path, layered over Default. A missing file
// is not an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.TargetSubreddits) == 0 {
		return cfg, fmt.Errorf("config %s: target_subreddits must not be empty", path)
	}
	return cfg, nil
}

// LoadSecrets pulls credentials from the environment. Callers decide which
// of these are mandatory for the mode they run in.
func LoadSecrets() Secrets {
	return Secrets{
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUsername:     os.Getenv("REDDIT_USERNAME"),
		RedditPassword:     os.Getenv("REDDIT_PASSWORD"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:     os.Getenv("TELEGRAM_CHAT_ID"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
	}
}
