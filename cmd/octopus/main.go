package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/oussamaFadhli/leads-generator/internal/brain"
	"github.com/oussamaFadhli/leads-generator/internal/compose"
	"github.com/oussamaFadhli/leads-generator/internal/config"
	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
	"github.com/oussamaFadhli/leads-generator/internal/leads"
	"github.com/oussamaFadhli/leads-generator/internal/platform/reddit"
	"github.com/oussamaFadhli/leads-generator/internal/posting"
	"github.com/oussamaFadhli/leads-generator/internal/scout"
	"github.com/oussamaFadhli/leads-generator/internal/storage"
	"github.com/oussamaFadhli/leads-generator/internal/ui/telegram"
)

func main() {
	godotenv.Load()
	fmt.Println("🐙 octopus leads agent starting...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	secrets := config.LoadSecrets()

	var store ports.Storage
	if secrets.DatabaseURL != "" {
		store, err = storage.NewPostgresStorage(ctx, secrets.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		fmt.Println("🐘 Storage: PostgreSQL connected")
	} else {
		store, err = storage.NewJSONStorage("data/storage.json")
		if err != nil {
			slog.Error("failed to open json storage", "error", err)
			os.Exit(1)
		}
		fmt.Println("📄 Storage: JSON file mode")
	}

	platform := reddit.NewClient(reddit.Credentials{
		ClientID:     secrets.RedditClientID,
		ClientSecret: secrets.RedditClientSecret,
		Username:     secrets.RedditUsername,
		Password:     secrets.RedditPassword,
	})

	myBrain, err := brain.NewGeminiBrain(ctx, secrets.GeminiAPIKey)
	if err != nil {
		slog.Error("failed to initialize brain", "error", err)
		os.Exit(1)
	}

	var ui ports.Interaction
	if secrets.TelegramBotToken != "" && secrets.TelegramChatID != "" {
		ui, err = telegram.NewTelegramUI(secrets.TelegramBotToken, secrets.TelegramChatID)
		if err != nil {
			slog.Error("failed to initialize telegram ui", "error", err)
			os.Exit(1)
		}
		fmt.Println("💬 Approval UI: Telegram connected")
	} else {
		slog.Warn("no telegram credentials, posting without human approval")
	}

	saasInfoID, err := strconv.ParseInt(os.Getenv("SAAS_INFO_ID"), 10, 64)
	if err != nil {
		slog.Error("SAAS_INFO_ID must be set to the descriptor id to promote")
		os.Exit(1)
	}

	agent := &agent{
		store:   store,
		leads:   leads.NewService(myBrain, store),
		scout:   scout.NewService(myBrain, platform, store, cfg.Scout),
		compose: compose.NewService(myBrain, store),
		orchestrator: posting.NewOrchestrator(store, platform,
			posting.NewHealthGate(platform, cfg.Health), cfg.TargetSubreddits, cfg.Posting),
		ui:         ui,
		saasInfoID: saasInfoID,
	}

	trigger := make(chan bool, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			if _, err := reader.ReadString('\n'); err != nil {
				return
			}
			trigger <- true
		}
	}()

	// SkipIfStillRunning keeps cycles single-flight: a post id is only ever
	// processed by one run at a time.
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := scheduler.AddFunc(cfg.ScanSchedule, func() { agent.runCycle(ctx) }); err != nil {
		slog.Error("invalid scan schedule", "schedule", cfg.ScanSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	fmt.Println("🚀 System fully operational. Press enter to trigger a cycle manually.")
	agent.runCycle(ctx)

	for {
		select {
		case <-trigger:
			fmt.Println("⚡ Manual trigger!")
			agent.runCycle(ctx)
		case <-ctx.Done():
			slog.Info("shutting down")
			return
		}
	}
}

type agent struct {
	store        ports.Storage
	leads        *leads.Service
	scout        *scout.Service
	compose      *compose.Service
	orchestrator *posting.Orchestrator
	ui           ports.Interaction
	saasInfoID   int64
}

// runCycle is one full pass: discover leads when there are none, scout each
// lead's communities, generate for the strongest unposted post, then hand
// it to the posting orchestrator (behind approval when a UI is wired).
func (a *agent) runCycle(ctx context.Context) {
	slog.Info("cycle starting", "saas_info_id", a.saasInfoID)

	existing, err := a.store.ListLeads(ctx, a.saasInfoID)
	if err != nil {
		slog.Error("failed to list leads", "error", err)
		return
	}
	if len(existing) == 0 {
		existing, err = a.leads.Discover(ctx, a.saasInfoID)
		if err != nil {
			slog.Error("lead discovery failed", "error", err)
			return
		}
	}

	for _, lead := range existing {
		for _, subreddit := range lead.RelatedSubreddits {
			if err := a.scout.ScoutSubreddit(ctx, a.saasInfoID, lead.ID, subreddit); err != nil {
				slog.Error("scouting failed", "lead_id", lead.ID, "subreddit", subreddit, "error", err)
			}
			if ctx.Err() != nil {
				return
			}
		}

		if err := a.promoteBest(ctx, lead); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("promotion failed", "lead_id", lead.ID, "error", err)
		}
	}
	slog.Info("cycle finished", "saas_info_id", a.saasInfoID)
}

// promoteBest picks the lead's highest-scored unposted post, generates
// content for it if needed, asks for approval, and posts.
func (a *agent) promoteBest(ctx context.Context, lead domain.Lead) error {
	posts, err := a.store.ListPosts(ctx, lead.ID)
	if err != nil {
		return err
	}

	var best *domain.Post
	for i := range posts {
		p := &posts[i]
		if p.IsPosted || p.LeadScore <= 0 {
			continue
		}
		if best == nil || p.LeadScore > best.LeadScore {
			best = p
		}
	}
	if best == nil {
		slog.Info("no promotable post for lead", "lead_id", lead.ID)
		return nil
	}

	if !best.AIGenerated {
		if err := a.compose.ComposePost(ctx, a.saasInfoID, best.ID); err != nil {
			if errors.Is(err, domain.ErrGenerationFailure) {
				slog.Error("generation failed, post left untouched for retry", "post_id", best.ID, "error", err)
				return nil
			}
			return err
		}
	}

	if a.ui != nil {
		approved, err := a.confirm(ctx, best.ID)
		if err != nil || !approved {
			return err
		}
	}

	posted, err := a.orchestrator.Post(ctx, best.ID)
	if err != nil {
		return err
	}
	if posted {
		slog.Info("post published", "post_id", best.ID)
	}
	return nil
}

func (a *agent) confirm(ctx context.Context, postID int64) (bool, error) {
	preview, err := a.compose.PreviewPost(ctx, postID)
	if err != nil {
		return false, err
	}
	body := fmt.Sprintf("📍 Original: %s\n\n📝 Title: %s\n\n📄 Content:\n%s",
		preview.OriginalTitle, preview.GeneratedTitle, preview.GeneratedContent)
	action, err := a.ui.Confirm(ctx, "🚀 Approve generated post", body)
	if err != nil {
		return false, err
	}
	if action != ports.ActionApprove {
		slog.Info("post not approved", "post_id", postID, "action", action)
		return false, nil
	}
	return true, nil
}
