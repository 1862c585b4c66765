package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
)

type modelConfig struct {
	Name string
	RPM  int
	RPD  int
}

// GeminiBrain is the generative backend. Search-mode operations attach the
// GoogleSearch tool; document-mode operations inline the source material.
// A fallback chain of models absorbs per-model rate limits.
type GeminiBrain struct {
	Client *genai.Client
	Models []modelConfig

	dailyCount   map[string]int
	minuteCount  map[string]int
	lastResetDay time.Time
	lastResetMin time.Time
	mu           sync.Mutex
}

func NewGeminiBrain(ctx context.Context, apiKey string) (*GeminiBrain, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiBrain{
		Client: client,
		Models: []modelConfig{
			{Name: "gemini-2.5-flash", RPM: 10, RPD: 250},
			{Name: "gemini-2.5-flash-lite", RPM: 15, RPD: 1000},
		},
		dailyCount:   make(map[string]int),
		minuteCount:  make(map[string]int),
		lastResetDay: time.Now(),
		lastResetMin: time.Now(),
	}, nil
}

// Ensure implementation
var _ ports.Brain = (*GeminiBrain)(nil)

// SearchLeads asks the backend to research a competitor and related
// subreddits for the product. Output is raw text; the caller normalizes it.
func (b *GeminiBrain) SearchLeads(ctx context.Context, saas domain.SaaSInfo) (string, error) {
	prompt := fmt.Sprintf(`Based on the following SaaS project information, search the internet for:
1. A famous competitor: Identify a key competitor in the market.
2. Strengths and Weaknesses: For this competitor, list their main strengths and weaknesses.
3. Related Subreddits: Find the best subreddits related to the project's interests.

SaaS Project Information:
%s

IMPORTANT: Return the output as a JSON object with the following structure:
{
    "competitor_name": "Name of the competitor",
    "strength": "Main strengths of the competitor",
    "weakness": "Main weaknesses of the competitor",
    "related_subreddits": ["subreddit1", "subreddit2", "subreddit3"]
}

Return ONLY the JSON object, no additional text or markdown formatting.`, saasInfoJSON(saas))

	return b.tryGenerateWithFallback(ctx, prompt, true, 0)
}

// ScorePosts asks the backend to rank saved posts as leads for the product.
func (b *GeminiBrain) ScorePosts(ctx context.Context, saas domain.SaaSInfo, posts []domain.Post) (string, error) {
	postsJSON, _ := json.MarshalIndent(posts, "", "  ")
	prompt := fmt.Sprintf(`Analyze the provided SaaS Information and Reddit Posts.
Identify which Reddit posts represent high-quality leads for the SaaS product.
A high-quality lead is a Reddit post where the user expresses a problem or need that can be directly addressed by the SaaS product's features, one-liner, or target segments.
For each identified lead, provide a 'lead_score' (a numerical value indicating the strength of the match) and a 'score_justification' (a brief explanation referencing specific SaaS features or target segments and post content).
Order the leads by 'lead_score' in descending order.
The output MUST be a JSON object with a key "posts" containing a list of objects, where each object includes all original fields of the Reddit post plus "lead_score" (float) and "score_justification" (string).
If no relevant leads are found, return an empty list for the "posts" key.

SaaS Information:
%s

Reddit Posts:
%s`, saasInfoJSON(saas), string(postsJSON))

	return b.tryGenerateWithFallback(ctx, prompt, false, 0)
}

// GeneratePost rewrites an original post into a disguised {title, content}
// pair. Higher temperature for more human-like variation.
func (b *GeminiBrain) GeneratePost(ctx context.Context, saas domain.SaaSInfo, original domain.Post) (string, error) {
	originalJSON, _ := json.MarshalIndent(original, "", "  ")
	prompt := fmt.Sprintf(`Based on the provided SaaS information and the original Reddit post, generate a new Reddit comment or discussion post.

CRITICAL ANTI-SPAM REQUIREMENTS:
1. Write in a genuine, conversational tone - like a real person sharing their experience
2. DO NOT mention the product name directly - instead describe a "tool" or "service" you found helpful
3. DO NOT include any links or URLs
4. DO NOT use marketing language like "check out", "amazing", "revolutionary", etc.
5. Focus on sharing personal experience or asking for advice
6. Include natural imperfections: casual language, contractions, maybe a typo
7. Make it about the problem first, solution second
8. Keep it relatively short (2-4 paragraphs max)
9. Use Reddit-style formatting sparingly (not too perfect)

The post should address the core problem mentioned in the original post, share a relatable personal experience or question, subtly reference that you found something helpful (without naming it directly), and feel authentic and human.

SaaS Information:
%s

Original Reddit Post:
%s

The output MUST strictly conform to this JSON schema:
{
    "title": "string",
    "content": "string"
}`, saasInfoJSON(saas), string(originalJSON))

	return b.tryGenerateWithFallback(ctx, prompt, false, 0.8)
}

// GenerateReply rewrites an original comment into a disguised reply.
func (b *GeminiBrain) GenerateReply(ctx context.Context, saas domain.SaaSInfo, comment string) (string, error) {
	prompt := fmt.Sprintf(`Based on the provided SaaS information and the original Reddit comment, generate a new Reddit reply.

Tone: Sales Manager, Human, Empathetic, Problem-Solving. The goal is to genuinely help the user by subtly introducing a relevant solution without being overtly promotional.

CRITICAL ANTI-SPAM REQUIREMENTS:
1. Write in a genuine, conversational tone - like a real person sharing their experience or offering advice.
2. DO NOT mention the product name directly - instead describe a "tool," "service," "platform," or "approach" you found helpful.
3. DO NOT include any links or URLs.
4. DO NOT use aggressive marketing language.
5. Focus on addressing the user's pain point, sharing a relatable experience, or asking clarifying questions.
6. Include natural imperfections: casual language, contractions.
7. Make it about the problem first, solution second.
8. Keep it concise and valuable (1-3 paragraphs max).

SaaS Information:
%s

Original Reddit Comment:
%s

The output MUST strictly conform to this JSON schema:
{
    "content": "string"
}`, saasInfoJSON(saas), comment)

	return b.tryGenerateWithFallback(ctx, prompt, false, 0.8)
}

func (b *GeminiBrain) tryGenerateWithFallback(ctx context.Context, prompt string, useSearch bool, temperature float32) (string, error) {
	var lastErr error
	config := &genai.GenerateContentConfig{}
	if useSearch {
		config.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}
	if temperature > 0 {
		config.Temperature = genai.Ptr(temperature)
	}

	for _, cfg := range b.Models {
		if !b.canUseModel(cfg) {
			continue
		}

		result, err := b.Client.Models.GenerateContent(ctx, cfg.Name, genai.Text(prompt), config)
		if err != nil {
			errStr := strings.ToLower(err.Error())
			if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "exhausted") || strings.Contains(errStr, "404") || strings.Contains(errStr, "not found") {
				slog.Warn("model unavailable, trying next", "model", cfg.Name, "error", err)
				lastErr = err
				continue
			}
			return "", err
		}

		if result != nil && len(result.Candidates) > 0 && len(result.Candidates[0].Content.Parts) > 0 {
			b.recordUsage(cfg)
			return result.Candidates[0].Content.Parts[0].Text, nil
		}
	}

	return "", fmt.Errorf("all models failed: %w", lastErr)
}

func (b *GeminiBrain) canUseModel(cfg modelConfig) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if now.YearDay() != b.lastResetDay.YearDay() {
		b.dailyCount = make(map[string]int)
		b.lastResetDay = now
	}
	if now.Sub(b.lastResetMin) >= time.Minute {
		b.minuteCount = make(map[string]int)
		b.lastResetMin = now
	}
	if b.dailyCount[cfg.Name] >= cfg.RPD {
		return false
	}
	if b.minuteCount[cfg.Name] >= cfg.RPM {
		return false
	}
	return true
}

func (b *GeminiBrain) recordUsage(cfg modelConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dailyCount[cfg.Name]++
	b.minuteCount[cfg.Name]++
}

// saasInfoJSON renders the descriptor the way every prompt consumes it.
func saasInfoJSON(saas domain.SaaSInfo) string {
	view := map[string]any{
		"name":            saas.Name,
		"one_liner":       saas.OneLiner,
		"features":        saas.Features,
		"pricing":         saas.Pricing,
		"target_segments": saas.TargetSegments,
	}
	buf, _ := json.MarshalIndent(view, "", "  ")
	return string(buf)
}
