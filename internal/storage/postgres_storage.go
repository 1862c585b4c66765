package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
)

type PostgresStorage struct {
	Pool *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, connStr string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	s := &PostgresStorage{Pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

var _ ports.Storage = (*PostgresStorage)(nil)

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS saas_info (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			one_liner TEXT,
			features JSONB,
			pricing JSONB,
			target_segments JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS leads (
			id BIGSERIAL PRIMARY KEY,
			saas_info_id BIGINT NOT NULL,
			competitor_name TEXT NOT NULL,
			strength TEXT,
			weakness TEXT,
			related_subreddits JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			lead_id BIGINT NOT NULL,
			title TEXT,
			content TEXT,
			score INT,
			num_comments INT,
			author TEXT,
			url TEXT,
			subreddits JSONB,
			generated_title TEXT,
			generated_content TEXT,
			ai_generated BOOLEAN DEFAULT FALSE,
			is_posted BOOLEAN DEFAULT FALSE,
			posted_url TEXT,
			lead_score DOUBLE PRECISION,
			score_justification TEXT,
			UNIQUE (lead_id, url)
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id BIGSERIAL PRIMARY KEY,
			post_id TEXT,
			comment_id TEXT,
			author TEXT,
			content TEXT,
			score INT,
			permalink TEXT,
			replied BOOLEAN DEFAULT FALSE,
			reply_url TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS posting_attempts (
			id TEXT PRIMARY KEY,
			lead_id BIGINT NOT NULL,
			post_id BIGINT NOT NULL,
			subreddit TEXT NOT NULL,
			succeeded BOOLEAN NOT NULL,
			permalink TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	}

	for _, q := range queries {
		if _, err := s.Pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) GetSaaSInfo(ctx context.Context, id int64) (*domain.SaaSInfo, error) {
	var info domain.SaaSInfo
	err := s.Pool.QueryRow(ctx,
		"SELECT id, name, one_liner, features, pricing, target_segments FROM saas_info WHERE id = $1", id).
		Scan(&info.ID, &info.Name, &info.OneLiner, &info.Features, &info.Pricing, &info.TargetSegments)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *PostgresStorage) CreateLead(ctx context.Context, lead domain.Lead) (*domain.Lead, error) {
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO leads (saas_info_id, competitor_name, strength, weakness, related_subreddits)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		lead.SaaSInfoID, lead.CompetitorName, lead.Strength, lead.Weakness, lead.RelatedSubreddits).
		Scan(&lead.ID)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *PostgresStorage) GetLead(ctx context.Context, id int64) (*domain.Lead, error) {
	var lead domain.Lead
	err := s.Pool.QueryRow(ctx,
		`SELECT id, saas_info_id, competitor_name, strength, weakness, related_subreddits
		 FROM leads WHERE id = $1`, id).
		Scan(&lead.ID, &lead.SaaSInfoID, &lead.CompetitorName, &lead.Strength, &lead.Weakness, &lead.RelatedSubreddits)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *PostgresStorage) ListLeads(ctx context.Context, saasInfoID int64) ([]domain.Lead, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, saas_info_id, competitor_name, strength, weakness, related_subreddits
		 FROM leads WHERE saas_info_id = $1 ORDER BY id`, saasInfoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		if err := rows.Scan(&lead.ID, &lead.SaaSInfoID, &lead.CompetitorName, &lead.Strength, &lead.Weakness, &lead.RelatedSubreddits); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (s *PostgresStorage) CreatePost(ctx context.Context, post domain.Post) (*domain.Post, bool, error) {
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO posts (lead_id, title, content, score, num_comments, author, url, subreddits)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (lead_id, url) DO NOTHING RETURNING id`,
		post.LeadID, post.Title, post.Content, post.Score, post.NumComments, post.Author, post.URL, post.Subreddits).
		Scan(&post.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := s.GetPostByURL(ctx, post.LeadID, post.URL)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &post, true, nil
}

const postColumns = `id, lead_id, title, content, score, num_comments, author, url, subreddits,
	COALESCE(generated_title, ''), COALESCE(generated_content, ''), ai_generated,
	is_posted, COALESCE(posted_url, ''), COALESCE(lead_score, 0), COALESCE(score_justification, '')`

func scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	err := row.Scan(&p.ID, &p.LeadID, &p.Title, &p.Content, &p.Score, &p.NumComments, &p.Author,
		&p.URL, &p.Subreddits, &p.GeneratedTitle, &p.GeneratedContent, &p.AIGenerated,
		&p.IsPosted, &p.PostedURL, &p.LeadScore, &p.ScoreJustification)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStorage) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	return scanPost(s.Pool.QueryRow(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id))
}

func (s *PostgresStorage) GetPostByURL(ctx context.Context, leadID int64, url string) (*domain.Post, error) {
	return scanPost(s.Pool.QueryRow(ctx,
		"SELECT "+postColumns+" FROM posts WHERE lead_id = $1 AND url = $2", leadID, url))
}

func (s *PostgresStorage) ListPosts(ctx context.Context, leadID int64) ([]domain.Post, error) {
	rows, err := s.Pool.Query(ctx, "SELECT "+postColumns+" FROM posts WHERE lead_id = $1 ORDER BY id", leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *PostgresStorage) UpdatePost(ctx context.Context, id int64, update domain.PostUpdate) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE posts SET
			generated_title = COALESCE($2, generated_title),
			generated_content = COALESCE($3, generated_content),
			ai_generated = COALESCE($4, ai_generated),
			is_posted = COALESCE($5, is_posted),
			posted_url = COALESCE($6, posted_url),
			lead_score = COALESCE($7, lead_score),
			score_justification = COALESCE($8, score_justification)
		 WHERE id = $1`,
		id, update.GeneratedTitle, update.GeneratedContent, update.AIGenerated,
		update.IsPosted, update.PostedURL, update.LeadScore, update.ScoreJustification)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) CreateComment(ctx context.Context, comment domain.Comment) (*domain.Comment, error) {
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO comments (post_id, comment_id, author, content, score, permalink)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		comment.PostID, comment.CommentID, comment.Author, comment.Content, comment.Score, comment.Permalink).
		Scan(&comment.ID)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *PostgresStorage) MarkCommentReplied(ctx context.Context, id int64, replyURL string) error {
	tag, err := s.Pool.Exec(ctx,
		"UPDATE comments SET replied = TRUE, reply_url = $2 WHERE id = $1", id, replyURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) RecordAttempt(ctx context.Context, attempt domain.PostingAttempt) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO posting_attempts (id, lead_id, post_id, subreddit, succeeded, permalink, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.LeadID, attempt.PostID, attempt.Subreddit,
		attempt.Succeeded, attempt.Permalink, attempt.CreatedAt)
	return err
}

func (s *PostgresStorage) HasSuccessfulAttempt(ctx context.Context, leadID int64, subreddit string) (bool, error) {
	var exists bool
	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM posting_attempts WHERE lead_id = $1 AND subreddit = $2 AND succeeded
		 )`, leadID, subreddit).Scan(&exists)
	return exists, err
}
