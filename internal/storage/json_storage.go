package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
)

// JSONStorage is the single-file fallback used when no DATABASE_URL is set.
// Good enough for one process; concurrent processes must use Postgres.
type JSONStorage struct {
	FilePath string
	mu       sync.RWMutex
	Data     StorageData
}

type StorageData struct {
	NextID    int64                   `json:"next_id"`
	SaaSInfos []domain.SaaSInfo       `json:"saas_infos"`
	Leads     []domain.Lead           `json:"leads"`
	Posts     []domain.Post           `json:"posts"`
	Comments  []domain.Comment        `json:"comments"`
	Attempts  []domain.PostingAttempt `json:"attempts"`
}

func NewJSONStorage(filePath string) (*JSONStorage, error) {
	s := &JSONStorage{
		FilePath: filePath,
		Data:     StorageData{NextID: 1},
	}
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if err := s.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if s.Data.NextID == 0 {
		s.Data.NextID = 1
	}
	return s, nil
}

var _ ports.Storage = (*JSONStorage)(nil)

func (s *JSONStorage) loadFromFile() error {
	file, err := os.ReadFile(s.FilePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(file, &s.Data)
}

func (s *JSONStorage) saveToFile() error {
	data, err := json.MarshalIndent(s.Data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.FilePath, data, 0644)
}

func (s *JSONStorage) nextID() int64 {
	id := s.Data.NextID
	s.Data.NextID++
	return id
}

func (s *JSONStorage) GetSaaSInfo(ctx context.Context, id int64) (*domain.SaaSInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.Data.SaaSInfos {
		if s.Data.SaaSInfos[i].ID == id {
			info := s.Data.SaaSInfos[i]
			return &info, nil
		}
	}
	return nil, domain.ErrNotFound
}

// SeedSaaSInfo inserts a descriptor. Only the JSON backend exposes this;
// with Postgres the descriptor rows are managed outside this process.
func (s *JSONStorage) SeedSaaSInfo(info domain.SaaSInfo) (*domain.SaaSInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info.ID == 0 {
		info.ID = s.nextID()
	}
	s.Data.SaaSInfos = append(s.Data.SaaSInfos, info)
	return &info, s.saveToFile()
}

func (s *JSONStorage) CreateLead(ctx context.Context, lead domain.Lead) (*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead.ID = s.nextID()
	s.Data.Leads = append(s.Data.Leads, lead)
	return &lead, s.saveToFile()
}

func (s *JSONStorage) GetLead(ctx context.Context, id int64) (*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.Data.Leads {
		if s.Data.Leads[i].ID == id {
			lead := s.Data.Leads[i]
			return &lead, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *JSONStorage) ListLeads(ctx context.Context, saasInfoID int64) ([]domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var leads []domain.Lead
	for _, lead := range s.Data.Leads {
		if lead.SaaSInfoID == saasInfoID {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}

func (s *JSONStorage) CreatePost(ctx context.Context, post domain.Post) (*domain.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Data.Posts {
		if s.Data.Posts[i].LeadID == post.LeadID && s.Data.Posts[i].URL == post.URL {
			existing := s.Data.Posts[i]
			return &existing, false, nil
		}
	}
	post.ID = s.nextID()
	s.Data.Posts = append(s.Data.Posts, post)
	return &post, true, s.saveToFile()
}

func (s *JSONStorage) GetPost(ctx context.Context, id int64) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.Data.Posts {
		if s.Data.Posts[i].ID == id {
			post := s.Data.Posts[i]
			return &post, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *JSONStorage) GetPostByURL(ctx context.Context, leadID int64, url string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.Data.Posts {
		if s.Data.Posts[i].LeadID == leadID && s.Data.Posts[i].URL == url {
			post := s.Data.Posts[i]
			return &post, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *JSONStorage) ListPosts(ctx context.Context, leadID int64) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var posts []domain.Post
	for _, post := range s.Data.Posts {
		if post.LeadID == leadID {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (s *JSONStorage) UpdatePost(ctx context.Context, id int64, update domain.PostUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Data.Posts {
		if s.Data.Posts[i].ID != id {
			continue
		}
		p := &s.Data.Posts[i]
		if update.GeneratedTitle != nil {
			p.GeneratedTitle = *update.GeneratedTitle
		}
		if update.GeneratedContent != nil {
			p.GeneratedContent = *update.GeneratedContent
		}
		if update.AIGenerated != nil {
			p.AIGenerated = *update.AIGenerated
		}
		if update.IsPosted != nil {
			p.IsPosted = *update.IsPosted
		}
		if update.PostedURL != nil {
			p.PostedURL = *update.PostedURL
		}
		if update.LeadScore != nil {
			p.LeadScore = *update.LeadScore
		}
		if update.ScoreJustification != nil {
			p.ScoreJustification = *update.ScoreJustification
		}
		return s.saveToFile()
	}
	return domain.ErrNotFound
}

func (s *JSONStorage) CreateComment(ctx context.Context, comment domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.ID = s.nextID()
	s.Data.Comments = append(s.Data.Comments, comment)
	return &comment, s.saveToFile()
}

func (s *JSONStorage) MarkCommentReplied(ctx context.Context, id int64, replyURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Data.Comments {
		if s.Data.Comments[i].ID == id {
			s.Data.Comments[i].Replied = true
			s.Data.Comments[i].ReplyURL = replyURL
			return s.saveToFile()
		}
	}
	return domain.ErrNotFound
}

func (s *JSONStorage) RecordAttempt(ctx context.Context, attempt domain.PostingAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}
	s.Data.Attempts = append(s.Data.Attempts, attempt)
	return s.saveToFile()
}

func (s *JSONStorage) HasSuccessfulAttempt(ctx context.Context, leadID int64, subreddit string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, attempt := range s.Data.Attempts {
		if attempt.LeadID == leadID && attempt.Subreddit == subreddit && attempt.Succeeded {
			return true, nil
		}
	}
	return false, nil
}
