// Package leads turns the backend's competitor research into persisted Lead
// records for one SaaS descriptor.
package leads

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
	"github.com/oussamaFadhli/leads-generator/internal/core/ports"
	"github.com/oussamaFadhli/leads-generator/internal/normalize"
)

// leadSpec is the normalization contract for discovery output: the backend
// may wrap the records under "leads", answer a single record, or a list.
var leadSpec = normalize.Spec{
	WrapperKey: "leads",
	Required:   []string{"competitor_name", "related_subreddits"},
	ListFields: []string{"related_subreddits"},
}

type Service struct {
	Brain ports.Brain
	Store ports.Storage
}

func NewService(brain ports.Brain, store ports.Storage) *Service {
	return &Service{Brain: brain, Store: store}
}

// Discover runs the search-mode backend for the descriptor and persists
// every valid lead record independently; one bad record or one failed
// insert never rolls back its siblings.
func (s *Service) Discover(ctx context.Context, saasInfoID int64) ([]domain.Lead, error) {
	slog.Info("starting lead search", "saas_info_id", saasInfoID)
	saas, err := s.Store.GetSaaSInfo(ctx, saasInfoID)
	if err != nil {
		return nil, fmt.Errorf("saas info %d: %w", saasInfoID, err)
	}

	raw, err := s.Brain.SearchLeads(ctx, *saas)
	if err != nil {
		return nil, fmt.Errorf("lead search for saas info %d: %w", saasInfoID, err)
	}

	candidates, err := normalize.Decode[domain.Lead](raw, leadSpec)
	if err != nil {
		return nil, fmt.Errorf("lead search result for saas info %d: %w", saasInfoID, err)
	}
	slog.Info("lead search completed", "saas_info_id", saasInfoID, "candidates", len(candidates))

	var created []domain.Lead
	for _, candidate := range candidates {
		candidate.SaaSInfoID = saasInfoID
		lead, err := s.Store.CreateLead(ctx, candidate)
		if err != nil {
			slog.Error("failed to create lead", "competitor", candidate.CompetitorName, "error", err)
			continue
		}
		slog.Info("created lead", "lead_id", lead.ID, "competitor", lead.CompetitorName)
		created = append(created, *lead)
	}
	return created, nil
}
