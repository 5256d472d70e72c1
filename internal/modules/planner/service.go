package planner

import (
	"github.com/rs/zerolog"

	"github.com/erold/cryptofolio/internal/domain"
	"github.com/erold/cryptofolio/internal/modules/analysis"
)

// ActionPlan is the full planner response.
type ActionPlan struct {
	Banner  domain.ActionBanner        `json:"banner"`
	Actions []domain.RecommendedAction `json:"actions"`
}

// Service plans actions from the latest analysis cycle.
type Service struct {
	analysis *analysis.Service
	currency domain.Currency
	log      zerolog.Logger
}

// NewService creates the planner service.
func NewService(analysisService *analysis.Service, currency domain.Currency, log zerolog.Logger) *Service {
	return &Service{
		analysis: analysisService,
		currency: currency,
		log:      log.With().Str("service", "planner").Logger(),
	}
}

// Plan returns the current banner and recommended actions. currency overrides
// the configured display currency when set.
func (s *Service) Plan(currency domain.Currency) ActionPlan {
	if currency == "" {
		currency = s.currency
	}

	snap := s.analysis.Snapshot()
	results := s.analysis.Results()
	conditions := s.analysis.Conditions()

	return ActionPlan{
		Banner:  Banner(conditions),
		Actions: Plan(snap, results, s.analysis.Levels(), currency),
	}
}
