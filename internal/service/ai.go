package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/kiwiq/alpha-cli/internal/domain"
	"github.com/kiwiq/alpha-cli/internal/port"
)

// Input validation errors for the AI calls.
var (
	ErrEmptyContent = errors.New("content is required")
	ErrNoAudiences  = errors.New("at least one audience is required")
	ErrNoSelection  = errors.New("selected text is required")
)

// AIState holds the transient results of the last call per type. Every
// call overwrites its own slot; a failure leaves the prior result in
// place.
type AIState struct {
	AudienceAnalysis      *domain.AudienceAnalysisResponse
	FinalAnalysis         *domain.FinalAnalysis
	CopywriterSuggestions []domain.CopywriterSuggestion
	SmartSuggestions      []domain.SmartSuggestion
	Usage                 *domain.Usage
	IsLoading             bool
	Err                   string
}

// AIService is a stateless-between-calls wrapper over the AI endpoints.
// A courtesy limiter keeps bursts of UI interactions from hammering the
// rate-limited backend.
type AIService struct {
	api     port.AIAPI
	limiter *rate.Limiter

	mu    sync.Mutex
	state AIState
}

// NewAIService creates the AI wrapper. A nil limiter disables local
// throttling.
func NewAIService(api port.AIAPI, limiter *rate.Limiter) *AIService {
	return &AIService{api: api, limiter: limiter}
}

// State returns a snapshot for rendering.
func (s *AIService) State() AIState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Process runs one operation through the generic AI pipeline. The
// result is handed straight back; nothing is cached.
func (s *AIService) Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResponse, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.begin()

	resp, err := s.api.Process(ctx, req)
	if err != nil {
		s.fail("AI processing failed", err)
		return nil, err
	}
	s.done()
	return resp, nil
}

// AudienceAnalysis scores the content per audience segment and stores
// the result until the next call.
func (s *AIService) AudienceAnalysis(ctx context.Context, content string, audiences []string) (*domain.AudienceAnalysisResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if len(audiences) == 0 {
		return nil, ErrNoAudiences
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.begin()

	result, err := s.api.AudienceAnalysis(ctx, content, audiences)
	if err != nil {
		s.fail("Audience analysis failed", err)
		return nil, err
	}

	s.mu.Lock()
	s.state.AudienceAnalysis = result
	s.state.IsLoading = false
	s.mu.Unlock()
	return result, nil
}

// FinalAnalysis runs the pre-publish check against the brief.
func (s *AIService) FinalAnalysis(ctx context.Context, content string, brief map[string]any) (*domain.FinalAnalysis, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.begin()

	result, err := s.api.FinalAnalysis(ctx, content, brief)
	if err != nil {
		s.fail("Final analysis failed", err)
		return nil, err
	}

	s.mu.Lock()
	s.state.FinalAnalysis = result
	s.state.IsLoading = false
	s.mu.Unlock()
	return result, nil
}

// Copywriter fetches rewrites addressing the given feedback.
func (s *AIService) Copywriter(ctx context.Context, content, feedback string) ([]domain.CopywriterSuggestion, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.begin()

	suggestions, err := s.api.Copywriter(ctx, content, feedback)
	if err != nil {
		s.fail("Copywriter suggestions failed", err)
		return nil, err
	}

	s.mu.Lock()
	s.state.CopywriterSuggestions = suggestions
	s.state.IsLoading = false
	s.mu.Unlock()
	return suggestions, nil
}

// SmartSuggestions proposes inline rewrites for a selected span.
func (s *AIService) SmartSuggestions(ctx context.Context, surrounding, selected string) ([]domain.SmartSuggestion, error) {
	if strings.TrimSpace(selected) == "" {
		return nil, ErrNoSelection
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.begin()

	suggestions, err := s.api.SmartSuggestions(ctx, surrounding, selected)
	if err != nil {
		s.fail("Smart suggestions failed", err)
		return nil, err
	}

	s.mu.Lock()
	s.state.SmartSuggestions = suggestions
	s.state.IsLoading = false
	s.mu.Unlock()
	return suggestions, nil
}

// Usage reports the caller's position against the AI rate limit. The
// usage endpoint is cheap and exempt from the local limiter.
func (s *AIService) Usage(ctx context.Context) (*domain.Usage, error) {
	s.begin()

	usage, err := s.api.Usage(ctx)
	if err != nil {
		s.fail("Failed to retrieve AI usage information", err)
		return nil, err
	}

	s.mu.Lock()
	s.state.Usage = usage
	s.state.IsLoading = false
	s.mu.Unlock()
	return usage, nil
}

// ResetResults drops the cached call results, keeping usage.
func (s *AIService) ResetResults() {
	s.mu.Lock()
	s.state.AudienceAnalysis = nil
	s.state.FinalAnalysis = nil
	s.state.CopywriterSuggestions = nil
	s.state.SmartSuggestions = nil
	s.mu.Unlock()
}

func (s *AIService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *AIService) begin() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Err = ""
	s.mu.Unlock()
}

func (s *AIService) done() {
	s.mu.Lock()
	s.state.IsLoading = false
	s.mu.Unlock()
}

func (s *AIService) fail(msg string, err error) {
	slog.Error(msg, "error", err)
	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Err = msg
	s.mu.Unlock()
}
