package api

import (
	"context"
	"fmt"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

// AIService wraps the /ai endpoints. Pure translation, no logic.
type AIService struct {
	client *Client
}

// NewAIService creates the AI endpoint wrapper.
func NewAIService(client *Client) *AIService {
	return &AIService{client: client}
}

// Process runs one operation through the generic AI pipeline.
func (s *AIService) Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResponse, error) {
	var resp domain.ProcessResponse
	if err := s.client.post(ctx, "/ai/process", req, &resp); err != nil {
		return nil, fmt.Errorf("ai process: %w", err)
	}
	return &resp, nil
}

type audienceAnalysisRequest struct {
	Content           string `json:"content"`
	PrimaryAudience   string `json:"primary_audience"`
	SecondaryAudience string `json:"secondary_audience,omitempty"`
}

// AudienceAnalysis scores the content against up to two audience
// segments (primary first).
func (s *AIService) AudienceAnalysis(ctx context.Context, content string, audiences []string) (*domain.AudienceAnalysisResponse, error) {
	req := audienceAnalysisRequest{Content: content}
	if len(audiences) > 0 {
		req.PrimaryAudience = audiences[0]
	}
	if len(audiences) > 1 {
		req.SecondaryAudience = audiences[1]
	}

	var resp domain.AudienceAnalysisResponse
	if err := s.client.post(ctx, "/ai/audience-analysis", req, &resp); err != nil {
		return nil, fmt.Errorf("audience analysis: %w", err)
	}
	return &resp, nil
}

type finalAnalysisRequest struct {
	Content          string `json:"content"`
	BriefTitle       any    `json:"brief_title"`
	BriefDescription any    `json:"brief_description"`
	BriefAudience    any    `json:"brief_audience"`
	BriefGoals       any    `json:"brief_goals"`
}

// FinalAnalysis runs the pre-publish quality check.
func (s *AIService) FinalAnalysis(ctx context.Context, content string, brief map[string]any) (*domain.FinalAnalysis, error) {
	req := finalAnalysisRequest{
		Content:          content,
		BriefTitle:       brief["title"],
		BriefDescription: brief["description"],
		BriefAudience:    brief["audience"],
		BriefGoals:       brief["goals"],
	}

	var resp domain.FinalAnalysis
	if err := s.client.post(ctx, "/ai/final-analysis", req, &resp); err != nil {
		return nil, fmt.Errorf("final analysis: %w", err)
	}
	return &resp, nil
}

type copywriterRequest struct {
	Content  string `json:"content"`
	Feedback string `json:"feedback"`
}

// Copywriter asks the copywriter agent for rewrites of the content
// addressing the given feedback.
func (s *AIService) Copywriter(ctx context.Context, content, feedback string) ([]domain.CopywriterSuggestion, error) {
	var suggestions []domain.CopywriterSuggestion
	if err := s.client.post(ctx, "/ai/copywriter", copywriterRequest{Content: content, Feedback: feedback}, &suggestions); err != nil {
		return nil, fmt.Errorf("copywriter: %w", err)
	}
	return suggestions, nil
}

type smartSuggestionsRequest struct {
	SelectedText       string `json:"selected_text"`
	SurroundingContent string `json:"surrounding_content"`
}

type smartSuggestionsResponse struct {
	Suggestions []domain.SmartSuggestion `json:"suggestions"`
}

// SmartSuggestions proposes inline rewrites for a selected text span.
func (s *AIService) SmartSuggestions(ctx context.Context, surrounding, selected string) ([]domain.SmartSuggestion, error) {
	req := smartSuggestionsRequest{SelectedText: selected, SurroundingContent: surrounding}
	var resp smartSuggestionsResponse
	if err := s.client.post(ctx, "/ai/smart-suggestions", req, &resp); err != nil {
		return nil, fmt.Errorf("smart suggestions: %w", err)
	}
	return resp.Suggestions, nil
}

// Usage reports the caller's position against the AI rate limit.
func (s *AIService) Usage(ctx context.Context) (*domain.Usage, error) {
	var usage domain.Usage
	if err := s.client.get(ctx, "/ai/rate-limit/usage", &usage); err != nil {
		return nil, fmt.Errorf("ai usage: %w", err)
	}
	return &usage, nil
}
