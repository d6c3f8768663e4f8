package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/kiwiq/alpha-cli/internal/domain"
	"github.com/kiwiq/alpha-cli/internal/port"
)

type fakeAIAPI struct {
	audienceResp *domain.AudienceAnalysisResponse
	audienceErr  error
	finalResp    *domain.FinalAnalysis
	finalErr     error
	copyResp     []domain.CopywriterSuggestion
	smartResp    []domain.SmartSuggestion
	usageResp    *domain.Usage

	audienceCalls int
}

func (f *fakeAIAPI) Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResponse, error) {
	return &domain.ProcessResponse{OperationType: req.OperationType}, nil
}

func (f *fakeAIAPI) AudienceAnalysis(ctx context.Context, content string, audiences []string) (*domain.AudienceAnalysisResponse, error) {
	f.audienceCalls++
	if f.audienceErr != nil {
		return nil, f.audienceErr
	}
	return f.audienceResp, nil
}

func (f *fakeAIAPI) FinalAnalysis(ctx context.Context, content string, brief map[string]any) (*domain.FinalAnalysis, error) {
	if f.finalErr != nil {
		return nil, f.finalErr
	}
	return f.finalResp, nil
}

func (f *fakeAIAPI) Copywriter(ctx context.Context, content, feedback string) ([]domain.CopywriterSuggestion, error) {
	return f.copyResp, nil
}

func (f *fakeAIAPI) SmartSuggestions(ctx context.Context, surrounding, selected string) ([]domain.SmartSuggestion, error) {
	return f.smartResp, nil
}

func (f *fakeAIAPI) Usage(ctx context.Context) (*domain.Usage, error) {
	return f.usageResp, nil
}

var _ port.AIAPI = (*fakeAIAPI)(nil)

func TestAudienceAnalysisStoresResult(t *testing.T) {
	api := &fakeAIAPI{audienceResp: &domain.AudienceAnalysisResponse{
		Analyses: []domain.AudienceAnalysis{{Segment: "founders", Score: 7}},
	}}
	svc := NewAIService(api, nil)

	result, err := svc.AudienceAnalysis(context.Background(), "post body", []string{"founders"})
	if err != nil {
		t.Fatalf("AudienceAnalysis() error = %v", err)
	}
	if len(result.Analyses) != 1 || result.Analyses[0].Segment != "founders" {
		t.Errorf("result = %+v, want founders analysis", result)
	}
	state := svc.State()
	if state.AudienceAnalysis == nil || state.IsLoading {
		t.Errorf("state = %+v, want stored and settled", state)
	}
}

func TestAudienceAnalysisValidation(t *testing.T) {
	api := &fakeAIAPI{}
	svc := NewAIService(api, nil)

	if _, err := svc.AudienceAnalysis(context.Background(), "   ", []string{"x"}); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("blank content error = %v, want ErrEmptyContent", err)
	}
	if _, err := svc.AudienceAnalysis(context.Background(), "body", nil); !errors.Is(err, ErrNoAudiences) {
		t.Errorf("no audiences error = %v, want ErrNoAudiences", err)
	}
	if api.audienceCalls != 0 {
		t.Errorf("invalid input hit the network %d times", api.audienceCalls)
	}
}

func TestFailureLeavesPriorResult(t *testing.T) {
	api := &fakeAIAPI{audienceResp: &domain.AudienceAnalysisResponse{
		Analyses: []domain.AudienceAnalysis{{Segment: "founders", Score: 7}},
	}}
	svc := NewAIService(api, nil)
	if _, err := svc.AudienceAnalysis(context.Background(), "body", []string{"founders"}); err != nil {
		t.Fatalf("AudienceAnalysis() error = %v", err)
	}

	api.audienceErr = errors.New("ai down")
	if _, err := svc.AudienceAnalysis(context.Background(), "body", []string{"founders"}); err == nil {
		t.Fatal("AudienceAnalysis() error = nil, want failure")
	}

	state := svc.State()
	if state.AudienceAnalysis == nil || state.AudienceAnalysis.Analyses[0].Segment != "founders" {
		t.Error("failure clobbered the prior result")
	}
	if state.Err == "" {
		t.Error("failure recorded no error message")
	}
}

func TestNewCallOverwritesSlot(t *testing.T) {
	api := &fakeAIAPI{finalResp: &domain.FinalAnalysis{OverallScore: 6, Summary: "first"}}
	svc := NewAIService(api, nil)

	if _, err := svc.FinalAnalysis(context.Background(), "body", nil); err != nil {
		t.Fatalf("FinalAnalysis() error = %v", err)
	}
	api.finalResp = &domain.FinalAnalysis{OverallScore: 9, Summary: "second"}
	if _, err := svc.FinalAnalysis(context.Background(), "body v2", nil); err != nil {
		t.Fatalf("FinalAnalysis() second call error = %v", err)
	}

	if got := svc.State().FinalAnalysis; got.Summary != "second" {
		t.Errorf("FinalAnalysis slot = %q, want overwritten", got.Summary)
	}
}

func TestSlotsAreIndependent(t *testing.T) {
	api := &fakeAIAPI{
		audienceResp: &domain.AudienceAnalysisResponse{Analyses: []domain.AudienceAnalysis{{Segment: "s"}}},
		copyResp:     []domain.CopywriterSuggestion{{Suggestion: "better"}},
	}
	svc := NewAIService(api, nil)

	svc.AudienceAnalysis(context.Background(), "body", []string{"s"})
	svc.Copywriter(context.Background(), "body", "feedback")

	state := svc.State()
	if state.AudienceAnalysis == nil || len(state.CopywriterSuggestions) == 0 {
		t.Errorf("state = %+v, want both slots populated", state)
	}
}

func TestSmartSuggestionsRequireSelection(t *testing.T) {
	svc := NewAIService(&fakeAIAPI{}, nil)
	if _, err := svc.SmartSuggestions(context.Background(), "around", " "); !errors.Is(err, ErrNoSelection) {
		t.Errorf("error = %v, want ErrNoSelection", err)
	}
}

func TestResetResultsKeepsUsage(t *testing.T) {
	api := &fakeAIAPI{
		finalResp: &domain.FinalAnalysis{OverallScore: 8},
		usageResp: &domain.Usage{CurrentUsage: 3, Limit: 50},
	}
	svc := NewAIService(api, nil)
	svc.FinalAnalysis(context.Background(), "body", nil)
	svc.Usage(context.Background())

	svc.ResetResults()

	state := svc.State()
	if state.FinalAnalysis != nil {
		t.Error("ResetResults kept the final analysis")
	}
	if state.Usage == nil || state.Usage.CurrentUsage != 3 {
		t.Error("ResetResults dropped usage")
	}
}

func TestLimiterBoundsBursts(t *testing.T) {
	api := &fakeAIAPI{audienceResp: &domain.AudienceAnalysisResponse{}}
	// One token, no refill within the test window.
	svc := NewAIService(api, rate.NewLimiter(rate.Every(time.Hour), 1))

	if _, err := svc.AudienceAnalysis(context.Background(), "body", []string{"s"}); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := svc.AudienceAnalysis(ctx, "body", []string{"s"}); err == nil {
		t.Fatal("second burst call error = nil, want limiter wait timeout")
	}
	if api.audienceCalls != 1 {
		t.Errorf("throttled call hit the network: %d calls", api.audienceCalls)
	}
}
