package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kiwiq/alpha-cli/internal/domain"
	"github.com/kiwiq/alpha-cli/internal/port"
)

type fakeContentAPI struct {
	mu sync.Mutex

	brief   *domain.ContentBrief
	angles  []domain.ContentAngle
	draft   *domain.Draft
	entries []domain.CalendarEntry

	draftErr    error
	enhanceResp *domain.EnhancedDraft
	enhanceErr  error
	scheduled   []domain.SchedulePostRequest

	anglesCalls      int
	createDraftCalls int
	draftDelay       time.Duration
}

func (f *fakeContentAPI) UploadBrief(ctx context.Context, userID int, filename string, file io.Reader) (*domain.ContentBrief, error) {
	raw, _ := io.ReadAll(file)
	brief := &domain.ContentBrief{ID: 1, UserID: userID, Title: strings.TrimSpace(string(raw)), Filename: filename}
	f.mu.Lock()
	f.brief = brief
	f.mu.Unlock()
	return brief, nil
}

func (f *fakeContentAPI) Brief(ctx context.Context, userID int) (*domain.ContentBrief, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.brief == nil {
		return nil, errors.New("not found")
	}
	return f.brief, nil
}

func (f *fakeContentAPI) UpdateBrief(ctx context.Context, userID int, update domain.BriefUpdate) (*domain.ContentBrief, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if update.Title != nil {
		f.brief.Title = *update.Title
	}
	return f.brief, nil
}

func (f *fakeContentAPI) GenerateAngles(ctx context.Context, userID int) ([]domain.ContentAngle, error) {
	return f.angles, nil
}

func (f *fakeContentAPI) Angles(ctx context.Context, userID int) ([]domain.ContentAngle, error) {
	f.mu.Lock()
	f.anglesCalls++
	f.mu.Unlock()
	return f.angles, nil
}

func (f *fakeContentAPI) SelectAngle(ctx context.Context, userID, angleID int) (*domain.ContentAngle, error) {
	for _, angle := range f.angles {
		if angle.ID == angleID {
			angle.IsSelected = true
			return &angle, nil
		}
	}
	return nil, errors.New("angle not found")
}

func (f *fakeContentAPI) CreateDraft(ctx context.Context, userID, angleID int) (*domain.Draft, error) {
	return f.newDraft(angleID)
}

func (f *fakeContentAPI) CreateDraftFromBrief(ctx context.Context, userID int) (*domain.Draft, error) {
	return f.newDraft(0)
}

func (f *fakeContentAPI) newDraft(angleID int) (*domain.Draft, error) {
	if f.draftDelay > 0 {
		time.Sleep(f.draftDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createDraftCalls++
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	draft := *f.draft
	draft.AngleID = angleID
	return &draft, nil
}

func (f *fakeContentAPI) EnhanceDraft(ctx context.Context, userID int, content string, opts domain.EnhanceOptions) (*domain.EnhancedDraft, error) {
	if f.enhanceErr != nil {
		return nil, f.enhanceErr
	}
	return f.enhanceResp, nil
}

func (f *fakeContentAPI) CalendarEntries(ctx context.Context, userID int) ([]domain.CalendarEntry, error) {
	return f.entries, nil
}

func (f *fakeContentAPI) CreateCalendarEntry(ctx context.Context, userID int, input domain.CalendarEntryInput) (*domain.CalendarEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := domain.CalendarEntry{ID: len(f.entries) + 100, Title: input.Title, Date: input.Date, Time: input.Time, Status: input.Status}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *fakeContentAPI) UpdateCalendarEntry(ctx context.Context, userID, entryID int, input domain.CalendarEntryInput) (*domain.CalendarEntry, error) {
	return &domain.CalendarEntry{ID: entryID, Title: input.Title, Status: input.Status}, nil
}

func (f *fakeContentAPI) DeleteCalendarEntry(ctx context.Context, userID, entryID int) error {
	return nil
}

func (f *fakeContentAPI) SchedulePost(ctx context.Context, userID int, req domain.SchedulePostRequest) (*domain.ScheduledPost, error) {
	f.mu.Lock()
	f.scheduled = append(f.scheduled, req)
	f.mu.Unlock()
	return &domain.ScheduledPost{ID: 1, DraftID: req.DraftID, ScheduledDate: req.ScheduledDate, ScheduledTime: req.ScheduledTime, Platform: req.Platform}, nil
}

var _ port.ContentAPI = (*fakeContentAPI)(nil)

func TestUploadBriefCachesResult(t *testing.T) {
	api := &fakeContentAPI{}
	svc := NewContentService(api)

	brief, err := svc.UploadBrief(context.Background(), 1, "q1.md", strings.NewReader("Q1 Plan"))
	if err != nil {
		t.Fatalf("UploadBrief() error = %v", err)
	}
	if brief.Title != "Q1 Plan" {
		t.Errorf("Title = %q, want %q", brief.Title, "Q1 Plan")
	}
	state := svc.State()
	if state.Brief == nil || state.Brief.Title != "Q1 Plan" {
		t.Errorf("cached brief = %+v, want uploaded brief", state.Brief)
	}
	if state.BriefLoading {
		t.Error("brief still marked loading after upload")
	}
}

func TestSelectAngleEnforcesSingleSelection(t *testing.T) {
	api := &fakeContentAPI{angles: []domain.ContentAngle{
		{ID: 1, Hook: "one", IsSelected: true},
		{ID: 2, Hook: "two"},
		{ID: 3, Hook: "three"},
	}}
	svc := NewContentService(api)
	if _, err := svc.Angles(context.Background(), 1); err != nil {
		t.Fatalf("Angles() error = %v", err)
	}

	if _, err := svc.SelectAngle(context.Background(), 1, 2); err != nil {
		t.Fatalf("SelectAngle() error = %v", err)
	}

	selected := 0
	for _, angle := range svc.State().Angles {
		if angle.IsSelected {
			selected++
			if angle.ID != 2 {
				t.Errorf("selected angle ID = %d, want 2", angle.ID)
			}
		}
	}
	if selected != 1 {
		t.Errorf("selected count = %d, want exactly 1", selected)
	}
}

func TestAngleByIDRefetchesOnceOnMiss(t *testing.T) {
	api := &fakeContentAPI{angles: []domain.ContentAngle{{ID: 7, Hook: "cached later"}}}
	svc := NewContentService(api)

	angle, err := svc.AngleByID(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("AngleByID() error = %v", err)
	}
	if angle.ID != 7 {
		t.Errorf("angle ID = %d, want 7", angle.ID)
	}
	if api.anglesCalls != 1 {
		t.Errorf("list fetched %d times, want 1", api.anglesCalls)
	}

	// Cache hit: no further network.
	if _, err := svc.AngleByID(context.Background(), 1, 7); err != nil {
		t.Fatalf("AngleByID() second call error = %v", err)
	}
	if api.anglesCalls != 1 {
		t.Errorf("cache hit refetched the list: %d calls", api.anglesCalls)
	}

	// Unknown angle: one refetch, then a stable error.
	if _, err := svc.AngleByID(context.Background(), 1, 999); !errors.Is(err, port.ErrAngleNotFound) {
		t.Fatalf("AngleByID(999) error = %v, want ErrAngleNotFound", err)
	}
	if api.anglesCalls != 2 {
		t.Errorf("miss refetched %d times total, want 2", api.anglesCalls)
	}
}

func TestCreateDraftIsIdempotentPerOrigin(t *testing.T) {
	api := &fakeContentAPI{draft: &domain.Draft{ID: 10, Content: "draft body", Version: 1}}
	svc := NewContentService(api)

	first, err := svc.CreateDraft(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	second, err := svc.CreateDraft(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("CreateDraft() second call error = %v", err)
	}
	if api.createDraftCalls != 1 {
		t.Errorf("network calls = %d, want 1", api.createDraftCalls)
	}
	if first.ID != second.ID {
		t.Errorf("second call returned a different draft: %d vs %d", first.ID, second.ID)
	}

	// A different origin is a different draft.
	if _, err := svc.CreateDraft(context.Background(), 1, 6); err != nil {
		t.Fatalf("CreateDraft(other angle) error = %v", err)
	}
	if api.createDraftCalls != 2 {
		t.Errorf("network calls = %d, want 2 after origin change", api.createDraftCalls)
	}
}

func TestCreateDraftFromBriefDistinctFromAngleOrigin(t *testing.T) {
	api := &fakeContentAPI{draft: &domain.Draft{ID: 10, Content: "body", Version: 1}}
	svc := NewContentService(api)

	if _, err := svc.CreateDraft(context.Background(), 1, 5); err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	draft, err := svc.CreateDraftFromBrief(context.Background(), 1)
	if err != nil {
		t.Fatalf("CreateDraftFromBrief() error = %v", err)
	}
	if draft.AngleID != 0 {
		t.Errorf("brief-origin draft has AngleID %d, want 0", draft.AngleID)
	}
	if api.createDraftCalls != 2 {
		t.Errorf("network calls = %d, want 2", api.createDraftCalls)
	}
}

func TestConcurrentDraftCreationCollapses(t *testing.T) {
	api := &fakeContentAPI{
		draft:      &domain.Draft{ID: 10, Content: "body", Version: 1},
		draftDelay: 20 * time.Millisecond,
	}
	svc := NewContentService(api)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreateDraft(context.Background(), 1, 5); err != nil {
				t.Errorf("CreateDraft() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if api.createDraftCalls != 1 {
		t.Errorf("concurrent calls hit the network %d times, want 1", api.createDraftCalls)
	}
}

func TestCreateDraftEmptyContentIsNotReused(t *testing.T) {
	api := &fakeContentAPI{draft: &domain.Draft{ID: 10, Content: "   ", Version: 1}}
	svc := NewContentService(api)

	if _, err := svc.CreateDraft(context.Background(), 1, 5); err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if _, err := svc.CreateDraft(context.Background(), 1, 5); err != nil {
		t.Fatalf("CreateDraft() second call error = %v", err)
	}
	// Blank content does not satisfy idempotence; both calls go out.
	if api.createDraftCalls != 2 {
		t.Errorf("network calls = %d, want 2 for blank drafts", api.createDraftCalls)
	}
}

func TestEnhanceDraftMergesIntoPrior(t *testing.T) {
	api := &fakeContentAPI{
		draft:       &domain.Draft{ID: 10, BriefID: 3, Content: "original", Version: 2, CreatedAt: "2026-01-01T00:00:00Z"},
		enhanceResp: &domain.EnhancedDraft{Content: "better", Feedback: "tightened the hook"},
	}
	svc := NewContentService(api)
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if _, err := svc.CreateDraft(context.Background(), 1, 5); err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	merged, err := svc.EnhanceDraft(context.Background(), 1, "original", domain.EnhanceOptions{Tone: "direct"})
	if err != nil {
		t.Fatalf("EnhanceDraft() error = %v", err)
	}
	if merged.ID != 10 || merged.BriefID != 3 || merged.AngleID != 5 {
		t.Errorf("identity fields changed: %+v", merged)
	}
	if merged.Content != "better" || merged.AIFeedback != "tightened the hook" {
		t.Errorf("enhanced fields = (%q, %q)", merged.Content, merged.AIFeedback)
	}
	if merged.Version != 3 {
		t.Errorf("Version = %d, want 3", merged.Version)
	}
	if merged.CreatedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("CreatedAt changed to %q", merged.CreatedAt)
	}
	if merged.UpdatedAt != "2026-02-02T12:00:00Z" {
		t.Errorf("UpdatedAt = %q, want merge time", merged.UpdatedAt)
	}
}

func TestEnhanceDraftWithoutDraftFails(t *testing.T) {
	svc := NewContentService(&fakeContentAPI{})
	if _, err := svc.EnhanceDraft(context.Background(), 1, "x", domain.EnhanceOptions{}); !errors.Is(err, port.ErrNoDraft) {
		t.Fatalf("EnhanceDraft() error = %v, want ErrNoDraft", err)
	}
}

func TestEnhanceDraftFailureKeepsPrior(t *testing.T) {
	api := &fakeContentAPI{
		draft:      &domain.Draft{ID: 10, Content: "original", Version: 1},
		enhanceErr: errors.New("enhance down"),
	}
	svc := NewContentService(api)
	if _, err := svc.CreateDraft(context.Background(), 1, 5); err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	if _, err := svc.EnhanceDraft(context.Background(), 1, "original", domain.EnhanceOptions{}); err == nil {
		t.Fatal("EnhanceDraft() error = nil, want failure")
	}
	state := svc.State()
	if state.Draft == nil || state.Draft.Content != "original" || state.Draft.Version != 1 {
		t.Errorf("prior draft disturbed by failed enhancement: %+v", state.Draft)
	}
	if state.DraftErr == "" {
		t.Error("failed enhancement recorded no error")
	}
}

func TestDeleteCalendarEntryPreservesOrder(t *testing.T) {
	api := &fakeContentAPI{entries: []domain.CalendarEntry{
		{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}, {ID: 4, Title: "d"},
	}}
	svc := NewContentService(api)
	if _, err := svc.CalendarEntries(context.Background(), 1); err != nil {
		t.Fatalf("CalendarEntries() error = %v", err)
	}

	if err := svc.DeleteCalendarEntry(context.Background(), 1, 2); err != nil {
		t.Fatalf("DeleteCalendarEntry() error = %v", err)
	}

	got := svc.State().CalendarEntries
	want := []int{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("entries = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("entries[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestUpdateCalendarEntryReplacesInPlace(t *testing.T) {
	api := &fakeContentAPI{entries: []domain.CalendarEntry{
		{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"},
	}}
	svc := NewContentService(api)
	if _, err := svc.CalendarEntries(context.Background(), 1); err != nil {
		t.Fatalf("CalendarEntries() error = %v", err)
	}

	if _, err := svc.UpdateCalendarEntry(context.Background(), 1, 2, domain.CalendarEntryInput{Title: "b2", Status: domain.EntryStatusScheduled}); err != nil {
		t.Fatalf("UpdateCalendarEntry() error = %v", err)
	}

	entries := svc.State().CalendarEntries
	if entries[1].ID != 2 || entries[1].Title != "b2" {
		t.Errorf("entries[1] = %+v, want updated entry in place", entries[1])
	}
	if entries[0].ID != 1 || entries[2].ID != 3 {
		t.Error("neighboring entries disturbed by update")
	}
}

func TestSchedulePostValidatesBeforeNetwork(t *testing.T) {
	api := &fakeContentAPI{}
	svc := NewContentService(api)

	if _, err := svc.SchedulePost(context.Background(), 1, 10, "not-a-date", "25:99", "body", ""); err == nil {
		t.Fatal("SchedulePost() error = nil, want invalid datetime")
	}
	if len(api.scheduled) != 0 {
		t.Errorf("invalid schedule reached the network: %d requests", len(api.scheduled))
	}
}

func TestSchedulePostDefaultsPlatform(t *testing.T) {
	api := &fakeContentAPI{}
	svc := NewContentService(api)

	post, err := svc.SchedulePost(context.Background(), 1, 10, "2026-03-01", "09:30", "body", "")
	if err != nil {
		t.Fatalf("SchedulePost() error = %v", err)
	}
	if post.Platform != "LinkedIn" {
		t.Errorf("Platform = %q, want default %q", post.Platform, "LinkedIn")
	}
	if got := api.scheduled[0]; got.ScheduledDate != "2026-03-01" || got.ScheduledTime != "09:30" {
		t.Errorf("scheduled at (%q, %q), want normalized pair", got.ScheduledDate, got.ScheduledTime)
	}
}

func TestSchedulePostAcceptsSeconds(t *testing.T) {
	api := &fakeContentAPI{}
	svc := NewContentService(api)

	if _, err := svc.SchedulePost(context.Background(), 1, 10, "2026-03-01", "09:30:45", "body", "X"); err != nil {
		t.Fatalf("SchedulePost() error = %v", err)
	}
	if got := api.scheduled[0].ScheduledTime; got != "09:30" {
		t.Errorf("ScheduledTime = %q, want truncated %q", got, "09:30")
	}
}

func TestResetDraftKeepsBriefAndAngles(t *testing.T) {
	api := &fakeContentAPI{
		brief:  &domain.ContentBrief{ID: 1, Title: "Q1"},
		angles: []domain.ContentAngle{{ID: 1}},
		draft:  &domain.Draft{ID: 10, Content: "body", Version: 1},
	}
	svc := NewContentService(api)
	svc.Brief(context.Background(), 1)
	svc.Angles(context.Background(), 1)
	svc.CreateDraft(context.Background(), 1, 1)

	svc.ResetDraft()

	state := svc.State()
	if state.Draft != nil {
		t.Error("draft survived ResetDraft")
	}
	if state.Brief == nil || len(state.Angles) == 0 {
		t.Error("ResetDraft dropped brief or angles")
	}
}

func TestResetDropsEverything(t *testing.T) {
	api := &fakeContentAPI{brief: &domain.ContentBrief{ID: 1}}
	svc := NewContentService(api)
	svc.Brief(context.Background(), 1)

	svc.Reset()

	state := svc.State()
	if state.Brief != nil || len(state.Angles) != 0 || state.Draft != nil || len(state.CalendarEntries) != 0 {
		t.Errorf("state after Reset = %+v, want empty", state)
	}
}
