package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kiwiq/alpha-cli/internal/domain"
	"github.com/kiwiq/alpha-cli/internal/port"
)

const defaultPlatform = "LinkedIn"

// ContentState is a point-in-time snapshot of the workflow cache. Each
// slice (brief, angles, draft, calendar) has its own loading and error
// flags; there is no global error union.
type ContentState struct {
	Brief        *domain.ContentBrief
	BriefLoading bool
	BriefErr     string

	Angles        []domain.ContentAngle
	SelectedAngle *domain.ContentAngle
	AnglesLoading bool
	AnglesErr     string

	Draft        *domain.Draft
	DraftLoading bool
	DraftErr     string

	CalendarEntries []domain.CalendarEntry
	CalendarLoading bool
	CalendarErr     string
}

// ContentService owns the brief/angle/draft/calendar cache. Entities
// live server-side; this is a read-through, write-through cache
// invalidated only by explicit refetch. Draft creation is idempotent
// per origin and de-duplicated across concurrent callers.
type ContentService struct {
	api port.ContentAPI
	now func() time.Time

	draftFlight singleflight.Group

	mu    sync.Mutex
	state ContentState
}

// NewContentService creates an empty workflow cache.
func NewContentService(api port.ContentAPI) *ContentService {
	return &ContentService{api: api, now: time.Now}
}

// State returns a snapshot for rendering. Slices are copied so the UI
// can iterate without holding the cache hostage.
func (s *ContentService) State() ContentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Angles = append([]domain.ContentAngle(nil), s.state.Angles...)
	snap.CalendarEntries = append([]domain.CalendarEntry(nil), s.state.CalendarEntries...)
	return snap
}

// ── Brief ────────────────────────────────────────────────────────────

// UploadBrief sends a brief document and replaces the cached brief with
// the parsed result.
func (s *ContentService) UploadBrief(ctx context.Context, userID int, filename string, file io.Reader) (*domain.ContentBrief, error) {
	s.setBriefLoading(true, "")

	brief, err := s.api.UploadBrief(ctx, userID, filename, file)
	if err != nil {
		slog.Error("brief upload failed", "user_id", userID, "error", err)
		s.setBriefLoading(false, "Failed to upload content brief")
		return nil, err
	}

	s.mu.Lock()
	s.state.Brief = brief
	s.state.BriefLoading = false
	s.mu.Unlock()
	return brief, nil
}

// Brief refetches the brief. Fetch-or-return-cached is the caller's
// call; the cache itself always refetches.
func (s *ContentService) Brief(ctx context.Context, userID int) (*domain.ContentBrief, error) {
	s.setBriefLoading(true, "")

	brief, err := s.api.Brief(ctx, userID)
	if err != nil {
		slog.Error("brief fetch failed", "user_id", userID, "error", err)
		s.setBriefLoading(false, "Failed to load content brief")
		return nil, err
	}

	s.mu.Lock()
	s.state.Brief = brief
	s.state.BriefLoading = false
	s.mu.Unlock()
	return brief, nil
}

// UpdateBrief round-trips edits and replaces the cache on success.
func (s *ContentService) UpdateBrief(ctx context.Context, userID int, update domain.BriefUpdate) (*domain.ContentBrief, error) {
	s.setBriefLoading(true, "")

	brief, err := s.api.UpdateBrief(ctx, userID, update)
	if err != nil {
		slog.Error("brief update failed", "user_id", userID, "error", err)
		s.setBriefLoading(false, "Failed to update content brief")
		return nil, err
	}

	s.mu.Lock()
	s.state.Brief = brief
	s.state.BriefLoading = false
	s.mu.Unlock()
	return brief, nil
}

// ── Angles ───────────────────────────────────────────────────────────

// GenerateAngles replaces the cached list with freshly generated angles.
func (s *ContentService) GenerateAngles(ctx context.Context, userID int) ([]domain.ContentAngle, error) {
	s.setAnglesLoading(true, "")

	angles, err := s.api.GenerateAngles(ctx, userID)
	if err != nil {
		slog.Error("angle generation failed", "user_id", userID, "error", err)
		s.setAnglesLoading(false, "Failed to generate content angles")
		return nil, err
	}

	s.mu.Lock()
	s.state.Angles = angles
	s.state.AnglesLoading = false
	s.mu.Unlock()
	return angles, nil
}

// Angles refetches the stored angle list.
func (s *ContentService) Angles(ctx context.Context, userID int) ([]domain.ContentAngle, error) {
	s.setAnglesLoading(true, "")

	angles, err := s.api.Angles(ctx, userID)
	if err != nil {
		slog.Error("angle fetch failed", "user_id", userID, "error", err)
		s.setAnglesLoading(false, "Failed to load content angles")
		return nil, err
	}

	s.mu.Lock()
	s.state.Angles = angles
	s.state.AnglesLoading = false
	s.mu.Unlock()
	return angles, nil
}

// AngleByID looks the angle up in cache first and refetches the whole
// list at most once on a miss. There is no per-angle endpoint.
func (s *ContentService) AngleByID(ctx context.Context, userID, angleID int) (*domain.ContentAngle, error) {
	s.mu.Lock()
	angle, ok := findAngle(s.state.Angles, angleID)
	if ok {
		s.state.SelectedAngle = &angle
		s.mu.Unlock()
		return &angle, nil
	}
	s.mu.Unlock()

	s.setAnglesLoading(true, "")
	angles, err := s.api.Angles(ctx, userID)
	if err != nil {
		slog.Error("angle refetch failed", "user_id", userID, "angle_id", angleID, "error", err)
		s.setAnglesLoading(false, "Failed to load angle")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Angles = angles
	s.state.AnglesLoading = false

	angle, ok = findAngle(angles, angleID)
	if !ok {
		s.state.SelectedAngle = nil
		return nil, port.ErrAngleNotFound
	}
	s.state.SelectedAngle = &angle
	return &angle, nil
}

// SelectAngle marks one angle server-side, then mirrors the result into
// the cache: the matching angle gets is_selected=true, every other one
// false. This keeps the at-most-one-selected invariant without a
// refetch.
func (s *ContentService) SelectAngle(ctx context.Context, userID, angleID int) (*domain.ContentAngle, error) {
	s.setAnglesLoading(true, "")

	angle, err := s.api.SelectAngle(ctx, userID, angleID)
	if err != nil {
		slog.Error("angle selection failed", "user_id", userID, "angle_id", angleID, "error", err)
		s.setAnglesLoading(false, "Failed to select content angle")
		return nil, err
	}

	s.mu.Lock()
	for i := range s.state.Angles {
		s.state.Angles[i].IsSelected = s.state.Angles[i].ID == angle.ID
	}
	s.state.SelectedAngle = angle
	s.state.AnglesLoading = false
	s.mu.Unlock()
	return angle, nil
}

// ── Draft ────────────────────────────────────────────────────────────

// CreateDraft drafts a post from the given angle. Creation is
// idempotent per (user, angle) within a session: a cached draft with
// the same origin and non-empty content is returned without a network
// call, and concurrent calls for the same origin collapse into one
// request.
func (s *ContentService) CreateDraft(ctx context.Context, userID, angleID int) (*domain.Draft, error) {
	return s.createDraft(ctx, fmt.Sprintf("angle:%d", angleID), angleID, func() (*domain.Draft, error) {
		return s.api.CreateDraft(ctx, userID, angleID)
	})
}

// CreateDraftFromBrief drafts a post straight from the brief, with the
// same idempotence rules keyed on the "no angle" origin.
func (s *ContentService) CreateDraftFromBrief(ctx context.Context, userID int) (*domain.Draft, error) {
	return s.createDraft(ctx, "brief", 0, func() (*domain.Draft, error) {
		return s.api.CreateDraftFromBrief(ctx, userID)
	})
}

func (s *ContentService) createDraft(ctx context.Context, key string, angleID int, create func() (*domain.Draft, error)) (*domain.Draft, error) {
	if draft := s.cachedDraftFor(angleID); draft != nil {
		return draft, nil
	}

	v, err, _ := s.draftFlight.Do(key, func() (any, error) {
		// Re-check under the flight: a sibling call may have populated
		// the cache while this one waited.
		if draft := s.cachedDraftFor(angleID); draft != nil {
			return draft, nil
		}

		s.setDraftLoading(true, "")
		draft, err := create()
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.state.Draft = draft
		s.state.DraftLoading = false
		s.mu.Unlock()
		return draft, nil
	})
	if err != nil {
		slog.Error("draft creation failed", "origin", key, "error", err)
		s.setDraftLoading(false, "Failed to create draft")
		return nil, err
	}
	return v.(*domain.Draft), nil
}

// cachedDraftFor returns the cached draft when it matches the requested
// origin (angleID, or zero for "from brief") and has non-empty content.
func (s *ContentService) cachedDraftFor(angleID int) *domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.Draft
	if draft == nil || draft.AngleID != angleID {
		return nil
	}
	if strings.TrimSpace(draft.Content) == "" {
		return nil
	}
	return draft
}

// EnhanceDraft sends the current content through the enhancement
// endpoint and rebuilds a full draft around the partial response. The
// client is the source of truth for identity and version continuity.
func (s *ContentService) EnhanceDraft(ctx context.Context, userID int, content string, opts domain.EnhanceOptions) (*domain.Draft, error) {
	s.mu.Lock()
	prior := s.state.Draft
	s.mu.Unlock()
	if prior == nil {
		s.setDraftLoading(false, "No draft found to enhance")
		return nil, port.ErrNoDraft
	}

	s.setDraftLoading(true, "")
	enhanced, err := s.api.EnhanceDraft(ctx, userID, content, opts)
	if err != nil {
		slog.Error("draft enhancement failed", "user_id", userID, "draft_id", prior.ID, "error", err)
		s.setDraftLoading(false, "Failed to enhance draft")
		return nil, err
	}

	merged := mergeEnhanced(*prior, *enhanced, s.now())

	s.mu.Lock()
	s.state.Draft = &merged
	s.state.DraftLoading = false
	s.mu.Unlock()
	return &merged, nil
}

// mergeEnhanced rebuilds a full draft from the enhancement endpoint's
// partial {content, feedback} payload. Identity fields and created_at
// carry over from the prior draft; the version advances by exactly one.
func mergeEnhanced(prior domain.Draft, enhanced domain.EnhancedDraft, now time.Time) domain.Draft {
	prior.Content = enhanced.Content
	prior.AIFeedback = enhanced.Feedback
	prior.Version++
	prior.UpdatedAt = now.UTC().Format(time.RFC3339)
	return prior
}

// ResetDraft clears the cached draft only; brief and angles survive.
// Used when navigating to start a fresh draft.
func (s *ContentService) ResetDraft() {
	s.mu.Lock()
	s.state.Draft = nil
	s.state.DraftErr = ""
	s.mu.Unlock()
}

// ── Calendar ─────────────────────────────────────────────────────────

// CalendarEntries refetches the calendar list.
func (s *ContentService) CalendarEntries(ctx context.Context, userID int) ([]domain.CalendarEntry, error) {
	s.setCalendarLoading(true, "")

	entries, err := s.api.CalendarEntries(ctx, userID)
	if err != nil {
		slog.Error("calendar fetch failed", "user_id", userID, "error", err)
		s.setCalendarLoading(false, "Failed to load calendar entries")
		return nil, err
	}

	s.mu.Lock()
	s.state.CalendarEntries = entries
	s.state.CalendarLoading = false
	s.mu.Unlock()
	return entries, nil
}

// CreateCalendarEntry writes through the server and appends the result.
func (s *ContentService) CreateCalendarEntry(ctx context.Context, userID int, input domain.CalendarEntryInput) (*domain.CalendarEntry, error) {
	s.setCalendarLoading(true, "")

	entry, err := s.api.CreateCalendarEntry(ctx, userID, input)
	if err != nil {
		slog.Error("calendar entry creation failed", "user_id", userID, "error", err)
		s.setCalendarLoading(false, "Failed to create calendar entry")
		return nil, err
	}

	s.mu.Lock()
	s.state.CalendarEntries = append(s.state.CalendarEntries, *entry)
	s.state.CalendarLoading = false
	s.mu.Unlock()
	return entry, nil
}

// UpdateCalendarEntry writes through the server and replaces the
// matching cached entry in place.
func (s *ContentService) UpdateCalendarEntry(ctx context.Context, userID, entryID int, input domain.CalendarEntryInput) (*domain.CalendarEntry, error) {
	s.setCalendarLoading(true, "")

	entry, err := s.api.UpdateCalendarEntry(ctx, userID, entryID, input)
	if err != nil {
		slog.Error("calendar entry update failed", "user_id", userID, "entry_id", entryID, "error", err)
		s.setCalendarLoading(false, "Failed to update calendar entry")
		return nil, err
	}

	s.mu.Lock()
	for i := range s.state.CalendarEntries {
		if s.state.CalendarEntries[i].ID == entry.ID {
			s.state.CalendarEntries[i] = *entry
		}
	}
	s.state.CalendarLoading = false
	s.mu.Unlock()
	return entry, nil
}

// DeleteCalendarEntry writes through the server and filters the entry
// out locally, preserving the order of the rest.
func (s *ContentService) DeleteCalendarEntry(ctx context.Context, userID, entryID int) error {
	s.setCalendarLoading(true, "")

	if err := s.api.DeleteCalendarEntry(ctx, userID, entryID); err != nil {
		slog.Error("calendar entry deletion failed", "user_id", userID, "entry_id", entryID, "error", err)
		s.setCalendarLoading(false, "Failed to delete calendar entry")
		return err
	}

	s.mu.Lock()
	kept := s.state.CalendarEntries[:0]
	for _, entry := range s.state.CalendarEntries {
		if entry.ID != entryID {
			kept = append(kept, entry)
		}
	}
	s.state.CalendarEntries = kept
	s.state.CalendarLoading = false
	s.mu.Unlock()
	return nil
}

// ── Scheduling ───────────────────────────────────────────────────────

// SchedulePost validates and combines the date and time into one
// instant before sending; an unparseable pair fails without touching
// the network. The result is not cached.
func (s *ContentService) SchedulePost(ctx context.Context, userID, draftID int, date, timeOfDay, content, platform string) (*domain.ScheduledPost, error) {
	at, err := combineDateTime(date, timeOfDay)
	if err != nil {
		s.setDraftLoading(false, "Failed to schedule post")
		return nil, err
	}
	if platform == "" {
		platform = defaultPlatform
	}

	s.setDraftLoading(true, "")
	post, err := s.api.SchedulePost(ctx, userID, domain.SchedulePostRequest{
		DraftID:       draftID,
		ScheduledDate: at.Format("2006-01-02"),
		ScheduledTime: at.Format("15:04"),
		Content:       content,
		Platform:      platform,
	})
	if err != nil {
		slog.Error("post scheduling failed", "user_id", userID, "draft_id", draftID, "error", err)
		s.setDraftLoading(false, "Failed to schedule post")
		return nil, err
	}

	s.setDraftLoading(false, "")
	return post, nil
}

// combineDateTime normalizes a date and time-of-day pair into a single
// instant. Seconds in the time component are accepted and truncated.
func combineDateTime(date, timeOfDay string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if at, err := time.Parse(layout, date+" "+timeOfDay); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid schedule time %q %q", date, timeOfDay)
}

// ── Housekeeping ─────────────────────────────────────────────────────

// ClearErrors resets every slice-scoped error string.
func (s *ContentService) ClearErrors() {
	s.mu.Lock()
	s.state.BriefErr = ""
	s.state.AnglesErr = ""
	s.state.DraftErr = ""
	s.state.CalendarErr = ""
	s.mu.Unlock()
}

// Reset drops the whole workflow cache, e.g. at logout.
func (s *ContentService) Reset() {
	s.mu.Lock()
	s.state = ContentState{}
	s.mu.Unlock()
}

func findAngle(angles []domain.ContentAngle, angleID int) (domain.ContentAngle, bool) {
	for _, angle := range angles {
		if angle.ID == angleID {
			return angle, true
		}
	}
	return domain.ContentAngle{}, false
}

func (s *ContentService) setBriefLoading(loading bool, errMsg string) {
	s.mu.Lock()
	s.state.BriefLoading = loading
	s.state.BriefErr = errMsg
	s.mu.Unlock()
}

func (s *ContentService) setAnglesLoading(loading bool, errMsg string) {
	s.mu.Lock()
	s.state.AnglesLoading = loading
	s.state.AnglesErr = errMsg
	s.mu.Unlock()
}

func (s *ContentService) setDraftLoading(loading bool, errMsg string) {
	s.mu.Lock()
	s.state.DraftLoading = loading
	s.state.DraftErr = errMsg
	s.mu.Unlock()
}

func (s *ContentService) setCalendarLoading(loading bool, errMsg string) {
	s.mu.Lock()
	s.state.CalendarLoading = loading
	s.state.CalendarErr = errMsg
	s.mu.Unlock()
}
