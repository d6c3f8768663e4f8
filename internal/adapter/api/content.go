package api

import (
	"context"
	"fmt"
	"io"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

// ContentService wraps the /content endpoints. Pure translation, no logic.
type ContentService struct {
	client *Client
}

// NewContentService creates the content endpoint wrapper.
func NewContentService(client *Client) *ContentService {
	return &ContentService{client: client}
}

// UploadBrief posts a brief document as a multipart file.
func (s *ContentService) UploadBrief(ctx context.Context, userID int, filename string, file io.Reader) (*domain.ContentBrief, error) {
	var brief domain.ContentBrief
	if err := s.client.upload(ctx, fmt.Sprintf("/content/%d/brief", userID), filename, file, &brief); err != nil {
		return nil, fmt.Errorf("upload brief: %w", err)
	}
	return &brief, nil
}

// Brief fetches the user's content brief.
func (s *ContentService) Brief(ctx context.Context, userID int) (*domain.ContentBrief, error) {
	var brief domain.ContentBrief
	if err := s.client.get(ctx, fmt.Sprintf("/content/%d/brief", userID), &brief); err != nil {
		return nil, fmt.Errorf("get brief: %w", err)
	}
	return &brief, nil
}

// UpdateBrief round-trips edited brief fields.
func (s *ContentService) UpdateBrief(ctx context.Context, userID int, update domain.BriefUpdate) (*domain.ContentBrief, error) {
	var brief domain.ContentBrief
	if err := s.client.put(ctx, fmt.Sprintf("/content/%d/brief", userID), update, &brief); err != nil {
		return nil, fmt.Errorf("update brief: %w", err)
	}
	return &brief, nil
}

// GenerateAngles asks the server to derive fresh angles from the brief.
func (s *ContentService) GenerateAngles(ctx context.Context, userID int) ([]domain.ContentAngle, error) {
	var angles []domain.ContentAngle
	if err := s.client.post(ctx, fmt.Sprintf("/content/%d/angles/generate", userID), nil, &angles); err != nil {
		return nil, fmt.Errorf("generate angles: %w", err)
	}
	return angles, nil
}

// Angles fetches the stored angle list.
func (s *ContentService) Angles(ctx context.Context, userID int) ([]domain.ContentAngle, error) {
	var angles []domain.ContentAngle
	if err := s.client.get(ctx, fmt.Sprintf("/content/%d/angles", userID), &angles); err != nil {
		return nil, fmt.Errorf("get angles: %w", err)
	}
	return angles, nil
}

// SelectAngle marks one angle as the chosen direction.
func (s *ContentService) SelectAngle(ctx context.Context, userID, angleID int) (*domain.ContentAngle, error) {
	var angle domain.ContentAngle
	if err := s.client.post(ctx, fmt.Sprintf("/content/%d/angle/%d/select", userID, angleID), nil, &angle); err != nil {
		return nil, fmt.Errorf("select angle: %w", err)
	}
	return &angle, nil
}

// CreateDraft drafts a post from a selected angle.
func (s *ContentService) CreateDraft(ctx context.Context, userID, angleID int) (*domain.Draft, error) {
	var draft domain.Draft
	if err := s.client.post(ctx, fmt.Sprintf("/content/%d/angle/%d/draft", userID, angleID), nil, &draft); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return &draft, nil
}

// CreateDraftFromBrief drafts a post directly from the brief.
func (s *ContentService) CreateDraftFromBrief(ctx context.Context, userID int) (*domain.Draft, error) {
	var draft domain.Draft
	if err := s.client.post(ctx, fmt.Sprintf("/content/%d/draft", userID), nil, &draft); err != nil {
		return nil, fmt.Errorf("create draft from brief: %w", err)
	}
	return &draft, nil
}

type enhanceRequest struct {
	DraftContent string `json:"draft_content"`
	domain.EnhanceOptions
}

// EnhanceDraft returns only the rewritten content and feedback; the
// caller owns identity and version continuity.
func (s *ContentService) EnhanceDraft(ctx context.Context, userID int, content string, opts domain.EnhanceOptions) (*domain.EnhancedDraft, error) {
	req := enhanceRequest{DraftContent: content, EnhanceOptions: opts}
	var enhanced domain.EnhancedDraft
	if err := s.client.post(ctx, fmt.Sprintf("/content/%d/enhance", userID), req, &enhanced); err != nil {
		return nil, fmt.Errorf("enhance draft: %w", err)
	}
	return &enhanced, nil
}

// CalendarEntries fetches the user's calendar.
func (s *ContentService) CalendarEntries(ctx context.Context, userID int) ([]domain.CalendarEntry, error) {
	var entries []domain.CalendarEntry
	if err := s.client.get(ctx, fmt.Sprintf("/content/%d/calendar", userID), &entries); err != nil {
		return nil, fmt.Errorf("get calendar entries: %w", err)
	}
	return entries, nil
}

// CreateCalendarEntry adds one calendar slot.
func (s *ContentService) CreateCalendarEntry(ctx context.Context, userID int, input domain.CalendarEntryInput) (*domain.CalendarEntry, error) {
	input.UserID = userID
	var entry domain.CalendarEntry
	if err := s.client.post(ctx, fmt.Sprintf("/content/%d/calendar", userID), input, &entry); err != nil {
		return nil, fmt.Errorf("create calendar entry: %w", err)
	}
	return &entry, nil
}

// UpdateCalendarEntry edits one calendar slot.
func (s *ContentService) UpdateCalendarEntry(ctx context.Context, userID, entryID int, input domain.CalendarEntryInput) (*domain.CalendarEntry, error) {
	var entry domain.CalendarEntry
	if err := s.client.put(ctx, fmt.Sprintf("/content/%d/calendar/%d", userID, entryID), input, &entry); err != nil {
		return nil, fmt.Errorf("update calendar entry: %w", err)
	}
	return &entry, nil
}

// DeleteCalendarEntry removes one calendar slot.
func (s *ContentService) DeleteCalendarEntry(ctx context.Context, userID, entryID int) error {
	if err := s.client.del(ctx, fmt.Sprintf("/content/%d/calendar/%d", userID, entryID)); err != nil {
		return fmt.Errorf("delete calendar entry: %w", err)
	}
	return nil
}

// SchedulePost sends a draft to the scheduling endpoint.
func (s *ContentService) SchedulePost(ctx context.Context, userID int, req domain.SchedulePostRequest) (*domain.ScheduledPost, error) {
	var post domain.ScheduledPost
	if err := s.client.post(ctx, fmt.Sprintf("/content/%d/schedule", userID), req, &post); err != nil {
		return nil, fmt.Errorf("schedule post: %w", err)
	}
	return &post, nil
}
