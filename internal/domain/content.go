package domain

// ParsedBriefData is the loosely structured result of server-side brief
// parsing. The schema is advisory; unknown keys are preserved by the
// server and ignored here.
type ParsedBriefData struct {
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Audience             map[string]string      `json:"audience,omitempty"`
	Goals                map[string]string      `json:"goals,omitempty"`
	ContentDirection     string                 `json:"content_direction,omitempty"`
	SubjectMatterContext string                 `json:"subject_matter_context,omitempty"`
	VoiceTone            map[string]string      `json:"voice_tone,omitempty"`
	ContentStructure     map[string]any         `json:"content_structure,omitempty"`
	ExampleTopics        []string               `json:"example_topics,omitempty"`
	DosAndDonts          map[string][]string    `json:"dos_and_donts,omitempty"`
	ContentFormat        map[string]any         `json:"content_format,omitempty"`
}

// ContentBrief is the user-supplied document describing desired content,
// parsed into structured fields server-side.
type ContentBrief struct {
	ID         int             `json:"id"`
	UserID     int             `json:"user_id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	ParsedData ParsedBriefData `json:"parsed_data"`
	Filename   string          `json:"filename,omitempty"`
	FileType   string          `json:"file_type,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

// BriefUpdate holds the editable brief fields for PUT .../brief.
type BriefUpdate struct {
	Title      *string          `json:"title,omitempty"`
	Content    *string          `json:"content,omitempty"`
	ParsedData *ParsedBriefData `json:"parsed_data,omitempty"`
}

// ContentAngle is a generated content approach derived from a brief.
// At most one angle per brief carries IsSelected=true in the local cache.
type ContentAngle struct {
	ID               int    `json:"id"`
	UserID           int    `json:"user_id"`
	BriefID          int    `json:"brief_id"`
	PostType         string `json:"post_type"`
	ContentPillar    string `json:"content_pillar"`
	Hook             string `json:"hook"`
	AngleDescription string `json:"angle_description"`
	IsSelected       bool   `json:"is_selected"`
	CreatedAt        string `json:"created_at"`
}

// Draft is an editable post body. AngleID is zero when the draft was
// created directly from the brief.
type Draft struct {
	ID         int    `json:"id"`
	UserID     int    `json:"user_id"`
	BriefID    int    `json:"brief_id"`
	AngleID    int    `json:"angle_id,omitempty"`
	Content    string `json:"content"`
	Version    int    `json:"version"`
	AIFeedback string `json:"ai_feedback,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// EnhanceOptions tune a draft enhancement request.
type EnhanceOptions struct {
	Tone             string   `json:"tone,omitempty"`
	Length           string   `json:"length,omitempty"`
	ImproveHook      bool     `json:"improve_hook,omitempty"`
	SuggestedChanges []string `json:"suggested_changes,omitempty"`
}

// EnhancedDraft is the partial payload the enhancement endpoint returns.
// The client reconstructs a full Draft around it.
type EnhancedDraft struct {
	Content  string `json:"content"`
	Feedback string `json:"feedback"`
}

// Calendar entry statuses.
const (
	EntryStatusDraft     = "draft"
	EntryStatusScheduled = "scheduled"
	EntryStatusPublished = "published"
	EntryStatusCancelled = "cancelled"
)

// CalendarEntry is one slot on the user's content calendar.
type CalendarEntry struct {
	ID            int            `json:"id"`
	UserID        int            `json:"user_id"`
	Title         string         `json:"title"`
	Date          string         `json:"date"`
	Time          string         `json:"time"`
	Status        string         `json:"status"`
	BriefID       int            `json:"brief_id,omitempty"`
	AngleID       int            `json:"angle_id,omitempty"`
	EntryMetadata map[string]any `json:"entry_metadata,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// CalendarEntryInput carries the writable entry fields for create/update.
type CalendarEntryInput struct {
	Title         string         `json:"title,omitempty"`
	Date          string         `json:"date,omitempty"`
	Time          string         `json:"time,omitempty"`
	Status        string         `json:"status,omitempty"`
	BriefID       int            `json:"brief_id,omitempty"`
	AngleID       int            `json:"angle_id,omitempty"`
	EntryMetadata map[string]any `json:"entry_metadata,omitempty"`
	UserID        int            `json:"user_id,omitempty"`
}

// SchedulePostRequest sends a draft to the scheduling endpoint.
type SchedulePostRequest struct {
	DraftID       int    `json:"draft_id"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Content       string `json:"content"`
	Platform      string `json:"platform"`
}

// ScheduledPost is the scheduling result; it is never cached.
type ScheduledPost struct {
	ID            int    `json:"id"`
	DraftID       int    `json:"draft_id"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Platform      string `json:"platform"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}
