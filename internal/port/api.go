package port

import (
	"context"
	"io"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

// AuthAPI abstracts the /auth endpoints of the Alpha service.
type AuthAPI interface {
	// Login posts form-encoded credentials and returns the token envelope.
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)

	// Logout invalidates the current session server-side.
	Logout(ctx context.Context) error

	// SwitchUser starts an impersonated session for the target user.
	SwitchUser(ctx context.Context, userID int) (*domain.AuthResponse, error)

	// Me fetches the current user's profile.
	Me(ctx context.Context) (*domain.User, error)

	// Users lists all users (admin only).
	Users(ctx context.Context) ([]domain.User, error)

	// Register creates a new account through the public endpoint.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)

	// CreateUser creates an account through the admin endpoint.
	CreateUser(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)

	// UserByID fetches one user's profile.
	UserByID(ctx context.Context, userID int) (*domain.User, error)

	// UpdateUser updates a user's mutable profile fields.
	UpdateUser(ctx context.Context, userID int, update domain.UserUpdate) (*domain.User, error)
}

// ContentAPI abstracts the /content endpoints: briefs, angles, drafts,
// calendar entries, and scheduling.
type ContentAPI interface {
	UploadBrief(ctx context.Context, userID int, filename string, file io.Reader) (*domain.ContentBrief, error)
	Brief(ctx context.Context, userID int) (*domain.ContentBrief, error)
	UpdateBrief(ctx context.Context, userID int, update domain.BriefUpdate) (*domain.ContentBrief, error)

	GenerateAngles(ctx context.Context, userID int) ([]domain.ContentAngle, error)
	Angles(ctx context.Context, userID int) ([]domain.ContentAngle, error)
	SelectAngle(ctx context.Context, userID, angleID int) (*domain.ContentAngle, error)

	CreateDraft(ctx context.Context, userID, angleID int) (*domain.Draft, error)
	CreateDraftFromBrief(ctx context.Context, userID int) (*domain.Draft, error)
	EnhanceDraft(ctx context.Context, userID int, content string, opts domain.EnhanceOptions) (*domain.EnhancedDraft, error)

	CalendarEntries(ctx context.Context, userID int) ([]domain.CalendarEntry, error)
	CreateCalendarEntry(ctx context.Context, userID int, input domain.CalendarEntryInput) (*domain.CalendarEntry, error)
	UpdateCalendarEntry(ctx context.Context, userID, entryID int, input domain.CalendarEntryInput) (*domain.CalendarEntry, error)
	DeleteCalendarEntry(ctx context.Context, userID, entryID int) error

	SchedulePost(ctx context.Context, userID int, req domain.SchedulePostRequest) (*domain.ScheduledPost, error)
}

// AIAPI abstracts the /ai endpoints. Results are ephemeral; nothing
// here implies caching.
type AIAPI interface {
	Process(ctx context.Context, req domain.ProcessRequest) (*domain.ProcessResponse, error)
	AudienceAnalysis(ctx context.Context, content string, audiences []string) (*domain.AudienceAnalysisResponse, error)
	FinalAnalysis(ctx context.Context, content string, brief map[string]any) (*domain.FinalAnalysis, error)
	Copywriter(ctx context.Context, content, feedback string) ([]domain.CopywriterSuggestion, error)
	SmartSuggestions(ctx context.Context, surrounding, selected string) ([]domain.SmartSuggestion, error)
	Usage(ctx context.Context) (*domain.Usage, error)
}

// TokenStore is the durable home of the bearer token, the only state
// the client persists between runs.
type TokenStore interface {
	// Token returns the stored token, or "" when none is stored.
	Token() string

	// Save replaces the stored token.
	Save(token string) error

	// Clear removes the stored token.
	Clear() error
}
