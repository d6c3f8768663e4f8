package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

const opTimeout = 60 * time.Second

// run wraps a service call in a bubbletea command. Every operation
// reports back through refreshMsg; views re-read the snapshots.
func run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return refreshMsg{err: fn(ctx)}
	}
}

// currentUserID resolves the acting user; zero means not signed in.
func (a *App) currentUserID() int {
	if user := a.session.State().User; user != nil {
		return user.ID
	}
	return 0
}

func (a *App) checkAuthCmd() tea.Cmd {
	return run(func(ctx context.Context) error {
		a.session.CheckAuth(ctx)
		return nil
	})
}

func (a *App) loginCmd(email, password string) tea.Cmd {
	return run(func(ctx context.Context) error {
		_, err := a.session.Login(ctx, domain.Credentials{Username: email, Password: password})
		return err
	})
}

func (a *App) logoutCmd() tea.Cmd {
	return run(func(ctx context.Context) error {
		a.session.Logout(ctx)
		a.content.Reset()
		a.ai.ResetResults()
		return nil
	})
}

func (a *App) switchUserCmd(userID int) tea.Cmd {
	return run(func(ctx context.Context) error {
		_, err := a.session.SwitchUser(ctx, userID)
		if err == nil {
			// The workflow cache belongs to the previous identity.
			a.content.Reset()
			a.ai.ResetResults()
		}
		return err
	})
}

func (a *App) loadUsersCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		users, err := a.session.Users(ctx)
		return usersMsg{users: users, err: err}
	}
}

func (a *App) loadBriefCmd() tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		_, err := a.content.Brief(ctx, userID)
		return err
	})
}

func (a *App) uploadBriefCmd(path string) tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open brief: %w", err)
		}
		defer file.Close()
		_, err = a.content.UploadBrief(ctx, userID, filepath.Base(path), file)
		return err
	})
}

func (a *App) generateAnglesCmd() tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		_, err := a.content.GenerateAngles(ctx, userID)
		return err
	})
}

func (a *App) loadAnglesCmd() tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		_, err := a.content.Angles(ctx, userID)
		return err
	})
}

func (a *App) selectAngleCmd(angleID int) tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		_, err := a.content.SelectAngle(ctx, userID, angleID)
		return err
	})
}

func (a *App) createDraftCmd(angleID int) tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		_, err := a.content.CreateDraft(ctx, userID, angleID)
		return err
	})
}

func (a *App) createDraftFromBriefCmd() tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		_, err := a.content.CreateDraftFromBrief(ctx, userID)
		return err
	})
}

func (a *App) enhanceDraftCmd() tea.Cmd {
	userID := a.currentUserID()
	draft := a.content.State().Draft
	return run(func(ctx context.Context) error {
		if draft == nil {
			return errors.New("no draft to enhance")
		}
		_, err := a.content.EnhanceDraft(ctx, userID, draft.Content, domain.EnhanceOptions{ImproveHook: true})
		return err
	})
}

func (a *App) loadCalendarCmd() tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		_, err := a.content.CalendarEntries(ctx, userID)
		return err
	})
}

func (a *App) createCalendarEntryCmd(title string) tea.Cmd {
	userID := a.currentUserID()
	state := a.content.State()
	input := domain.CalendarEntryInput{
		Title:  title,
		Date:   time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		Time:   "09:00",
		Status: domain.EntryStatusDraft,
	}
	if state.Brief != nil {
		input.BriefID = state.Brief.ID
	}
	if state.SelectedAngle != nil {
		input.AngleID = state.SelectedAngle.ID
	}
	return run(func(ctx context.Context) error {
		_, err := a.content.CreateCalendarEntry(ctx, userID, input)
		return err
	})
}

func (a *App) deleteCalendarEntryCmd(entryID int) tea.Cmd {
	userID := a.currentUserID()
	return run(func(ctx context.Context) error {
		return a.content.DeleteCalendarEntry(ctx, userID, entryID)
	})
}

func (a *App) schedulePostCmd(entry domain.CalendarEntry) tea.Cmd {
	userID := a.currentUserID()
	draft := a.content.State().Draft
	return run(func(ctx context.Context) error {
		if draft == nil {
			return errors.New("create a draft before scheduling")
		}
		_, err := a.content.SchedulePost(ctx, userID, draft.ID, entry.Date, entry.Time, draft.Content, "")
		if err != nil {
			return err
		}
		_, err = a.content.UpdateCalendarEntry(ctx, userID, entry.ID, domain.CalendarEntryInput{
			Status: domain.EntryStatusScheduled,
		})
		return err
	})
}

func (a *App) audienceAnalysisCmd() tea.Cmd {
	draft := a.content.State().Draft
	audiences := briefAudiences(a.content.State().Brief)
	return run(func(ctx context.Context) error {
		if draft == nil {
			return errors.New("no draft to analyze")
		}
		_, err := a.ai.AudienceAnalysis(ctx, draft.Content, audiences)
		return err
	})
}

func (a *App) finalAnalysisCmd() tea.Cmd {
	draft := a.content.State().Draft
	brief := a.content.State().Brief
	return run(func(ctx context.Context) error {
		if draft == nil {
			return errors.New("no draft to analyze")
		}
		_, err := a.ai.FinalAnalysis(ctx, draft.Content, briefContext(brief))
		return err
	})
}

func (a *App) smartSuggestionsCmd() tea.Cmd {
	draft := a.content.State().Draft
	return run(func(ctx context.Context) error {
		if draft == nil {
			return errors.New("no draft to rewrite")
		}
		_, err := a.ai.SmartSuggestions(ctx, draft.Content, firstSentence(draft.Content))
		return err
	})
}

func (a *App) copywriterCmd() tea.Cmd {
	draft := a.content.State().Draft
	return run(func(ctx context.Context) error {
		if draft == nil {
			return errors.New("no draft to rewrite")
		}
		_, err := a.ai.Copywriter(ctx, draft.Content, draft.AIFeedback)
		return err
	})
}

func (a *App) usageCmd() tea.Cmd {
	return run(func(ctx context.Context) error {
		_, err := a.ai.Usage(ctx)
		return err
	})
}

func (a *App) registerCmd(name, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := a.session.Register(ctx, domain.RegisterRequest{Name: name, Email: email, Password: password})
		return registerDoneMsg{email: email, err: err}
	}
}

// firstSentence picks the span the inline rewrite works on when the
// terminal offers no finer text selection.
func firstSentence(content string) string {
	content = strings.TrimSpace(content)
	for i, r := range content {
		switch r {
		case '.', '!', '?':
			return content[:i+1]
		case '\n':
			return strings.TrimSpace(content[:i])
		}
	}
	return content
}

func briefAudiences(brief *domain.ContentBrief) []string {
	if brief == nil || len(brief.ParsedData.Audience) == 0 {
		return []string{"general"}
	}
	audiences := make([]string, 0, len(brief.ParsedData.Audience))
	for _, audience := range brief.ParsedData.Audience {
		audiences = append(audiences, audience)
	}
	return audiences
}

func briefContext(brief *domain.ContentBrief) map[string]any {
	if brief == nil {
		return nil
	}
	return map[string]any{
		"title":       brief.Title,
		"description": brief.ParsedData.Description,
		"audience":    brief.ParsedData.Audience,
		"goals":       brief.ParsedData.Goals,
	}
}
