package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(lipgloss.Color("#F5A623")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
)

// View renders the current screen with the shared chrome around it.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateBoot:
		content = "Restoring session..."
	case stateLogin:
		content = a.viewLogin()
	case stateRegister:
		content = a.viewRegister()
	case stateHome:
		content = a.mainMenu.View()
	case stateBrief:
		content = a.viewBrief()
	case stateAngles:
		content = a.viewAngles()
	case stateDraft:
		content = a.viewDraft()
	case stateCalendar:
		content = a.viewCalendar()
	case stateUsers:
		content = a.viewUsers()
	}

	sections := []string{titleStyle.Render("◆ ALPHA")}
	if banner := a.impersonationBanner(); banner != "" {
		sections = append(sections, banner)
	}
	sections = append(sections, content)
	if a.statusMsg != "" {
		sections = append(sections, dimStyle.Render(a.statusMsg))
	}
	return strings.Join(sections, "\n\n")
}

func (a *App) impersonationBanner() string {
	state := a.session.State()
	if state.User == nil || !state.User.IsImpersonated {
		return ""
	}
	return bannerStyle.Render(fmt.Sprintf("⚠ Viewing as %s (%s)", state.User.Name, state.User.Email))
}

func (a *App) viewLogin() string {
	lines := []string{
		"Sign in to Alpha",
		"",
		"Email:    " + a.emailInput.View(),
		"Password: " + a.passwordInput.View(),
		"",
		dimStyle.Render("Tab → switch field    Enter → sign in    Ctrl+R → create account    Ctrl+C → quit"),
	}
	if err := a.session.State().Err; err != "" {
		lines = append(lines, "", errStyle.Render(err))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) viewRegister() string {
	lines := []string{
		"Create an Alpha account",
		"",
		"Name:     " + a.nameInput.View(),
		"Email:    " + a.emailInput.View(),
		"Password: " + a.passwordInput.View(),
		"",
		dimStyle.Render("Tab → switch field    Enter → create    Esc → back to sign in"),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) viewBrief() string {
	state := a.content.State()

	if a.uploadingBrief {
		return boxStyle.Render(strings.Join([]string{
			"Upload a content brief",
			"",
			"File: " + a.briefPathInput.View(),
			"",
			dimStyle.Render("Enter → upload    Esc → cancel"),
		}, "\n"))
	}

	var lines []string
	switch {
	case state.BriefLoading:
		lines = append(lines, "Loading brief...")
	case state.Brief == nil:
		lines = append(lines, "No brief yet. Press 'u' to upload one.")
	default:
		brief := state.Brief
		lines = append(lines, selectedStyle.Render(brief.Title))
		if brief.ParsedData.Description != "" {
			lines = append(lines, "", brief.ParsedData.Description)
		}
		if len(brief.ParsedData.ExampleTopics) > 0 {
			lines = append(lines, "", "Topics: "+strings.Join(brief.ParsedData.ExampleTopics, ", "))
		}
		lines = append(lines, "", dimStyle.Render(fmt.Sprintf("Source: %s · updated %s", brief.Filename, brief.UpdatedAt)))
	}
	if state.BriefErr != "" {
		lines = append(lines, "", errStyle.Render(state.BriefErr))
	}
	lines = append(lines, "", dimStyle.Render("u → upload    r → refresh    Esc → back"))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) viewAngles() string {
	state := a.content.State()
	view := a.angleList.View()
	if len(state.Angles) == 0 && !state.AnglesLoading {
		view = "No angles yet. Press 'g' to generate from the brief."
	}
	lines := []string{view}
	if state.AnglesErr != "" {
		lines = append(lines, errStyle.Render(state.AnglesErr))
	}
	lines = append(lines, dimStyle.Render("g → generate    Enter → select    d → draft from angle    Esc → back"))
	return strings.Join(lines, "\n\n")
}

func (a *App) viewDraft() string {
	state := a.content.State()

	var lines []string
	switch {
	case state.DraftLoading:
		lines = append(lines, "Working on the draft...")
	case state.Draft == nil:
		lines = append(lines, "No draft yet. Press 'n' to create one.")
	default:
		draft := state.Draft
		origin := "from brief"
		if draft.AngleID != 0 {
			origin = fmt.Sprintf("from angle %d", draft.AngleID)
		}
		lines = append(lines,
			selectedStyle.Render(fmt.Sprintf("Draft v%d (%s)", draft.Version, origin)),
			"",
			draft.Content,
		)
		if draft.AIFeedback != "" {
			lines = append(lines, "", dimStyle.Render("Feedback: "+draft.AIFeedback))
		}
	}
	if state.DraftErr != "" {
		lines = append(lines, "", errStyle.Render(state.DraftErr))
	}

	if panel := a.renderAIPanel(); panel != "" {
		lines = append(lines, "", panel)
	}

	lines = append(lines, "", dimStyle.Render("n → new    e → enhance    a → audiences    f → final    c → copywriter    s → smart    u → usage    r → reset    Esc → back"))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderAIPanel() string {
	state := a.ai.State()
	var lines []string

	if state.IsLoading {
		lines = append(lines, "AI working...")
	}
	if state.Err != "" {
		lines = append(lines, errStyle.Render(state.Err))
	}
	if state.AudienceAnalysis != nil {
		lines = append(lines, selectedStyle.Render("Audience analysis"))
		for _, analysis := range state.AudienceAnalysis.Analyses {
			lines = append(lines, fmt.Sprintf("  %s · %d/10 · %s",
				analysis.Segment, analysis.Score, strings.Join(analysis.Suggestions, "; ")))
		}
	}
	if state.FinalAnalysis != nil {
		final := state.FinalAnalysis
		lines = append(lines, selectedStyle.Render(fmt.Sprintf("Final analysis · %d/10", final.OverallScore)), "  "+final.Summary)
	}
	if len(state.CopywriterSuggestions) > 0 {
		lines = append(lines, selectedStyle.Render("Copywriter"))
		for _, suggestion := range state.CopywriterSuggestions {
			lines = append(lines, fmt.Sprintf("  %q → %q", suggestion.Original, suggestion.Suggestion))
		}
	}
	if len(state.SmartSuggestions) > 0 {
		lines = append(lines, selectedStyle.Render("Smart suggestions"))
		for _, suggestion := range state.SmartSuggestions {
			lines = append(lines, fmt.Sprintf("  %q (%s)", suggestion.Suggestion, suggestion.Reason))
		}
	}
	if state.Usage != nil {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("AI usage: %d/%d (resets %s)",
			state.Usage.CurrentUsage, state.Usage.Limit, state.Usage.ResetAt)))
	}
	return strings.Join(lines, "\n")
}

func (a *App) viewCalendar() string {
	state := a.content.State()

	if a.addingEntry {
		return boxStyle.Render(strings.Join([]string{
			"New calendar entry",
			"",
			"Title: " + a.entryTitleInput.View(),
			"",
			dimStyle.Render("Enter → create    Esc → cancel"),
		}, "\n"))
	}

	var lines []string
	if len(state.CalendarEntries) == 0 {
		lines = append(lines, "Calendar is empty. Press 'n' to plan a post.")
	}
	for i, entry := range state.CalendarEntries {
		line := fmt.Sprintf("%s %s  %s  [%s]", entry.Date, entry.Time, entry.Title, entry.Status)
		if i == a.calendarSelection {
			line = selectedStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if state.CalendarErr != "" {
		lines = append(lines, "", errStyle.Render(state.CalendarErr))
	}
	lines = append(lines, "", dimStyle.Render("n → new    x → delete    s → schedule draft    r → refresh    Esc → back"))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) viewUsers() string {
	lines := []string{
		a.userList.View(),
		dimStyle.Render("Enter → switch into account    Esc → back"),
	}
	return strings.Join(lines, "\n\n")
}
