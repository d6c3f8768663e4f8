package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

// usersMsg carries the admin user listing; it is the one dataset not
// cached inside a service snapshot.
type usersMsg struct {
	users []domain.User
	err   error
}

// registerDoneMsg reports the outcome of an account creation attempt.
type registerDoneMsg struct {
	email string
	err   error
}

type angleItem struct {
	angle domain.ContentAngle
}

func (i angleItem) Title() string {
	marker := "  "
	if i.angle.IsSelected {
		marker = "✔ "
	}
	return marker + i.angle.Hook
}

func (i angleItem) Description() string {
	return fmt.Sprintf("%s · %s", i.angle.PostType, i.angle.AngleDescription)
}

func (i angleItem) FilterValue() string { return i.angle.Hook }

type userItem struct {
	user domain.User
}

func (i userItem) Title() string {
	if i.user.IsAdmin {
		return i.user.Name + " (admin)"
	}
	return i.user.Name
}

func (i userItem) Description() string { return i.user.Email }
func (i userItem) FilterValue() string { return i.user.Email }

// ── Login ────────────────────────────────────────────────────────────

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab":
			a.focusLogin(1 - a.loginFocus)
			return a, nil
		case "ctrl+r":
			a.state = stateRegister
			a.statusMsg = ""
			a.nameInput.SetValue("")
			a.passwordInput.SetValue("")
			a.focusRegister(0)
			return a, nil
		case "enter":
			if a.loginFocus == 0 {
				a.focusLogin(1)
				return a, nil
			}
			email := strings.TrimSpace(a.emailInput.Value())
			password := a.passwordInput.Value()
			if email == "" || password == "" {
				a.statusMsg = "Email and password are required"
				return a, nil
			}
			a.statusMsg = "Signing in..."
			return a, a.loginCmd(email, password)
		}
	}

	var cmd tea.Cmd
	if a.loginFocus == 0 {
		a.emailInput, cmd = a.emailInput.Update(msg)
	} else {
		a.passwordInput, cmd = a.passwordInput.Update(msg)
	}
	return a, cmd
}

// ── Register ─────────────────────────────────────────────────────────

func (a *App) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	if done, ok := msg.(registerDoneMsg); ok {
		if done.err != nil {
			a.statusMsg = firstNonEmpty(a.session.State().Err, done.err.Error())
			return a, nil
		}
		a.state = stateLogin
		a.statusMsg = "Account created. Sign in with your new credentials."
		a.emailInput.SetValue(done.email)
		a.passwordInput.SetValue("")
		a.focusLogin(1)
		return a, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			a.state = stateLogin
			a.statusMsg = ""
			a.focusLogin(0)
			return a, nil
		case "tab":
			a.focusRegister((a.registerFocus + 1) % 3)
			return a, nil
		case "shift+tab":
			a.focusRegister((a.registerFocus + 2) % 3)
			return a, nil
		case "enter":
			if a.registerFocus < 2 {
				a.focusRegister(a.registerFocus + 1)
				return a, nil
			}
			name := strings.TrimSpace(a.nameInput.Value())
			email := strings.TrimSpace(a.emailInput.Value())
			password := a.passwordInput.Value()
			if email == "" || password == "" {
				a.statusMsg = "Email and password are required"
				return a, nil
			}
			a.statusMsg = "Creating account..."
			return a, a.registerCmd(name, email, password)
		}
	}

	var cmd tea.Cmd
	switch a.registerFocus {
	case 0:
		a.nameInput, cmd = a.nameInput.Update(msg)
	case 1:
		a.emailInput, cmd = a.emailInput.Update(msg)
	default:
		a.passwordInput, cmd = a.passwordInput.Update(msg)
	}
	return a, cmd
}

// ── Brief ────────────────────────────────────────────────────────────

func (a *App) updateBrief(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	if a.uploadingBrief {
		switch key.String() {
		case "esc":
			a.uploadingBrief = false
			a.briefPathInput.Blur()
			return a, nil
		case "enter":
			path := strings.TrimSpace(a.briefPathInput.Value())
			if path == "" {
				return a, nil
			}
			a.uploadingBrief = false
			a.briefPathInput.Blur()
			a.statusMsg = "Uploading brief..."
			return a, a.uploadBriefCmd(path)
		}
		var cmd tea.Cmd
		a.briefPathInput, cmd = a.briefPathInput.Update(msg)
		return a, cmd
	}

	switch key.String() {
	case "esc":
		return a.returnHome()
	case "u":
		a.uploadingBrief = true
		a.briefPathInput.SetValue("")
		a.briefPathInput.Focus()
		return a, nil
	case "r":
		return a, a.loadBriefCmd()
	}
	return a, nil
}

// ── Angles ───────────────────────────────────────────────────────────

func (a *App) updateAngles(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return a.returnHome()
		case "g":
			a.statusMsg = "Generating angles..."
			return a, a.generateAnglesCmd()
		case "enter":
			item, ok := a.angleList.SelectedItem().(angleItem)
			if !ok {
				return a, nil
			}
			a.statusMsg = "Selecting angle..."
			return a, a.selectAngleCmd(item.angle.ID)
		case "d":
			item, ok := a.angleList.SelectedItem().(angleItem)
			if !ok {
				return a, nil
			}
			a.state = stateDraft
			a.statusMsg = "Creating draft..."
			return a, a.createDraftCmd(item.angle.ID)
		}
	}
	var cmd tea.Cmd
	a.angleList, cmd = a.angleList.Update(msg)
	return a, cmd
}

func (a *App) syncAngleList() {
	angles := a.content.State().Angles
	items := make([]list.Item, len(angles))
	for i, angle := range angles {
		items[i] = angleItem{angle: angle}
	}
	a.angleList.SetItems(items)
}

// ── Draft ────────────────────────────────────────────────────────────

func (a *App) updateDraft(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch key.String() {
	case "esc":
		return a.returnHome()
	case "n":
		state := a.content.State()
		if state.SelectedAngle != nil {
			a.statusMsg = "Creating draft from angle..."
			return a, a.createDraftCmd(state.SelectedAngle.ID)
		}
		a.statusMsg = "Creating draft from brief..."
		return a, a.createDraftFromBriefCmd()
	case "e":
		a.statusMsg = "Enhancing draft..."
		return a, a.enhanceDraftCmd()
	case "a":
		a.statusMsg = "Analyzing audiences..."
		return a, a.audienceAnalysisCmd()
	case "f":
		a.statusMsg = "Running final analysis..."
		return a, a.finalAnalysisCmd()
	case "c":
		a.statusMsg = "Fetching copywriter suggestions..."
		return a, a.copywriterCmd()
	case "s":
		a.statusMsg = "Fetching smart suggestions..."
		return a, a.smartSuggestionsCmd()
	case "u":
		return a, a.usageCmd()
	case "r":
		a.content.ResetDraft()
		a.ai.ResetResults()
		a.statusMsg = ""
		return a, nil
	}
	return a, nil
}

// ── Calendar ─────────────────────────────────────────────────────────

func (a *App) updateCalendar(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	entries := a.content.State().CalendarEntries

	if a.addingEntry {
		switch key.String() {
		case "esc":
			a.addingEntry = false
			a.entryTitleInput.Blur()
			return a, nil
		case "enter":
			title := strings.TrimSpace(a.entryTitleInput.Value())
			if title == "" {
				return a, nil
			}
			a.addingEntry = false
			a.entryTitleInput.Blur()
			a.statusMsg = "Creating calendar entry..."
			return a, a.createCalendarEntryCmd(title)
		}
		var cmd tea.Cmd
		a.entryTitleInput, cmd = a.entryTitleInput.Update(msg)
		return a, cmd
	}

	switch key.String() {
	case "esc":
		return a.returnHome()
	case "up", "k":
		if a.calendarSelection > 0 {
			a.calendarSelection--
		}
	case "down", "j":
		if a.calendarSelection < len(entries)-1 {
			a.calendarSelection++
		}
	case "n":
		a.addingEntry = true
		a.entryTitleInput.SetValue("")
		a.entryTitleInput.Focus()
	case "x":
		if len(entries) == 0 {
			return a, nil
		}
		entry := entries[a.calendarSelection]
		if a.calendarSelection >= len(entries)-1 && a.calendarSelection > 0 {
			a.calendarSelection--
		}
		a.statusMsg = "Deleting calendar entry..."
		return a, a.deleteCalendarEntryCmd(entry.ID)
	case "s":
		if len(entries) == 0 {
			a.statusMsg = "Create a calendar entry to schedule against"
			return a, nil
		}
		entry := entries[a.calendarSelection]
		a.statusMsg = "Scheduling post..."
		return a, a.schedulePostCmd(entry)
	case "r":
		return a, a.loadCalendarCmd()
	}
	return a, nil
}

// ── Users ────────────────────────────────────────────────────────────

func (a *App) updateUsers(msg tea.Msg) (tea.Model, tea.Cmd) {
	if users, ok := msg.(usersMsg); ok {
		if users.err != nil {
			a.statusMsg = firstNonEmpty(a.session.State().Err, users.err.Error())
			return a, nil
		}
		items := make([]list.Item, len(users.users))
		for i, user := range users.users {
			items[i] = userItem{user: user}
		}
		a.userList.SetItems(items)
		return a, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return a.returnHome()
		case "enter":
			item, ok := a.userList.SelectedItem().(userItem)
			if !ok {
				return a, nil
			}
			a.statusMsg = fmt.Sprintf("Switching to %s...", item.user.Email)
			return a, a.switchUserCmd(item.user.ID)
		}
	}
	var cmd tea.Cmd
	a.userList, cmd = a.userList.Update(msg)
	return a, cmd
}

func (a *App) syncUserList() {
	// The user list is refreshed by usersMsg; nothing to mirror here.
}
