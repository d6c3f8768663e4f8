package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kiwiq/alpha-cli/internal/service"
)

// appState is the screen the user is on.
type appState int

const (
	stateBoot appState = iota
	stateLogin
	stateRegister
	stateHome
	stateBrief
	stateAngles
	stateDraft
	stateCalendar
	stateUsers
)

// refreshMsg tells the model a service operation finished; views render
// from the service snapshots, so the message carries nothing.
type refreshMsg struct {
	err error
}

// sessionExpiredMsg arrives when the API client detects a dead session.
type sessionExpiredMsg struct{}

// SessionExpired builds the message the API layer sends into the
// program when the backend rejects the token mid-session.
func SessionExpired() tea.Msg { return sessionExpiredMsg{} }

// App is the root bubbletea model. All rendering state comes from the
// three service snapshots; the model only tracks navigation and inputs.
type App struct {
	session *service.SessionService
	content *service.ContentService
	ai      *service.AIService

	state     appState
	statusMsg string

	emailInput    textinput.Model
	passwordInput textinput.Model
	loginFocus    int

	nameInput     textinput.Model
	registerFocus int

	mainMenu  list.Model
	angleList list.Model
	userList  list.Model

	calendarSelection int
	entryTitleInput   textinput.Model
	addingEntry       bool

	briefPathInput textinput.Model
	uploadingBrief bool

	width  int
	height int
}

// NewApp wires the root model over the three stores.
func NewApp(session *service.SessionService, content *service.ContentService, ai *service.AIService) *App {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	name := textinput.New()
	name.Placeholder = "name"
	name.CharLimit = 128

	entryTitle := textinput.New()
	entryTitle.Placeholder = "entry title"
	entryTitle.CharLimit = 120

	briefPath := textinput.New()
	briefPath.Placeholder = "path to brief file"
	briefPath.CharLimit = 256

	mainMenu := list.New(homeMenuItems(false), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "◆ ALPHA"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)

	angleList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	angleList.Title = "Content Angles"
	angleList.SetShowStatusBar(false)
	angleList.SetFilteringEnabled(false)

	userList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	userList.Title = "Users"
	userList.SetShowStatusBar(false)
	userList.SetFilteringEnabled(false)

	return &App{
		session:         session,
		content:         content,
		ai:              ai,
		state:           stateBoot,
		emailInput:      email,
		passwordInput:   password,
		nameInput:       name,
		entryTitleInput: entryTitle,
		briefPathInput:  briefPath,
		mainMenu:        mainMenu,
		angleList:       angleList,
		userList:        userList,
	}
}

type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

func homeMenuItems(admin bool) []list.Item {
	items := []list.Item{
		menuItem{title: "Brief", desc: "Upload and review the content brief"},
		menuItem{title: "Angles", desc: "Generate and pick a content angle"},
		menuItem{title: "Draft", desc: "Create, enhance and analyze the draft"},
		menuItem{title: "Calendar", desc: "Plan and schedule posts"},
	}
	if admin {
		items = append(items, menuItem{title: "Users", desc: "Switch into another account"})
	}
	items = append(items,
		menuItem{title: "Logout", desc: "End the session"},
		menuItem{title: "Quit", desc: "Exit Alpha"},
	)
	return items
}

// Init kicks off the silent session restore.
func (a *App) Init() tea.Cmd {
	return a.checkAuthCmd()
}

// Update routes messages by screen.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		a.angleList.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		a.userList.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		return a, nil

	case sessionExpiredMsg:
		a.state = stateLogin
		a.statusMsg = "Your session has expired. Please login again."
		a.focusLogin(0)
		return a, nil

	case refreshMsg:
		return a.afterRefresh(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	switch a.state {
	case stateLogin:
		return a.updateLogin(msg)
	case stateRegister:
		return a.updateRegister(msg)
	case stateHome:
		return a.updateHome(msg)
	case stateBrief:
		return a.updateBrief(msg)
	case stateAngles:
		return a.updateAngles(msg)
	case stateDraft:
		return a.updateDraft(msg)
	case stateCalendar:
		return a.updateCalendar(msg)
	case stateUsers:
		return a.updateUsers(msg)
	}
	return a, nil
}

// afterRefresh re-reads the session snapshot and moves the navigation
// state to match it.
func (a *App) afterRefresh(msg refreshMsg) (tea.Model, tea.Cmd) {
	state := a.session.State()

	switch {
	case msg.err != nil && state.Err != "":
		a.statusMsg = state.Err
	case msg.err != nil:
		a.statusMsg = msg.err.Error()
	default:
		a.statusMsg = ""
	}

	switch {
	case state.IsLoading:
		// Stay put until the probe settles.
	case !state.IsAuthenticated:
		if a.state != stateLogin && a.state != stateRegister {
			a.state = stateLogin
			a.focusLogin(0)
		}
	case a.state == stateBoot || a.state == stateLogin:
		a.state = stateHome
		a.statusMsg = ""
		a.mainMenu.SetItems(homeMenuItems(state.User != nil && state.User.IsAdmin))
		a.passwordInput.SetValue("")
	}

	a.syncAngleList()
	a.syncUserList()
	return a, nil
}

func (a *App) updateHome(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q":
			return a, tea.Quit
		case "enter":
			item, ok := a.mainMenu.SelectedItem().(menuItem)
			if !ok {
				return a, nil
			}
			return a.openMenuItem(item.title)
		}
	}
	var cmd tea.Cmd
	a.mainMenu, cmd = a.mainMenu.Update(msg)
	return a, cmd
}

func (a *App) openMenuItem(title string) (tea.Model, tea.Cmd) {
	switch title {
	case "Brief":
		a.state = stateBrief
		a.uploadingBrief = false
		return a, a.loadBriefCmd()
	case "Angles":
		a.state = stateAngles
		return a, a.loadAnglesCmd()
	case "Draft":
		a.state = stateDraft
		return a, nil
	case "Calendar":
		a.state = stateCalendar
		a.calendarSelection = 0
		a.addingEntry = false
		return a, a.loadCalendarCmd()
	case "Users":
		a.state = stateUsers
		return a, a.loadUsersCmd()
	case "Logout":
		a.state = stateLogin
		a.statusMsg = ""
		a.focusLogin(0)
		return a, a.logoutCmd()
	case "Quit":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) returnHome() (tea.Model, tea.Cmd) {
	a.state = stateHome
	a.statusMsg = ""
	return a, nil
}

func (a *App) focusLogin(idx int) {
	a.loginFocus = idx
	if idx == 0 {
		a.emailInput.Focus()
		a.passwordInput.Blur()
	} else {
		a.emailInput.Blur()
		a.passwordInput.Focus()
	}
}

func (a *App) focusRegister(idx int) {
	a.registerFocus = idx
	a.nameInput.Blur()
	a.emailInput.Blur()
	a.passwordInput.Blur()
	switch idx {
	case 0:
		a.nameInput.Focus()
	case 1:
		a.emailInput.Focus()
	default:
		a.passwordInput.Focus()
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
