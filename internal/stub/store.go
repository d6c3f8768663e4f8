package stub

import (
	"strings"
	"sync"
	"time"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

// memStore holds the stub's in-memory dataset. It plays the role the
// real backend's database plays, scoped to one process lifetime.
type memStore struct {
	mu sync.Mutex

	nextID    int
	users     []userRecord
	sessions  map[string]session // token -> session
	briefs    map[int]*domain.ContentBrief
	angles    map[int][]domain.ContentAngle
	drafts    map[int][]*domain.Draft
	calendars map[int][]domain.CalendarEntry
	scheduled map[int][]domain.ScheduledPost
	aiCalls   int
}

type userRecord struct {
	domain.User
	Password string
}

type session struct {
	UserID       int
	Impersonated bool
}

func newMemStore(fixtures Fixtures) *memStore {
	s := &memStore{
		nextID:    1,
		sessions:  make(map[string]session),
		briefs:    make(map[int]*domain.ContentBrief),
		angles:    make(map[int][]domain.ContentAngle),
		drafts:    make(map[int][]*domain.Draft),
		calendars: make(map[int][]domain.CalendarEntry),
		scheduled: make(map[int][]domain.ScheduledPost),
	}
	for _, fu := range fixtures.Users {
		s.users = append(s.users, userRecord{
			User: domain.User{
				ID:      s.allocID(),
				Email:   fu.Email,
				Name:    fu.Name,
				IsAdmin: fu.IsAdmin,
			},
			Password: fu.Password,
		})
	}
	return s
}

func (s *memStore) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memStore) authenticate(username, password string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, username) && u.Password == password {
			return u.User, true
		}
	}
	return domain.User{}, false
}

func (s *memStore) userByID(id int) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u.User, true
		}
	}
	return domain.User{}, false
}

func (s *memStore) listUsers() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.User)
	}
	return users
}

func (s *memStore) createUser(name, email, password string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := domain.User{ID: s.allocID(), Email: email, Name: name}
	s.users = append(s.users, userRecord{User: user, Password: password})
	return user
}

func (s *memStore) updateUser(id int, update domain.UserUpdate) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		if update.Name != nil {
			s.users[i].Name = *update.Name
		}
		if update.Email != nil {
			s.users[i].Email = *update.Email
		}
		if update.ProfileImage != nil {
			s.users[i].ProfileImage = *update.ProfileImage
		}
		return s.users[i].User, true
	}
	return domain.User{}, false
}

func (s *memStore) openSession(token string, userID int, impersonated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{UserID: userID, Impersonated: impersonated}
}

func (s *memStore) closeSession(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *memStore) sessionFor(token string) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

func (s *memStore) saveBrief(userID int, brief *domain.ContentBrief) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if brief.ID == 0 {
		brief.ID = s.allocID()
	}
	s.briefs[userID] = brief
}

func (s *memStore) briefFor(userID int) (*domain.ContentBrief, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	brief, ok := s.briefs[userID]
	return brief, ok
}

func (s *memStore) replaceAngles(userID int, angles []domain.ContentAngle) []domain.ContentAngle {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range angles {
		angles[i].ID = s.allocID()
	}
	s.angles[userID] = angles
	return angles
}

func (s *memStore) anglesFor(userID int) []domain.ContentAngle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ContentAngle(nil), s.angles[userID]...)
}

func (s *memStore) selectAngle(userID, angleID int) (domain.ContentAngle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var selected domain.ContentAngle
	found := false
	for i := range s.angles[userID] {
		match := s.angles[userID][i].ID == angleID
		s.angles[userID][i].IsSelected = match
		if match {
			selected = s.angles[userID][i]
			found = true
		}
	}
	return selected, found
}

func (s *memStore) addDraft(userID int, draft *domain.Draft) *domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft.ID = s.allocID()
	s.drafts[userID] = append(s.drafts[userID], draft)
	return draft
}

func (s *memStore) addCalendarEntry(userID int, entry domain.CalendarEntry) domain.CalendarEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.allocID()
	s.calendars[userID] = append(s.calendars[userID], entry)
	return entry
}

func (s *memStore) calendarFor(userID int) []domain.CalendarEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CalendarEntry(nil), s.calendars[userID]...)
}

func (s *memStore) updateCalendarEntry(userID, entryID int, input domain.CalendarEntryInput, now time.Time) (domain.CalendarEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.calendars[userID] {
		entry := &s.calendars[userID][i]
		if entry.ID != entryID {
			continue
		}
		if input.Title != "" {
			entry.Title = input.Title
		}
		if input.Date != "" {
			entry.Date = input.Date
		}
		if input.Time != "" {
			entry.Time = input.Time
		}
		if input.Status != "" {
			entry.Status = input.Status
		}
		if input.EntryMetadata != nil {
			entry.EntryMetadata = input.EntryMetadata
		}
		entry.UpdatedAt = now.UTC().Format(time.RFC3339)
		return *entry, true
	}
	return domain.CalendarEntry{}, false
}

func (s *memStore) deleteCalendarEntry(userID, entryID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.calendars[userID]
	for i := range entries {
		if entries[i].ID == entryID {
			s.calendars[userID] = append(entries[:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *memStore) addScheduledPost(userID int, post domain.ScheduledPost) domain.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	post.ID = s.allocID()
	s.scheduled[userID] = append(s.scheduled[userID], post)
	return post
}

func (s *memStore) countAICall() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiCalls++
	return s.aiCalls
}

func (s *memStore) aiCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiCalls
}
