package stub

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/kiwiq/alpha-cli/internal/domain"
	"github.com/kiwiq/alpha-cli/internal/service"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	return NewServer(DefaultFixtures()).App("Alpha Test", "http://localhost:3000")
}

func doReq(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func login(t *testing.T, app *fiber.App, email, password string) domain.AuthResponse {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := doReq(t, app, req)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("login status = %d, body %s", resp.StatusCode, body)
	}
	return decode[domain.AuthResponse](t, resp)
}

func authedReq(method, path, token string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	form := url.Values{"username": {"ada@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp := doReq(t, app, req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	payload := decode[map[string]string](t, resp)
	if payload["detail"] == "" {
		t.Error("401 body missing detail field")
	}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	app := newTestApp(t)
	auth := login(t, app, "ada@example.com", "admin")

	if auth.AccessToken == "" || auth.TokenType != "bearer" {
		t.Fatalf("auth = %+v, want bearer token", auth)
	}
	if auth.User == nil || !auth.User.IsAdmin {
		t.Fatalf("user = %+v, want admin fixture", auth.User)
	}
	if service.Impersonated(auth.AccessToken) {
		t.Error("direct login token carries the impersonation claim")
	}

	resp := doReq(t, app, authedReq(http.MethodGet, "/api/v1/auth/me", auth.AccessToken, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d, want 200", resp.StatusCode)
	}
	me := decode[domain.User](t, resp)
	if me.Email != "ada@example.com" || me.IsImpersonated {
		t.Errorf("me = %+v, want plain ada session", me)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)
	for _, path := range []string{
		"/api/v1/auth/me",
		"/api/v1/content/1/brief",
		"/api/v1/ai/rate-limit/usage",
	} {
		resp := doReq(t, app, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, resp.StatusCode)
		}
		payload := decode[map[string]string](t, resp)
		if payload["detail"] != "Not authenticated" {
			t.Errorf("%s detail = %q", path, payload["detail"])
		}
	}
}

func TestSwitchUserIssuesImpersonatedSession(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "ada@example.com", "admin")

	resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/auth/switch/2", admin.AccessToken, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("switch status = %d, want 200", resp.StatusCode)
	}
	switched := decode[domain.AuthResponse](t, resp)
	if switched.User == nil || switched.User.Email != "sam@example.com" {
		t.Fatalf("switched user = %+v, want sam fixture", switched.User)
	}
	if !service.Impersonated(switched.AccessToken) {
		t.Error("switch token missing the impersonation claim")
	}

	me := decode[domain.User](t, doReq(t, app, authedReq(http.MethodGet, "/api/v1/auth/me", switched.AccessToken, nil)))
	if !me.IsImpersonated {
		t.Error("impersonated session's /me lacks the flag")
	}
}

func TestSwitchUserRequiresAdmin(t *testing.T) {
	app := newTestApp(t)
	writer := login(t, app, "sam@example.com", "writer")

	resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/auth/switch/1", writer.AccessToken, nil))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	app := newTestApp(t)
	auth := login(t, app, "sam@example.com", "writer")

	resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/auth/logout", auth.AccessToken, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}

	resp = doReq(t, app, authedReq(http.MethodGet, "/api/v1/auth/me", auth.AccessToken, nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", resp.StatusCode)
	}
}

func uploadBrief(t *testing.T, app *fiber.App, token string, userID string, content string) domain.ContentBrief {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "q1-plan.md")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte(content))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/content/"+userID+"/brief", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := doReq(t, app, req)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload status = %d, body %s", resp.StatusCode, body)
	}
	return decode[domain.ContentBrief](t, resp)
}

func TestContentWorkflow(t *testing.T) {
	app := newTestApp(t)
	auth := login(t, app, "sam@example.com", "writer")
	token := auth.AccessToken
	userID := "2"

	brief := uploadBrief(t, app, token, userID, "# Q1 Plan\n\nGrow the newsletter.")
	if brief.Title != "Q1 Plan" {
		t.Errorf("brief title = %q, want heading from file", brief.Title)
	}

	// Generate angles from the fixtures.
	resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/content/"+userID+"/angles/generate", token, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate status = %d", resp.StatusCode)
	}
	angles := decode[[]domain.ContentAngle](t, resp)
	if len(angles) == 0 {
		t.Fatal("no angles generated")
	}

	// Select the second angle; the server keeps one selection.
	angleID := angles[1].ID
	resp = doReq(t, app, authedReq(http.MethodPost, "/api/v1/content/"+userID+"/angle/"+itoa(angleID)+"/select", token, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select status = %d", resp.StatusCode)
	}
	listed := decode[[]domain.ContentAngle](t, doReq(t, app, authedReq(http.MethodGet, "/api/v1/content/"+userID+"/angles", token, nil)))
	selected := 0
	for _, angle := range listed {
		if angle.IsSelected {
			selected++
		}
	}
	if selected != 1 {
		t.Errorf("selected angles = %d, want 1", selected)
	}

	// Draft from the selected angle.
	resp = doReq(t, app, authedReq(http.MethodPost, "/api/v1/content/"+userID+"/angle/"+itoa(angleID)+"/draft", token, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("draft status = %d", resp.StatusCode)
	}
	draft := decode[domain.Draft](t, resp)
	if draft.AngleID != angleID || draft.Version != 1 || draft.Content == "" {
		t.Errorf("draft = %+v, want v1 from angle %d", draft, angleID)
	}

	// Enhance returns the partial payload.
	enhanceBody, _ := json.Marshal(map[string]string{"draft_content": draft.Content})
	resp = doReq(t, app, authedReq(http.MethodPost, "/api/v1/content/"+userID+"/enhance", token, bytes.NewReader(enhanceBody)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enhance status = %d", resp.StatusCode)
	}
	enhanced := decode[domain.EnhancedDraft](t, resp)
	if enhanced.Content == "" || enhanced.Feedback == "" {
		t.Errorf("enhanced = %+v, want content and feedback", enhanced)
	}
}

func TestDraftFromBriefHasNoAngle(t *testing.T) {
	app := newTestApp(t)
	auth := login(t, app, "sam@example.com", "writer")
	uploadBrief(t, app, auth.AccessToken, "2", "Plain brief")

	resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/content/2/draft", auth.AccessToken, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("draft status = %d", resp.StatusCode)
	}
	draft := decode[domain.Draft](t, resp)
	if draft.AngleID != 0 {
		t.Errorf("AngleID = %d, want 0 for brief-origin draft", draft.AngleID)
	}
}

func TestCalendarCRUD(t *testing.T) {
	app := newTestApp(t)
	auth := login(t, app, "sam@example.com", "writer")
	token := auth.AccessToken

	create := func(title string) domain.CalendarEntry {
		body, _ := json.Marshal(domain.CalendarEntryInput{Title: title, Date: "2026-03-01", Time: "09:00"})
		resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/content/2/calendar", token, bytes.NewReader(body)))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("create status = %d", resp.StatusCode)
		}
		return decode[domain.CalendarEntry](t, resp)
	}

	first := create("first")
	second := create("second")
	third := create("third")

	if first.Status != domain.EntryStatusDraft {
		t.Errorf("default status = %q, want draft", first.Status)
	}

	// Update the middle entry.
	body, _ := json.Marshal(domain.CalendarEntryInput{Status: domain.EntryStatusScheduled})
	resp := doReq(t, app, authedReq(http.MethodPut, "/api/v1/content/2/calendar/"+itoa(second.ID), token, bytes.NewReader(body)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decode[domain.CalendarEntry](t, resp)
	if updated.Status != domain.EntryStatusScheduled || updated.Title != "second" {
		t.Errorf("updated = %+v, want scheduled second entry", updated)
	}

	// Delete the middle entry; order of the rest is preserved.
	resp = doReq(t, app, authedReq(http.MethodDelete, "/api/v1/content/2/calendar/"+itoa(second.ID), token, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	entries := decode[[]domain.CalendarEntry](t, doReq(t, app, authedReq(http.MethodGet, "/api/v1/content/2/calendar", token, nil)))
	if len(entries) != 2 || entries[0].ID != first.ID || entries[1].ID != third.ID {
		t.Errorf("entries after delete = %+v, want [first third]", entries)
	}
}

func TestSchedulePost(t *testing.T) {
	app := newTestApp(t)
	auth := login(t, app, "sam@example.com", "writer")

	body, _ := json.Marshal(domain.SchedulePostRequest{
		DraftID: 1, ScheduledDate: "2026-03-01", ScheduledTime: "09:00", Content: "post", Platform: "LinkedIn",
	})
	resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/content/2/schedule", auth.AccessToken, bytes.NewReader(body)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("schedule status = %d", resp.StatusCode)
	}
	post := decode[domain.ScheduledPost](t, resp)
	if post.Status != domain.EntryStatusScheduled || post.Platform != "LinkedIn" {
		t.Errorf("post = %+v, want scheduled LinkedIn post", post)
	}
}

func TestAIEndpoints(t *testing.T) {
	app := newTestApp(t)
	auth := login(t, app, "sam@example.com", "writer")
	token := auth.AccessToken

	body, _ := json.Marshal(map[string]string{"content": "post body", "primary_audience": "founders"})
	resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/ai/audience-analysis", token, bytes.NewReader(body)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audience status = %d", resp.StatusCode)
	}
	audience := decode[domain.AudienceAnalysisResponse](t, resp)
	if len(audience.Analyses) == 0 || audience.Analyses[0].Segment != "founders" {
		t.Errorf("audience = %+v, want primary segment echoed", audience)
	}

	body, _ = json.Marshal(map[string]string{"content": "post body"})
	resp = doReq(t, app, authedReq(http.MethodPost, "/api/v1/ai/final-analysis", token, bytes.NewReader(body)))
	final := decode[domain.FinalAnalysis](t, resp)
	if final.OverallScore == 0 {
		t.Errorf("final = %+v, want fixture payload", final)
	}

	body, _ = json.Marshal(map[string]string{"selected_text": "vanity metrics"})
	resp = doReq(t, app, authedReq(http.MethodPost, "/api/v1/ai/smart-suggestions", token, bytes.NewReader(body)))
	smart := decode[map[string][]domain.SmartSuggestion](t, resp)
	if len(smart["suggestions"]) == 0 {
		t.Error("smart suggestions empty")
	}

	usage := decode[domain.Usage](t, doReq(t, app, authedReq(http.MethodGet, "/api/v1/ai/rate-limit/usage", token, nil)))
	if usage.Limit != DefaultFixtures().AI.UsageLimit {
		t.Errorf("usage limit = %d, want fixture limit", usage.Limit)
	}
	if usage.CurrentUsage < 3 {
		t.Errorf("current usage = %d, want at least the 3 calls above", usage.CurrentUsage)
	}
}

func TestAIValidation(t *testing.T) {
	app := newTestApp(t)
	auth := login(t, app, "sam@example.com", "writer")

	body, _ := json.Marshal(map[string]string{"content": "  "})
	resp := doReq(t, app, authedReq(http.MethodPost, "/api/v1/ai/final-analysis", auth.AccessToken, bytes.NewReader(body)))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("blank content status = %d, want 422", resp.StatusCode)
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
