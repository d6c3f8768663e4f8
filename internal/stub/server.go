package stub

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

const tokenSecret = "alpha-stub-dev-secret"

// Server is the local stand-in for the Alpha API. It serves the full
// /api/v1 surface against in-memory state seeded from fixtures, so the
// client runs end-to-end without the real backend. No AI happens here;
// the AI endpoints return canned payloads.
type Server struct {
	fixtures Fixtures
	store    *memStore
	now      func() time.Time
}

// NewServer creates a stub server around the given fixtures.
func NewServer(fixtures Fixtures) *Server {
	return &Server{
		fixtures: fixtures,
		store:    newMemStore(fixtures),
		now:      time.Now,
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App(appName, frontendURL string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      appName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{frontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", s.login)
	auth.Post("/logout", s.logout)
	auth.Post("/switch/:userId", s.requireAdmin(s.switchUser))
	auth.Get("/me", s.requireAuth(s.me))
	auth.Get("/users/", s.requireAdmin(s.listUsers))
	auth.Post("/users/", s.requireAdmin(s.createUser))
	auth.Post("/users/register", s.register)
	auth.Get("/users/:userId", s.requireAuth(s.userByID))
	auth.Put("/users/:userId", s.requireAuth(s.updateUser))

	content := api.Group("/content/:userId", s.requireAuthMiddleware)
	content.Post("/brief", s.uploadBrief)
	content.Get("/brief", s.getBrief)
	content.Put("/brief", s.updateBrief)
	content.Post("/angles/generate", s.generateAngles)
	content.Get("/angles", s.getAngles)
	content.Post("/angle/:angleId/select", s.selectAngle)
	content.Post("/angle/:angleId/draft", s.createDraftFromAngle)
	content.Post("/draft", s.createDraftFromBrief)
	content.Post("/enhance", s.enhanceDraft)
	content.Get("/calendar", s.getCalendar)
	content.Post("/calendar", s.createCalendarEntry)
	content.Put("/calendar/:entryId", s.updateCalendarEntry)
	content.Delete("/calendar/:entryId", s.deleteCalendarEntry)
	content.Post("/schedule", s.schedulePost)

	ai := api.Group("/ai", s.requireAuthMiddleware)
	ai.Post("/process", s.aiProcess)
	ai.Post("/audience-analysis", s.aiAudienceAnalysis)
	ai.Post("/final-analysis", s.aiFinalAnalysis)
	ai.Post("/copywriter", s.aiCopywriter)
	ai.Post("/smart-suggestions", s.aiSmartSuggestions)
	ai.Get("/rate-limit/usage", s.aiUsage)

	api.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "app": appName})
	})

	return app
}

// ── Auth ─────────────────────────────────────────────────────────────

func (s *Server) login(c fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	user, ok := s.store.authenticate(username, password)
	if !ok {
		return detail(c, fiber.StatusUnauthorized, "Incorrect username or password")
	}

	token := s.issueToken(user.ID, false)
	s.store.openSession(token, user.ID, false)
	return c.JSON(domain.AuthResponse{AccessToken: token, TokenType: "bearer", User: &user})
}

func (s *Server) logout(c fiber.Ctx) error {
	if token := bearerToken(c); token != "" {
		s.store.closeSession(token)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) switchUser(c fiber.Ctx, _ session) error {
	targetID, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid user id")
	}
	user, ok := s.store.userByID(targetID)
	if !ok {
		return detail(c, fiber.StatusNotFound, "user not found")
	}

	token := s.issueToken(user.ID, true)
	s.store.openSession(token, user.ID, true)
	return c.JSON(domain.AuthResponse{AccessToken: token, TokenType: "bearer", User: &user})
}

func (s *Server) me(c fiber.Ctx, sess session) error {
	user, ok := s.store.userByID(sess.UserID)
	if !ok {
		return detail(c, fiber.StatusNotFound, "user not found")
	}
	user.IsImpersonated = sess.Impersonated
	return c.JSON(user)
}

func (s *Server) listUsers(c fiber.Ctx, _ session) error {
	return c.JSON(s.store.listUsers())
}

func (s *Server) register(c fiber.Ctx) error {
	var req domain.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	if req.Email == "" || req.Password == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "email and password are required")
	}
	user := s.store.createUser(req.Name, req.Email, req.Password)
	return c.JSON(user)
}

func (s *Server) createUser(c fiber.Ctx, _ session) error {
	return s.register(c)
}

func (s *Server) userByID(c fiber.Ctx, _ session) error {
	id, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid user id")
	}
	user, ok := s.store.userByID(id)
	if !ok {
		return detail(c, fiber.StatusNotFound, "user not found")
	}
	return c.JSON(user)
}

func (s *Server) updateUser(c fiber.Ctx, _ session) error {
	id, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid user id")
	}
	var update domain.UserUpdate
	if err := c.Bind().JSON(&update); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	user, ok := s.store.updateUser(id, update)
	if !ok {
		return detail(c, fiber.StatusNotFound, "user not found")
	}
	return c.JSON(user)
}

// ── Content ──────────────────────────────────────────────────────────

func (s *Server) uploadBrief(c fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid user id")
	}

	header, err := c.FormFile("file")
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "file is required")
	}
	file, err := header.Open()
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "unreadable file")
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "unreadable file")
	}

	now := s.timestamp()
	brief := &domain.ContentBrief{
		UserID:   userID,
		Title:    briefTitle(header.Filename, string(raw)),
		Content:  string(raw),
		Filename: header.Filename,
		FileType: fileType(header.Filename),
		ParsedData: domain.ParsedBriefData{
			Title:       briefTitle(header.Filename, string(raw)),
			Description: firstLine(string(raw)),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.saveBrief(userID, brief)
	return c.JSON(brief)
}

func (s *Server) getBrief(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	brief, ok := s.store.briefFor(userID)
	if !ok {
		return detail(c, fiber.StatusNotFound, "brief not found")
	}
	return c.JSON(brief)
}

func (s *Server) updateBrief(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	brief, ok := s.store.briefFor(userID)
	if !ok {
		return detail(c, fiber.StatusNotFound, "brief not found")
	}

	var update domain.BriefUpdate
	if err := c.Bind().JSON(&update); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	if update.Title != nil {
		brief.Title = *update.Title
	}
	if update.Content != nil {
		brief.Content = *update.Content
	}
	if update.ParsedData != nil {
		brief.ParsedData = *update.ParsedData
	}
	brief.UpdatedAt = s.timestamp()
	s.store.saveBrief(userID, brief)
	return c.JSON(brief)
}

func (s *Server) generateAngles(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	brief, ok := s.store.briefFor(userID)
	if !ok {
		return detail(c, fiber.StatusNotFound, "brief not found")
	}

	angles := make([]domain.ContentAngle, 0, len(s.fixtures.Angles))
	for _, fa := range s.fixtures.Angles {
		angles = append(angles, domain.ContentAngle{
			UserID:           userID,
			BriefID:          brief.ID,
			PostType:         fa.PostType,
			ContentPillar:    fa.ContentPillar,
			Hook:             fa.Hook,
			AngleDescription: fa.AngleDescription,
			CreatedAt:        s.timestamp(),
		})
	}
	return c.JSON(s.store.replaceAngles(userID, angles))
}

func (s *Server) getAngles(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	return c.JSON(s.store.anglesFor(userID))
}

func (s *Server) selectAngle(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	angleID, err := strconv.Atoi(c.Params("angleId"))
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid angle id")
	}
	angle, ok := s.store.selectAngle(userID, angleID)
	if !ok {
		return detail(c, fiber.StatusNotFound, "angle not found")
	}
	return c.JSON(angle)
}

func (s *Server) createDraftFromAngle(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	angleID, err := strconv.Atoi(c.Params("angleId"))
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid angle id")
	}
	return s.createDraft(c, userID, angleID)
}

func (s *Server) createDraftFromBrief(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	return s.createDraft(c, userID, 0)
}

func (s *Server) createDraft(c fiber.Ctx, userID, angleID int) error {
	brief, ok := s.store.briefFor(userID)
	if !ok {
		return detail(c, fiber.StatusNotFound, "brief not found")
	}

	content := s.fixtures.AI.DraftContent
	if angleID != 0 {
		if angle, found := findAngleByID(s.store.anglesFor(userID), angleID); found {
			content = angle.Hook + "\n\n" + content
		} else {
			return detail(c, fiber.StatusNotFound, "angle not found")
		}
	}

	now := s.timestamp()
	draft := s.store.addDraft(userID, &domain.Draft{
		UserID:    userID,
		BriefID:   brief.ID,
		AngleID:   angleID,
		Content:   content,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return c.JSON(draft)
}

func (s *Server) enhanceDraft(c fiber.Ctx) error {
	var req struct {
		DraftContent string `json:"draft_content"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.DraftContent) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "draft_content is required")
	}

	// The enhancement endpoint returns a partial payload on purpose;
	// the client rebuilds the full draft.
	return c.JSON(domain.EnhancedDraft{
		Content:  strings.TrimSpace(req.DraftContent) + "\n\nWhat would you measure instead?",
		Feedback: s.fixtures.AI.EnhanceFeedback,
	})
}

func (s *Server) getCalendar(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	return c.JSON(s.store.calendarFor(userID))
}

func (s *Server) createCalendarEntry(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	var input domain.CalendarEntryInput
	if err := c.Bind().JSON(&input); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}

	status := input.Status
	if status == "" {
		status = domain.EntryStatusDraft
	}
	now := s.timestamp()
	entry := s.store.addCalendarEntry(userID, domain.CalendarEntry{
		UserID:        userID,
		Title:         input.Title,
		Date:          input.Date,
		Time:          input.Time,
		Status:        status,
		BriefID:       input.BriefID,
		AngleID:       input.AngleID,
		EntryMetadata: input.EntryMetadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return c.JSON(entry)
}

func (s *Server) updateCalendarEntry(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	entryID, err := strconv.Atoi(c.Params("entryId"))
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid entry id")
	}
	var input domain.CalendarEntryInput
	if err := c.Bind().JSON(&input); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	entry, ok := s.store.updateCalendarEntry(userID, entryID, input, s.now())
	if !ok {
		return detail(c, fiber.StatusNotFound, "calendar entry not found")
	}
	return c.JSON(entry)
}

func (s *Server) deleteCalendarEntry(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	entryID, err := strconv.Atoi(c.Params("entryId"))
	if err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid entry id")
	}
	if !s.store.deleteCalendarEntry(userID, entryID) {
		return detail(c, fiber.StatusNotFound, "calendar entry not found")
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) schedulePost(c fiber.Ctx) error {
	userID, _ := strconv.Atoi(c.Params("userId"))
	var req domain.SchedulePostRequest
	if err := c.Bind().JSON(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}

	now := s.timestamp()
	post := s.store.addScheduledPost(userID, domain.ScheduledPost{
		DraftID:       req.DraftID,
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		Platform:      req.Platform,
		Status:        domain.EntryStatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return c.JSON(post)
}

// ── AI ───────────────────────────────────────────────────────────────

func (s *Server) aiProcess(c fiber.Ctx) error {
	var req domain.ProcessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	s.store.countAICall()
	return c.JSON(domain.ProcessResponse{
		OperationType: req.OperationType,
		ResponseData:  map[string]any{"content": s.fixtures.AI.DraftContent},
	})
}

func (s *Server) aiAudienceAnalysis(c fiber.Ctx) error {
	var req struct {
		Content         string `json:"content"`
		PrimaryAudience string `json:"primary_audience"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Content) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "content is required")
	}
	s.store.countAICall()

	analyses := append([]domain.AudienceAnalysis(nil), s.fixtures.AI.Audience...)
	if req.PrimaryAudience != "" && len(analyses) > 0 {
		analyses[0].Segment = req.PrimaryAudience
	}
	return c.JSON(domain.AudienceAnalysisResponse{Analyses: analyses})
}

func (s *Server) aiFinalAnalysis(c fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Content) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "content is required")
	}
	s.store.countAICall()
	return c.JSON(s.fixtures.AI.Final)
}

func (s *Server) aiCopywriter(c fiber.Ctx) error {
	s.store.countAICall()
	return c.JSON(s.fixtures.AI.Copywriter)
}

func (s *Server) aiSmartSuggestions(c fiber.Ctx) error {
	var req struct {
		SelectedText string `json:"selected_text"`
	}
	if err := c.Bind().JSON(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.SelectedText) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "selected_text is required")
	}
	s.store.countAICall()
	return c.JSON(fiber.Map{"suggestions": s.fixtures.AI.Smart})
}

func (s *Server) aiUsage(c fiber.Ctx) error {
	return c.JSON(domain.Usage{
		CurrentUsage: s.store.aiCallCount(),
		Limit:        s.fixtures.AI.UsageLimit,
		ResetAt:      s.now().Add(time.Hour).UTC().Format(time.RFC3339),
	})
}

// ── Middleware & helpers ─────────────────────────────────────────────

type authedHandler func(c fiber.Ctx, sess session) error

func (s *Server) requireAuth(next authedHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		sess, ok := s.sessionFromRequest(c)
		if !ok {
			return detail(c, fiber.StatusUnauthorized, "Not authenticated")
		}
		return next(c, sess)
	}
}

func (s *Server) requireAdmin(next authedHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		sess, ok := s.sessionFromRequest(c)
		if !ok {
			return detail(c, fiber.StatusUnauthorized, "Not authenticated")
		}
		user, ok := s.store.userByID(sess.UserID)
		if !ok || !user.IsAdmin {
			return detail(c, fiber.StatusForbidden, "Admin access required")
		}
		return next(c, sess)
	}
}

func (s *Server) requireAuthMiddleware(c fiber.Ctx) error {
	if _, ok := s.sessionFromRequest(c); !ok {
		return detail(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	return c.Next()
}

func (s *Server) sessionFromRequest(c fiber.Ctx) (session, bool) {
	token := bearerToken(c)
	if token == "" {
		return session{}, false
	}
	return s.store.sessionFor(token)
}

func bearerToken(c fiber.Ctx) string {
	header := c.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// issueToken mints a signed demo JWT carrying the impersonation claim
// the client decodes.
func (s *Server) issueToken(userID int, impersonated bool) string {
	header := map[string]string{"alg": "HS256", "typ": "JWT"}
	claims := map[string]any{
		"sub": userID,
		"imp": impersonated,
		"iat": s.now().Unix(),
		"exp": s.now().Add(24 * time.Hour).Unix(),
	}

	headerJSON, _ := json.Marshal(header)
	claimsJSON, _ := json.Marshal(claims)
	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(claimsJSON)

	mac := hmac.New(sha256.New, []byte(tokenSecret))
	mac.Write([]byte(signingInput))
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func detail(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}

func briefTitle(filename, content string) string {
	if line := firstLine(content); line != "" {
		return strings.TrimPrefix(line, "# ")
	}
	return strings.TrimSuffix(filename, fileExt(filename))
}

func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func fileType(filename string) string {
	return strings.TrimPrefix(fileExt(filename), ".")
}

func fileExt(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[idx:]
	}
	return ""
}

func findAngleByID(angles []domain.ContentAngle, id int) (domain.ContentAngle, bool) {
	for _, angle := range angles {
		if angle.ID == id {
			return angle, true
		}
	}
	return domain.ContentAngle{}, false
}
