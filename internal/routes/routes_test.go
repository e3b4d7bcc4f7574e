package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/noteghar/noteghar/internal/app"
	"github.com/noteghar/noteghar/internal/config"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	t       *testing.T
	app     *app.App
	handler http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		AppName:              "NoteGhar",
		AppEnv:               "development",
		AppURL:               "http://localhost:8090",
		DBDriver:             "sqlite",
		DBConnection:         filepath.Join(t.TempDir(), "noteghar.db"),
		JWTSecret:            "routes-test-secret",
		JWTExpiry:            time.Hour,
		EmailFrom:            "noreply@example.com",
		MetricsEnabled:       true,
		StorageDriver:        "memory",
		UploadMaxBytes:       1 << 20,
		StalePendingAfter:    48 * time.Hour,
		TopContributorsLimit: 5,
		HistoryLimit:         50,
	}

	a, err := app.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &server{t: t, app: a, handler: SetupRoutes(ctx, a)}
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	bearer      string
	cookies     []*http.Cookie
	headers     map[string]string
}

func (s *server) do(r request) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) json(method, path, bearer string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	return s.do(request{method: method, path: path, body: &buf, contentType: "application/json", bearer: bearer})
}

// staff creates an account directly and returns a bearer token for it.
func (s *server) staff(username, role string) string {
	s.t.Helper()
	ctx := context.Background()
	user, err := s.app.UserService.Create(ctx, username, username+"@example.com", "a long enough secret", role, false)
	require.NoError(s.t, err)
	token, _, err := s.app.AuthService.GenerateJWT(user)
	require.NoError(s.t, err)
	return token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func uploadForm(t *testing.T, fields map[string]string, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestModerationFlow(t *testing.T) {
	s := newServer(t)
	admin := s.staff("admin", model.RoleAdmin)
	moderator := s.staff("moderator", model.RoleModerator)

	// Catalog
	rec := s.json(http.MethodPost, "/api/courses", admin, model.NewCourse{Name: "Bachelor in Computer Application", Code: "BCA"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	course := decode[model.Course](t, rec)

	rec = s.json(http.MethodPost, "/api/semesters", admin, model.NewSemester{Name: "First", Number: 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	semester := decode[model.Semester](t, rec)

	rec = s.json(http.MethodPost, "/api/subjects", admin, model.NewSubject{
		Name: "Digital Logic", Code: "CACS105", CourseID: course.ID, SemesterID: semester.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	subject := decode[model.Subject](t, rec)

	rec = s.json(http.MethodPost, "/api/courses", moderator, model.NewCourse{Name: "Other", Code: "OTH"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Student signs up and gets a session cookie
	rec = s.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ram", "email": "ram@example.com", "password": "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := cookie(rec, service.AuthCookieName)
	require.NotNil(t, session)

	rec = s.do(request{method: http.MethodGet, path: "/api/me", cookies: []*http.Cookie{session}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ram", decode[model.User](t, rec).Username)
	csrf := cookie(rec, "csrf_token")
	require.NotNil(t, csrf)

	// Upload over the cookie session needs the CSRF header
	fields := map[string]string{
		"title":       "Boolean Algebra",
		"description": "Covers **De Morgan**",
		"course_id":   course.ID,
		"semester_id": semester.ID,
		"subject_id":  subject.ID,
		"tags":        "logic",
	}
	body, contentType := uploadForm(t, fields, "algebra.pdf", "%PDF-1.7")
	rec = s.do(request{method: http.MethodPost, path: "/api/notes", body: body, contentType: contentType, cookies: []*http.Cookie{session, csrf}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body, contentType = uploadForm(t, fields, "algebra.pdf", "%PDF-1.7")
	rec = s.do(request{
		method: http.MethodPost, path: "/api/notes", body: body, contentType: contentType,
		cookies: []*http.Cookie{session, csrf},
		headers: map[string]string{"X-CSRF-Token": csrf.Value},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	note := decode[model.Note](t, rec)
	assert.Equal(t, model.NoteStatusPending, note.Status)

	// Pending notes are hidden from the public
	rec = s.do(request{method: http.MethodGet, path: "/api/notes/" + note.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/moderation/notes", bearer: moderator})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Note](t, rec), 1)

	rec = s.do(request{method: http.MethodPost, path: "/api/moderation/notes/" + note.ID + "/approve", cookies: []*http.Cookie{session, csrf}, headers: map[string]string{"X-CSRF-Token": csrf.Value}})
	assert.Equal(t, http.StatusForbidden, rec.Code, "students cannot moderate")

	rec = s.do(request{method: http.MethodPost, path: "/api/moderation/notes/" + note.ID + "/approve", bearer: moderator})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.NoteStatusApproved, decode[model.Note](t, rec).Status)

	rec = s.do(request{method: http.MethodPost, path: "/api/moderation/notes/" + note.ID + "/approve", bearer: moderator})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/notes/" + note.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[model.NoteDetail](t, rec)
	assert.Contains(t, detail.DescriptionHTML, "<strong>De Morgan</strong>")

	rec = s.do(request{method: http.MethodGet, path: "/api/notes?q=boolean"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Note](t, rec), 1)

	// Downloads redirect to the stored file
	rec = s.do(request{method: http.MethodGet, path: "/api/notes/" + note.ID + "/download"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	reader := s.staff("reader", model.RoleStudent)
	rec = s.do(request{method: http.MethodGet, path: "/api/notes/" + note.ID + "/download", bearer: reader})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "memory://notes/"))

	rec = s.do(request{method: http.MethodGet, path: "/api/notes/" + note.ID + "/download?redirect=false", bearer: reader})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["url"], "filename=algebra.pdf")

	// Report, then resolve with removal
	rec = s.json(http.MethodPost, "/api/notes/"+note.ID+"/reports", reader, model.NewReport{Reason: model.ReasonCopyright, Description: "copied from the textbook"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	report := decode[model.Report](t, rec)

	rec = s.json(http.MethodPost, "/api/notes/"+note.ID+"/reports", reader, model.NewReport{Reason: model.ReasonSpam, Description: "again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.json(http.MethodPost, "/api/moderation/reports/"+report.ID+"/resolve", moderator, map[string]any{"notes": "confirmed", "remove_note": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.ReportStatusResolved, decode[model.Report](t, rec).Status)

	rec = s.do(request{method: http.MethodGet, path: "/api/notes/" + note.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/moderation/history?note_id=" + note.ID, bearer: moderator})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.ModerationAction](t, rec), 3)

	rec = s.do(request{method: http.MethodGet, path: "/api/moderation/dashboard", bearer: moderator})
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := decode[model.ModeratorDashboard](t, rec)
	assert.Equal(t, 1, dashboard.ResolvedReports)
	assert.Equal(t, 1, dashboard.RejectedNotes)
}

func TestValidationAndFallback(t *testing.T) {
	s := newServer(t)

	rec := s.json(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "x", "email": "nope", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "validation failed", body["error"])
	assert.Contains(t, body["fields"], "email")

	rec = s.json(http.MethodPost, "/api/auth/login", "", map[string]string{"login": "ghost", "password": "whatever it is"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(request{method: http.MethodPost, path: "/api/notes"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, rec.Body.String())

	rec = s.do(request{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(request{method: http.MethodGet, path: "/api/stats"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]any](t, rec), "approval_rate")
}

func TestUploadTooLarge(t *testing.T) {
	s := newServer(t)
	student := s.staff("student", model.RoleStudent)

	body, contentType := uploadForm(t, map[string]string{"title": "Huge"}, "huge.pdf", strings.Repeat("x", 3<<20))
	rec := s.do(request{method: http.MethodPost, path: "/api/notes", body: body, contentType: contentType, bearer: student})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode[map[string]any](t, rec)["fields"]
	assert.Contains(t, fields, "file")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)

	rec := s.do(request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "noteghar_notes_submitted_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
