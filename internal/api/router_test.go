package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/app"
	iauth "github.com/TarunSAkkatangerhal/PrismWorklet/internal/auth"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/cache"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/database/testutil"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/models"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/services"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/crypto"
	"github.com/TarunSAkkatangerhal/PrismWorklet/pkg/mail"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) lastBody(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.messages)
	return m.messages[len(m.messages)-1].Body
}

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

type apiFixture struct {
	router *gin.Engine
	mailer *recordingMailer
	db     *gorm.DB
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	mailer := &recordingMailer{}
	store := cache.NewMemoryStore()

	tokens, err := iauth.NewTokenService(iauth.TokenConfig{Secret: "router-test-secret", Issuer: "prism-test"})
	require.NoError(t, err)

	registration, err := services.NewRegistrationService(db, store, mailer, services.WithRegistrationAsyncMail(false))
	require.NoError(t, err)
	authSvc, err := services.NewAuthService(db, tokens, mailer, services.WithAuthAsyncMail(false))
	require.NoError(t, err)
	profiles, err := services.NewProfileService(db)
	require.NoError(t, err)
	worklets, err := services.NewWorkletService(db, mailer, services.WithWorkletAsyncMail(false))
	require.NoError(t, err)
	associations, err := services.NewAssociationService(db)
	require.NoError(t, err)
	evaluations, err := services.NewEvaluationService(db)
	require.NoError(t, err)
	dashboard, err := services.NewDashboardService(db)
	require.NoError(t, err)

	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.Auth.JWT.Secret = "router-test-secret"

	router, err := NewRouter(Dependencies{
		DB:           db,
		Tokens:       tokens,
		Config:       cfg,
		Registration: registration,
		Auth:         authSvc,
		Profiles:     profiles,
		Worklets:     worklets,
		Associations: associations,
		Evaluations:  evaluations,
		Dashboard:    dashboard,
	})
	require.NoError(t, err)

	return &apiFixture{router: router, mailer: mailer, db: db}
}

func (f *apiFixture) postJSON(t *testing.T, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// registerAccount walks the OTP registration flow and returns an access token.
func (f *apiFixture) registerAccount(t *testing.T, name, email, role, password string) string {
	t.Helper()

	w := f.postJSON(t, "/auth/request-otp", "", gin.H{"email": email})
	require.Equal(t, http.StatusOK, w.Code)

	code := otpPattern.FindString(f.mailer.lastBody(t))
	require.Len(t, code, 6)

	w = f.postJSON(t, "/auth/verify-otp", "", gin.H{"email": email, "otp": code})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.postJSON(t, "/auth/set-password", "", gin.H{
		"email":    email,
		"name":     name,
		"role":     role,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	return f.login(t, email, password)
}

func (f *apiFixture) login(t *testing.T, email, password string) string {
	t.Helper()

	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)

	var result struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.Tokens.AccessToken)
	return result.Tokens.AccessToken
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.get(t, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"database":"ok"`)
}

func TestUnknownRouteReturnsJSON(t *testing.T) {
	f := newAPIFixture(t)

	w := f.get(t, "/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	env := decodeEnvelope(t, w)
	require.False(t, env.Success)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	w := f.get(t, "/worklets", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.get(t, "/api/dashboard/statistics", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegistrationLoginAndWorkletFlow(t *testing.T) {
	f := newAPIFixture(t)

	mentorToken := f.registerAccount(t, "Maya Mentor", "maya@example.com", models.RoleMentor, "strong-password-1")

	// Identity endpoint reflects the registered account.
	w := f.get(t, "/auth/me", mentorToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "maya@example.com")

	// Mentors may create worklets.
	w = f.postJSON(t, "/worklets", mentorToken, gin.H{
		"cert_id": "WL-2026-001",
		"title":   "Edge Telemetry Pipeline",
		"domain":  "IoT",
		"status":  models.WorkletStatusOngoing,
		"year":    2026,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	env := decodeEnvelope(t, w)
	var worklet models.Worklet
	require.NoError(t, json.Unmarshal(env.Data, &worklet))
	require.NotEmpty(t, worklet.ID)

	// Worklets resolve by certificate id as well.
	w = f.get(t, "/worklets/WL-2026-001", mentorToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Edge Telemetry Pipeline")

	// Assign a student to the worklet.
	student := &models.User{Name: "Sam Student", Email: "sam@example.com", Password: mustHash(t, "pw"), Role: models.RoleStudent}
	require.NoError(t, f.db.Create(student).Error)

	w = f.postJSON(t, "/associations", mentorToken, gin.H{
		"user_id":         student.ID,
		"worklet_id":      worklet.ID,
		"role_in_worklet": models.AssociationRoleStudent,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The roster endpoint shows the new member.
	w = f.get(t, "/worklets/"+worklet.ID+"/students", mentorToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "sam@example.com")

	// Dashboard statistics aggregate across the platform.
	w = f.get(t, "/api/dashboard/statistics", mentorToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "total_worklets")
}

func TestWorkletCreationForbiddenForStudents(t *testing.T) {
	f := newAPIFixture(t)

	studentToken := f.registerAccount(t, "Sam Student", "sam@example.com", models.RoleStudent, "strong-password-1")

	w := f.postJSON(t, "/worklets", studentToken, gin.H{
		"cert_id": "WL-2026-002",
		"title":   "Forbidden",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshEndpointRotatesTokens(t *testing.T) {
	f := newAPIFixture(t)
	f.registerAccount(t, "Maya Mentor", "maya@example.com", models.RoleMentor, "strong-password-1")

	form := url.Values{"username": {"maya@example.com"}, "password": {"strong-password-1"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	var result struct {
		Tokens struct {
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))

	w = f.postJSON(t, "/auth/refresh", "", gin.H{"refresh_token": result.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "access_token")
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)
	return hash
}
