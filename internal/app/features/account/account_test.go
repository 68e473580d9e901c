package account

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/store/sessions"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testPassword = "s3cret-pass"

type recordingSender struct{ sent []mailer.Email }

func (s *recordingSender) Send(e mailer.Email) error {
	s.sent = append(s.sent, e)
	return nil
}

type fixture struct {
	h        *Handler
	db       *mongo.Database
	users    *userstore.Store
	sessions *sessions.Store
	sender   *recordingSender
}

func newFixture(t *testing.T, limit *ratelimit.Store) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager(
		"test-session-key-for-testing-1234567890",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	f := fixture{
		db:       db,
		users:    userstore.New(db),
		sessions: sessions.New(db),
		sender:   &recordingSender{},
	}
	welcome := Welcome{Mailer: f.sender, AppName: "StrataSite", LoginURL: "http://localhost/login"}
	f.h = NewHandler(f.users, f.sessions, sessionMgr, limit, nil, welcome, time.Hour, nil, logger)
	return f
}

func (f fixture) createUser(t *testing.T, email, role, st string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hash, err := authutil.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u, err := f.users.Create(ctx, userstore.CreateInput{
		FullName:     "Ayşe Kaya",
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if st != "" && st != "active" {
		if err := f.users.Update(ctx, u.ID, userstore.UpdateInput{Status: &st}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	return u
}

func hasCookie(rec *testutil.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return true
		}
	}
	return false
}

func TestRegister(t *testing.T) {
	f := newFixture(t, nil)

	body := map[string]string{"name": " Ayşe  Kaya ", "email": "Ayse@Example.com", "password": testPassword}
	rec := testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/register", body))
	rec.AssertStatus(t, http.StatusCreated)

	var got accountResponse
	rec.DecodeJSON(t, &got)
	if got.User == nil || got.User.Role != models.RoleUser || got.User.LoginID != "ayse@example.com" {
		t.Fatalf("user = %+v", got.User)
	}
	if !hasCookie(rec, "test-session") {
		t.Error("session cookie not set")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := f.sessions.CountActive(ctx)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if n != 1 {
		t.Errorf("active sessions = %d, want 1", n)
	}
	if len(f.sender.sent) != 1 || f.sender.sent[0].To != "ayse@example.com" {
		t.Errorf("welcome email = %+v", f.sender.sent)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t, nil)
	f.createUser(t, "ayse@example.com", models.RoleUser, "")

	body := map[string]string{"name": "Ayşe", "email": "AYSE@example.com", "password": testPassword}
	rec := testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/register", body))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestRegister_WeakPassword(t *testing.T) {
	f := newFixture(t, nil)

	body := map[string]string{"name": "Ayşe", "email": "ayse@example.com", "password": "password"}
	rec := testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/register", body))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "password")
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	u := f.createUser(t, "editor@example.com", models.RoleEditor, "")

	rec := testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/login",
		map[string]string{"email": "Editor@Example.com", "password": testPassword}))
	rec.AssertStatus(t, http.StatusOK)

	var got accountResponse
	rec.DecodeJSON(t, &got)
	if got.User == nil || got.User.ID != u.ID.Hex() || got.User.Role != models.RoleEditor {
		t.Fatalf("user = %+v", got.User)
	}
	if !hasCookie(rec, "test-session") {
		t.Error("session cookie not set")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	stored, err := f.users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Error("last login not recorded")
	}
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t, nil)
	f.createUser(t, "active@example.com", models.RoleEditor, "")
	f.createUser(t, "off@example.com", models.RoleEditor, "disabled")

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"unknown user", map[string]string{"email": "nobody@example.com", "password": testPassword}, http.StatusUnauthorized},
		{"wrong password", map[string]string{"email": "active@example.com", "password": "nope-nope"}, http.StatusUnauthorized},
		{"disabled", map[string]string{"email": "off@example.com", "password": testPassword}, http.StatusForbidden},
		{"missing password", map[string]string{"email": "active@example.com"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			f.h.Routes().ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/login", tt.body))
			rec.AssertStatus(t, tt.status)
			if hasCookie(rec, "test-session") {
				t.Error("failed login set a session cookie")
			}
		})
	}
}

func TestLogin_LockedOut(t *testing.T) {
	f := newFixture(t, nil)
	f.h.limit = ratelimit.New(f.db, ratelimit.ScopeLogin, ratelimit.Limits{MaxAttempts: 2, Window: time.Hour, Lockout: time.Hour})
	f.createUser(t, "ayse@example.com", models.RoleUser, "")

	wrong := map[string]string{"email": "ayse@example.com", "password": "nope-nope"}
	right := map[string]string{"email": "ayse@example.com", "password": testPassword}
	want := []struct {
		body   map[string]string
		status int
	}{
		{wrong, http.StatusUnauthorized},
		{wrong, http.StatusTooManyRequests},
		{right, http.StatusTooManyRequests},
	}
	for i, step := range want {
		rec := testutil.NewRecorder()
		f.h.Routes().ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/login", step.body))
		if rec.Code != step.status {
			t.Fatalf("attempt %d: status = %d, want %d", i+1, rec.Code, step.status)
		}
	}
}

func TestLogout_ClosesSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	token := "logout-test-token"
	if err := f.sessions.Create(ctx, sessions.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("Create session: %v", err)
	}

	req := testutil.NewRequest(http.MethodPost, "/logout")
	req = auth.WithTestUser(req, &auth.SessionUser{ID: userID.Hex(), Name: "Ayşe", Role: models.RoleUser, Token: token})
	rec := testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	if f.sessions.SessionActive(ctx, token) {
		t.Error("session still open after logout")
	}
}

func TestMe(t *testing.T) {
	f := newFixture(t, nil)

	rec := testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/me"))
	rec.AssertStatus(t, http.StatusUnauthorized)

	rec = testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/me", testutil.EditorUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "editor@test.example")
	rec.AssertContains(t, `"content.write"`)
}

func TestUpdateProfile_Password(t *testing.T) {
	f := newFixture(t, nil)
	u := f.createUser(t, "ayse@example.com", models.RoleUser, "")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, token := range []string{"current-token", "other-token"} {
		if err := f.sessions.Create(ctx, sessions.Session{UserID: u.ID, Token: token, ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
			t.Fatalf("Create session: %v", err)
		}
	}
	asUser := func(body any) *http.Request {
		req := testutil.NewJSONRequest(http.MethodPut, "/profile", body)
		return auth.WithTestUser(req, &auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Role: u.Role, Token: "current-token"})
	}

	rec := testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, asUser(map[string]string{"currentPassword": "wrong-one", "newPassword": "brand-new-pass"}))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	rec = testutil.NewRecorder()
	f.h.Routes().ServeHTTP(rec, asUser(map[string]string{"name": "Ayşe Yılmaz", "currentPassword": testPassword, "newPassword": "brand-new-pass"}))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Ayşe Yılmaz")

	stored, err := f.users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !authutil.CheckPassword("brand-new-pass", *stored.PasswordHash) {
		t.Error("password not changed")
	}
	if !f.sessions.SessionActive(ctx, "current-token") {
		t.Error("current session was closed")
	}
	if f.sessions.SessionActive(ctx, "other-token") {
		t.Error("other session left open after password change")
	}
}
