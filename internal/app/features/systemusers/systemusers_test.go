package systemusers

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/sessions"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *userstore.Store, *sessions.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	sess := sessions.New(db)
	return NewHandler(users, sess, nil, nil, zap.NewNop()), users, sess
}

func createUser(t *testing.T, users *userstore.Store, email, role string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	hash, err := authutil.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u, err := users.Create(ctx, userstore.CreateInput{FullName: email, Email: email, Role: role, PasswordHash: hash})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return u
}

// asUser turns a stored user into a request identity.
func asUser(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: *u.LoginID, Role: u.Role}
}

func authedJSON(method, target string, body any, user testutil.TestUser) *http.Request {
	return testutil.WithUser(testutil.NewJSONRequest(method, target, body), user)
}

func TestRoutes_AdminOnly(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name   string
		user   *testutil.TestUser
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"editor", ptr(testutil.EditorUser()), http.StatusForbidden},
		{"moderator", ptr(testutil.ModeratorUser()), http.StatusForbidden},
		{"admin", ptr(testutil.AdminUser()), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequest(http.MethodGet, "/")
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			h.Routes().ServeHTTP(rec, req)
			rec.AssertStatus(t, tt.status)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestList_Filter(t *testing.T) {
	h, users, _ := newTestHandler(t)
	createUser(t, users, "editor@example.com", models.RoleEditor)
	createUser(t, users, "mod@example.com", models.RoleModerator)
	createUser(t, users, "customer@example.com", models.RoleUser)

	rec := testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?role=editor", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)

	var got listResponse
	rec.DecodeJSON(t, &got)
	if got.Total != 1 || len(got.Users) != 1 || got.Users[0].Role != models.RoleEditor {
		t.Fatalf("got %+v", got)
	}
}

func TestCreate(t *testing.T) {
	h, users, _ := newTestHandler(t)
	admin := testutil.AdminUser()

	body := map[string]string{"name": "Can Demir", "email": "Can@Example.com", "role": "editor", "password": "s3cret-pass"}
	rec := testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, authedJSON(http.MethodPost, "/", body, admin))
	rec.AssertStatus(t, http.StatusCreated)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := users.GetByLoginID(ctx, "can@example.com")
	if err != nil {
		t.Fatalf("GetByLoginID: %v", err)
	}
	if u.Role != models.RoleEditor {
		t.Errorf("role = %q, want editor", u.Role)
	}

	rec = testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, authedJSON(http.MethodPost, "/", body, admin))
	rec.AssertStatus(t, http.StatusConflict)

	body["email"] = "other@example.com"
	body["role"] = "owner"
	rec = testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, authedJSON(http.MethodPost, "/", body, admin))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestUpdate_RoleClosesSessions(t *testing.T) {
	h, users, sess := newTestHandler(t)
	target := createUser(t, users, "editor@example.com", models.RoleEditor)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := sess.Create(ctx, sessions.Session{UserID: target.ID, Token: "editor-token", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Create session: %v", err)
	}

	rec := testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, authedJSON(http.MethodPatch, "/"+target.ID.Hex(), map[string]string{"role": "moderator"}, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)

	u, err := users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Role != models.RoleModerator {
		t.Errorf("role = %q, want moderator", u.Role)
	}
	if sess.SessionActive(ctx, "editor-token") {
		t.Error("session left open after role change")
	}
}

func TestUpdate_InvalidValues(t *testing.T) {
	h, users, _ := newTestHandler(t)
	target := createUser(t, users, "editor@example.com", models.RoleEditor)

	for _, body := range []map[string]string{{"role": "owner"}, {"status": "archived"}} {
		rec := testutil.NewRecorder()
		h.Routes().ServeHTTP(rec, authedJSON(http.MethodPatch, "/"+target.ID.Hex(), body, testutil.AdminUser()))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestAdminGuards(t *testing.T) {
	h, users, _ := newTestHandler(t)
	admin := createUser(t, users, "admin@example.com", models.RoleAdmin)
	other := createUser(t, users, "admin2@example.com", models.RoleAdmin)

	// self
	rec := testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, authedJSON(http.MethodPatch, "/"+admin.ID.Hex(), map[string]string{"status": "disabled"}, asUser(admin)))
	rec.AssertStatus(t, http.StatusConflict)

	// two active admins: demoting the other is allowed
	rec = testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, authedJSON(http.MethodPatch, "/"+other.ID.Hex(), map[string]string{"role": "editor"}, asUser(admin)))
	rec.AssertStatus(t, http.StatusOK)

	// an admin account acting on the last active admin
	outside := testutil.AdminUser()
	rec = testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+admin.ID.Hex(), outside))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestResetPassword(t *testing.T) {
	h, users, _ := newTestHandler(t)
	target := createUser(t, users, "editor@example.com", models.RoleEditor)

	rec := testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, authedJSON(http.MethodPost, "/"+target.ID.Hex()+"/reset-password", map[string]string{"password": "123"}, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)

	rec = testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, authedJSON(http.MethodPost, "/"+target.ID.Hex()+"/reset-password", map[string]string{"password": "fresh-pass-1"}, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNoContent)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := users.GetByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !authutil.CheckPassword("fresh-pass-1", *u.PasswordHash) {
		t.Error("password not updated")
	}
}

func TestDelete(t *testing.T) {
	h, users, _ := newTestHandler(t)
	target := createUser(t, users, "customer@example.com", models.RoleUser)

	rec := testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+target.ID.Hex(), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	h.Routes().ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/"+target.ID.Hex(), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusNotFound)
}
