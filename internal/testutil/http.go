package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser is the signed-in user a handler test runs as.
type TestUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// As returns a fresh user with role and a fixed name and email per role.
func As(role string) TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test " + role,
		Email: role + "@test.example",
		Role:  role,
	}
}

func AdminUser() TestUser     { return As(models.RoleAdmin) }
func EditorUser() TestUser    { return As(models.RoleEditor) }
func ModeratorUser() TestUser { return As(models.RoleModerator) }
func CustomerUser() TestUser  { return As(models.RoleUser) }

// WithUser signs r in as user without going through sessions.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:      user.ID,
		Name:    user.Name,
		LoginID: user.Email,
		Role:    user.Role,
	})
}

func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(NewRequest(method, target), user)
}

// NewJSONRequest sends v as a JSON body. Strings and byte slices are sent
// verbatim so tests can post malformed bodies.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body []byte
	switch b := v.(type) {
	case nil:
	case string:
		body = []byte(b)
	case []byte:
		body = b
	default:
		body, _ = json.Marshal(v)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder adds assertions to httptest.ResponseRecorder.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus reports the body along with an unexpected status.
func (r *ResponseRecorder) AssertStatus(t testing.TB, want int) bool {
	t.Helper()
	return assert.Equal(t, want, r.Code, "body: %s", r.Body.String())
}

// DecodeJSON stops the test if the body is not JSON for v.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), v), "body: %s", r.Body.String())
}

func (r *ResponseRecorder) AssertContains(t testing.TB, want string) bool {
	t.Helper()
	return assert.Contains(t, r.Body.String(), want)
}
