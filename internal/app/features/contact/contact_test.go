package contact

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/store/messages"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type recordingSender struct{ sent []mailer.Email }

func (s *recordingSender) Send(e mailer.Email) error {
	s.sent = append(s.sent, e)
	return nil
}

func newTestHandler(t *testing.T, limit *ratelimit.Store, sender mailer.Sender) (*Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	notify := Notify{Mailer: sender, To: "info@example.com", AppName: "StrataSite"}
	return NewHandler(messages.New(db), limit, notify, nil, nil, zap.NewNop()), db
}

func publicRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.MountPublic(r)
	return r
}

func TestSubmit_JSON(t *testing.T) {
	sender := &recordingSender{}
	h, _ := newTestHandler(t, nil, sender)

	body := map[string]string{
		"name":    "  Mehmet  ",
		"email":   "Mehmet@Example.com",
		"subject": "Teklif",
		"body":    "<b>Merhaba</b><script>alert(1)</script>",
	}
	rec := testutil.NewRecorder()
	publicRouter(h).ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/contact", body))
	rec.AssertStatus(t, http.StatusCreated)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	items, err := h.store.List(ctx, false, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("stored %d messages, want 1", len(items))
	}
	m := items[0]
	if m.Name != "Mehmet" || m.Email != "mehmet@example.com" {
		t.Errorf("name/email not normalized: %+v", m)
	}
	if strings.Contains(m.Body, "<") || !strings.Contains(m.Body, "Merhaba") {
		t.Errorf("body = %q, want plain text", m.Body)
	}

	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Subject, "Teklif") {
		t.Errorf("notification = %+v", sender.sent)
	}
}

func TestSubmit_Form(t *testing.T) {
	h, _ := newTestHandler(t, nil, nil)

	form := url.Values{"name": {"Zeynep"}, "email": {"zeynep@example.com"}, "body": {"Merhaba"}}
	req := testutil.NewJSONRequest(http.MethodPost, "/api/contact", form.Encode())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := testutil.NewRecorder()
	publicRouter(h).ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
}

func TestSubmit_Invalid(t *testing.T) {
	h, _ := newTestHandler(t, nil, nil)

	rec := testutil.NewRecorder()
	publicRouter(h).ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/contact", map[string]string{"name": "Ali", "email": "not-an-email", "body": "x"}))

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertContains(t, "email")
}

func TestSubmit_Throttled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	limit := ratelimit.New(db, ratelimit.ScopeIntake, ratelimit.Limits{MaxAttempts: 1, Window: time.Hour, Lockout: time.Hour})
	h := NewHandler(messages.New(db), limit, Notify{}, nil, nil, zap.NewNop())
	body := map[string]string{"name": "A", "email": "a@example.com", "body": "x"}

	rec := testutil.NewRecorder()
	publicRouter(h).ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/contact", body))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	publicRouter(h).ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/contact", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestSubmit_InvalidMessagesCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	limit := ratelimit.New(db, ratelimit.ScopeIntake, ratelimit.Limits{MaxAttempts: 2, Window: time.Hour, Lockout: time.Hour})
	h := NewHandler(messages.New(db), limit, Notify{}, nil, nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		publicRouter(h).ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/contact", map[string]string{"name": "A"}))
		rec.AssertStatus(t, http.StatusUnprocessableEntity)
	}

	rec := testutil.NewRecorder()
	body := map[string]string{"name": "A", "email": "a@example.com", "body": "x"}
	publicRouter(h).ServeHTTP(rec, testutil.NewJSONRequest(http.MethodPost, "/api/contact", body))
	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestAdmin_Inbox(t *testing.T) {
	h, _ := newTestHandler(t, nil, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m, err := h.store.Create(ctx, messages.CreateInput{Name: "Ali", Email: "ali@example.com", Body: "Selam"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	mod := testutil.ModeratorUser()
	routes := h.AdminRoutes()

	rec := testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/?unread=true", mod))
	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		Messages []models.Message `json:"messages"`
		Unread   int64            `json:"unread"`
	}
	rec.DecodeJSON(t, &got)
	if len(got.Messages) != 1 || got.Unread != 1 {
		t.Fatalf("got %+v", got)
	}

	rec = testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodPost, "/"+m.ID.Hex()+"/read", mod))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+m.ID.Hex(), mod))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	routes.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodDelete, "/"+m.ID.Hex(), mod))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestAdmin_EditorForbidden(t *testing.T) {
	h, _ := newTestHandler(t, nil, nil)

	rec := testutil.NewRecorder()
	h.AdminRoutes().ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.EditorUser()))
	rec.AssertStatus(t, http.StatusForbidden)
}
