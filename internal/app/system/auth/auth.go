// Package auth keeps the signed-in user in a gorilla session cookie and
// loads a fresh copy of that user into every request context.
//
// The cookie holds only the user ID, the role at sign-in and a session token.
// Name, role and status are re-read through a UserFetcher on each request,
// and the token is checked against the server-side session record, so a role
// change, a disabled account or a closed session takes effect on the next
// request.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultCookieName = "stratasite-session"

// Cookie value keys.
const (
	keySignedIn = "signed_in"
	keyUserID   = "user_id"
	keyRole     = "role"
	keyToken    = "session_token"
)

// SessionManager owns the session cookie store.
type SessionManager struct {
	store   *sessions.CookieStore
	logger  *zap.Logger
	name    string
	fetcher UserFetcher
	checker SessionChecker
}

// UserFetcher loads the current state of a user. It returns nil when the
// user is gone or disabled, which signs the request out.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionChecker reports whether a server-side session record is still open.
type SessionChecker interface {
	SessionActive(ctx context.Context, token string) bool
}

// SessionConfigError is returned when session configuration is invalid.
type SessionConfigError struct {
	Message string
}

func (e *SessionConfigError) Error() string { return e.Message }

// NewSessionManager builds the cookie store.
//
// sessionKey signs the cookie. In secure (production) mode a key shorter than
// 32 characters or one that looks like a placeholder is refused; in dev mode
// it is only logged. An empty name uses "stratasite-session". Cookies are
// HttpOnly and SameSite=Lax; secure also sets the Secure flag.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, &SessionConfigError{Message: "session key is empty; provide 32+ random characters"}
	}
	if weak := len(sessionKey) < 32 || isDefaultKey(sessionKey); weak {
		if secure {
			return nil, &SessionConfigError{Message: "session key is too weak for production; provide 32+ random characters (not the default dev key)"}
		}
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(sessionKey)),
			zap.Bool("is_default", isDefaultKey(sessionKey)))
	}
	if name == "" {
		name = defaultCookieName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("name", name),
		zap.String("domain", domain))

	return &SessionManager{store: store, logger: logger, name: name}, nil
}

// SessionName returns the cookie name.
func (sm *SessionManager) SessionName() string { return sm.name }

// SetUserFetcher installs the per-request user lookup.
func (sm *SessionManager) SetUserFetcher(uf UserFetcher) { sm.fetcher = uf }

// SetSessionChecker installs the server-side session check.
func (sm *SessionManager) SetSessionChecker(sc SessionChecker) { sm.checker = sc }

// CreateSession writes a signed-in cookie for userID. An empty token gets a
// freshly generated one.
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, role, token string) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sess, _ = sm.store.New(r, sm.name)
	}
	if token == "" {
		if token, err = GenerateSessionToken(); err != nil {
			return err
		}
	}
	sess.Values[keySignedIn] = true
	sess.Values[keyUserID] = userID.Hex()
	sess.Values[keyRole] = role
	sess.Values[keyToken] = token
	return sess.Save(r, w)
}

// DestroySession expires the cookie.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return
	}
	clearValues(sess)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

// GenerateSessionToken returns 32 random bytes, URL-safe base64 encoded.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func clearValues(sess *sessions.Session) {
	sess.Values[keySignedIn] = false
	delete(sess.Values, keyUserID)
	delete(sess.Values, keyRole)
	delete(sess.Values, keyToken)
}

func getString(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}

// isDefaultKey flags keys that look like shipped placeholders.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range []string{"dev-only", "change-me", "placeholder", "default", "example", "insecure", "test-key", "secret123", "password"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
