package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SessionUser is the signed-in user as seen by handlers. It is also the
// body of GET /api/auth/me.
type SessionUser struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LoginID string `json:"email"` // the account email
	Role    string `json:"role"`
	Token   string `json:"-"`
}

// UserID returns the ID as an ObjectID, or the zero ObjectID when malformed.
func (u *SessionUser) UserID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// SessionToken returns the token of the session the request arrived with.
func (u *SessionUser) SessionToken() string { return u.Token }

type ctxKey struct{}

// CurrentUser returns the signed-in user, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(ctxKey{}).(*SessionUser)
	return u, ok && u != nil
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
}

// WithTestUser puts u into the request context.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request { return withUser(r, u) }

// LoadSessionUser resolves the cookie to a SessionUser and stores it in the
// request context. Requests without a valid session pass through anonymous;
// a session whose user or server record is gone is cleared.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			sm.logCookieError(r, err)
		}
		if signedIn, _ := sess.Values[keySignedIn].(bool); !signedIn {
			next.ServeHTTP(w, r)
			return
		}

		userID := getString(sess, keyUserID)
		token := getString(sess, keyToken)
		if u := sm.resolve(r.Context(), sess, userID, token); u != nil {
			r = withUser(r, u)
		} else {
			sm.logger.Info("session invalidated",
				zap.String("user_id", userID),
				zap.String("path", r.URL.Path))
			clearValues(sess)
			_ = sess.Save(r, w)
		}
		next.ServeHTTP(w, r)
	})
}

// resolve returns the user for a signed-in cookie, or nil when the session
// must be dropped.
func (sm *SessionManager) resolve(ctx context.Context, sess *sessions.Session, userID, token string) *SessionUser {
	if userID == "" {
		return nil
	}
	if sm.fetcher == nil {
		return &SessionUser{ID: userID, Role: getString(sess, keyRole), Token: token}
	}
	u := sm.fetcher.FetchUser(ctx, userID)
	if u == nil {
		return nil
	}
	if sm.checker != nil && token != "" && !sm.checker.SessionActive(ctx, token) {
		return nil
	}
	u.Token = token
	return u
}

// RequireSignedIn answers 401 unless a user is in the context.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			jsonutil.Unauthorized(w, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logCookieError logs an unreadable cookie at a level matching its cause.
// A bad MAC is the only case worth a warning.
func (sm *SessionManager) logCookieError(r *http.Request, err error) {
	kind := classifySessionError(err)
	fields := []zap.Field{zap.String("category", kind), zap.String("path", r.URL.Path)}
	switch kind {
	case "expired":
		sm.logger.Debug("session expired, starting fresh session", fields...)
	case "mac_invalid":
		sm.logger.Warn("session MAC validation failed",
			append(fields, zap.String("remote_addr", r.RemoteAddr), zap.String("user_agent", r.UserAgent()))...)
	case "backend":
		sm.logger.Error("session store error, starting fresh session", append(fields, zap.Error(err))...)
	default:
		sm.logger.Info("session decode failed, starting fresh session", fields...)
	}
}

// classifySessionError names the cause of a cookie decode failure.
func classifySessionError(err error) string {
	if err == nil {
		return "none"
	}
	var scErr securecookie.Error
	if !errors.As(err, &scErr) || !scErr.IsDecode() {
		return "backend"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return "expired"
	case strings.Contains(msg, "mac") || strings.Contains(msg, "hash"):
		return "mac_invalid"
	case strings.Contains(msg, "decrypt"):
		return "decrypt_failed"
	default:
		return "decode_failed"
	}
}
