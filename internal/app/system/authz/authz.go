// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Permission names one gated back-office capability.
type Permission string

const (
	ContentRead    Permission = "content.read"
	ContentWrite   Permission = "content.write"
	ContentDelete  Permission = "content.delete"
	QuotesRead     Permission = "quotes.read"
	QuotesManage   Permission = "quotes.manage"
	MessagesManage Permission = "messages.manage"
	UsersManage    Permission = "users.manage"
	AuditRead      Permission = "audit.read"
)

// grants is the static role table, in the order Permissions reports it.
// Roles missing from a row (including "user") are denied.
var grants = []struct {
	perm  Permission
	roles []string
}{
	{ContentRead, []string{"admin", "editor", "moderator"}},
	{ContentWrite, []string{"admin", "editor"}},
	{ContentDelete, []string{"admin"}},
	{QuotesRead, []string{"admin", "moderator"}},
	{QuotesManage, []string{"admin", "moderator"}},
	{MessagesManage, []string{"admin", "moderator"}},
	{UsersManage, []string{"admin"}},
	{AuditRead, []string{"admin"}},
}

// Can reports whether role holds perm. Role matching ignores case.
func Can(role string, perm Permission) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, g := range grants {
		if g.perm != perm {
			continue
		}
		for _, r := range g.roles {
			if r == role {
				return true
			}
		}
	}
	return false
}

// Permissions lists every permission role holds.
func Permissions(role string) []Permission {
	var out []Permission
	for _, g := range grants {
		if Can(role, g.perm) {
			out = append(out, g.perm)
		}
	}
	return out
}

// RequirePermission lets a request through only when the signed-in user's
// role holds perm. Anonymous callers and sessions with a malformed user id
// get 401, others 403.
func RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.CurrentUser(r)
			if !ok || !primitive.IsValidObjectID(u.ID) {
				jsonutil.Unauthorized(w, "sign in required")
				return
			}
			if !Can(u.Role, perm) {
				jsonutil.Forbidden(w, "missing permission "+string(perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
