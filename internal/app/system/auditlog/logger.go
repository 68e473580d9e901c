// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination says where events of a category go.
type Destination uint8

const (
	ToLog Destination = 1 << iota
	ToDB

	Off Destination = 0
	All             = ToLog | ToDB
)

// ParseDestination reads a config value: "all", "db", "log" or "off".
// A blank value means "all".
func ParseDestination(s string) (Destination, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "db":
		return ToDB, nil
	case "log":
		return ToLog, nil
	case "off":
		return Off, nil
	}
	return Off, fmt.Errorf("audit destination %q: want all, db, log or off", s)
}

// Config holds the destination setting per event family. Auth covers
// sign-in, sign-out, registration and password changes. Admin covers user
// management, messages, content edits and quotes.
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to the audit store and to zap.
type Logger struct {
	store *audit.Store
	log   *zap.Logger
	auth  Destination
	admin Destination
}

// New returns a Logger. A nil store drops the database destination. An
// unparseable setting falls back to All; ValidateConfig rejects those first.
func New(store *audit.Store, log *zap.Logger, cfg Config) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Logger{store: store, log: log, auth: All, admin: All}
	if d, err := ParseDestination(cfg.Auth); err == nil {
		l.auth = d
	}
	if d, err := ParseDestination(cfg.Admin); err == nil {
		l.admin = d
	}
	return l
}

func (l *Logger) destination(category string) Destination {
	if category == audit.CategoryAuth {
		return l.auth
	}
	if category == audit.CategoryAdmin || category == audit.CategoryContent || category == audit.CategoryQuote {
		return l.admin
	}
	return All
}

// Log records event. A nil Logger does nothing.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	dest := l.destination(event.Category)
	if dest&ToLog != 0 {
		l.write(event)
	}
	if dest&ToDB != 0 && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.log.Error("store audit event", zap.String("event_type", event.EventType), zap.Error(err))
		}
	}
}

func (l *Logger) write(e audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	}
	if e.UserID != nil {
		fields = append(fields, zap.String("user_id", e.UserID.Hex()))
	}
	if e.ActorID != nil {
		fields = append(fields, zap.String("actor_id", e.ActorID.Hex()))
	}
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if e.Success {
		l.log.Info("audit event", fields...)
		return
	}
	l.log.Warn("audit event", fields...)
}

// event starts a successful event carrying the request's client address.
func event(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        network.GetClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// fail marks e failed when err is set.
func fail(e audit.Event, err error) audit.Event {
	if err != nil {
		e.Success = false
		e.FailureReason = err.Error()
	}
	return e
}

func oidPtr(hex string) *primitive.ObjectID {
	if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
		return &oid
	}
	return nil
}

// Sign-in and account events.

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, loginID string) {
	e := event(r, audit.CategoryAuth, audit.EventLoginSuccess)
	e.UserID = &userID
	e.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, e)
}

// LoginFailed records a refused sign-in. eventType is one of the
// audit.EventLoginFailed* constants or audit.EventLoginLockedOut; userID is
// nil when no account matched.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, userID *primitive.ObjectID, eventType, attemptedLoginID, reason string) {
	e := event(r, audit.CategoryAuth, eventType)
	e.UserID = userID
	e.Success = false
	e.FailureReason = reason
	e.Details = map[string]string{"attempted_login_id": attemptedLoginID}
	l.Log(ctx, e)
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userID string) {
	e := event(r, audit.CategoryAuth, audit.EventLogout)
	e.UserID = oidPtr(userID)
	l.Log(ctx, e)
}

func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, loginID string) {
	e := event(r, audit.CategoryAuth, audit.EventRegistered)
	e.UserID = &userID
	e.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, e)
}

func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := event(r, audit.CategoryAuth, audit.EventPasswordChanged)
	e.UserID = &userID
	l.Log(ctx, e)
}

// Back-office events.

// UserUpdated records an admin changing another account. eventType is
// audit.EventUserUpdated, EventUserDisabled or EventUserEnabled.
func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, actorID string, target primitive.ObjectID, eventType string, details map[string]string) {
	e := event(r, audit.CategoryAdmin, eventType)
	e.UserID = &target
	e.ActorID = oidPtr(actorID)
	e.Details = details
	l.Log(ctx, e)
}

// MessageHandled records a contact message being read or deleted.
func (l *Logger) MessageHandled(ctx context.Context, r *http.Request, actorID, eventType, messageID string) {
	e := event(r, audit.CategoryAdmin, eventType)
	e.ActorID = oidPtr(actorID)
	e.Details = map[string]string{"message_id": messageID}
	l.Log(ctx, e)
}

// ContentEdited records a page or section edit; a non-nil err records the
// attempt as failed.
func (l *Logger) ContentEdited(ctx context.Context, r *http.Request, actorID, eventType, page, sectionID string, err error) {
	e := event(r, audit.CategoryContent, eventType)
	e.ActorID = oidPtr(actorID)
	e.Details = map[string]string{"page": page}
	if sectionID != "" {
		e.Details["section_id"] = sectionID
	}
	l.Log(ctx, fail(e, err))
}

// QuoteSubmitted records a new quote. userID is "" for anonymous visitors.
func (l *Logger) QuoteSubmitted(ctx context.Context, r *http.Request, userID string, number int64, planOrServiceID string) {
	e := event(r, audit.CategoryQuote, audit.EventQuoteSubmitted)
	e.UserID = oidPtr(userID)
	e.Details = map[string]string{
		"number":             strconv.FormatInt(number, 10),
		"plan_or_service_id": planOrServiceID,
	}
	l.Log(ctx, e)
}

// QuoteStatusChanged records a status transition attempt.
func (l *Logger) QuoteStatusChanged(ctx context.Context, r *http.Request, actorID string, number int64, from, to string, err error) {
	e := event(r, audit.CategoryQuote, audit.EventQuoteStatusChanged)
	e.ActorID = oidPtr(actorID)
	e.Details = map[string]string{
		"number": strconv.FormatInt(number, 10),
		"from":   from,
		"to":     to,
	}
	l.Log(ctx, fail(e, err))
}
