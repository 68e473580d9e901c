// internal/app/features/auditlog/auditlog.go
package auditlog

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/authz"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// Handler serves the audit log to admins.
type Handler struct {
	auditStore *audit.Store
	userStore  *userstore.Store
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

func NewHandler(
	auditStore *audit.Store,
	userStore *userstore.Store,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	return &Handler{auditStore: auditStore, userStore: userStore, errLog: errLog, logger: logger}
}

// listItem adds the resolved name of whoever acted.
type listItem struct {
	audit.Event
	ActorName string `json:"actorName,omitempty"`
}

type listResponse struct {
	Events     []listItem `json:"events"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	EventTypes []string   `json:"eventTypes"`
}

// Routes, mounted at /admin/api/audit:
//
//	GET /   ?category ?event_type ?start_date ?end_date (YYYY-MM-DD) ?tz ?page
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(authz.RequirePermission(authz.AuditRead))
	r.Get("/", h.list)
	return r
}

// parseFilter reads the query string into one page's filter. The returned
// message is non-empty when the request is malformed.
func parseFilter(q url.Values) (f audit.Filter, page int, types []string, msg string) {
	get := func(k string) string { return strings.TrimSpace(q.Get(k)) }

	f.Category = get("category")
	types, ok := audit.EventTypes(f.Category)
	if !ok {
		return f, 0, nil, "unknown category"
	}
	if f.EventType = get("event_type"); f.EventType != "" && !contains(types, f.EventType) {
		return f, 0, nil, "unknown event_type"
	}

	page = 1
	if p, err := strconv.Atoi(get("page")); err == nil && p > 0 {
		page = p
	}
	f.Limit = pageSize
	f.Offset = int64(page-1) * pageSize

	// Dates are days in the caller's zone, or the server's.
	loc := time.Local
	if tz := get("tz"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	day := func(key string) (*time.Time, bool) {
		v := get(key)
		if v == "" {
			return nil, true
		}
		t, err := time.ParseInLocation(time.DateOnly, v, loc)
		return &t, err == nil
	}
	if f.From, ok = day("start_date"); !ok {
		return f, 0, nil, "start_date must be YYYY-MM-DD"
	}
	var end *time.Time
	if end, ok = day("end_date"); !ok {
		return f, 0, nil, "end_date must be YYYY-MM-DD"
	}
	if end != nil {
		last := end.AddDate(0, 0, 1).Add(-time.Millisecond)
		f.To = &last
	}
	return f, page, types, ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, page, types, msg := parseFilter(r.URL.Query())
	if msg != "" {
		jsonutil.BadRequest(w, msg)
		return
	}

	events, err := h.auditStore.Find(r.Context(), filter)
	if err != nil {
		h.errLog.Write(w, r, "failed to query audit events", err)
		return
	}
	total, err := h.auditStore.Count(r.Context(), filter)
	if err != nil {
		h.logger.Warn("failed to count audit events", zap.Error(err))
		total = filter.Offset + int64(len(events))
	}

	names := h.userNames(r, events)
	items := make([]listItem, len(events))
	for i, e := range events {
		items[i] = listItem{Event: e}
		// Deleted users have no name; the id is still in the event.
		switch {
		case e.ActorID != nil:
			items[i].ActorName = names[*e.ActorID]
		case e.UserID != nil && e.Category == audit.CategoryAuth:
			items[i].ActorName = names[*e.UserID]
		}
	}

	jsonutil.OK(w, listResponse{
		Events:     items,
		Total:      total,
		Page:       page,
		TotalPages: max(1, int((total+pageSize-1)/pageSize)),
		EventTypes: types,
	})
}

// userNames loads the names of every user the events mention in one query.
func (h *Handler) userNames(r *http.Request, events []audit.Event) map[primitive.ObjectID]string {
	names := make(map[primitive.ObjectID]string)
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, ok := names[*id]; !ok {
			names[*id] = ""
			ids = append(ids, *id)
		}
	}
	for _, e := range events {
		add(e.ActorID)
		add(e.UserID)
	}
	if len(ids) == 0 {
		return names
	}

	users, err := h.userStore.GetByIDs(r.Context(), ids)
	if err != nil {
		h.logger.Warn("failed to fetch user names for audit log", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names
}
