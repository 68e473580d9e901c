// Package quotes serves the public quote intake and the staff quote queue.
//
// Public endpoints:
//   - GET  /api/catalog          plans, services and the option table
//   - POST /api/quotes/estimate  price a selection without storing it
//   - POST /api/quotes           submit a quote request
//
// Admin endpoints (mounted at /admin/api/quotes):
//   - GET  /             list, filtered by ?status= and paged by ?limit=&offset=
//   - GET  /{id}         one quote with its status history
//   - POST /{id}/status  move a quote to another status
package quotes

import (
	"io"
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	quotestore "github.com/dalemusser/stratasite/internal/app/store/quotes"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authz"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/quote"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxSubmissionBytes caps a quote request body.
const maxSubmissionBytes = 64 << 10

// Notify configures the staff email sent for each accepted quote.
// An empty To disables it.
type Notify struct {
	Mailer  mailer.Sender
	To      string
	AppName string
}

// Handler holds the dependencies of the quote endpoints.
type Handler struct {
	intake *quote.Intake
	store  *quotestore.Store
	notify Notify
	limit  *ratelimit.Store
	priced *ratelimit.Store
	audit  *auditlog.Logger
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

func NewHandler(intake *quote.Intake, store *quotestore.Store, notify Notify, auditLog *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	return &Handler{
		intake: intake,
		store:  store,
		notify: notify,
		audit:  auditLog,
		errLog: errLog,
		logger: logger,
	}
}

// SetLimiter throttles submissions per client IP. A nil limiter disables it.
func (h *Handler) SetLimiter(l *ratelimit.Store) {
	h.limit = l
}

// SetEstimateLimiter throttles estimates per client IP, counted apart from
// submissions. A nil limiter disables it.
func (h *Handler) SetEstimateLimiter(l *ratelimit.Store) {
	h.priced = l
}

// estimateKey keeps estimate counters apart from submission counters in the
// shared intake scope.
func estimateKey(ip string) string { return "estimate:" + ip }

// throttle counts one attempt for id and reports whether the request was
// refused. Every attempt counts, valid or not.
func throttle(w http.ResponseWriter, r *http.Request, l *ratelimit.Store, id, msg string) bool {
	if l == nil {
		return false
	}
	if ok, _, until := l.CheckAllowed(r.Context(), id); !ok {
		jsonutil.TooManyRequests(w, msg, retryAfter(until))
		return true
	}
	l.Record(r.Context(), id)
	return false
}

// MountPublic adds the catalog, estimate and submit routes to r.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/api/catalog", h.catalog)
	r.Post("/api/quotes/estimate", h.estimate)
	r.Post("/api/quotes", h.submit)
}

// AdminRoutes returns the staff quote queue.
func (h *Handler) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(authz.RequirePermission(authz.QuotesRead))
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.With(authz.RequirePermission(authz.QuotesManage)).Post("/{id}/status", h.changeStatus)
	return r
}

/* --------------------------------- public --------------------------------- */

type catalogResponse struct {
	Plans    []quote.Entry  `json:"plans"`
	Services []quote.Entry  `json:"services"`
	Options  []quote.Option `json:"options"`
	Currency string         `json:"currency"`
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	c := h.intake.Catalog()
	w.Header().Set("Cache-Control", "public, max-age=300")
	jsonutil.OK(w, catalogResponse{
		Plans:    c.ByKind(quote.KindPlan),
		Services: c.ByKind(quote.KindService),
		Options:  quote.Options(),
		Currency: quote.Currency,
	})
}

type estimateRequest struct {
	PlanOrServiceID string          `json:"planOrServiceId"`
	SelectedOptions quote.Selection `json:"selectedOptions"`
}

type estimateResponse struct {
	Entry quote.Entry `json:"entry"`
	quote.Price
}

func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	if throttle(w, r, h.priced, estimateKey(network.GetClientIP(r)), "too many estimates, try again later") {
		return
	}
	var req estimateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	entry, price, err := h.intake.Estimate(req.PlanOrServiceID, req.SelectedOptions)
	if err != nil {
		h.errLog.Write(w, r, "failed to estimate quote", err)
		return
	}
	jsonutil.OK(w, estimateResponse{Entry: entry, Price: price})
}

type submitResponse struct {
	ID            string       `json:"id"`
	Number        int64        `json:"number"`
	Status        string       `json:"status"`
	BasePrice     int64        `json:"basePrice"`
	ComputedPrice int64        `json:"computedPrice"`
	Currency      string       `json:"currency"`
	Lines         []quote.Line `json:"lines"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if throttle(w, r, h.limit, network.GetClientIP(r), "too many submissions, try again later") {
		metrics.QuoteSubmissions.WithLabelValues("unknown", "throttled").Inc()
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	if err != nil {
		jsonutil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	sub, err := quote.DecodeSubmission(raw)
	if err != nil {
		metrics.QuoteSubmissions.WithLabelValues("unknown", "rejected").Inc()
		h.errLog.Write(w, r, "failed to decode quote", err)
		return
	}
	accepted, err := h.intake.Accept(sub)
	if err != nil {
		metrics.QuoteSubmissions.WithLabelValues(string(sub.Kind), "rejected").Inc()
		h.errLog.Write(w, r, "failed to accept quote", err)
		return
	}

	var submittedBy *primitive.ObjectID
	userID := ""
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			submittedBy = &oid
			userID = u.ID
		}
	}

	q, err := h.store.Insert(r.Context(), accepted, submittedBy)
	if err != nil {
		metrics.QuoteSubmissions.WithLabelValues(string(accepted.Kind), "error").Inc()
		h.errLog.Write(w, r, "failed to store quote", err)
		return
	}
	metrics.QuoteSubmissions.WithLabelValues(string(accepted.Kind), "ok").Inc()
	h.audit.QuoteSubmitted(r.Context(), r, userID, q.Number, q.PlanOrServiceID)
	h.logger.Info("quote submitted",
		zap.Int64("number", q.Number),
		zap.String("plan_or_service", q.PlanOrServiceID),
		zap.Int64("computed_price", q.ComputedPrice))

	h.sendNotification(q)

	jsonutil.Created(w, submitResponse{
		ID:            q.ID.Hex(),
		Number:        q.Number,
		Status:        q.Status,
		BasePrice:     q.BasePrice,
		ComputedPrice: q.ComputedPrice,
		Currency:      q.Currency,
		Lines:         accepted.Price.Lines,
	})
}

// retryAfter converts a lockout expiry into whole seconds, at least one.
func retryAfter(until *time.Time) int {
	if until == nil {
		return 60
	}
	secs := int(time.Until(*until).Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return secs
}

// sendNotification emails staff about a new quote. Failures are logged only.
func (h *Handler) sendNotification(q *models.QuoteRequest) {
	if h.notify.Mailer == nil || h.notify.To == "" {
		return
	}
	lines := make([]mailer.QuoteLine, len(q.Lines))
	for i, l := range q.Lines {
		lines[i] = mailer.QuoteLine{Option: l.Option, Choice: l.Choice, Amount: l.Amount}
	}
	subject, text, html := mailer.QuoteEmail(mailer.QuoteEmailData{
		AppName:       h.notify.AppName,
		Number:        q.Number,
		CustomerName:  q.Customer.Name,
		CustomerEmail: q.Customer.Email,
		CustomerPhone: q.Customer.Phone,
		Company:       q.Customer.Company,
		PlanOrService: q.PlanOrServiceName,
		Categories:    q.Categories,
		Lines:         lines,
		BasePrice:     q.BasePrice,
		ComputedPrice: q.ComputedPrice,
		Currency:      q.Currency,
		Message:       q.Message,
	})
	err := h.notify.Mailer.Send(mailer.Email{To: h.notify.To, ReplyTo: q.Customer.Email, Subject: subject, TextBody: text, HTMLBody: html})
	if err != nil {
		h.logger.Warn("quote notification failed", zap.Int64("number", q.Number), zap.Error(err))
	}
}

/* ---------------------------------- admin --------------------------------- */

type listResponse struct {
	Quotes []models.QuoteRequest  `json:"quotes"`
	Total  int64                  `json:"total"`
	Counts map[quote.Status]int64 `json:"counts"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f quotestore.ListFilter
	if s := q.Get("status"); s != "" {
		st, err := quote.ParseStatus(s)
		if err != nil {
			h.errLog.Write(w, r, "invalid status filter", err)
			return
		}
		f.Status = st
	}
	f.Limit, _ = strconv.ParseInt(q.Get("limit"), 10, 64)
	f.Offset, _ = strconv.ParseInt(q.Get("offset"), 10, 64)

	items, total, err := h.store.List(r.Context(), f)
	if err != nil {
		h.errLog.Write(w, r, "failed to list quotes", err)
		return
	}
	counts, err := h.store.CountByStatus(r.Context())
	if err != nil {
		h.errLog.Write(w, r, "failed to count quotes", err)
		return
	}
	jsonutil.OK(w, listResponse{Quotes: items, Total: total, Counts: counts})
}

func quoteID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "quote not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

type quoteResponse struct {
	*models.QuoteRequest
	NextStatuses []quote.Status `json:"nextStatuses"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	q, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.Write(w, r, "failed to load quote", err)
		return
	}
	jsonutil.OK(w, quoteResponse{QuoteRequest: q, NextStatuses: quote.NextStatuses(quote.Status(q.Status))})
}

type statusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := quoteID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	to, err := quote.ParseStatus(req.Status)
	if err != nil {
		h.errLog.Write(w, r, "invalid status", err)
		return
	}

	u, _ := auth.CurrentUser(r)
	before, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.Write(w, r, "failed to load quote", err)
		return
	}
	q, err := h.store.UpdateStatus(r.Context(), id, to, quotestore.Actor{ID: u.ID, Name: u.Name}, req.Note)
	metrics.QuoteTransitions.WithLabelValues(string(to), metrics.Result(err)).Inc()
	h.audit.QuoteStatusChanged(r.Context(), r, u.ID, before.Number, before.Status, string(to), err)
	if err != nil {
		h.errLog.Write(w, r, "failed to change quote status", err)
		return
	}
	h.logger.Info("quote status changed",
		zap.Int64("number", q.Number),
		zap.String("from", before.Status),
		zap.String("to", q.Status),
		zap.String("by", u.Name))
	jsonutil.OK(w, quoteResponse{QuoteRequest: q, NextStatuses: quote.NextStatuses(quote.Status(q.Status))})
}
