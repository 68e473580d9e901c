// Package contact receives messages from the public contact form and lets
// staff work through them.
package contact

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/store/messages"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authz"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Notify configures the staff email sent for each message.
type Notify struct {
	Mailer  mailer.Sender
	To      string
	AppName string
}

type Handler struct {
	store  *messages.Store
	limit  *ratelimit.Store
	notify Notify
	audit  *auditlog.Logger
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

func NewHandler(store *messages.Store, limit *ratelimit.Store, notify Notify, auditLog *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	return &Handler{
		store:  store,
		limit:  limit,
		notify: notify,
		audit:  auditLog,
		errLog: errLog,
		logger: logger,
	}
}

// MountPublic adds POST /api/contact to r.
func (h *Handler) MountPublic(r chi.Router) {
	r.Post("/api/contact", h.submit)
}

// AdminRoutes returns the message inbox. When mounted at /admin/api/messages:
//   - GET    /           list, ?unread=true for unread only
//   - POST   /{id}/read  mark read
//   - DELETE /{id}       delete
func (h *Handler) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(authz.RequirePermission(authz.MessagesManage))
	r.Get("/", h.list)
	r.Post("/{id}/read", h.markRead)
	r.Delete("/{id}", h.remove)
	return r
}

type submitInput struct {
	Name    string `json:"name" validate:"required,max=200" label:"Ad"`
	Email   string `json:"email" validate:"required,email,max=254" label:"E-posta"`
	Phone   string `json:"phone" validate:"max=40,phone" label:"Telefon"`
	Subject string `json:"subject" validate:"max=200" label:"Konu"`
	Body    string `json:"body" validate:"required,max=5000" label:"Mesaj"`
}

// decodeInput accepts JSON or a plain HTML form post.
func decodeInput(r *http.Request) (submitInput, error) {
	var in submitInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return in, err
		}
		in.Name = r.PostFormValue("name")
		in.Email = r.PostFormValue("email")
		in.Phone = r.PostFormValue("phone")
		in.Subject = r.PostFormValue("subject")
		in.Body = r.PostFormValue("body")
		return in, nil
	}
	err := jsonutil.Decode(r, &in)
	return in, err
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ip := network.GetClientIP(r)
	if h.limit != nil {
		if ok, _, until := h.limit.CheckAllowed(r.Context(), ip); !ok {
			secs := 60
			if until != nil {
				secs = int(time.Until(*until).Seconds()) + 1
			}
			jsonutil.TooManyRequests(w, "too many messages, try again later", secs)
			return
		}
		// Rejected messages count too.
		h.limit.Record(r.Context(), ip)
	}

	in, err := decodeInput(r)
	if err != nil {
		jsonutil.BadRequest(w, "invalid request body")
		return
	}
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	in.Phone = normalize.Phone(in.Phone)
	in.Subject = htmlsanitize.PlainText(in.Subject)
	in.Body = htmlsanitize.PlainText(in.Body)

	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.FieldErrors(w, "invalid message", res.FieldErrors())
		return
	}

	m, err := h.store.Create(r.Context(), messages.CreateInput{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Subject: in.Subject,
		Body:    in.Body,
	})
	if err != nil {
		h.errLog.Write(w, r, "failed to store message", err)
		return
	}
	h.logger.Info("contact message received", zap.String("message_id", m.ID.Hex()))

	if h.notify.Mailer != nil && h.notify.To != "" {
		subject, text := mailer.ContactEmail(mailer.ContactEmailData{
			AppName: h.notify.AppName,
			Name:    m.Name,
			Email:   m.Email,
			Phone:   m.Phone,
			Subject: m.Subject,
			Body:    m.Body,
		})
		if err := h.notify.Mailer.Send(mailer.Email{To: h.notify.To, ReplyTo: m.Email, Subject: subject, TextBody: text}); err != nil {
			h.logger.Warn("contact notification failed", zap.String("message_id", m.ID.Hex()), zap.Error(err))
		}
	}

	jsonutil.Created(w, map[string]string{"id": m.ID.Hex()})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	items, err := h.store.List(r.Context(), unread, limit)
	if err != nil {
		h.errLog.Write(w, r, "failed to list messages", err)
		return
	}
	n, err := h.store.CountUnread(r.Context())
	if err != nil {
		h.errLog.Write(w, r, "failed to count messages", err)
		return
	}
	jsonutil.OK(w, map[string]any{"messages": items, "unread": n})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, audit.EventMessageRead, h.store.MarkRead)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, audit.EventMessageGone, h.store.Delete)
}

// act runs a store operation on {id} and records it.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, event string, op func(context.Context, primitive.ObjectID) error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "message not found")
		return
	}
	if err := op(r.Context(), id); err != nil {
		if errors.Is(err, messages.ErrNotFound) {
			jsonutil.NotFound(w, "message not found")
			return
		}
		h.errLog.Write(w, r, "failed to update message", err)
		return
	}
	actorID := ""
	if u, ok := auth.CurrentUser(r); ok {
		actorID = u.ID
	}
	h.audit.MessageHandled(r.Context(), r, actorID, event, id.Hex())
	jsonutil.NoContent(w)
}
