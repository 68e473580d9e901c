// internal/app/features/systemusers/systemusers.go
package systemusers

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The email address users type to log in

import (
	"errors"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/store/sessions"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/app/system/authz"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/status"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides user management for admins.
type Handler struct {
	userStore     *userstore.Store
	sessionsStore *sessions.Store
	errLog        *errorsfeature.ErrorLogger
	auditLogger   *auditlog.Logger
	logger        *zap.Logger
}

// NewHandler creates a new system users Handler.
func NewHandler(
	userStore *userstore.Store,
	sessionsStore *sessions.Store,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	return &Handler{
		userStore:     userStore,
		sessionsStore: sessionsStore,
		errLog:        errLog,
		auditLogger:   auditLogger,
		logger:        logger,
	}
}

// Routes returns the users API. When mounted at /admin/api/users:
//   - GET    /                      list, filtered by ?role ?status ?q
//   - POST   /                      create a staff account
//   - GET    /{id}                  one user
//   - PATCH  /{id}                  change role or status
//   - POST   /{id}/reset-password   set a new password
//   - DELETE /{id}                  delete
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(authz.RequirePermission(authz.UsersManage))

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/reset-password", h.resetPassword)
	r.Delete("/{id}", h.delete)
	return r
}

var (
	errSelf      = errors.New("admins cannot disable, demote or delete themselves")
	errLastAdmin = errors.New("the last active admin cannot be disabled, demoted or deleted")
)

type listResponse struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

type createRequest struct {
	Name     string `json:"name" validate:"required,max=200" label:"Ad"`
	Email    string `json:"email" validate:"required,email,max=254" label:"E-posta"`
	Role     string `json:"role" validate:"required,role" label:"Rol"`
	Password string `json:"password" validate:"required" label:"Parola"`
}

type updateRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(q.Get("offset"), 10, 64)

	users, total, err := h.userStore.List(r.Context(), userstore.ListFilter{
		Role:   q.Get("role"),
		Status: q.Get("status"),
		Search: q.Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.errLog.Write(w, r, "failed to list users", err)
		return
	}
	jsonutil.OK(w, listResponse{Users: users, Total: total})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)

	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid request body")
		return
	}
	req.Name = normalize.Name(req.Name)
	req.Email = normalize.Email(req.Email)
	req.Role = normalize.Role(req.Role)

	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.FieldErrors(w, "invalid user", res.FieldErrors())
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		jsonutil.FieldErrors(w, "invalid user", []jsonutil.FieldError{{Field: "password", Reason: err.Error()}})
		return
	}
	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.errLog.Write(w, r, "failed to hash password", err)
		return
	}

	u, err := h.userStore.Create(r.Context(), userstore.CreateInput{
		FullName:     req.Name,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateLoginID) {
			jsonutil.Conflict(w, err.Error())
			return
		}
		h.errLog.Write(w, r, "failed to create user", err)
		return
	}

	h.auditLogger.UserUpdated(r.Context(), r, actor.ID, u.ID, audit.EventUserCreated, map[string]string{"role": u.Role})
	jsonutil.Created(w, u)
}

// load resolves {id}. It writes the response and returns nil when the user
// cannot be loaded.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) *models.User {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "user not found")
		return nil
	}
	u, err := h.userStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "user not found")
			return nil
		}
		h.errLog.Write(w, r, "failed to load user", err)
		return nil
	}
	return u
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	if u := h.load(w, r); u != nil {
		jsonutil.OK(w, u)
	}
}

// guardAdmin refuses changes that would remove admin access from the actor
// or from the last active admin.
func (h *Handler) guardAdmin(w http.ResponseWriter, r *http.Request, actor *auth.SessionUser, target *models.User) bool {
	if actor.UserID() == target.ID {
		jsonutil.Conflict(w, errSelf.Error())
		return false
	}
	if target.Role != models.RoleAdmin || target.Status != status.Active {
		return true
	}
	n, err := h.userStore.CountActiveAdmins(r.Context())
	if err != nil {
		h.errLog.Write(w, r, "failed to count admins", err)
		return false
	}
	if n <= 1 {
		jsonutil.Conflict(w, errLastAdmin.Error())
		return false
	}
	return true
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	target := h.load(w, r)
	if target == nil {
		return
	}

	var req updateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid request body")
		return
	}
	in := userstore.UpdateInput{}
	details := map[string]string{}
	if req.Role != nil {
		role := normalize.Role(*req.Role)
		if !models.IsValidRole(role) {
			jsonutil.BadRequest(w, "invalid role")
			return
		}
		if role != target.Role {
			in.Role = &role
			details["role"] = target.Role + " -> " + role
		}
	}
	if req.Status != nil {
		st := normalize.Status(*req.Status)
		if !status.IsValid(st) {
			jsonutil.BadRequest(w, "invalid status")
			return
		}
		if st != target.Status {
			in.Status = &st
		}
	}
	if in.Role == nil && in.Status == nil {
		jsonutil.OK(w, target)
		return
	}

	demoted := in.Role != nil && target.Role == models.RoleAdmin
	disabled := in.Status != nil && *in.Status == status.Disabled
	if (demoted || disabled) && !h.guardAdmin(w, r, actor, target) {
		return
	}

	if err := h.userStore.Update(r.Context(), target.ID, in); err != nil {
		h.errLog.Write(w, r, "failed to update user", err)
		return
	}

	if in.Role != nil {
		h.auditLogger.UserUpdated(r.Context(), r, actor.ID, target.ID, audit.EventUserUpdated, details)
	}
	if in.Status != nil {
		event := audit.EventUserEnabled
		if *in.Status == status.Disabled {
			event = audit.EventUserDisabled
		}
		h.auditLogger.UserUpdated(r.Context(), r, actor.ID, target.ID, event, nil)
	}
	h.closeSessions(r, target.ID)

	updated, err := h.userStore.GetByID(r.Context(), target.ID)
	if err != nil {
		h.errLog.Write(w, r, "failed to reload user", err)
		return
	}
	jsonutil.OK(w, updated)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	target := h.load(w, r)
	if target == nil {
		return
	}

	var req passwordRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid request body")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		jsonutil.FieldErrors(w, "invalid password", []jsonutil.FieldError{{Field: "password", Reason: err.Error()}})
		return
	}
	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.errLog.Write(w, r, "failed to hash password", err)
		return
	}
	if err := h.userStore.SetPassword(r.Context(), target.ID, hash); err != nil {
		h.errLog.Write(w, r, "failed to reset password", err)
		return
	}

	h.auditLogger.UserUpdated(r.Context(), r, actor.ID, target.ID, audit.EventUserPasswordReset, nil)
	h.closeSessions(r, target.ID)
	jsonutil.NoContent(w)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.CurrentUser(r)
	target := h.load(w, r)
	if target == nil {
		return
	}
	if !h.guardAdmin(w, r, actor, target) {
		return
	}

	if _, err := h.userStore.Delete(r.Context(), target.ID); err != nil {
		h.errLog.Write(w, r, "failed to delete user", err)
		return
	}

	h.auditLogger.UserUpdated(r.Context(), r, actor.ID, target.ID, audit.EventUserDeleted, nil)
	h.closeSessions(r, target.ID)
	jsonutil.NoContent(w)
}

// closeSessions signs the user out everywhere so the change applies at once.
func (h *Handler) closeSessions(r *http.Request, userID primitive.ObjectID) {
	if h.sessionsStore == nil {
		return
	}
	n, err := h.sessionsStore.CloseByUser(r.Context(), userID, sessions.EndReasonAccountChanged)
	if err != nil {
		h.logger.Warn("failed to close sessions", zap.String("user_id", userID.Hex()), zap.Error(err))
		return
	}
	if n > 0 {
		h.logger.Info("closed sessions after account change",
			zap.String("user_id", userID.Hex()), zap.Int64("count", n))
	}
}
