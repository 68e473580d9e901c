// internal/app/features/account/account.go
package account

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The email address users type to log in

import (
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/store/sessions"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/app/system/authz"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/status"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Welcome configures the email sent after registration. A nil Mailer
// disables it.
type Welcome struct {
	Mailer   mailer.Sender
	AppName  string
	LoginURL string
}

// Handler serves the signed-in account API.
type Handler struct {
	users      *userstore.Store
	sessions   *sessions.Store
	sessionMgr *auth.SessionManager
	limit      *ratelimit.Store
	audit      *auditlog.Logger
	welcome    Welcome
	sessionTTL time.Duration
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates an account Handler. limit may be nil to disable login
// throttling.
func NewHandler(
	users *userstore.Store,
	sessionsStore *sessions.Store,
	sessionMgr *auth.SessionManager,
	limit *ratelimit.Store,
	auditLog *auditlog.Logger,
	welcome Welcome,
	sessionTTL time.Duration,
	errLog *errorsfeature.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Handler{
		users:      users,
		sessions:   sessionsStore,
		sessionMgr: sessionMgr,
		limit:      limit,
		audit:      auditLog,
		welcome:    welcome,
		sessionTTL: sessionTTL,
		errLog:     errLog,
		logger:     logger,
	}
}

// Routes returns the account API. When mounted at /api/auth:
//   - POST /register  create a customer account and sign in
//   - POST /login     sign in with email and password
//   - POST /logout    close the current session
//   - GET  /me        the signed-in user and their permissions
//   - PUT  /profile   change name or password
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
	r.Group(func(r chi.Router) {
		r.Use(h.sessionMgr.RequireSignedIn)
		r.Get("/me", h.me)
		r.Put("/profile", h.updateProfile)
	})
	return r
}

// CSRFToken returns the token browser clients send back in X-CSRF-Token.
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, map[string]string{"token": csrf.Token(r)})
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=200" label:"Ad"`
	Email    string `json:"email" validate:"required,email,max=254" label:"E-posta"`
	Password string `json:"password" validate:"required" label:"Parola"`
	Phone    string `json:"phone" validate:"max=40,phone" label:"Telefon"`
	Company  string `json:"company" validate:"max=200" label:"Firma"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	Company         *string `json:"company"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}

type accountResponse struct {
	User        *auth.SessionUser  `json:"user"`
	Permissions []authz.Permission `json:"permissions,omitempty"`
}

func sessionUser(u *models.User, token string) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Role:  u.Role,
		Token: token,
	}
	if u.LoginID != nil {
		su.LoginID = *u.LoginID
	}
	return su
}

func validationFailed(w http.ResponseWriter, res *inputval.Result) {
	jsonutil.FieldErrors(w, "invalid account details", res.FieldErrors())
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid request body")
		return
	}
	req.Name = normalize.Name(req.Name)
	req.Email = normalize.Email(req.Email)

	if res := inputval.Validate(req); res.HasErrors() {
		validationFailed(w, res)
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		jsonutil.FieldErrors(w, "invalid account details", []jsonutil.FieldError{{Field: "password", Reason: err.Error()}})
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.errLog.Write(w, r, "failed to hash password", err)
		return
	}
	u, err := h.users.Create(r.Context(), userstore.CreateInput{
		FullName:     req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Company:      req.Company,
		Role:         models.RoleUser,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateLoginID) {
			jsonutil.Conflict(w, "an account with this email already exists")
			return
		}
		h.errLog.Write(w, r, "failed to create user", err)
		return
	}
	h.audit.Registered(r.Context(), r, u.ID, req.Email)
	h.logger.Info("account registered", zap.String("user_id", u.ID.Hex()))

	if h.welcome.Mailer != nil {
		subject, text := mailer.WelcomeEmail(mailer.WelcomeEmailData{
			AppName:  h.welcome.AppName,
			UserName: u.FullName,
			LoginURL: h.welcome.LoginURL,
		})
		if err := h.welcome.Mailer.Send(mailer.Email{To: req.Email, Subject: subject, TextBody: text}); err != nil {
			h.logger.Warn("welcome email failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
	}

	token, err := h.startSession(w, r, &u)
	if err != nil {
		h.errLog.Write(w, r, "failed to create session", err)
		return
	}
	jsonutil.Created(w, accountResponse{User: sessionUser(&u, token)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid request body")
		return
	}
	loginID := normalize.Email(req.Email)
	if loginID == "" || req.Password == "" {
		jsonutil.BadRequest(w, "email and password are required")
		return
	}

	if h.limit != nil {
		if ok, _, until := h.limit.CheckAllowed(r.Context(), loginID); !ok {
			h.audit.LoginFailed(r.Context(), r, nil, audit.EventLoginLockedOut, loginID, "locked out")
			metrics.Logins.WithLabelValues("locked").Inc()
			jsonutil.TooManyRequests(w, "too many failed sign-in attempts, try again later", retryAfter(until))
			return
		}
	}

	u, err := h.users.GetByLoginID(r.Context(), loginID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.recordFailure(r, loginID)
			h.audit.LoginFailed(r.Context(), r, nil, audit.EventLoginFailedUserNotFound, loginID, "user not found")
			metrics.Logins.WithLabelValues("invalid").Inc()
			jsonutil.Unauthorized(w, "invalid credentials")
			return
		}
		h.errLog.Write(w, r, "database error during login lookup", err)
		return
	}

	if u.Status != status.Active {
		h.recordFailure(r, loginID)
		h.audit.LoginFailed(r.Context(), r, &u.ID, audit.EventLoginFailedUserDisabled, loginID, "user disabled")
		metrics.Logins.WithLabelValues("disabled").Inc()
		jsonutil.Forbidden(w, "account is disabled")
		return
	}

	if u.PasswordHash == nil || !authutil.CheckPassword(req.Password, *u.PasswordHash) {
		if locked, until := h.recordFailure(r, loginID); locked {
			h.audit.LoginFailed(r.Context(), r, &u.ID, audit.EventLoginLockedOut, loginID, "too many failed attempts")
			metrics.Logins.WithLabelValues("locked").Inc()
			jsonutil.TooManyRequests(w, "too many failed sign-in attempts, try again later", retryAfter(until))
			return
		}
		h.audit.LoginFailed(r.Context(), r, &u.ID, audit.EventLoginFailedWrongPassword, loginID, "wrong password")
		metrics.Logins.WithLabelValues("invalid").Inc()
		jsonutil.Unauthorized(w, "invalid credentials")
		return
	}

	if h.limit != nil {
		_ = h.limit.Clear(r.Context(), loginID)
	}

	token, err := h.startSession(w, r, u)
	if err != nil {
		h.errLog.Write(w, r, "failed to create session", err)
		return
	}
	if err := h.users.TouchLastLogin(r.Context(), u.ID); err != nil {
		h.logger.Warn("failed to record last login", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	h.audit.LoginSuccess(r.Context(), r, u.ID, loginID)
	metrics.Logins.WithLabelValues("ok").Inc()

	jsonutil.OK(w, accountResponse{User: sessionUser(u, token)})
}

func (h *Handler) recordFailure(r *http.Request, loginID string) (bool, *time.Time) {
	if h.limit == nil {
		return false, nil
	}
	return h.limit.Record(r.Context(), loginID)
}

func retryAfter(until *time.Time) int {
	if until == nil {
		return 60
	}
	return int(time.Until(*until).Seconds()) + 1
}

// startSession records a server-side session and sets the cookie that
// carries its token.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *models.User) (string, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", err
	}
	err = h.sessions.Create(r.Context(), sessions.Session{
		Token:     token,
		UserID:    u.ID,
		IPAddress: network.GetClientIP(r),
		UserAgent: r.UserAgent(),
		ExpiresAt: time.Now().Add(h.sessionTTL),
	})
	if err != nil {
		return "", err
	}
	if err := h.sessionMgr.CreateSession(w, r, u.ID, u.Role, token); err != nil {
		return "", err
	}
	return token, nil
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.audit.Logout(r.Context(), r, u.ID)
		if token := u.SessionToken(); token != "" {
			if err := h.sessions.Close(r.Context(), token, sessions.EndReasonLogout); err != nil {
				h.logger.Warn("failed to close session in store", zap.Error(err))
			}
		}
	}
	h.sessionMgr.DestroySession(w, r)
	jsonutil.NoContent(w)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	jsonutil.OK(w, accountResponse{User: u, Permissions: authz.Permissions(u.Role)})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	var req profileRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid request body")
		return
	}

	u, err := h.users.GetByID(r.Context(), su.UserID())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "user not found")
			return
		}
		h.errLog.Write(w, r, "failed to load user", err)
		return
	}

	in := userstore.UpdateInput{Phone: req.Phone, Company: req.Company}
	if req.Name != nil {
		name := normalize.Name(*req.Name)
		if name == "" {
			jsonutil.FieldErrors(w, "invalid account details", []jsonutil.FieldError{{Field: "name", Reason: "Ad gerekli"}})
			return
		}
		in.FullName = &name
	}

	passwordChanged := false
	if req.NewPassword != "" {
		if u.PasswordHash == nil || !authutil.CheckPassword(req.CurrentPassword, *u.PasswordHash) {
			jsonutil.FieldErrors(w, "invalid account details", []jsonutil.FieldError{{Field: "currentPassword", Reason: "current password is incorrect"}})
			return
		}
		if err := authutil.ValidatePassword(req.NewPassword); err != nil {
			jsonutil.FieldErrors(w, "invalid account details", []jsonutil.FieldError{{Field: "newPassword", Reason: err.Error()}})
			return
		}
		hash, err := authutil.HashPassword(req.NewPassword)
		if err != nil {
			h.errLog.Write(w, r, "failed to hash password", err)
			return
		}
		in.PasswordHash = &hash
		passwordChanged = true
	}

	if err := h.users.Update(r.Context(), u.ID, in); err != nil {
		h.errLog.Write(w, r, "failed to update profile", err)
		return
	}

	if passwordChanged {
		h.audit.PasswordChanged(r.Context(), r, u.ID)
		n, err := h.sessions.CloseByUserExcept(r.Context(), u.ID, su.SessionToken(), sessions.EndReasonPasswordChanged)
		if err != nil {
			h.logger.Warn("failed to close other sessions", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		} else if n > 0 {
			h.logger.Info("closed other sessions after password change",
				zap.String("user_id", u.ID.Hex()), zap.Int64("count", n))
		}
	}

	updated, err := h.users.GetByID(r.Context(), u.ID)
	if err != nil {
		h.errLog.Write(w, r, "failed to reload user", err)
		return
	}
	jsonutil.OK(w, accountResponse{User: sessionUser(updated, su.SessionToken())})
}
