// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	accountfeature "github.com/dalemusser/stratasite/internal/app/features/account"
	auditlogfeature "github.com/dalemusser/stratasite/internal/app/features/auditlog"
	contactfeature "github.com/dalemusser/stratasite/internal/app/features/contact"
	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratasite/internal/app/features/health"
	pagesfeature "github.com/dalemusser/stratasite/internal/app/features/pages"
	quotesfeature "github.com/dalemusser/stratasite/internal/app/features/quotes"
	systemusersfeature "github.com/dalemusser/stratasite/internal/app/features/systemusers"
	appresources "github.com/dalemusser/stratasite/internal/app/resources"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/store/messages"
	"github.com/dalemusser/stratasite/internal/app/store/pagecache"
	pagestore "github.com/dalemusser/stratasite/internal/app/store/pages"
	quotestore "github.com/dalemusser/stratasite/internal/app/store/quotes"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/store/sessions"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/sectioneditor"
	"github.com/dalemusser/stratasite/internal/app/system/sectionrender"
	"github.com/dalemusser/stratasite/internal/domain/quote"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// estimateBudget multiplies the intake attempt limit for price estimates.
const estimateBudget = 10

// csrfExempt lists the public intake endpoints. They are posted cross-origin
// by the public site and are throttled per client IP instead.
var csrfExempt = map[string]bool{
	"/api/quotes":          true,
	"/api/quotes/estimate": true,
	"/api/contact":         true,
}

// isPublicAPI reports whether path belongs to the public JSON API, which any
// configured site origin may call.
func isPublicAPI(path string) bool {
	switch path {
	case "/api/catalog", "/api/quotes", "/api/quotes/estimate", "/api/contact":
		return true
	}
	return strings.HasPrefix(path, "/api/pages/")
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed.
//
// Route groups:
//   - public site: HTML pages plus the CORS-open JSON API (pages, catalog,
//     quotes, contact). The intake endpoints skip CSRF.
//   - account: /api/auth/* with session cookies and CSRF
//   - back office: /admin/api/* guarded by authz permissions
//   - operations: /health, probes, /metrics, /assets
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	sessionsStore := sessions.New(db)
	users := userstore.New(db)

	// Fresh user data and the server-side session record are checked on every
	// request, so role changes and closed sessions take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db, logger))
	sessionMgr.SetSessionChecker(sessionsStore)

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	// Content: Mongo is authoritative, Redis (when present) is a read cache.
	pageRepo := pagecache.New(pagestore.New(db), deps.cacheClient(), appCfg.PageCacheTTL, logger)
	// The editor reads Mongo directly so an edit never starts from a cached copy.
	editor := sectioneditor.New(pageRepo.Uncached(), logger)
	renderer, err := sectionrender.New()
	if err != nil {
		logger.Error("section renderer init failed", zap.Error(err))
		return nil, err
	}

	// Rate limiting (nil stores disable it)
	var loginLimit, intakeLimit, estimateLimit *ratelimit.Store
	if appCfg.RateLimitEnabled {
		loginLimit = ratelimit.New(db, ratelimit.ScopeLogin, ratelimit.Limits{
			MaxAttempts: appCfg.RateLimitLoginAttempts,
			Window:      appCfg.RateLimitLoginWindow,
			Lockout:     appCfg.RateLimitLoginLockout,
		})
		intakeLimit = ratelimit.New(db, ratelimit.ScopeIntake, ratelimit.Limits{
			MaxAttempts: appCfg.RateLimitIntakeAttempts,
			Window:      appCfg.RateLimitIntakeWindow,
			Lockout:     appCfg.RateLimitIntakeWindow,
		})
		// Estimates follow every option change, so they get a larger budget.
		estimateLimit = ratelimit.New(db, ratelimit.ScopeIntake, ratelimit.Limits{
			MaxAttempts: appCfg.RateLimitIntakeAttempts * estimateBudget,
			Window:      appCfg.RateLimitIntakeWindow,
			Lockout:     appCfg.RateLimitIntakeWindow,
		})
	}

	appName := appCfg.MailFromName
	if appName == "" {
		appName = "StrataSite"
	}
	mail := deps.mailSender()

	pagesHandler := pagesfeature.NewHandler(pageRepo, renderer, errLog, logger)
	pagesAdmin := pagesfeature.NewAdminHandler(editor, auditLogger, errLog, logger)

	quotesHandler := quotesfeature.NewHandler(
		quote.NewIntake(quote.DefaultCatalog()),
		quotestore.New(db),
		quotesfeature.Notify{Mailer: mail, To: appCfg.NotifyEmail, AppName: appName},
		auditLogger,
		errLog,
		logger,
	)
	quotesHandler.SetLimiter(intakeLimit)
	quotesHandler.SetEstimateLimiter(estimateLimit)

	contactHandler := contactfeature.NewHandler(
		messages.New(db),
		intakeLimit,
		contactfeature.Notify{Mailer: mail, To: appCfg.NotifyEmail, AppName: appName},
		auditLogger,
		errLog,
		logger,
	)

	accountHandler := accountfeature.NewHandler(
		users,
		sessionsStore,
		sessionMgr,
		loginLimit,
		auditLogger,
		accountfeature.Welcome{Mailer: mail, AppName: appName, LoginURL: appCfg.BaseURL + "/login"},
		appCfg.SessionMaxAge,
		errLog,
		logger,
	)

	usersHandler := systemusersfeature.NewHandler(users, sessionsStore, errLog, auditLogger, logger)
	auditHandler := auditlogfeature.NewHandler(audit.New(db), users, errLog, logger)

	// The page cache is never authoritative, so it is reported but not required.
	var cachePinger healthfeature.Pinger
	if deps.Redis != nil {
		cachePinger = pageRepo
	}
	healthHandler := healthfeature.NewHandler(logger,
		healthfeature.Dependency{Name: "mongodb", Pinger: healthfeature.Mongo(deps.MongoClient), Required: true},
		healthfeature.Dependency{Name: "redis", Pinger: cachePinger},
	)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	if appCfg.MetricsEnabled {
		r.Use(metrics.Middleware)
	}

	// CORS must be early in the chain to answer preflight requests. The public
	// API uses its own origin list; everything else uses the core config.
	publicCORS := apicors.Middleware(appCfg.PublicAPIOrigins...)
	coreCORS := middleware.CORSFromConfig(coreCfg)
	r.Use(func(next http.Handler) http.Handler {
		public, private := publicCORS(next), coreCORS(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if isPublicAPI(req.URL.Path) {
				public.ServeHTTP(w, req)
				return
			}
			private.ServeHTTP(w, req)
		})
	})

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// CSRF protection with path-based exemption for the public intake endpoints.
	// The SPA reads a token from GET /api/csrf and sends it as X-CSRF-Token.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratasite_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Forbidden(w, "CSRF token invalid or missing")
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)
	r.Use(func(next http.Handler) http.Handler {
		protected := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if csrfExempt[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			protected.ServeHTTP(w, req)
		})
	})

	// ─────────────────────────────────────────────────────────────────────────────
	// Public site
	// ─────────────────────────────────────────────────────────────────────────────

	pagesHandler.MountSite(r)

	r.Mount("/api/pages", pagesHandler.APIRoutes())
	quotesHandler.MountPublic(r)
	contactHandler.MountPublic(r)

	// ─────────────────────────────────────────────────────────────────────────────
	// Accounts
	// ─────────────────────────────────────────────────────────────────────────────

	r.Mount("/api/auth", accountHandler.Routes())
	r.Get("/api/csrf", accountHandler.CSRFToken)

	// ─────────────────────────────────────────────────────────────────────────────
	// Back office
	// ─────────────────────────────────────────────────────────────────────────────

	r.Route("/admin/api", func(ar chi.Router) {
		ar.Mount("/pages", pagesAdmin.Routes())
		ar.Mount("/quotes", quotesHandler.AdminRoutes())
		ar.Mount("/messages", contactHandler.AdminRoutes())
		ar.Mount("/users", usersHandler.Routes())
		ar.Mount("/audit", auditHandler.Routes())
	})

	// ─────────────────────────────────────────────────────────────────────────────
	// Operations
	// ─────────────────────────────────────────────────────────────────────────────

	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	if appCfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	// /assets/* serves the embedded stylesheet used by rendered pages.
	r.Handle("/assets/*", appresources.AssetsHandler("/assets"))

	// 404 / 405 catch-all for unmatched routes
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}
