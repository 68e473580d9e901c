// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework settings (ports, TLS, logging, CORS, body limits); everything
// specific to the site lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: stratasite-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session lifetime (default: 24h)
	SessionIdle   time.Duration // Sessions idle this long are closed (default: 30m)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// Page cache (Redis). A blank address disables the cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PageCacheTTL  time.Duration // How long a cached page stays valid (default: 5m)

	// Origins allowed to read the public JSON API from a browser.
	// Empty means any origin.
	PublicAPIOrigins []string

	// Email/SMTP configuration. A blank host disables outgoing mail.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// NotifyEmail receives quote request and contact message notifications.
	NotifyEmail string

	// Base URL used in email links
	BaseURL string

	// Login rate limiting (per email)
	RateLimitEnabled       bool
	RateLimitLoginAttempts int
	RateLimitLoginWindow   time.Duration
	RateLimitLoginLockout  time.Duration

	// Quote and contact intake rate limiting (per client IP)
	RateLimitIntakeAttempts int
	RateLimitIntakeWindow   time.Duration

	// Audit logging configuration
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogAuth  string // Authentication events (login, logout, register, password)
	AuditLogAdmin string // Back-office events (users, messages, content, quotes)

	// Seeding
	SeedAdminEmail     string // Email of the admin user to create on startup (if set)
	SeedAdminName      string // Name of the admin user to create on startup
	SeedAdminPassword  string // Initial password for the seeded admin
	SeedDefaultContent bool   // Seed the four pages with starter content when missing

	// Observability
	MetricsEnabled bool // Serve Prometheus metrics on /metrics

	// Handler timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
}
