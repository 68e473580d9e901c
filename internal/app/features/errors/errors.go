// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/sectioneditor"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/dalemusser/stratasite/internal/domain/quote"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.logger.Error(msg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, allFields...)
}

// retryAfterSeconds is the hint sent with 503 responses.
const retryAfterSeconds = 5

// Write maps a domain error to its JSON response. Errors it does not
// recognise are logged under msg and answered with a bare 500.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if fields := content.FieldErrors(err); fields != nil {
		out := make([]jsonutil.FieldError, len(fields))
		for i, fe := range fields {
			out[i] = jsonutil.FieldError{Field: fe.Field, Reason: fe.Reason}
		}
		jsonutil.FieldErrors(w, "validation failed", out)
		return
	}
	var incomplete *quote.IncompleteError
	if stderrors.As(err, &incomplete) {
		out := make([]jsonutil.FieldError, len(incomplete.Missing))
		for i, fe := range incomplete.Missing {
			out[i] = jsonutil.FieldError{Field: fe.Field, Reason: fe.Reason}
		}
		jsonutil.FieldErrors(w, "incomplete quote", out)
		return
	}

	switch {
	case stderrors.Is(err, sectioneditor.ErrForbidden):
		jsonutil.Forbidden(w, "forbidden")
	case stderrors.Is(err, content.ErrNotFound), stderrors.Is(err, quote.ErrNotFound):
		jsonutil.NotFound(w, "not found")
	case stderrors.Is(err, content.ErrDuplicatePage):
		jsonutil.Conflict(w, "page already exists")
	case stderrors.Is(err, content.ErrDuplicateSection):
		jsonutil.Conflict(w, "section id already in use")
	case stderrors.Is(err, quote.ErrInvalidStatusTransition):
		jsonutil.Conflict(w, err.Error())
	case stderrors.Is(err, content.ErrInvalidPageName),
		stderrors.Is(err, content.ErrInvalidSectionType),
		stderrors.Is(err, quote.ErrUnknownStatus),
		stderrors.Is(err, quote.ErrUnknownOption):
		jsonutil.BadRequest(w, err.Error())
	case stderrors.Is(err, content.ErrRepositoryUnavailable):
		e.LogWithFields(r, msg, err, zap.Bool("unavailable", true))
		jsonutil.Unavailable(w, "content storage is unavailable, try again shortly", retryAfterSeconds)
	default:
		e.Log(r, msg, err)
		jsonutil.InternalError(w, "internal error")
	}
}

// Handler answers requests no route matched.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound writes a JSON 404.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "no route for "+r.URL.Path)
}

// MethodNotAllowed writes a JSON 405.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
}
