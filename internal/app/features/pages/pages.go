// internal/app/features/pages/pages.go
package pages

import (
	"net/http"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/sectionrender"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves stored pages to the public site: rendered HTML documents
// and the page JSON the front end reads.
type Handler struct {
	repo     content.Repository
	renderer *sectionrender.Renderer
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a new pages Handler. repo is usually the cached page
// repository.
func NewHandler(repo content.Repository, renderer *sectionrender.Renderer, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	return &Handler{
		repo:     repo,
		renderer: renderer,
		errLog:   errLog,
		logger:   logger,
	}
}

// APIRoutes returns the public page API. When mounted at /api/pages:
//   - GET /api/pages/{page}          page JSON
//   - GET /api/pages/{page}/rendered rendered sections plus skipped ones
func (h *Handler) APIRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/{page}", h.getPage)
	r.Get("/{page}/rendered", h.getRendered)
	return r
}

// MountSite adds the HTML routes for the four public pages.
func (h *Handler) MountSite(r chi.Router) {
	r.Get("/", h.showPage(content.PageHome))
	r.Get("/about", h.showPage(content.PageAbout))
	r.Get("/services", h.showPage(content.PageServices))
	r.Get("/contact", h.showPage(content.PageContact))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (content.PageContent, bool) {
	name, err := content.ParsePageName(chi.URLParam(r, "page"))
	if err != nil {
		jsonutil.NotFound(w, "unknown page")
		return content.PageContent{}, false
	}
	p, err := h.repo.Get(r.Context(), name)
	if err != nil {
		h.errLog.Write(w, r, "failed to load page", err)
		return content.PageContent{}, false
	}
	return p, true
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	jsonutil.OK(w, p)
}

func (h *Handler) getRendered(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	res := h.renderer.RenderPage(p)
	h.observeSkipped(p.PageName, res)
	jsonutil.OK(w, res)
}

// showPage renders a full HTML document for one page.
func (h *Handler) showPage(name content.PageName) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.repo.Get(r.Context(), name)
		if err != nil {
			h.errLog.Write(w, r, "failed to load page", err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		res, err := h.renderer.Document(w, p)
		if err != nil {
			h.errLog.Log(r, "failed to render page", err)
			return
		}
		h.observeSkipped(name, res)
	}
}

func (h *Handler) observeSkipped(name content.PageName, res sectionrender.Result) {
	for _, s := range res.Skipped {
		metrics.SectionsSkipped.WithLabelValues(string(s.Type)).Inc()
		h.logger.Debug("section skipped",
			zap.String("page", string(name)),
			zap.String("section_id", s.ID),
			zap.String("reason", s.Reason),
			zap.Strings("fields", s.Fields))
	}
}
