package pages

import (
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/audit"
	"github.com/dalemusser/stratasite/internal/app/system/auditlog"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authz"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/sectioneditor"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler exposes the section editor to signed-in staff.
type AdminHandler struct {
	editor *sectioneditor.Editor
	audit  *auditlog.Logger
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

func NewAdminHandler(editor *sectioneditor.Editor, auditLog *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *AdminHandler {
	if errLog == nil {
		errLog = errorsfeature.NewErrorLogger(logger)
	}
	return &AdminHandler{editor: editor, audit: auditLog, errLog: errLog, logger: logger}
}

// Routes returns the editing API. When mounted at /admin/api/pages:
//
//	GET    /                                       list pages
//	POST   /                                       create page
//	GET    /{page}                                 page
//	PATCH  /{page}                                 title and SEO metadata
//	DELETE /{page}                                 delete page
//	POST   /{page}/sections                        add section
//	GET    /{page}/sections/{id}/form              edit form
//	PATCH  /{page}/sections/{id}                   update fields
//	POST   /{page}/sections/{id}/move              reorder
//	DELETE /{page}/sections/{id}                   remove section
//	POST   /{page}/sections/{id}/items/{field}     add list item
//	DELETE /{page}/sections/{id}/items/{field}/{i} remove list item
//	POST   /{page}/sections/{id}/items/{field}/move move list item
//
// Permission checks happen in the editor; the route guard only requires a
// role that can read content.
func (h *AdminHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(authz.RequirePermission(authz.ContentRead))

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{page}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Patch("/", h.updateMeta)
		r.Delete("/", h.deletePage)
		r.Post("/sections", h.addSection)
		r.Route("/sections/{id}", func(r chi.Router) {
			r.Get("/form", h.form)
			r.Patch("/", h.updateFields)
			r.Delete("/", h.removeSection)
			r.Post("/move", h.move)
			r.Post("/items/{field}", h.addItem)
			r.Post("/items/{field}/move", h.moveItem)
			r.Delete("/items/{field}/{index}", h.removeItem)
		})
	})
	return r
}

func actor(r *http.Request) sectioneditor.Actor {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return sectioneditor.Actor{}
	}
	return sectioneditor.Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

// pageName reads {page}. Unknown names are reported by the editor.
func pageName(r *http.Request) content.PageName {
	return content.PageName(chi.URLParam(r, "page"))
}

func (h *AdminHandler) record(r *http.Request, event, sectionID string, err error) {
	h.audit.ContentEdited(r.Context(), r, actor(r).ID, event, chi.URLParam(r, "page"), sectionID, err)
}

func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request) {
	pages, err := h.editor.List(r.Context(), actor(r))
	if err != nil {
		h.errLog.Write(w, r, "failed to list pages", err)
		return
	}
	jsonutil.OK(w, map[string]any{"pages": pages})
}

type createRequest struct {
	PageName        string   `json:"pageName"`
	Title           string   `json:"pageTitle"`
	MetaDescription string   `json:"metaDescription"`
	MetaKeywords    []string `json:"metaKeywords"`
}

func (h *AdminHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	p, err := h.editor.CreatePage(r.Context(), actor(r), content.PageName(req.PageName), req.Title, req.MetaDescription, req.MetaKeywords)
	h.audit.ContentEdited(r.Context(), r, actor(r).ID, audit.EventPageCreated, req.PageName, "", err)
	if err != nil {
		h.errLog.Write(w, r, "failed to create page", err)
		return
	}
	jsonutil.Created(w, p)
}

func (h *AdminHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.editor.Get(r.Context(), actor(r), pageName(r))
	if err != nil {
		h.errLog.Write(w, r, "failed to load page", err)
		return
	}
	jsonutil.OK(w, p)
}

type metaRequest struct {
	Title           *string   `json:"pageTitle"`
	MetaDescription *string   `json:"metaDescription"`
	MetaKeywords    *[]string `json:"metaKeywords"`
}

func (h *AdminHandler) updateMeta(w http.ResponseWriter, r *http.Request) {
	var req metaRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	p, err := h.editor.UpdateMeta(r.Context(), actor(r), pageName(r), content.UpdateMeta{
		Title:           req.Title,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
	})
	h.record(r, audit.EventPageMetaEdited, "", err)
	if err != nil {
		h.errLog.Write(w, r, "failed to update page", err)
		return
	}
	jsonutil.OK(w, p)
}

func (h *AdminHandler) deletePage(w http.ResponseWriter, r *http.Request) {
	err := h.editor.DeletePage(r.Context(), actor(r), pageName(r))
	h.record(r, audit.EventPageDeleted, "", err)
	if err != nil {
		h.errLog.Write(w, r, "failed to delete page", err)
		return
	}
	jsonutil.NoContent(w)
}

type sectionRequest struct {
	Type   string         `json:"type"`
	Fields content.Fields `json:"fields"`
}

func (h *AdminHandler) addSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	p, s, err := h.editor.AddSection(r.Context(), actor(r), pageName(r), content.SectionType(req.Type), req.Fields)
	h.record(r, audit.EventSectionAdded, s.ID, err)
	if err != nil {
		h.errLog.Write(w, r, "failed to add section", err)
		return
	}
	jsonutil.Created(w, map[string]any{"page": p, "section": s})
}

func (h *AdminHandler) form(w http.ResponseWriter, r *http.Request) {
	f, err := h.editor.Form(r.Context(), actor(r), pageName(r), chi.URLParam(r, "id"))
	if err != nil {
		h.errLog.Write(w, r, "failed to build form", err)
		return
	}
	jsonutil.OK(w, f)
}

type fieldsRequest struct {
	Fields content.Fields `json:"fields"`
}

func (h *AdminHandler) updateFields(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.editor.UpdateFields(r.Context(), actor(r), pageName(r), id, req.Fields)
	h.record(r, audit.EventSectionEdited, id, err)
	if err != nil {
		h.errLog.Write(w, r, "failed to update section", err)
		return
	}
	jsonutil.OK(w, p)
}

type moveRequest struct {
	Order int `json:"order"`
}

func (h *AdminHandler) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.editor.Move(r.Context(), actor(r), pageName(r), id, req.Order)
	h.record(r, audit.EventSectionMoved, id, err)
	if err != nil {
		h.errLog.Write(w, r, "failed to move section", err)
		return
	}
	jsonutil.OK(w, p)
}

func (h *AdminHandler) removeSection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.editor.Remove(r.Context(), actor(r), pageName(r), id)
	h.record(r, audit.EventSectionRemoved, id, err)
	if err != nil {
		h.errLog.Write(w, r, "failed to remove section", err)
		return
	}
	jsonutil.OK(w, p)
}

type itemRequest struct {
	Item content.Item `json:"item"`
	At   *int         `json:"at"`
}

func (h *AdminHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	at := -1
	if req.At != nil {
		at = *req.At
	}
	id := chi.URLParam(r, "id")
	p, err := h.editor.AddItem(r.Context(), actor(r), pageName(r), id, chi.URLParam(r, "field"), req.Item, at)
	h.record(r, audit.EventItemsEdited, id, err)
	if err != nil {
		h.errLog.Write(w, r, "failed to add item", err)
		return
	}
	jsonutil.OK(w, p)
}

func (h *AdminHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonutil.BadRequest(w, "invalid item index")
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.editor.RemoveItem(r.Context(), actor(r), pageName(r), id, chi.URLParam(r, "field"), index)
	h.record(r, audit.EventItemsEdited, id, err)
	if err != nil {
		h.errLog.Write(w, r, "failed to remove item", err)
		return
	}
	jsonutil.OK(w, p)
}

type moveItemRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *AdminHandler) moveItem(w http.ResponseWriter, r *http.Request) {
	var req moveItemRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	id := chi.URLParam(r, "id")
	p, err := h.editor.MoveItem(r.Context(), actor(r), pageName(r), id, chi.URLParam(r, "field"), req.From, req.To)
	h.record(r, audit.EventItemsEdited, id, err)
	if err != nil {
		h.errLog.Write(w, r, "failed to move item", err)
		return
	}
	jsonutil.OK(w, p)
}
