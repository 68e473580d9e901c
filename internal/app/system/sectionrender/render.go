// Package sectionrender turns stored pages into public HTML. Each section is
// rendered on its own from its decoded payload; a section that cannot be
// shown is skipped and reported instead of failing the page. Rendering reads
// nothing but its arguments and never mutates the page.
package sectionrender

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/domain/content"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Skip reasons.
const (
	ReasonUnknownType     = "unknown type"
	ReasonMissingRequired = "missing required fields"
	ReasonDisabled        = "disabled"
	ReasonTemplate        = "render failed"
)

// Block is the HTML of one rendered section.
type Block struct {
	ID   string              `json:"id"`
	Type content.SectionType `json:"type"`
	HTML template.HTML       `json:"html"`
}

// Skipped describes a section left out of the output.
type Skipped struct {
	ID     string              `json:"id"`
	Type   content.SectionType `json:"type"`
	Reason string              `json:"reason"`
	Fields []string            `json:"fields,omitempty"`
}

// Result is a rendered page: the blocks in section order and what was skipped.
type Result struct {
	Blocks  []Block   `json:"sections"`
	Skipped []Skipped `json:"skipped"`
}

// Renderer holds the parsed section templates. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"prose": htmlsanitize.PrepareForDisplay,
	"price": formatPrice,
	"join":  strings.Join,
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	t, err := template.New("sections").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse section templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// MustNew is New for package-level setup; it panics on a template error.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// RenderSection renders one section. ok is false when the section is
// skipped, in which case skip says why.
func (r *Renderer) RenderSection(s content.Section) (html template.HTML, skip Skipped, ok bool) {
	skip = Skipped{ID: s.ID, Type: s.Type}

	if missing := content.CheckRequired(s); len(missing) > 0 {
		skip.Reason = ReasonMissingRequired
		for _, fe := range missing {
			skip.Fields = append(skip.Fields, fe.Field)
		}
		return "", skip, false
	}

	name, data := view(content.Decode(s))
	switch name {
	case "":
		skip.Reason = ReasonUnknownType
		return "", skip, false
	case "-":
		skip.Reason = ReasonDisabled
		return "", skip, false
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		skip.Reason = ReasonTemplate
		return "", skip, false
	}
	return template.HTML(buf.String()), Skipped{}, true
}

// RenderPage renders every section of p in order.
func (r *Renderer) RenderPage(p content.PageContent) Result {
	res := Result{Blocks: []Block{}, Skipped: []Skipped{}}
	for _, s := range p.Ordered() {
		html, skip, ok := r.RenderSection(s)
		if !ok {
			res.Skipped = append(res.Skipped, skip)
			continue
		}
		res.Blocks = append(res.Blocks, Block{ID: s.ID, Type: s.Type, HTML: html})
	}
	return res
}

type document struct {
	Page        content.PageName
	Title       string
	Description string
	Keywords    []string
	Blocks      []Block
}

// Document writes a complete HTML document for p. It returns the render
// result so callers can report skipped sections.
func (r *Renderer) Document(w io.Writer, p content.PageContent) (Result, error) {
	res := r.RenderPage(p)
	err := r.tmpl.ExecuteTemplate(w, "document", document{
		Page:        p.PageName,
		Title:       p.Title,
		Description: p.MetaDescription,
		Keywords:    p.MetaKeywords,
		Blocks:      res.Blocks,
	})
	return res, err
}

// view maps a payload to its template. The switch covers every payload type;
// "" means no template exists and "-" means the section chose not to show.
func view(p content.Payload) (string, any) {
	switch v := p.(type) {
	case content.Hero:
		return "hero", v
	case content.Services:
		return "services", v
	case content.Mission:
		return "mission", v
	case content.Values:
		return "values", v
	case content.Journey:
		return "journey", v
	case content.Partners:
		return "partners", v
	case content.ContactInfo:
		return "contactInfo", v
	case content.SocialMedia:
		return "socialMedia", v
	case content.ContactForm:
		if !v.Enabled {
			return "-", nil
		}
		return "contactForm", v
	case content.FAQ:
		return "faq", v
	case content.CTA:
		return "cta", v
	case content.Pricing:
		return "pricing", v
	case content.Custom:
		return "custom", v
	case content.Unknown:
		return "", nil
	}
	return "", nil
}

// formatPrice appends the lira sign to bare numbers and leaves anything else
// ("Teklif alın", "₺2.999") as written.
func formatPrice(s string) string {
	if s == "" {
		return ""
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return s
		}
	}
	return s + " ₺"
}
