// Package content models the section-based page content of the site: pages
// made of ordered, typed sections whose fields are described by a static
// schema table. All mutations go through Reduce, which returns a new page and
// leaves its input untouched.
package content

import (
	"sort"
	"strings"
	"time"
)

// PageName identifies one of the site's pages.
type PageName string

const (
	PageHome     PageName = "home"
	PageAbout    PageName = "about"
	PageServices PageName = "services"
	PageContact  PageName = "contact"
)

// AllPageNames returns every valid page name in navigation order.
func AllPageNames() []PageName {
	return []PageName{PageHome, PageAbout, PageServices, PageContact}
}

func (n PageName) Valid() bool {
	switch n {
	case PageHome, PageAbout, PageServices, PageContact:
		return true
	}
	return false
}

// ParsePageName trims and lowercases s and checks it against the known pages.
func ParsePageName(s string) (PageName, error) {
	n := PageName(strings.ToLower(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", ErrInvalidPageName
	}
	return n, nil
}

// Section is one ordered, typed block of page content.
type Section struct {
	ID     string      `json:"id"`
	Type   SectionType `json:"type"`
	Order  int         `json:"order"`
	Fields Fields      `json:"fields"`
}

func (s Section) Clone() Section {
	s.Fields = s.Fields.Clone()
	return s
}

// PageContent is a page with its SEO metadata and ordered sections.
type PageContent struct {
	PageName        PageName  `json:"pageName"`
	Title           string    `json:"pageTitle"`
	MetaDescription string    `json:"metaDescription"`
	MetaKeywords    []string  `json:"metaKeywords"`
	Sections        []Section `json:"sections"`

	CreatedAt     time.Time `json:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
	UpdatedByID   string    `json:"updatedById,omitempty"`
	UpdatedByName string    `json:"updatedByName,omitempty"`
}

// NewPage builds an empty page. It does not consult any repository; duplicate
// detection belongs to the caller that owns persistence.
func NewPage(name PageName, title, metaDescription string, keywords []string) (PageContent, error) {
	if !name.Valid() {
		return PageContent{}, ErrInvalidPageName
	}
	return PageContent{
		PageName:        name,
		Title:           strings.TrimSpace(title),
		MetaDescription: strings.TrimSpace(metaDescription),
		MetaKeywords:    cleanKeywords(keywords),
		Sections:        []Section{},
	}, nil
}

// Clone deep-copies the page.
func (p PageContent) Clone() PageContent {
	out := p
	out.MetaKeywords = append([]string(nil), p.MetaKeywords...)
	out.Sections = make([]Section, len(p.Sections))
	for i, s := range p.Sections {
		out.Sections[i] = s.Clone()
	}
	return out
}

// Ordered returns the sections sorted ascending by order. Ties keep their
// stored position so the result is stable.
func (p PageContent) Ordered() []Section {
	out := make([]Section, len(p.Sections))
	copy(out, p.Sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Section finds a section by id.
func (p PageContent) Section(id string) (Section, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

func (p PageContent) indexOf(id string) int {
	for i, s := range p.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// maxOrder is the largest order value in use, 0 for an empty page.
func (p PageContent) maxOrder() int {
	m := 0
	for _, s := range p.Sections {
		if s.Order > m {
			m = s.Order
		}
	}
	return m
}

// renumber sorts sections by order and rewrites orders to 1..N.
func renumber(sections []Section) []Section {
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Order < sections[j].Order })
	for i := range sections {
		sections[i].Order = i + 1
	}
	return sections
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		key := strings.ToLower(k)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	return out
}

func trimmed(s string) string { return strings.TrimSpace(s) }

func joinList(entries []string) string { return strings.Join(entries, ", ") }
