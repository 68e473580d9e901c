package quote

import "strings"

// Kind is the intake flow a quote came through.
type Kind string

const (
	KindPlan    Kind = "plan"
	KindService Kind = "service"
)

// Entry is a plan or service a quote may reference.
type Entry struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	BasePrice   int64    `json:"basePrice"`
	Period      string   `json:"period,omitempty"`
	Features    []string `json:"features,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// HasCategory reports whether c is one of the entry's categories.
func (e Entry) HasCategory(c string) bool {
	for _, have := range e.Categories {
		if have == c {
			return true
		}
	}
	return false
}

// Catalog is an immutable list of entries.
type Catalog struct {
	entries []Entry
}

func NewCatalog(entries ...Entry) *Catalog {
	return &Catalog{entries: append([]Entry(nil), entries...)}
}

// Lookup resolves an entry id, case-insensitively.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (c *Catalog) Entries() []Entry { return append([]Entry(nil), c.entries...) }

func (c *Catalog) ByKind(k Kind) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// DefaultCatalog is the agency's published price list.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Entry{ID: "starter", Kind: KindPlan, Name: "Başlangıç", BasePrice: 2999, Period: "proje",
			Description: "Küçük işletmeler için hızlı başlangıç paketi.",
			Features:    []string{"5 sayfa", "Mobil uyumlu tasarım", "İletişim formu", "1 ay destek"}},
		Entry{ID: "professional", Kind: KindPlan, Name: "Profesyonel", BasePrice: 5999, Period: "proje",
			Description: "Büyüyen markalar için kapsamlı çözüm.",
			Features:    []string{"10 sayfa", "Özel tasarım", "Blog", "SEO altyapısı", "3 ay destek"}},
		Entry{ID: "enterprise", Kind: KindPlan, Name: "Kurumsal", BasePrice: 9999, Period: "proje",
			Description: "Kurumsal ihtiyaçlara özel, sınırsız ölçek.",
			Features:    []string{"Sınırsız sayfa", "Yönetim paneli", "Entegrasyonlar", "12 ay destek"}},

		Entry{ID: "web-design", Kind: KindService, Name: "Web Tasarım", BasePrice: 3999,
			Description: "Kurumsal site, landing page ve portföy tasarımı.",
			Categories:  []string{"corporate", "landing", "portfolio", "redesign"}},
		Entry{ID: "ecommerce", Kind: KindService, Name: "E-Ticaret", BasePrice: 7999,
			Description: "Ödeme ve stok entegrasyonlu online mağaza.",
			Categories:  []string{"b2c", "b2b", "marketplace"}},
		Entry{ID: "mobile-app", Kind: KindService, Name: "Mobil Uygulama", BasePrice: 14999,
			Description: "iOS ve Android uygulama geliştirme.",
			Categories:  []string{"ios", "android", "cross-platform"}},
		Entry{ID: "digital-marketing", Kind: KindService, Name: "Dijital Pazarlama", BasePrice: 2499,
			Description: "SEO, sosyal medya ve reklam yönetimi.",
			Categories:  []string{"seo", "social", "ads", "content"}},
	)
}
