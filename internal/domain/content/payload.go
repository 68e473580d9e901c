package content

// Payload is the typed view of a section's fields. Every section type maps to
// exactly one implementation; types outside the closed set decode to Unknown.
// The interface is sealed so a type switch over Payload can be checked for
// completeness by reading this file.
type Payload interface {
	SectionType() SectionType
	payload()
}

type Hero struct {
	Title           string
	Subtitle        string
	Description     string
	ButtonText      string
	ButtonLink      string
	BackgroundImage string
}

type ServiceItem struct {
	Title       string
	Description string
	Icon        string
	Features    []string
}

type Services struct {
	Title    string
	Subtitle string
	Services []ServiceItem
}

type Mission struct {
	Title   string
	Content string
	Image   string
}

type ValueItem struct {
	Title       string
	Description string
	Icon        string
}

type Values struct {
	Title  string
	Values []ValueItem
}

type Milestone struct {
	Year        string
	Title       string
	Description string
}

type Journey struct {
	Title      string
	Milestones []Milestone
}

type Partner struct {
	Name    string
	Logo    string
	Website string
}

type Partners struct {
	Title    string
	Subtitle string
	Partners []Partner
}

type ContactInfo struct {
	Title        string
	Address      string
	Phone        string
	Email        string
	WorkingHours string
	MapURL       string
}

type SocialLink struct {
	Platform string
	URL      string
}

type SocialMedia struct {
	Title string
	Links []SocialLink
}

type ContactForm struct {
	Title      string
	Subtitle   string
	SubmitText string
	Enabled    bool
}

type FAQEntry struct {
	Question string
	Answer   string
}

type FAQ struct {
	Title string
	Items []FAQEntry
}

type CTA struct {
	Title      string
	Subtitle   string
	ButtonText string
	ButtonLink string
}

type Plan struct {
	Title       string
	Price       string
	Period      string
	Description string
	Features    []string
	Featured    bool
}

type Pricing struct {
	Title    string
	Subtitle string
	Plans    []Plan
}

type Custom struct {
	Title    string
	Subtitle string
	Content  string
	Image    string
}

// Unknown is a section whose type is not in the closed set.
type Unknown struct {
	Type   SectionType
	Fields Fields
}

func (Hero) SectionType() SectionType        { return TypeHero }
func (Services) SectionType() SectionType    { return TypeServices }
func (Mission) SectionType() SectionType     { return TypeMission }
func (Values) SectionType() SectionType      { return TypeValues }
func (Journey) SectionType() SectionType     { return TypeJourney }
func (Partners) SectionType() SectionType    { return TypePartners }
func (ContactInfo) SectionType() SectionType { return TypeContactInfo }
func (SocialMedia) SectionType() SectionType { return TypeSocialMedia }
func (ContactForm) SectionType() SectionType { return TypeContactForm }
func (FAQ) SectionType() SectionType         { return TypeFAQ }
func (CTA) SectionType() SectionType         { return TypeCTA }
func (Pricing) SectionType() SectionType     { return TypePricing }
func (Custom) SectionType() SectionType      { return TypeCustom }
func (u Unknown) SectionType() SectionType   { return u.Type }

func (Hero) payload()        {}
func (Services) payload()    {}
func (Mission) payload()     {}
func (Values) payload()      {}
func (Journey) payload()     {}
func (Partners) payload()    {}
func (ContactInfo) payload() {}
func (SocialMedia) payload() {}
func (ContactForm) payload() {}
func (FAQ) payload()         {}
func (CTA) payload()         {}
func (Pricing) payload()     {}
func (Custom) payload()      {}
func (Unknown) payload()     {}

// fieldReader reads a field mapping leniently: missing or mis-shaped values
// read as zero values.
type fieldReader map[string]Value

func (r fieldReader) s(name string) string {
	v, ok := r[name]
	if !ok || v.shape == ShapeItems || v.shape == ShapeList {
		return ""
	}
	return trimmed(v.String())
}

func (r fieldReader) b(name string) bool {
	v, ok := r[name]
	if !ok {
		return false
	}
	if v.shape == ShapeText {
		return trimmed(v.text) == "true"
	}
	return v.Flag()
}

func (r fieldReader) list(name string) []string {
	v, ok := r[name]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v.list))
	for _, e := range v.Entries() {
		if e = trimmed(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func (r fieldReader) items(name string) []fieldReader {
	v, ok := r[name]
	if !ok || v.shape != ShapeItems {
		return nil
	}
	out := make([]fieldReader, len(v.items))
	for i, it := range v.items {
		out[i] = fieldReader(it)
	}
	return out
}

// Decode builds the typed payload of a section. It never fails: partially
// filled sections decode with empty values where fields are missing.
func Decode(s Section) Payload {
	r := fieldReader(s.Fields)
	switch s.Type {
	case TypeHero:
		return Hero{
			Title: r.s("title"), Subtitle: r.s("subtitle"), Description: r.s("description"),
			ButtonText: r.s("buttonText"), ButtonLink: r.s("buttonLink"),
			BackgroundImage: r.s("backgroundImage"),
		}
	case TypeServices:
		p := Services{Title: r.s("title"), Subtitle: r.s("subtitle")}
		for _, it := range r.items("services") {
			p.Services = append(p.Services, ServiceItem{
				Title: it.s("title"), Description: it.s("description"),
				Icon: it.s("icon"), Features: it.list("features"),
			})
		}
		return p
	case TypeMission:
		return Mission{Title: r.s("title"), Content: r.s("content"), Image: r.s("image")}
	case TypeValues:
		p := Values{Title: r.s("title")}
		for _, it := range r.items("values") {
			p.Values = append(p.Values, ValueItem{Title: it.s("title"), Description: it.s("description"), Icon: it.s("icon")})
		}
		return p
	case TypeJourney:
		p := Journey{Title: r.s("title")}
		for _, it := range r.items("milestones") {
			p.Milestones = append(p.Milestones, Milestone{Year: it.s("year"), Title: it.s("title"), Description: it.s("description")})
		}
		return p
	case TypePartners:
		p := Partners{Title: r.s("title"), Subtitle: r.s("subtitle")}
		for _, it := range r.items("partners") {
			p.Partners = append(p.Partners, Partner{Name: it.s("name"), Logo: it.s("logo"), Website: it.s("website")})
		}
		return p
	case TypeContactInfo:
		return ContactInfo{
			Title: r.s("title"), Address: r.s("address"), Phone: r.s("phone"),
			Email: r.s("email"), WorkingHours: r.s("workingHours"), MapURL: r.s("mapUrl"),
		}
	case TypeSocialMedia:
		p := SocialMedia{Title: r.s("title")}
		for _, it := range r.items("links") {
			p.Links = append(p.Links, SocialLink{Platform: it.s("platform"), URL: it.s("url")})
		}
		return p
	case TypeContactForm:
		return ContactForm{Title: r.s("title"), Subtitle: r.s("subtitle"), SubmitText: r.s("submitText"), Enabled: r.b("enabled")}
	case TypeFAQ:
		p := FAQ{Title: r.s("title")}
		for _, it := range r.items("items") {
			p.Items = append(p.Items, FAQEntry{Question: it.s("question"), Answer: it.s("answer")})
		}
		return p
	case TypeCTA:
		return CTA{Title: r.s("title"), Subtitle: r.s("subtitle"), ButtonText: r.s("buttonText"), ButtonLink: r.s("buttonLink")}
	case TypePricing:
		p := Pricing{Title: r.s("title"), Subtitle: r.s("subtitle")}
		for _, it := range r.items("plans") {
			p.Plans = append(p.Plans, Plan{
				Title: it.s("title"), Price: it.s("price"), Period: it.s("period"),
				Description: it.s("description"), Features: it.list("features"),
				Featured: it.b("featured"),
			})
		}
		return p
	case TypeCustom:
		return Custom{Title: r.s("title"), Subtitle: r.s("subtitle"), Content: r.s("content"), Image: r.s("image")}
	default:
		return Unknown{Type: s.Type, Fields: s.Fields.Clone()}
	}
}
