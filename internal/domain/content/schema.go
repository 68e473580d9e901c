package content

import (
	"net/url"
	"strings"
)

// SectionType is the kind of a section. The set is closed; anything else
// found in storage is a legacy type that is edited and rendered generically.
type SectionType string

const (
	TypeHero        SectionType = "hero"
	TypeServices    SectionType = "services"
	TypeMission     SectionType = "mission"
	TypeValues      SectionType = "values"
	TypeJourney     SectionType = "journey"
	TypePartners    SectionType = "partners"
	TypeContactInfo SectionType = "contactInfo"
	TypeSocialMedia SectionType = "socialMedia"
	TypeContactForm SectionType = "contactForm"
	TypeFAQ         SectionType = "faq"
	TypeCTA         SectionType = "cta"
	TypePricing     SectionType = "pricing"
	TypeCustom      SectionType = "custom"
)

// AllSectionTypes lists the closed set of section types.
func AllSectionTypes() []SectionType {
	return []SectionType{
		TypeHero, TypeServices, TypeMission, TypeValues, TypeJourney, TypePartners,
		TypeContactInfo, TypeSocialMedia, TypeContactForm, TypeFAQ, TypeCTA,
		TypePricing, TypeCustom,
	}
}

func (t SectionType) Known() bool {
	_, ok := schemas[t]
	return ok
}

// FieldKind describes how a field is edited and validated.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindLongText FieldKind = "longtext"
	KindURL      FieldKind = "url"
	KindList     FieldKind = "list"
	KindBoolean  FieldKind = "boolean"
	KindItemList FieldKind = "itemList"
)

// FieldSpec declares one field of a section (or of an itemList item).
type FieldSpec struct {
	Name     string      `json:"name"`
	Label    string      `json:"label"`
	Kind     FieldKind   `json:"kind"`
	Required bool        `json:"required"`
	Item     []FieldSpec `json:"item,omitempty"` // only for KindItemList
}

// Schema is the ordered field list of a section type.
type Schema struct {
	Type   SectionType `json:"type"`
	Label  string      `json:"label"`
	Fields []FieldSpec `json:"fields"`
}

// Field looks up a field spec by name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	return findSpec(s.Fields, name)
}

func findSpec(specs []FieldSpec, name string) (FieldSpec, bool) {
	for _, f := range specs {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// SchemaFor returns the schema of a known section type.
func SchemaFor(t SectionType) (Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}

// Schemas returns the whole table in AllSectionTypes order.
func Schemas() []Schema {
	out := make([]Schema, 0, len(schemas))
	for _, t := range AllSectionTypes() {
		out = append(out, schemas[t])
	}
	return out
}

func text(name, label string, required bool) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindText, Required: required}
}

func long(name, label string, required bool) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindLongText, Required: required}
}

func link(name, label string, required bool) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindURL, Required: required}
}

func list(name, label string, required bool) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindList, Required: required}
}

func flag(name, label string, required bool) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindBoolean, Required: required}
}

func items(name, label string, required bool, item ...FieldSpec) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindItemList, Required: required, Item: item}
}

var schemas = map[SectionType]Schema{
	TypeHero: {Type: TypeHero, Label: "Hero", Fields: []FieldSpec{
		text("title", "Title", true),
		text("subtitle", "Subtitle", true),
		long("description", "Description", false),
		text("buttonText", "Button text", false),
		link("buttonLink", "Button link", false),
		link("backgroundImage", "Background image", false),
	}},
	TypeServices: {Type: TypeServices, Label: "Services", Fields: []FieldSpec{
		text("title", "Title", true),
		text("subtitle", "Subtitle", false),
		items("services", "Services", true,
			text("title", "Title", true),
			long("description", "Description", true),
			text("icon", "Icon", false),
			list("features", "Features", false),
		),
	}},
	TypeMission: {Type: TypeMission, Label: "Mission", Fields: []FieldSpec{
		text("title", "Title", true),
		long("content", "Content", true),
		link("image", "Image", false),
	}},
	TypeValues: {Type: TypeValues, Label: "Values", Fields: []FieldSpec{
		text("title", "Title", true),
		items("values", "Values", true,
			text("title", "Title", true),
			long("description", "Description", true),
			text("icon", "Icon", false),
		),
	}},
	TypeJourney: {Type: TypeJourney, Label: "Journey", Fields: []FieldSpec{
		text("title", "Title", true),
		items("milestones", "Milestones", true,
			text("year", "Year", true),
			text("title", "Title", true),
			long("description", "Description", false),
		),
	}},
	TypePartners: {Type: TypePartners, Label: "Partners", Fields: []FieldSpec{
		text("title", "Title", true),
		text("subtitle", "Subtitle", false),
		items("partners", "Partners", true,
			text("name", "Name", true),
			link("logo", "Logo", true),
			link("website", "Website", false),
		),
	}},
	TypeContactInfo: {Type: TypeContactInfo, Label: "Contact information", Fields: []FieldSpec{
		text("title", "Title", false),
		long("address", "Address", true),
		text("phone", "Phone", true),
		text("email", "Email", true),
		text("workingHours", "Working hours", false),
		link("mapUrl", "Map URL", false),
	}},
	TypeSocialMedia: {Type: TypeSocialMedia, Label: "Social media", Fields: []FieldSpec{
		text("title", "Title", false),
		items("links", "Links", true,
			text("platform", "Platform", true),
			link("url", "URL", true),
		),
	}},
	TypeContactForm: {Type: TypeContactForm, Label: "Contact form", Fields: []FieldSpec{
		text("title", "Title", true),
		text("subtitle", "Subtitle", false),
		text("submitText", "Submit button text", false),
		flag("enabled", "Enabled", false),
	}},
	TypeFAQ: {Type: TypeFAQ, Label: "FAQ", Fields: []FieldSpec{
		text("title", "Title", true),
		items("items", "Questions", true,
			text("question", "Question", true),
			long("answer", "Answer", true),
		),
	}},
	TypeCTA: {Type: TypeCTA, Label: "Call to action", Fields: []FieldSpec{
		text("title", "Title", true),
		text("subtitle", "Subtitle", false),
		text("buttonText", "Button text", true),
		link("buttonLink", "Button link", true),
	}},
	TypePricing: {Type: TypePricing, Label: "Pricing", Fields: []FieldSpec{
		text("title", "Title", false),
		text("subtitle", "Subtitle", false),
		items("plans", "Plans", true,
			text("title", "Title", true),
			text("price", "Price", true),
			text("period", "Period", false),
			long("description", "Description", false),
			list("features", "Features", true),
			flag("featured", "Featured", true),
		),
	}},
	TypeCustom: {Type: TypeCustom, Label: "Custom", Fields: []FieldSpec{
		text("title", "Title", false),
		text("subtitle", "Subtitle", false),
		long("content", "Content", true),
		link("image", "Image", false),
	}},
}

/* ------------------------------- validation ------------------------------- */

// coerce checks v against spec and returns it in canonical shape, or a
// failure reason. Booleans accept "true"/"false" text and item lists accept an
// empty list.
func coerce(spec FieldSpec, v Value) (Value, string) {
	switch spec.Kind {
	case KindText, KindLongText:
		if v.shape == ShapeBool {
			return Text(v.String()), ""
		}
		if v.shape != ShapeText {
			return Value{}, ReasonWrongKind + ": expected " + string(spec.Kind)
		}
		return v, ""
	case KindURL:
		if v.shape != ShapeText {
			return Value{}, ReasonWrongKind + ": expected url"
		}
		if s := trimmed(v.text); s != "" && !validLink(s) {
			return Value{}, ReasonInvalidURL
		}
		return Text(trimmed(v.text)), ""
	case KindBoolean:
		switch v.shape {
		case ShapeBool:
			return v, ""
		case ShapeText:
			switch strings.ToLower(trimmed(v.text)) {
			case "true", "1", "yes", "on":
				return Bool(true), ""
			case "false", "0", "no", "off", "":
				return Bool(false), ""
			}
		}
		return Value{}, ReasonWrongKind + ": expected boolean"
	case KindList:
		switch v.shape {
		case ShapeList:
			return v, ""
		case ShapeItems:
			if v.Len() == 0 {
				return List(), ""
			}
		}
		return Value{}, ReasonWrongKind + ": expected list"
	case KindItemList:
		switch v.shape {
		case ShapeItems:
			return v, ""
		case ShapeList:
			if v.Len() == 0 {
				return Items(), ""
			}
		}
		return Value{}, ReasonWrongKind + ": expected itemList"
	}
	return Value{}, ReasonWrongKind
}

// validLink accepts absolute http(s) URLs, mailto/tel links, root-relative
// paths and fragments.
func validLink(s string) bool {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "#") {
		return !strings.HasPrefix(s, "//")
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto", "tel":
		return u.Opaque != "" || u.Path != ""
	}
	return false
}

// checkItem validates one item against its spec list. prefix is the field
// path used in reported failures, e.g. "plans[0]".
func checkItem(specs []FieldSpec, prefix string, it Item) (Item, []FieldError) {
	var errs []FieldError
	out := make(Item, len(it))
	for _, k := range Fields(it).Keys() {
		spec, ok := findSpec(specs, k)
		if !ok {
			errs = append(errs, FieldError{Field: prefix + "." + k, Reason: ReasonUnknownField})
			continue
		}
		cv, reason := coerce(spec, it[k])
		if reason != "" {
			errs = append(errs, FieldError{Field: prefix + "." + k, Reason: reason})
			continue
		}
		out[k] = cv
	}
	for _, spec := range specs {
		v, ok := out[spec.Name]
		if spec.Kind == KindBoolean {
			if !ok {
				out[spec.Name] = Bool(false)
			}
			continue
		}
		if spec.Required && (!ok || v.IsEmpty()) {
			if _, failed := it[spec.Name]; failed && !ok {
				continue // already reported as a kind error
			}
			errs = append(errs, FieldError{Field: prefix + "." + spec.Name, Reason: ReasonRequired})
		}
	}
	return out, errs
}

// coerceField coerces a single top-level field and, for item lists, each item.
func coerceField(spec FieldSpec, v Value) (Value, []FieldError) {
	cv, reason := coerce(spec, v)
	if reason != "" {
		return Value{}, []FieldError{{Field: spec.Name, Reason: reason}}
	}
	if spec.Kind != KindItemList {
		return cv, nil
	}
	var errs []FieldError
	out := make([]Item, 0, cv.Len())
	for i, it := range cv.items {
		ci, ierrs := checkItem(spec.Item, itemPath(spec.Name, i), it)
		errs = append(errs, ierrs...)
		out = append(out, ci)
	}
	return Items(out...), errs
}

// CheckPatch validates a patch against the schema of t without looking at
// required fields. It returns the coerced patch and every failure found.
// Legacy types accept any key, coerced to text where possible.
func CheckPatch(t SectionType, patch Fields) (Fields, []FieldError) {
	schema, known := SchemaFor(t)
	out := make(Fields, len(patch))
	var errs []FieldError
	for _, k := range patch.Keys() {
		v := patch[k]
		if !known {
			out[k] = v.clone()
			continue
		}
		spec, ok := schema.Field(k)
		if !ok {
			errs = append(errs, FieldError{Field: k, Reason: ReasonUnknownField})
			continue
		}
		cv, ferrs := coerceField(spec, v)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		out[k] = cv
	}
	return out, errs
}

// CheckRequired reports every required field of a section that is missing or
// empty, including required fields of each item. Legacy types have no
// requirements.
func CheckRequired(s Section) []FieldError {
	schema, known := SchemaFor(s.Type)
	if !known {
		return nil
	}
	var errs []FieldError
	for _, spec := range schema.Fields {
		v, ok := s.Fields[spec.Name]
		if spec.Kind == KindBoolean {
			continue
		}
		if spec.Required && (!ok || v.IsEmpty()) {
			errs = append(errs, FieldError{Field: spec.Name, Reason: ReasonRequired})
			continue
		}
		if spec.Kind == KindItemList && ok {
			for i, it := range v.items {
				for _, is := range spec.Item {
					if is.Kind == KindBoolean || !is.Required {
						continue
					}
					if iv, has := it[is.Name]; !has || iv.IsEmpty() {
						errs = append(errs, FieldError{Field: itemPath(spec.Name, i) + "." + is.Name, Reason: ReasonRequired})
					}
				}
			}
		}
	}
	return errs
}

// withBooleanDefaults fills absent boolean fields with false.
func withBooleanDefaults(t SectionType, f Fields) Fields {
	schema, known := SchemaFor(t)
	if !known {
		return f
	}
	for _, spec := range schema.Fields {
		if spec.Kind != KindBoolean {
			continue
		}
		if _, ok := f[spec.Name]; !ok {
			f[spec.Name] = Bool(false)
		}
	}
	return f
}

func itemPath(field string, i int) string {
	return field + "[" + itoa(i) + "]"
}
