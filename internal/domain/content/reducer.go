package content

import (
	"fmt"
	"strings"
)

// Action is one edit to a page. Reduce applies it.
type Action interface {
	action()
}

// AddSection appends a section of Type after the current last section.
// An empty ID is replaced with "<type>-<n>", the first free n. Supplied
// fields are checked but required ones may be left out; the section stays a
// draft, skipped by the renderer, until an edit completes it.
type AddSection struct {
	ID     string
	Type   SectionType
	Fields Fields
}

// UpdateSectionFields merges Patch into the section's fields.
type UpdateSectionFields struct {
	SectionID string
	Patch     Fields
}

// ReorderSection moves a section to position NewOrder (clamped to 1..N).
type ReorderSection struct {
	SectionID string
	NewOrder  int
}

type RemoveSection struct {
	SectionID string
}

// UpdateMeta changes the page-level metadata. Nil fields are left alone.
type UpdateMeta struct {
	Title           *string
	MetaDescription *string
	MetaKeywords    *[]string
}

// AddItem inserts Item into the itemList Field at position At. A negative or
// too-large At appends.
type AddItem struct {
	SectionID string
	Field     string
	Item      Item
	At        int
}

type RemoveItem struct {
	SectionID string
	Field     string
	Index     int
}

// MoveItem moves an item from index From to index To (clamped) within the
// itemList Field.
type MoveItem struct {
	SectionID string
	Field     string
	From      int
	To        int
}

func (AddSection) action()          {}
func (UpdateSectionFields) action() {}
func (ReorderSection) action()      {}
func (RemoveSection) action()       {}
func (UpdateMeta) action()          {}
func (AddItem) action()             {}
func (RemoveItem) action()          {}
func (MoveItem) action()            {}

// Reduce applies a to p and returns the resulting page. p is never modified.
// On error the returned page is the zero value and the caller keeps p.
// After every successful action the section orders are exactly 1..N.
func Reduce(p PageContent, a Action) (PageContent, error) {
	next := p.Clone()
	var err error
	switch a := a.(type) {
	case AddSection:
		err = next.addSection(a)
	case UpdateSectionFields:
		err = next.updateFields(a)
	case ReorderSection:
		err = next.reorder(a)
	case RemoveSection:
		err = next.remove(a)
	case UpdateMeta:
		next.updateMeta(a)
	case AddItem:
		err = next.addItem(a)
	case RemoveItem:
		err = next.removeItem(a)
	case MoveItem:
		err = next.moveItem(a)
	default:
		err = fmt.Errorf("unsupported action %T", a)
	}
	if err != nil {
		return PageContent{}, err
	}
	next.Sections = renumber(next.Sections)
	return next, nil
}

// ReduceAll applies actions in sequence, stopping at the first failure.
func ReduceAll(p PageContent, actions ...Action) (PageContent, error) {
	cur := p
	for i, a := range actions {
		next, err := Reduce(cur, a)
		if err != nil {
			return PageContent{}, fmt.Errorf("action %d: %w", i, err)
		}
		cur = next
	}
	return cur, nil
}

func (p *PageContent) addSection(a AddSection) error {
	if !a.Type.Known() {
		return fmt.Errorf("%w: %q", ErrInvalidSectionType, a.Type)
	}
	id := strings.TrimSpace(a.ID)
	if id == "" {
		id = p.freeID(a.Type)
	} else if p.indexOf(id) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateSection, id)
	}
	fields, errs := CheckPatch(a.Type, a.Fields)
	if err := validationError(errs); err != nil {
		return err
	}
	p.Sections = append(renumber(p.Sections), Section{
		ID:     id,
		Type:   a.Type,
		Order:  p.maxOrder() + 1,
		Fields: withBooleanDefaults(a.Type, fields),
	})
	return nil
}

func (p *PageContent) freeID(t SectionType) string {
	for n := len(p.Sections) + 1; ; n++ {
		id := string(t) + "-" + itoa(n)
		if p.indexOf(id) < 0 {
			return id
		}
	}
}

func (p *PageContent) section(id string) (*Section, error) {
	i := p.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("section %q: %w", id, ErrNotFound)
	}
	return &p.Sections[i], nil
}

func (p *PageContent) updateFields(a UpdateSectionFields) error {
	s, err := p.section(a.SectionID)
	if err != nil {
		return err
	}
	patch, errs := CheckPatch(s.Type, a.Patch)
	merged := s.Fields.Clone()
	if merged == nil {
		merged = Fields{}
	}
	for k, v := range patch {
		merged[k] = v
	}
	merged = withBooleanDefaults(s.Type, merged)
	candidate := Section{ID: s.ID, Type: s.Type, Order: s.Order, Fields: merged}
	errs = append(errs, requiredOutside(CheckRequired(candidate), errs)...)
	if err := validationError(errs); err != nil {
		return err
	}
	s.Fields = merged
	return nil
}

// requiredOutside drops required failures for fields that already carry a
// patch failure, so a field is reported once.
func requiredOutside(required, reported []FieldError) []FieldError {
	if len(reported) == 0 {
		return required
	}
	seen := make(map[string]struct{}, len(reported))
	for _, fe := range reported {
		seen[rootField(fe.Field)] = struct{}{}
	}
	out := required[:0]
	for _, fe := range required {
		if _, dup := seen[rootField(fe.Field)]; !dup {
			out = append(out, fe)
		}
	}
	return out
}

func rootField(path string) string {
	if i := strings.IndexAny(path, "[."); i >= 0 {
		return path[:i]
	}
	return path
}

func (p *PageContent) reorder(a ReorderSection) error {
	i := p.indexOf(a.SectionID)
	if i < 0 {
		return fmt.Errorf("section %q: %w", a.SectionID, ErrNotFound)
	}
	ordered := p.Ordered()
	from := 0
	for j, s := range ordered {
		if s.ID == a.SectionID {
			from = j
			break
		}
	}
	to := clamp(a.NewOrder, 1, len(ordered)) - 1
	moved := ordered[from]
	rest := append(append([]Section{}, ordered[:from]...), ordered[from+1:]...)
	out := make([]Section, 0, len(ordered))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	for k := range out {
		out[k].Order = k + 1
	}
	p.Sections = out
	return nil
}

func (p *PageContent) remove(a RemoveSection) error {
	i := p.indexOf(a.SectionID)
	if i < 0 {
		return fmt.Errorf("section %q: %w", a.SectionID, ErrNotFound)
	}
	out := make([]Section, 0, len(p.Sections)-1)
	out = append(out, p.Sections[:i]...)
	out = append(out, p.Sections[i+1:]...)
	p.Sections = out
	return nil
}

func (p *PageContent) updateMeta(a UpdateMeta) {
	if a.Title != nil {
		p.Title = strings.TrimSpace(*a.Title)
	}
	if a.MetaDescription != nil {
		p.MetaDescription = strings.TrimSpace(*a.MetaDescription)
	}
	if a.MetaKeywords != nil {
		p.MetaKeywords = cleanKeywords(*a.MetaKeywords)
	}
}

// itemField resolves the section and the itemList spec for an item action.
func (p *PageContent) itemField(sectionID, field string) (*Section, FieldSpec, error) {
	s, err := p.section(sectionID)
	if err != nil {
		return nil, FieldSpec{}, err
	}
	schema, known := SchemaFor(s.Type)
	if !known {
		return nil, FieldSpec{}, &ValidationError{Errors: []FieldError{{Field: field, Reason: ReasonUnknownField}}}
	}
	spec, ok := schema.Field(field)
	if !ok {
		return nil, FieldSpec{}, &ValidationError{Errors: []FieldError{{Field: field, Reason: ReasonUnknownField}}}
	}
	if spec.Kind != KindItemList {
		return nil, FieldSpec{}, &ValidationError{Errors: []FieldError{{Field: field, Reason: ReasonWrongKind + ": not an itemList"}}}
	}
	return s, spec, nil
}

func (p *PageContent) addItem(a AddItem) error {
	s, spec, err := p.itemField(a.SectionID, a.Field)
	if err != nil {
		return err
	}
	cur := s.Fields[a.Field].ItemList()
	at := a.At
	if at < 0 || at > len(cur) {
		at = len(cur)
	}
	item, errs := checkItem(spec.Item, itemPath(a.Field, at), a.Item)
	if err := validationError(errs); err != nil {
		return err
	}
	out := make([]Item, 0, len(cur)+1)
	out = append(out, cur[:at]...)
	out = append(out, item)
	out = append(out, cur[at:]...)
	s.setField(a.Field, Items(out...))
	return nil
}

func (p *PageContent) removeItem(a RemoveItem) error {
	s, spec, err := p.itemField(a.SectionID, a.Field)
	if err != nil {
		return err
	}
	cur := s.Fields[a.Field].ItemList()
	if a.Index < 0 || a.Index >= len(cur) {
		return fmt.Errorf("%s: %w", itemPath(a.Field, a.Index), ErrNotFound)
	}
	if spec.Required && len(cur) == 1 {
		return &ValidationError{Errors: []FieldError{{Field: a.Field, Reason: ReasonRequired}}}
	}
	out := make([]Item, 0, len(cur)-1)
	out = append(out, cur[:a.Index]...)
	out = append(out, cur[a.Index+1:]...)
	s.setField(a.Field, Items(out...))
	return nil
}

func (p *PageContent) moveItem(a MoveItem) error {
	s, _, err := p.itemField(a.SectionID, a.Field)
	if err != nil {
		return err
	}
	cur := s.Fields[a.Field].ItemList()
	if a.From < 0 || a.From >= len(cur) {
		return fmt.Errorf("%s: %w", itemPath(a.Field, a.From), ErrNotFound)
	}
	to := clamp(a.To, 0, len(cur)-1)
	moved := cur[a.From]
	rest := append(append([]Item{}, cur[:a.From]...), cur[a.From+1:]...)
	out := make([]Item, 0, len(cur))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	s.setField(a.Field, Items(out...))
	return nil
}

func (s *Section) setField(name string, v Value) {
	if s.Fields == nil {
		s.Fields = Fields{}
	}
	s.Fields[name] = v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
