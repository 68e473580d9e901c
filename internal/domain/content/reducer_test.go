package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heroFields() Fields {
	return Fields{"title": Text("Dijital Ajans"), "subtitle": Text("Markanızı büyütüyoruz")}
}

func pageWith(t *testing.T, n int) PageContent {
	t.Helper()
	p, err := NewPage(PageHome, "Home", "", nil)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		p, err = Reduce(p, AddSection{Type: TypeCustom, Fields: Fields{"content": Text("block")}})
		require.NoError(t, err)
	}
	return p
}

func orders(p PageContent) []int {
	out := []int{}
	for _, s := range p.Ordered() {
		out = append(out, s.Order)
	}
	return out
}

func ids(p PageContent) []string {
	out := []string{}
	for _, s := range p.Ordered() {
		out = append(out, s.ID)
	}
	return out
}

func assertDense(t *testing.T, p PageContent) {
	t.Helper()
	for i, o := range orders(p) {
		assert.Equal(t, i+1, o, "orders must be 1..N, got %v", orders(p))
	}
}

func TestNewPage(t *testing.T) {
	p, err := NewPage(PageServices, "  Hizmetler ", " desc ", []string{"web", " Web ", "", "seo"})
	require.NoError(t, err)
	assert.Equal(t, "Hizmetler", p.Title)
	assert.Equal(t, "desc", p.MetaDescription)
	assert.Equal(t, []string{"web", "seo"}, p.MetaKeywords)
	assert.Empty(t, p.Sections)

	_, err = NewPage("blog", "", "", nil)
	assert.ErrorIs(t, err, ErrInvalidPageName)
}

func TestAddSectionAssignsNextOrder(t *testing.T) {
	p := pageWith(t, 2)
	p.Sections[1].Order = 7 // sparse stored orders

	next, err := Reduce(p, AddSection{ID: "hero", Type: TypeHero, Fields: heroFields()})
	require.NoError(t, err)
	require.Len(t, next.Sections, 3)
	assertDense(t, next)
	assert.Equal(t, "hero", ids(next)[2])
	assert.Equal(t, 7, p.Sections[1].Order, "input page must not change")
}

func TestAddSectionGeneratesIDs(t *testing.T) {
	p := pageWith(t, 2)
	assert.Equal(t, []string{"custom-1", "custom-2"}, ids(p))
}

func TestAddSectionRejectsUnknownType(t *testing.T) {
	p := pageWith(t, 1)
	_, err := Reduce(p, AddSection{Type: "carousel"})
	assert.ErrorIs(t, err, ErrInvalidSectionType)
}

func TestAddSectionRejectsDuplicateID(t *testing.T) {
	p := pageWith(t, 1)
	_, err := Reduce(p, AddSection{ID: "custom-1", Type: TypeCustom})
	assert.ErrorIs(t, err, ErrDuplicateSection)
}

func TestAddSectionDefaultsBooleans(t *testing.T) {
	p := pageWith(t, 0)
	next, err := Reduce(p, AddSection{ID: "form", Type: TypeContactForm, Fields: Fields{"title": Text("Bize yazın")}})
	require.NoError(t, err)
	s, ok := next.Section("form")
	require.True(t, ok)
	assert.Equal(t, ShapeBool, s.Fields["enabled"].Shape())
	assert.False(t, s.Fields["enabled"].Flag())
}

func TestAddSectionAllowsIncompleteDraft(t *testing.T) {
	p := pageWith(t, 0)
	next, err := Reduce(p, AddSection{ID: "hero", Type: TypeHero})
	require.NoError(t, err)
	s, ok := next.Section("hero")
	require.True(t, ok)
	assert.Equal(t, []FieldError{{Field: "title", Reason: "required"}, {Field: "subtitle", Reason: "required"}}, CheckRequired(s))

	// The first edit must complete the section.
	_, err = Reduce(next, UpdateSectionFields{SectionID: "hero", Patch: Fields{"title": Text("Merhaba")}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []FieldError{{Field: "subtitle", Reason: "required"}}, verr.Errors)

	done, err := Reduce(next, UpdateSectionFields{SectionID: "hero", Patch: heroFields()})
	require.NoError(t, err)
	s, _ = done.Section("hero")
	assert.Empty(t, CheckRequired(s))
}

func TestUpdateSectionFieldsUnknownField(t *testing.T) {
	p := pageWith(t, 0)
	p, err := Reduce(p, AddSection{ID: "hero", Type: TypeHero, Fields: heroFields()})
	require.NoError(t, err)

	_, err = Reduce(p, UpdateSectionFields{SectionID: "hero", Patch: Fields{
		"nonexistentField": Text("x"),
		"title":            Text("Yeni"),
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, []FieldError{{Field: "nonexistentField", Reason: ReasonUnknownField}}, FieldErrors(err))

	s, _ := p.Section("hero")
	assert.Equal(t, "Dijital Ajans", s.Fields["title"].String(), "stored section unchanged")
}

func TestUpdateSectionFieldsAccumulatesFailures(t *testing.T) {
	p := pageWith(t, 0)
	p, err := Reduce(p, AddSection{ID: "hero", Type: TypeHero, Fields: heroFields()})
	require.NoError(t, err)

	_, err = Reduce(p, UpdateSectionFields{SectionID: "hero", Patch: Fields{
		"bogus":      Text("x"),
		"buttonLink": Text("javascript:alert(1)"),
		"subtitle":   Text("  "),
	}})
	errs := FieldErrors(err)
	require.Len(t, errs, 3)
	assert.Contains(t, errs, FieldError{Field: "bogus", Reason: ReasonUnknownField})
	assert.Contains(t, errs, FieldError{Field: "buttonLink", Reason: ReasonInvalidURL})
	assert.Contains(t, errs, FieldError{Field: "subtitle", Reason: ReasonRequired})
}

func TestUpdateSectionFieldsIdempotent(t *testing.T) {
	p := pageWith(t, 0)
	p, err := Reduce(p, AddSection{ID: "hero", Type: TypeHero, Fields: heroFields()})
	require.NoError(t, err)
	patch := Fields{"description": Text("Uzun açıklama"), "buttonLink": Text("/contact")}

	once, err := Reduce(p, UpdateSectionFields{SectionID: "hero", Patch: patch})
	require.NoError(t, err)
	twice, err := Reduce(once, UpdateSectionFields{SectionID: "hero", Patch: patch})
	require.NoError(t, err)

	a, _ := once.Section("hero")
	b, _ := twice.Section("hero")
	assert.True(t, a.Fields.Equal(b.Fields))
}

func TestUpdateSectionFieldsMissingSection(t *testing.T) {
	p := pageWith(t, 1)
	_, err := Reduce(p, UpdateSectionFields{SectionID: "nope", Patch: Fields{}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSectionFieldsLegacyType(t *testing.T) {
	p := pageWith(t, 0)
	p.Sections = append(p.Sections, Section{ID: "old", Type: "testimonials", Order: 1, Fields: Fields{"quote": Text("a")}})

	next, err := Reduce(p, UpdateSectionFields{SectionID: "old", Patch: Fields{"author": Text("b")}})
	require.NoError(t, err)
	s, _ := next.Section("old")
	assert.Equal(t, []string{"author", "quote"}, s.Fields.Keys())
}

func TestReorderScenario(t *testing.T) {
	p := pageWith(t, 5)
	before := ids(p)

	next, err := Reduce(p, ReorderSection{SectionID: before[2], NewOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{before[2], before[0], before[1], before[3], before[4]}, ids(next))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, orders(next))
}

func TestReorderClampsAndMovesDown(t *testing.T) {
	p := pageWith(t, 4)
	before := ids(p)

	next, err := Reduce(p, ReorderSection{SectionID: before[0], NewOrder: 99})
	require.NoError(t, err)
	assert.Equal(t, []string{before[1], before[2], before[3], before[0]}, ids(next))

	next, err = Reduce(p, ReorderSection{SectionID: before[3], NewOrder: -3})
	require.NoError(t, err)
	assert.Equal(t, []string{before[3], before[0], before[1], before[2]}, ids(next))
}

func TestRemoveSectionCompacts(t *testing.T) {
	p := pageWith(t, 4)
	before := ids(p)

	next, err := Reduce(p, RemoveSection{SectionID: before[1]})
	require.NoError(t, err)
	assert.Equal(t, []string{before[0], before[2], before[3]}, ids(next))
	assertDense(t, next)

	_, err = Reduce(next, RemoveSection{SectionID: before[1]})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderInvariantAcrossSequence(t *testing.T) {
	p := pageWith(t, 3)
	steps := []Action{
		AddSection{Type: TypeCustom, Fields: Fields{"content": Text("x")}},
		ReorderSection{SectionID: "custom-4", NewOrder: 2},
		RemoveSection{SectionID: "custom-1"},
		AddSection{Type: TypeCTA, Fields: Fields{"title": Text("t"), "buttonText": Text("b"), "buttonLink": Text("/c")}},
		ReorderSection{SectionID: "custom-3", NewOrder: 1},
		RemoveSection{SectionID: "custom-2"},
	}
	for i, a := range steps {
		var err error
		p, err = Reduce(p, a)
		require.NoError(t, err, "step %d", i)
		assertDense(t, p)
	}
}

func TestUpdateMeta(t *testing.T) {
	p := pageWith(t, 0)
	title := " Ana Sayfa "
	kw := []string{"ajans", "AJANS", "web"}
	next, err := Reduce(p, UpdateMeta{Title: &title, MetaKeywords: &kw})
	require.NoError(t, err)
	assert.Equal(t, "Ana Sayfa", next.Title)
	assert.Equal(t, []string{"ajans", "web"}, next.MetaKeywords)
	assert.Equal(t, p.MetaDescription, next.MetaDescription)
}

func pricingPage(t *testing.T) PageContent {
	t.Helper()
	p, err := NewPage(PageServices, "Hizmetler", "", nil)
	require.NoError(t, err)
	p, err = Reduce(p, AddSection{ID: "pricing", Type: TypePricing, Fields: Fields{
		"plans": Items(
			Item{"title": Text("Başlangıç"), "price": Text("2999"), "features": List("5 sayfa")},
			Item{"title": Text("Profesyonel"), "price": Text("5999"), "features": List("10 sayfa"), "featured": Bool(true)},
		),
	}})
	require.NoError(t, err)
	return p
}

func planTitles(p PageContent) []string {
	s, _ := p.Section("pricing")
	out := []string{}
	for _, it := range s.Fields["plans"].ItemList() {
		out = append(out, it["title"].String())
	}
	return out
}

func TestItemOperations(t *testing.T) {
	p := pricingPage(t)

	next, err := Reduce(p, AddItem{SectionID: "pricing", Field: "plans", At: 0, Item: Item{
		"title": Text("Mini"), "price": Text("999"), "features": List("1 sayfa"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mini", "Başlangıç", "Profesyonel"}, planTitles(next))
	s, _ := next.Section("pricing")
	assert.False(t, s.Fields["plans"].ItemList()[0]["featured"].Flag(), "featured defaults to false")

	next, err = Reduce(next, MoveItem{SectionID: "pricing", Field: "plans", From: 0, To: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"Başlangıç", "Profesyonel", "Mini"}, planTitles(next))

	next, err = Reduce(next, RemoveItem{SectionID: "pricing", Field: "plans", Index: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Başlangıç", "Mini"}, planTitles(next))

	assert.Equal(t, []string{"Başlangıç", "Profesyonel"}, planTitles(p), "input page must not change")
}

func TestAddItemValidatesItem(t *testing.T) {
	p := pricingPage(t)
	_, err := Reduce(p, AddItem{SectionID: "pricing", Field: "plans", At: -1, Item: Item{
		"title": Text("Eksik"), "colour": Text("red"),
	}})
	errs := FieldErrors(err)
	assert.Contains(t, errs, FieldError{Field: "plans[2].colour", Reason: ReasonUnknownField})
	assert.Contains(t, errs, FieldError{Field: "plans[2].price", Reason: ReasonRequired})
	assert.Contains(t, errs, FieldError{Field: "plans[2].features", Reason: ReasonRequired})
}

func TestItemOperationErrors(t *testing.T) {
	p := pricingPage(t)

	_, err := Reduce(p, RemoveItem{SectionID: "pricing", Field: "plans", Index: 9})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Reduce(p, MoveItem{SectionID: "pricing", Field: "title", From: 0, To: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Reduce(p, AddItem{SectionID: "pricing", Field: "tiers"})
	assert.ErrorIs(t, err, ErrUnknownField)

	one, err := Reduce(p, RemoveItem{SectionID: "pricing", Field: "plans", Index: 0})
	require.NoError(t, err)
	_, err = Reduce(one, RemoveItem{SectionID: "pricing", Field: "plans", Index: 0})
	assert.Equal(t, []FieldError{{Field: "plans", Reason: ReasonRequired}}, FieldErrors(err))
}

func TestReduceAllStopsAtFailure(t *testing.T) {
	p := pageWith(t, 1)
	_, err := ReduceAll(p,
		AddSection{Type: TypeCustom, Fields: Fields{"content": Text("x")}},
		RemoveSection{SectionID: "missing"},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "action 1")
}
