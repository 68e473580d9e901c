package quote

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScenario(t *testing.T) {
	p, err := Compute(2999, Selection{"teamSize": "medium", "hasDesigner": "true"})
	require.NoError(t, err)
	assert.Equal(t, int64(4799), p.Total)
	assert.Equal(t, int64(2999), p.Base)
	assert.Equal(t, []Line{
		{Option: "hasDesigner", Choice: "true", Amount: 800},
		{Option: "teamSize", Choice: "medium", Amount: 1000},
	}, p.Lines)
}

func TestComputeDeterministic(t *testing.T) {
	a := Selection{"ecommerce": "true", "teamSize": "large", "seoPackage": "true", "multiLanguage": "false"}
	b := Selection{"multiLanguage": "false", "seoPackage": "true", "teamSize": "large", "ecommerce": "true"}

	first, err := Compute(5999, a)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Compute(5999, b)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, int64(5999+1500+2500+500), first.Total)
}

func TestComputeUnknownOptions(t *testing.T) {
	_, err := Compute(100, Selection{"teamSize": "huge", "rocket": "true"})
	require.ErrorIs(t, err, ErrUnknownOption)
	assert.Contains(t, err.Error(), "rocket")
	assert.Contains(t, err.Error(), "teamSize=huge")
}

func TestSelectionJSON(t *testing.T) {
	var s Selection
	require.NoError(t, json.Unmarshal([]byte(`{"teamSize":"Medium","hasDesigner":true,"n":2,"skip":null}`), &s))
	assert.Equal(t, Selection{"teamSize": "Medium", "hasDesigner": "true", "n": "2"}, s)

	p, err := Compute(0, Selection{"teamSize": " Medium ", "hasDesigner": "TRUE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1800), p.Total)
}

func TestTransitions(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusReviewing}:   true,
		{StatusPending, StatusArchived}:    true,
		{StatusReviewing, StatusResponded}: true,
		{StatusReviewing, StatusRejected}:  true,
		{StatusReviewing, StatusArchived}:  true,
		{StatusResponded, StatusArchived}:  true,
		{StatusRejected, StatusArchived}:   true,
	}
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			got, err := Transition(from, to)
			if allowed[[2]Status{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, got)
				continue
			}
			assert.ErrorIs(t, err, ErrInvalidStatusTransition, "%s -> %s", from, to)
			assert.Equal(t, from, got, "status must stay %s", from)
		}
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	got, err := Transition(StatusArchived, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, StatusArchived, got)
	assert.Empty(t, NextStatuses(StatusArchived))
	assert.Equal(t, []Status{StatusResponded, StatusRejected, StatusArchived}, NextStatuses(StatusReviewing))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Reviewing ")
	require.NoError(t, err)
	assert.Equal(t, StatusReviewing, s)
	_, err = ParseStatus("closed")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func validCustomer() Customer {
	return Customer{Name: "Ayşe Yılmaz", Email: "ayse@example.com", Phone: "+90 555 000 00 00"}
}

func TestAcceptPlan(t *testing.T) {
	in := NewIntake(DefaultCatalog())
	acc, err := in.Accept(Submission{
		Customer:        validCustomer(),
		PlanOrServiceID: "Starter",
		SelectedOptions: Selection{"teamSize": "medium", "hasDesigner": "true"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindPlan, acc.Kind)
	assert.Equal(t, "Başlangıç", acc.Entry.Name)
	assert.Equal(t, int64(4799), acc.Price.Total)
}

func TestAcceptCollectsEveryProblem(t *testing.T) {
	in := NewIntake(DefaultCatalog())
	_, err := in.Accept(Submission{
		Kind:            KindService,
		Customer:        Customer{Email: "ayse@example.com"},
		PlanOrServiceID: "web-design",
		SelectedOptions: Selection{"jetpack": "true"},
	})
	require.ErrorIs(t, err, ErrIncompleteQuote)
	assert.ErrorIs(t, err, ErrUnknownOption)

	var inc *IncompleteError
	require.True(t, errors.As(err, &inc))
	assert.Contains(t, inc.Missing, FieldError{Field: "customer.name", Reason: ReasonRequired})
	assert.Contains(t, inc.Missing, FieldError{Field: "customer.phone", Reason: ReasonRequired})
	assert.Contains(t, inc.Missing, FieldError{Field: "categories", Reason: ReasonRequired})
	assert.Contains(t, inc.Missing, FieldError{Field: "selectedOptions.jetpack", Reason: ReasonUnknownOption})
}

func TestAcceptUnresolvable(t *testing.T) {
	in := NewIntake(DefaultCatalog())
	_, err := in.Accept(Submission{Customer: validCustomer(), PlanOrServiceID: "platinum"})
	var inc *IncompleteError
	require.True(t, errors.As(err, &inc))
	assert.Contains(t, inc.Missing, FieldError{Field: "planOrServiceId", Reason: ReasonUnresolvable})
}

func TestAcceptServiceCategories(t *testing.T) {
	in := NewIntake(DefaultCatalog())
	sub := Submission{
		Customer:        validCustomer(),
		PlanOrServiceID: "ecommerce",
		Categories:      []string{"B2C", "b2c", "crypto"},
	}
	_, err := in.Accept(sub)
	var inc *IncompleteError
	require.True(t, errors.As(err, &inc))
	assert.Equal(t, []FieldError{{Field: "categories.crypto", Reason: ReasonUnknownCat}}, inc.Missing)

	sub.Categories = []string{"B2C", "b2c"}
	acc, err := in.Accept(sub)
	require.NoError(t, err)
	assert.Equal(t, KindService, acc.Kind)
	assert.Equal(t, []string{"b2c"}, acc.Categories)
	assert.Equal(t, int64(7999), acc.Price.Total)
}

func TestEstimate(t *testing.T) {
	in := NewIntake(DefaultCatalog())
	e, p, err := in.Estimate("enterprise", Selection{"multiLanguage": "true"})
	require.NoError(t, err)
	assert.Equal(t, "Kurumsal", e.Name)
	assert.Equal(t, int64(10699), p.Total)

	_, _, err = in.Estimate("nope", nil)
	assert.ErrorIs(t, err, ErrIncompleteQuote)
}

func TestDecodeSubmission(t *testing.T) {
	sub, err := DecodeSubmission([]byte(`{"customer":{"name":"A","email":"a@b.co","phone":"1"},"planOrServiceId":"starter","selectedOptions":{"hasDesigner":true}}`))
	require.NoError(t, err)
	assert.Equal(t, "true", sub.SelectedOptions["hasDesigner"])

	_, err = DecodeSubmission([]byte(`{"customer":"A","categories":"web"}`))
	var inc *IncompleteError
	require.True(t, errors.As(err, &inc))
	fields := []string{}
	for _, fe := range inc.Missing {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"categories", "customer"}, fields)

	_, err = DecodeSubmission([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrIncompleteQuote)
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Len(t, c.ByKind(KindPlan), 3)
	assert.NotEmpty(t, c.ByKind(KindService))
	for _, e := range c.ByKind(KindService) {
		assert.NotEmpty(t, e.Categories, e.ID)
	}
	assert.Len(t, Options(), 5)
}
