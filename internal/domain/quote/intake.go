package quote

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/validate"
)

// Reasons reported in FieldError.
const (
	ReasonRequired      = "required"
	ReasonInvalid       = "invalid"
	ReasonUnresolvable  = "unknown plan or service"
	ReasonUnknownOption = "unknown option"
	ReasonUnknownChoice = "unknown choice"
	ReasonUnknownCat    = "unknown category"
	ReasonWrongType     = "wrong type"
)

// FieldError is one missing or invalid part of a submission.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// IncompleteError lists every problem found in a submission.
type IncompleteError struct {
	Missing []FieldError
}

func (e *IncompleteError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, fe := range e.Missing {
		parts[i] = fe.Field + ": " + fe.Reason
	}
	return "incomplete quote: " + strings.Join(parts, "; ")
}

// Is matches ErrIncompleteQuote always and ErrUnknownOption when an option or
// choice was not recognised.
func (e *IncompleteError) Is(target error) bool {
	switch target {
	case ErrIncompleteQuote:
		return true
	case ErrUnknownOption:
		for _, fe := range e.Missing {
			if fe.Reason == ReasonUnknownOption || fe.Reason == ReasonUnknownChoice {
				return true
			}
		}
	}
	return false
}

// Customer is the contact block of a quote. Company is optional.
type Customer struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"required,max=40"`
	Company string `json:"company" validate:"max=200"`
}

func (c Customer) trimmed() Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:   strings.TrimSpace(c.Phone),
		Company: strings.TrimSpace(c.Company),
	}
}

func (c Customer) value(name string) string {
	switch name {
	case "name":
		return c.Name
	case "email":
		return c.Email
	case "phone":
		return c.Phone
	case "company":
		return c.Company
	}
	return ""
}

// Submission is a quote request as received from the public form.
type Submission struct {
	Kind            Kind      `json:"kind"`
	Customer        Customer  `json:"customer"`
	PlanOrServiceID string    `json:"planOrServiceId"`
	Categories      []string  `json:"categories"`
	SelectedOptions Selection `json:"selectedOptions"`
	Message         string    `json:"message"`
}

// Accepted is a validated and priced submission, ready to be stored.
type Accepted struct {
	Kind       Kind
	Customer   Customer
	Entry      Entry
	Categories []string
	Options    Selection
	Price      Price
	Message    string
}

// Intake validates and prices submissions against a catalog.
type Intake struct {
	catalog *Catalog
	v       *validate.Validator
}

func NewIntake(c *Catalog) *Intake {
	return &Intake{catalog: c, v: validate.New()}
}

func (in *Intake) Catalog() *Catalog { return in.catalog }

// Accept checks sub and prices it. Every problem is collected into one
// *IncompleteError; nothing is short-circuited.
func (in *Intake) Accept(sub Submission) (Accepted, error) {
	cust := sub.Customer.trimmed()
	missing := in.customerErrors(cust)

	entry, resolved := in.catalog.Lookup(sub.PlanOrServiceID)
	switch {
	case strings.TrimSpace(sub.PlanOrServiceID) == "":
		missing = append(missing, FieldError{Field: "planOrServiceId", Reason: ReasonRequired})
	case !resolved:
		missing = append(missing, FieldError{Field: "planOrServiceId", Reason: ReasonUnresolvable})
	}

	kind := sub.Kind
	if kind == "" && resolved {
		kind = entry.Kind
	}
	if kind != KindPlan && kind != KindService {
		missing = append(missing, FieldError{Field: "kind", Reason: ReasonInvalid})
	} else if resolved && kind != entry.Kind {
		missing = append(missing, FieldError{Field: "planOrServiceId", Reason: ReasonUnresolvable})
	}

	cats := cleanCategories(sub.Categories)
	if kind == KindService {
		if len(cats) == 0 {
			missing = append(missing, FieldError{Field: "categories", Reason: ReasonRequired})
		}
		if resolved {
			for _, c := range cats {
				if !entry.HasCategory(c) {
					missing = append(missing, FieldError{Field: "categories." + c, Reason: ReasonUnknownCat})
				}
			}
		}
	}

	missing = append(missing, unknownOptions(sub.SelectedOptions)...)
	if len(missing) > 0 {
		return Accepted{}, &IncompleteError{Missing: missing}
	}

	price, err := Compute(entry.BasePrice, sub.SelectedOptions)
	if err != nil {
		return Accepted{}, err
	}
	return Accepted{
		Kind:       kind,
		Customer:   cust,
		Entry:      entry,
		Categories: cats,
		Options:    sub.SelectedOptions.normalized(),
		Price:      price,
		Message:    strings.TrimSpace(sub.Message),
	}, nil
}

// Estimate prices a plan or service with a selection, without customer data.
func (in *Intake) Estimate(id string, sel Selection) (Entry, Price, error) {
	entry, ok := in.catalog.Lookup(id)
	if !ok {
		return Entry{}, Price{}, &IncompleteError{Missing: []FieldError{{Field: "planOrServiceId", Reason: ReasonUnresolvable}}}
	}
	p, err := Compute(entry.BasePrice, sel)
	return entry, p, err
}

// customerErrors runs the struct rules and keeps one failure per field.
// Empty fields report "required"; anything else reports "invalid".
func (in *Intake) customerErrors(c Customer) []FieldError {
	err := in.v.Struct(c)
	if err == nil {
		return nil
	}
	errs, ok := err.(validate.Errors)
	if !ok {
		return []FieldError{{Field: "customer", Reason: ReasonInvalid}}
	}
	var out []FieldError
	seen := map[string]bool{}
	for _, e := range errs {
		name := jsonName(e.Field)
		if seen[name] {
			continue
		}
		seen[name] = true
		reason := ReasonInvalid
		if e.Rule == "required" || c.value(name) == "" {
			reason = ReasonRequired
		}
		out = append(out, FieldError{Field: "customer." + name, Reason: reason})
	}
	return out
}

// jsonName maps a struct field name to its json tag form.
func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func cleanCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
