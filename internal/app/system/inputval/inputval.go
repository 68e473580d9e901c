// Package inputval validates decoded request bodies with waffle/pantry/validate
// struct tags and turns failures into per-field messages for the site's
// visitors. The `label` tag names a field in messages; without it the JSON
// name is used.
package inputval

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// FieldErrors converts the result for a jsonutil.FieldErrors response.
func (r *Result) FieldErrors() []jsonutil.FieldError {
	out := make([]jsonutil.FieldError, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = jsonutil.FieldError{Field: e.Field, Reason: e.Message}
	}
	return out
}

var (
	validator     *validate.Validator
	validatorOnce sync.Once
)

// rules are the site-specific rules added to the pantry set. Optional
// fields pass when empty; pair with required to demand a value.
var rules = map[string]func(string) bool{
	"role":    models.IsValidRole,
	"phone":   func(s string) bool { return s == "" || IsValidPhone(s) },
	"httpurl": func(s string) bool { return s == "" || IsValidHTTPURL(s) },
}

func get() *validate.Validator {
	validatorOnce.Do(func() {
		validator = validate.New(validate.WithStopOnFirstError())
		for name, fn := range rules {
			fn := fn
			validator.RegisterRuleFunc(name, func(value any) bool {
				s, ok := value.(string)
				return ok && fn(strings.TrimSpace(s))
			}, name)
		}
	})
	return validator
}

// Validate checks s against its `validate` tags. The result is never nil.
//
// Besides the pantry rules (required, email, oneof, min, max) three site
// rules are available: role, phone and httpurl.
func Validate(s any) *Result {
	res := &Result{}
	err := get().Struct(s)
	if err == nil {
		return res
	}
	errs, ok := err.(validate.Errors)
	if !ok {
		return res
	}

	labels := labelsOf(s)
	for _, e := range errs {
		label := labels[e.Field]
		if label == "" {
			label = e.Field
		}
		res.Errors = append(res.Errors, FieldError{
			Field:   e.Field,
			Label:   label,
			Message: message(label, e.Rule, e.Param),
		})
	}
	return res
}

// labelsOf maps each field's JSON name (or Go name) to its label tag.
func labelsOf(s any) map[string]string {
	labels := make(map[string]string)
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return labels
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		label := f.Tag.Get("label")
		if label == "" {
			continue
		}
		name := f.Name
		if j, _, _ := strings.Cut(f.Tag.Get("json"), ","); j != "" && j != "-" {
			name = j
		}
		labels[name] = label
	}
	return labels
}

func message(label, rule, param string) string {
	switch rule {
	case "required":
		return fmt.Sprintf("%s zorunludur.", label)
	case "email":
		return "Geçerli bir e-posta adresi girin."
	case "oneof", "enum":
		return fmt.Sprintf("%s şunlardan biri olmalı: %s.", label, strings.ReplaceAll(param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s en az %s karakter olmalı.", label, param)
	case "max":
		return fmt.Sprintf("%s en fazla %s karakter olmalı.", label, param)
	case "role":
		return fmt.Sprintf("%s şunlardan biri olmalı: %s.", label, strings.Join(models.AllRoles(), ", "))
	case "phone":
		return fmt.Sprintf("%s geçerli bir telefon numarası olmalı.", label)
	case "httpurl":
		return fmt.Sprintf("%s http:// veya https:// ile başlamalı.", label)
	default:
		return fmt.Sprintf("%s geçersiz.", label)
	}
}

// IsValidPhone reports whether s has 7 to 15 digits and otherwise only a
// leading +, spaces, dashes, dots or parentheses.
func IsValidPhone(s string) bool {
	digits := 0
	for i, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case strings.ContainsRune(" -.()", r):
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

// IsValidHTTPURL reports whether s parses as an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
