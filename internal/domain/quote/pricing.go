package quote

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Currency of every price in the catalog.
const Currency = "TRY"

// Choice is one selectable value of an option and its fixed surcharge.
type Choice struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	Surcharge int64  `json:"surcharge"`
}

// Option is a named selectable add-on or tier.
type Option struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Choices []Choice `json:"choices"`
}

func (o Option) choice(v string) (Choice, bool) {
	for _, c := range o.Choices {
		if c.Value == v {
			return c, true
		}
	}
	return Choice{}, false
}

func flagOption(key, label string, surcharge int64) Option {
	return Option{Key: key, Label: label, Choices: []Choice{
		{Value: "false", Label: "Hayır", Surcharge: 0},
		{Value: "true", Label: "Evet", Surcharge: surcharge},
	}}
}

var options = []Option{
	{Key: "teamSize", Label: "Ekip büyüklüğü", Choices: []Choice{
		{Value: "small", Label: "Küçük (1-2 kişi)", Surcharge: 0},
		{Value: "medium", Label: "Orta (3-5 kişi)", Surcharge: 1000},
		{Value: "large", Label: "Büyük (6+ kişi)", Surcharge: 2500},
	}},
	flagOption("hasDesigner", "Özel tasarımcı", 800),
	flagOption("ecommerce", "E-ticaret modülü", 1500),
	flagOption("multiLanguage", "Çoklu dil", 700),
	flagOption("seoPackage", "SEO paketi", 500),
}

// Options returns the surcharge table.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

func lookupOption(key string) (Option, bool) {
	for _, o := range options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// Selection maps option keys to chosen values. JSON booleans and numbers
// are accepted and kept as their text form.
type Selection map[string]string

func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Selection, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case bool:
			out[k] = strconv.FormatBool(t)
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			continue
		default:
			return fmt.Errorf("option %q: unsupported value %T", k, v)
		}
	}
	*s = out
	return nil
}

// normalized trims keys and lowercases values, dropping empty choices.
func (s Selection) normalized() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		k = strings.TrimSpace(k)
		v = strings.ToLower(strings.TrimSpace(v))
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Line is one priced option in a quote.
type Line struct {
	Option string `json:"option"`
	Choice string `json:"choice"`
	Amount int64  `json:"amount"`
}

// Price is the result of pricing a selection against a base price.
type Price struct {
	Base     int64  `json:"basePrice"`
	Lines    []Line `json:"lines"`
	Total    int64  `json:"computedPrice"`
	Currency string `json:"currency"`
}

// Compute prices sel on top of base. It is pure: the same inputs always give
// the same Price, with lines sorted by option key. Unknown options or choices
// are all reported in one ErrUnknownOption error.
func Compute(base int64, sel Selection) (Price, error) {
	sel = sel.normalized()
	keys := make([]string, 0, len(sel))
	for k := range sel {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := Price{Base: base, Total: base, Currency: Currency, Lines: make([]Line, 0, len(keys))}
	var bad []string
	for _, k := range keys {
		opt, ok := lookupOption(k)
		if !ok {
			bad = append(bad, k)
			continue
		}
		c, ok := opt.choice(sel[k])
		if !ok {
			bad = append(bad, k+"="+sel[k])
			continue
		}
		p.Lines = append(p.Lines, Line{Option: k, Choice: c.Value, Amount: c.Surcharge})
		p.Total += c.Surcharge
	}
	if len(bad) > 0 {
		return Price{}, fmt.Errorf("%w: %s", ErrUnknownOption, strings.Join(bad, ", "))
	}
	return p, nil
}

// unknownOptions reports the offending keys without pricing.
func unknownOptions(sel Selection) []FieldError {
	var errs []FieldError
	norm := sel.normalized()
	keys := make([]string, 0, len(norm))
	for k := range norm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opt, ok := lookupOption(k)
		if !ok {
			errs = append(errs, FieldError{Field: "selectedOptions." + k, Reason: ReasonUnknownOption})
			continue
		}
		if _, ok := opt.choice(norm[k]); !ok {
			errs = append(errs, FieldError{Field: "selectedOptions." + k, Reason: ReasonUnknownChoice})
		}
	}
	return errs
}
