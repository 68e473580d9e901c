package sectioneditor

import (
	"github.com/dalemusser/stratasite/internal/domain/content"
)

// Form is the edit form of one section: its fields in schema order with
// their current values.
type Form struct {
	SectionID string              `json:"sectionId"`
	Type      content.SectionType `json:"type"`
	Label     string              `json:"label"`
	Legacy    bool                `json:"legacy"`
	Fields    []FormField         `json:"fields"`
	// Problems lists required fields the stored section leaves empty.
	Problems []content.FieldError `json:"problems,omitempty"`
}

// FormField is one input of a Form. Value holds the stored value in its
// native JSON shape, or nil when the field is unset.
type FormField struct {
	Name     string              `json:"name"`
	Label    string              `json:"label"`
	Kind     content.FieldKind   `json:"kind"`
	Required bool                `json:"required"`
	Value    any                 `json:"value"`
	Item     []content.FieldSpec `json:"item,omitempty"`
}

// FormFor builds the form of s. Sections of a type outside the closed set get
// one text field per stored key, in key order.
func FormFor(s content.Section) Form {
	schema, ok := content.SchemaFor(s.Type)
	if !ok {
		f := Form{SectionID: s.ID, Type: s.Type, Label: string(s.Type), Legacy: true}
		for _, k := range s.Fields.Keys() {
			f.Fields = append(f.Fields, FormField{
				Name:  k,
				Label: k,
				Kind:  content.KindText,
				Value: s.Fields[k].String(),
			})
		}
		return f
	}

	f := Form{SectionID: s.ID, Type: s.Type, Label: schema.Label, Problems: content.CheckRequired(s)}
	for _, spec := range schema.Fields {
		ff := FormField{
			Name:     spec.Name,
			Label:    spec.Label,
			Kind:     spec.Kind,
			Required: spec.Required,
			Item:     spec.Item,
		}
		if v, ok := s.Fields[spec.Name]; ok {
			ff.Value = v.Native()
		} else if spec.Kind == content.KindBoolean {
			ff.Value = false
		}
		f.Fields = append(f.Fields, ff)
	}
	return f
}
