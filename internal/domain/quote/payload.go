package quote

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// submissionSchema checks the JSON shape of a submission before it is
// decoded, so type mistakes are reported per field instead of as one decode
// error. Presence of required values is left to Accept.
const submissionSchema = `{
  "type": "object",
  "properties": {
    "kind": {"type": "string"},
    "customer": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "email": {"type": "string"},
        "phone": {"type": "string"},
        "company": {"type": "string"}
      }
    },
    "planOrServiceId": {"type": "string"},
    "categories": {"type": "array", "items": {"type": "string"}},
    "selectedOptions": {
      "type": "object",
      "additionalProperties": {"type": ["string", "boolean", "number"]}
    },
    "message": {"type": "string", "maxLength": 5000}
  }
}`

var submissionLoader = gojsonschema.NewStringLoader(submissionSchema)

// DecodeSubmission validates raw against the submission schema and decodes
// it. Shape problems come back as an *IncompleteError listing each field.
func DecodeSubmission(raw []byte) (Submission, error) {
	result, err := gojsonschema.Validate(submissionLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Submission{}, &IncompleteError{Missing: []FieldError{{Field: "body", Reason: "malformed JSON"}}}
	}
	if !result.Valid() {
		var errs []FieldError
		for _, desc := range result.Errors() {
			errs = append(errs, FieldError{Field: schemaField(desc.Field()), Reason: ReasonWrongType + ": " + desc.Description()})
		}
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return Submission{}, &IncompleteError{Missing: errs}
	}
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	return sub, nil
}

// schemaField turns gojsonschema's "(root)" / "customer.name" paths into the
// names used elsewhere in FieldError.
func schemaField(f string) string {
	if f == "(root)" || f == "" {
		return "body"
	}
	return strings.TrimPrefix(f, "(root).")
}
