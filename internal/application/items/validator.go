package items

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed item.schema.json
var itemSchema []byte

// rootContext is how gojsonschema names the document root
const rootContext = "(root)"

// ErrMalformed is returned when a body cannot be read as a JSON document
var ErrMalformed = errors.New("malformed item body")

// FieldError describes a single schema violation
type FieldError struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ValidationError is returned when a document fails the Item schema
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "item failed schema validation: " + strings.Join(parts, "; ")
}

// Validator validates and decodes Item documents
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the embedded Item schema
func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(itemSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to load item schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Decode validates raw against the Item schema and decodes it
func (v *Validator) Decode(raw []byte) (*Item, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	// encoding/json would silently substitute U+FFFD
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrMalformed)
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !result.Valid() {
		return nil, newValidationError(result.Errors())
	}

	var item Item
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &item, nil
}

func newValidationError(errs []gojsonschema.ResultError) *ValidationError {
	fields := make([]FieldError, 0, len(errs))
	for _, re := range errs {
		fields = append(fields, FieldError{
			Field:   fieldName(re),
			Reason:  re.Type(),
			Message: re.Description(),
		})
	}

	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Field < fields[j].Field
	})

	return &ValidationError{Fields: fields}
}

// fieldName resolves the JSON property an error refers to. Missing-property
// errors are reported against the parent object, so the property name comes
// from the error details instead. Errors on the document itself map to "body".
func fieldName(re gojsonschema.ResultError) string {
	field := re.Field()

	if re.Type() == "required" {
		property, ok := re.Details()["property"].(string)
		if !ok || property == "" {
			return field
		}
		if field == "" || field == rootContext {
			return property
		}
		if field == property || strings.HasSuffix(field, "."+property) {
			return field
		}
		return field + "." + property
	}

	if field == rootContext {
		return "body"
	}
	return field
}
