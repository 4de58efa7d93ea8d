package formconfigs

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
)

// FieldErrors maps a field name to its validation message
type FieldErrors map[string]string

// ValidationError is returned when submitted values fail the form's rules.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: missing %s", apperrors.ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == apperrors.ErrValidation
}

// Matches compares a controller value with EqualsValue. The literals "true"
// and "false" only match booleans; everything else only matches an equal string.
func (c Conditional) Matches(value any) bool {
	switch c.EqualsValue {
	case "true":
		b, ok := value.(bool)
		return ok && b
	case "false":
		b, ok := value.(bool)
		return ok && !b
	}
	s, ok := value.(string)
	return ok && s == c.EqualsValue
}

// IsVisible reports whether field is shown given the current values, keyed by
// field name. A rule pointing at a field that is not part of the form is ignored.
func (c *FormConfig) IsVisible(field FieldSpec, values map[string]any) bool {
	if field.Conditional == nil {
		return true
	}
	controller, ok := c.FieldByID(field.Conditional.ShowIfField)
	if !ok {
		return true
	}
	return field.Conditional.Matches(values[controller.Name])
}

// Validate returns an error for every visible required field whose value is
// missing. Booleans are never missing since false is a valid checkbox state.
// Answers to select fields must name one of the field's choices.
func (c *FormConfig) Validate(values map[string]any) FieldErrors {
	errs := FieldErrors{}
	for _, field := range c.Fields {
		if !c.IsVisible(field, values) {
			continue
		}
		value := values[field.Name]
		if isMissing(value) {
			if field.IsRequired {
				errs[field.Name] = fmt.Sprintf("%s is required.", field.DisplayLabel())
			}
			continue
		}
		if !field.acceptsChoices(value) {
			errs[field.Name] = fmt.Sprintf("%s has an unknown option.", field.DisplayLabel())
		}
	}
	return errs
}

func (f FieldSpec) acceptsChoices(value any) bool {
	switch f.Type {
	case FieldTypeSingleSelect:
		name, ok := value.(string)
		return !ok || f.Options.hasChoice(name)
	case FieldTypeMultipleSelects:
		names, ok := value.([]any)
		if !ok {
			return true
		}
		for _, n := range names {
			if name, ok := n.(string); ok && !f.Options.hasChoice(name) {
				return false
			}
		}
	}
	return true
}

// PrepareSubmission keeps the values of configured, visible fields that hold
// something; hidden answers are dropped so they never reach Airtable.
func (c *FormConfig) PrepareSubmission(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for name, value := range values {
		field, ok := c.FieldByName(name)
		if !ok || !c.IsVisible(field, values) || isMissing(value) {
			continue
		}
		out[name] = value
	}
	return out
}

func isMissing(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return false
	}
	return false
}
