package formconfigs_test

import (
	"testing"

	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/stretchr/testify/require"
)

func contactForm() *formconfigs.FormConfig {
	return &formconfigs.FormConfig{
		UserID: "u1", BaseID: "appA", TableID: "tblB",
		Fields: []formconfigs.FieldSpec{
			{AirtableFieldID: "fldName", Name: "Name", Label: "Your name", Type: formconfigs.FieldTypeSingleLineText, IsRequired: true},
			{AirtableFieldID: "fldSub", Name: "Subscribe", Type: formconfigs.FieldTypeSingleSelect},
			{AirtableFieldID: "fldAgree", Name: "Agree", Type: "checkbox"},
			{
				AirtableFieldID: "fldEmail", Name: "Email", Type: formconfigs.FieldTypeSingleLineText, IsRequired: true,
				Conditional: &formconfigs.Conditional{ShowIfField: "fldSub", EqualsValue: "Yes"},
			},
			{
				AirtableFieldID: "fldReason", Name: "Reason", Type: formconfigs.FieldTypeMultilineText,
				Conditional: &formconfigs.Conditional{ShowIfField: "fldAgree", EqualsValue: "false"},
			},
			{
				AirtableFieldID: "fldOrphan", Name: "Orphan", Type: formconfigs.FieldTypeSingleLineText,
				Conditional: &formconfigs.Conditional{ShowIfField: "fldGone", EqualsValue: "x"},
			},
		},
	}
}

func TestConditional_Matches(t *testing.T) {
	tests := []struct {
		name   string
		equals string
		value  any
		want   bool
	}{
		{"string equal", "Yes", "Yes", true},
		{"string differs", "Yes", "No", false},
		{"string missing", "Yes", nil, false},
		{"true matches bool true", "true", true, true},
		{"true does not match string", "true", "true", false},
		{"false matches bool false", "false", false, true},
		{"false does not match missing", "false", nil, false},
		{"false does not match bool true", "false", true, false},
		{"number never matches", "1", 1.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := formconfigs.Conditional{ShowIfField: "fld", EqualsValue: tt.equals}
			require.Equal(t, tt.want, c.Matches(tt.value))
		})
	}
}

func TestFormConfig_IsVisible(t *testing.T) {
	form := contactForm()
	email, _ := form.FieldByID("fldEmail")
	reason, _ := form.FieldByID("fldReason")
	orphan, _ := form.FieldByID("fldOrphan")

	require.False(t, form.IsVisible(email, map[string]any{}))
	require.True(t, form.IsVisible(email, map[string]any{"Subscribe": "Yes"}))

	require.True(t, form.IsVisible(reason, map[string]any{"Agree": false}))
	require.False(t, form.IsVisible(reason, map[string]any{"Agree": "false"}))
	require.False(t, form.IsVisible(reason, map[string]any{}))

	require.True(t, form.IsVisible(orphan, map[string]any{}), "rules on unknown fields are ignored")
}

func TestFormConfig_Validate(t *testing.T) {
	form := contactForm()

	t.Run("missing visible required fields", func(t *testing.T) {
		errs := form.Validate(map[string]any{"Name": "", "Subscribe": "Yes"})
		require.Equal(t, formconfigs.FieldErrors{
			"Name":  "Your name is required.",
			"Email": "Email is required.",
		}, errs)
	})

	t.Run("hidden required field is not checked", func(t *testing.T) {
		errs := form.Validate(map[string]any{"Name": "Alice", "Subscribe": "No"})
		require.Empty(t, errs)
	})

	t.Run("false is a value, empty string is not", func(t *testing.T) {
		required := &formconfigs.FormConfig{Fields: []formconfigs.FieldSpec{
			{AirtableFieldID: "fldC", Name: "Consent", Type: "checkbox", IsRequired: true},
		}}
		require.Empty(t, required.Validate(map[string]any{"Consent": false}))
		require.Len(t, required.Validate(map[string]any{"Consent": ""}), 1)
		require.Len(t, required.Validate(map[string]any{}), 1)
	})
}

func TestFormConfig_PrepareSubmission(t *testing.T) {
	form := contactForm()

	out := form.PrepareSubmission(map[string]any{
		"Name":      "Alice",
		"Subscribe": "No",
		"Email":     "alice@example.com",
		"Agree":     false,
		"Reason":    "",
		"Unknown":   "dropped",
	})
	require.Equal(t, map[string]any{
		"Name":      "Alice",
		"Subscribe": "No",
		"Agree":     false,
	}, out)
}

func TestFormConfig_ValidateSelectChoices(t *testing.T) {
	form := &formconfigs.FormConfig{
		Fields: []formconfigs.FieldSpec{
			{AirtableFieldID: "fldStatus", Name: "Status", Type: formconfigs.FieldTypeSingleSelect,
				Options: formconfigs.DecodeFieldOptions(formconfigs.FieldTypeSingleSelect, []byte(`{"choices":[{"name":"New"},{"name":"Won"}]}`))},
			{AirtableFieldID: "fldTags", Name: "Tags", Label: "Tags", Type: formconfigs.FieldTypeMultipleSelects,
				Options: formconfigs.DecodeFieldOptions(formconfigs.FieldTypeMultipleSelects, []byte(`{"choices":[{"name":"a"},{"name":"b"}]}`))},
		},
	}

	require.Empty(t, form.Validate(map[string]any{"Status": "Won", "Tags": []any{"a", "b"}}))
	require.Empty(t, form.Validate(map[string]any{"Status": ""}))
	require.Equal(t, formconfigs.FieldErrors{
		"Status": "Status has an unknown option.",
		"Tags":   "Tags has an unknown option.",
	}, form.Validate(map[string]any{"Status": "Lost", "Tags": []any{"a", "z"}}))
}

func TestValidationError(t *testing.T) {
	err := &formconfigs.ValidationError{Fields: formconfigs.FieldErrors{"Name": "Name is required."}}
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Contains(t, err.Error(), "Name")
}
