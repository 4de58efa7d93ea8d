package formconfigs

import (
	"time"
)

// FieldType is the Airtable field type tag, e.g. "singleLineText".
type FieldType string

const (
	FieldTypeSingleLineText  FieldType = "singleLineText"
	FieldTypeMultilineText   FieldType = "multilineText"
	FieldTypeSingleSelect    FieldType = "singleSelect"
	FieldTypeMultipleSelects FieldType = "multipleSelects"
	FieldTypeAttachment      FieldType = "attachment"
)

// SupportedFieldTypes is the allow-list the form builder offers. The store
// does not enforce it: configs are persisted with whatever types they carry.
var SupportedFieldTypes = []FieldType{
	FieldTypeSingleLineText,
	FieldTypeMultilineText,
	FieldTypeSingleSelect,
	FieldTypeMultipleSelects,
	FieldTypeAttachment,
}

// IsSupported reports whether the builder offers fields of this type
func (t FieldType) IsSupported() bool {
	for _, supported := range SupportedFieldTypes {
		if t == supported {
			return true
		}
	}
	return false
}

// FormConfig is a user's public form definition for one Airtable table.
// It is unique per (UserID, BaseID, TableID) and saved as a whole.
type FormConfig struct {
	UserID    string      `json:"userId" validate:"required"`
	BaseID    string      `json:"baseId" validate:"required"`
	TableID   string      `json:"tableId" validate:"required"`
	TableName string      `json:"tableName"`
	Fields    []FieldSpec `json:"fields"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FieldSpec is one Airtable field included in the form.
type FieldSpec struct {
	AirtableFieldID string       `json:"airtableFieldId"`
	Name            string       `json:"name"`
	Label           string       `json:"label"`
	Type            FieldType    `json:"type"`
	IsRequired      bool         `json:"isRequired"`
	Options         FieldOptions `json:"options"`
	Conditional     *Conditional `json:"conditional"`
}

// DisplayLabel falls back to the Airtable field name when no label was set
func (f FieldSpec) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Conditional shows a field only while another field holds a given value.
type Conditional struct {
	// ShowIfField is the airtableFieldId of the controlling field
	ShowIfField string `json:"showIfField"`
	// EqualsValue is compared to the controller's value; "true" and "false"
	// match boolean values, anything else matches strings exactly.
	EqualsValue string `json:"equalsValue"`
}

// Summary is the list projection of a FormConfig. It never carries fields.
type Summary struct {
	TableName string `json:"tableName"`
	BaseID    string `json:"baseId"`
	TableID   string `json:"tableId"`
}

func (c *FormConfig) Summary() Summary {
	return Summary{TableName: c.TableName, BaseID: c.BaseID, TableID: c.TableID}
}

// FieldByID finds a configured field by its Airtable field id
func (c *FormConfig) FieldByID(fieldID string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.AirtableFieldID == fieldID {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldByName finds a configured field by its Airtable field name, which is
// also the key used in submitted values
func (c *FormConfig) FieldByName(name string) (FieldSpec, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}
