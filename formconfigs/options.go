package formconfigs

import (
	"bytes"
	"encoding/json"
	"slices"
)

// FieldOptions holds Airtable's per-type field options. Known shapes are
// decoded into the typed members; Raw always keeps the payload exactly as
// received so unknown shapes are stored and forwarded unchanged.
type FieldOptions struct {
	Select     *SelectOptions
	Attachment *AttachmentOptions
	Raw        json.RawMessage
}

// SelectOptions are the options of singleSelect and multipleSelects fields
type SelectOptions struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// AttachmentOptions are the options of attachment fields
type AttachmentOptions struct {
	IsReversed bool `json:"isReversed"`
}

// DecodeFieldOptions interprets raw options according to the field type.
// Payloads that do not match the expected shape are kept in Raw only.
func DecodeFieldOptions(fieldType FieldType, raw json.RawMessage) FieldOptions {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return FieldOptions{}
	}
	opts := FieldOptions{Raw: append(json.RawMessage(nil), raw...)}

	switch fieldType {
	case FieldTypeSingleSelect, FieldTypeMultipleSelects:
		var sel SelectOptions
		if err := json.Unmarshal(raw, &sel); err == nil {
			opts.Select = &sel
		}
	case FieldTypeAttachment:
		var att AttachmentOptions
		if err := json.Unmarshal(raw, &att); err == nil {
			opts.Attachment = &att
		}
	}
	return opts
}

// IsZero reports whether no options were supplied
func (o FieldOptions) IsZero() bool {
	return len(o.Raw) == 0 && o.Select == nil && o.Attachment == nil
}

// ChoiceNames lists the select choices in order
func (o FieldOptions) ChoiceNames() []string {
	if o.Select == nil {
		return nil
	}
	names := make([]string, 0, len(o.Select.Choices))
	for _, c := range o.Select.Choices {
		names = append(names, c.Name)
	}
	return names
}

func (o FieldOptions) MarshalJSON() ([]byte, error) {
	switch {
	case o.IsZero():
		return []byte("null"), nil
	case len(o.Raw) > 0:
		return o.Raw, nil
	case o.Select != nil:
		return json.Marshal(o.Select)
	case o.Attachment != nil:
		return json.Marshal(o.Attachment)
	}
	return []byte("null"), nil
}

// hasChoice reports whether name is one of the select choices. Fields
// without decoded choices accept any value.
func (o FieldOptions) hasChoice(name string) bool {
	if o.Select == nil {
		return true
	}
	return slices.Contains(o.ChoiceNames(), name)
}

func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	type alias FieldSpec
	aux := struct {
		*alias
		Options json.RawMessage `json:"options"`
	}{alias: (*alias)(f)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Options = DecodeFieldOptions(f.Type, aux.Options)
	return nil
}
