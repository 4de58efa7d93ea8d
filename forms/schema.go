package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-airtable-forms/formconfigs"
	apperrors "github.com/jrsteele09/go-airtable-forms/internal/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SchemaService exposes the Airtable schema the form builder works from.
type SchemaService struct {
	gateway Gateway
}

func NewSchemaService(gateway Gateway) *SchemaService {
	return &SchemaService{gateway: gateway}
}

// ListBases passes the provider's base list through unchanged
func (s *SchemaService) ListBases(ctx context.Context, userID string) (json.RawMessage, error) {
	bases, err := s.gateway.ListBases(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[SchemaService ListBases]")
	}
	return bases, nil
}

// ListTables passes the provider's table list for a base through unchanged
func (s *SchemaService) ListTables(ctx context.Context, userID, baseID string) (json.RawMessage, error) {
	tables, err := s.gateway.ListTables(ctx, userID, baseID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[SchemaService ListTables] base %s", baseID)
	}
	return tables, nil
}

// GetTableFields returns the table object (id, name, fields, ...) for tableID.
// Airtable has no single-table endpoint so the base's tables are searched.
func (s *SchemaService) GetTableFields(ctx context.Context, userID, baseID, tableID string) (json.RawMessage, error) {
	tables, err := s.gateway.ListTables(ctx, userID, baseID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[SchemaService GetTableFields] base %s", baseID)
	}

	var table gjson.Result
	gjson.GetBytes(tables, "tables").ForEach(func(_, t gjson.Result) bool {
		if t.Get("id").String() == tableID {
			table = t
			return false
		}
		return true
	})
	if !table.Exists() {
		return nil, fmt.Errorf("[SchemaService GetTableFields] %s/%s: %w", baseID, tableID, apperrors.ErrTableNotFound)
	}
	return json.RawMessage(table.Raw), nil
}

// SupportedTableFields is GetTableFields with the fields the builder cannot
// render removed
func (s *SchemaService) SupportedTableFields(ctx context.Context, userID, baseID, tableID string) (json.RawMessage, error) {
	table, err := s.GetTableFields(ctx, userID, baseID, tableID)
	if err != nil {
		return nil, err
	}

	var kept bytes.Buffer
	kept.WriteByte('[')
	gjson.GetBytes(table, "fields").ForEach(func(_, f gjson.Result) bool {
		if formconfigs.FieldType(f.Get("type").String()).IsSupported() {
			if kept.Len() > 1 {
				kept.WriteByte(',')
			}
			kept.WriteString(f.Raw)
		}
		return true
	})
	kept.WriteByte(']')

	filtered, err := sjson.SetRawBytes(table, "fields", kept.Bytes())
	if err != nil {
		return nil, apperrors.Wrapf(err, "[SchemaService SupportedTableFields] %s", tableID)
	}
	return filtered, nil
}

// TableFieldSpecs is the default form for a table, used by the builder
// before a config has been saved
func (s *SchemaService) TableFieldSpecs(ctx context.Context, userID, baseID, tableID string) ([]formconfigs.FieldSpec, error) {
	table, err := s.GetTableFields(ctx, userID, baseID, tableID)
	if err != nil {
		return nil, err
	}
	return DefaultFieldSpecs(table), nil
}

// DefaultFieldSpecs is the builder's starting point for a table: every
// supported field, labelled with its name, optional, always visible.
func DefaultFieldSpecs(table json.RawMessage) []formconfigs.FieldSpec {
	specs := []formconfigs.FieldSpec{}
	gjson.GetBytes(table, "fields").ForEach(func(_, f gjson.Result) bool {
		fieldType := formconfigs.FieldType(f.Get("type").String())
		if !fieldType.IsSupported() {
			return true
		}
		specs = append(specs, formconfigs.FieldSpec{
			AirtableFieldID: f.Get("id").String(),
			Name:            f.Get("name").String(),
			Label:           f.Get("name").String(),
			Type:            fieldType,
			Options:         formconfigs.DecodeFieldOptions(fieldType, json.RawMessage(f.Get("options").Raw)),
		})
		return true
	})
	return specs
}
