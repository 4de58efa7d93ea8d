package server

import (
	"encoding/json"

	"github.com/jrsteele09/go-airtable-forms/formconfigs"
)

// saveFormConfigRequest is the body of POST /api/form-config
type saveFormConfigRequest struct {
	UserID    string                  `json:"userId" validate:"required"`
	BaseID    string                  `json:"baseId" validate:"required"`
	TableID   string                  `json:"tableId" validate:"required"`
	TableName string                  `json:"tableName"`
	Fields    []formconfigs.FieldSpec `json:"fields"`
}

func (req saveFormConfigRequest) formConfig() *formconfigs.FormConfig {
	return &formconfigs.FormConfig{
		UserID:    req.UserID,
		BaseID:    req.BaseID,
		TableID:   req.TableID,
		TableName: req.TableName,
		Fields:    req.Fields,
	}
}

type saveFormConfigResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type submitResponse struct {
	Success bool            `json:"success"`
	Record  json.RawMessage `json:"record"`
}
