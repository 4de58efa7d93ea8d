package forms

import (
	"context"
	"encoding/json"
)

// Gateway is the part of airtable.Gateway the form services use
type Gateway interface {
	ListBases(ctx context.Context, userID string) (json.RawMessage, error)
	ListTables(ctx context.Context, userID, baseID string) (json.RawMessage, error)
	CreateRecord(ctx context.Context, userID, baseID, tableID string, fields json.RawMessage) (json.RawMessage, error)
}
