package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin                = "LOGIN"
	AuditActionOfficerIntake        = "OFFICER_INTAKE"
	AuditActionTransferIn           = "TRANSFER_IN"
	AuditActionTransferOut          = "TRANSFER_OUT"
	AuditActionOfficerRemove        = "OFFICER_REMOVE"
	AuditActionOfficerMerge         = "OFFICER_MERGE"
	AuditActionBirthdateUpdate      = "BIRTHDATE_UPDATE"
	AuditActionAssignmentAdd        = "ASSIGNMENT_ADD"
	AuditActionAssignmentEnd        = "ASSIGNMENT_END"
	AuditActionClassificationManual = "CLASSIFICATION_MANUAL"
	AuditActionClassificationClear  = "CLASSIFICATION_CLEAR"
	AuditActionBaselineReset        = "BASELINE_RESET"
	AuditActionViewClear            = "VIEW_CLEAR"
)

// AuditEntry is one append-only row of the audit trail. Before and After are JSON snapshots of
// the persisted rows, so encrypted columns stay ciphertext.
type AuditEntry struct {
	ID         string         `db:"id" json:"id"`
	Actor      string         `db:"actor" json:"actor"`
	Action     string         `db:"action" json:"action"`
	TableName  string         `db:"table_name" json:"table_name"`
	RecordID   string         `db:"record_id" json:"record_id"`
	Before     types.JSONText `db:"before_data" json:"before,omitempty"`
	After      types.JSONText `db:"after_data" json:"after,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	ClientMeta types.JSONText `db:"client_meta" json:"client_meta,omitempty"`
}

// AuditFilter constrains audit listings.
type AuditFilter struct {
	TableName string
	RecordID  string
	Actor     string
	Action    string
	Page      int
	PageSize  int
}

// ClientMeta describes the caller of a mutating request.
type ClientMeta struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id"`
}

type clientMetaKey struct{}

// WithClientMeta stores the request client metadata on the context.
func WithClientMeta(ctx context.Context, meta ClientMeta) context.Context {
	return context.WithValue(ctx, clientMetaKey{}, meta)
}

// ClientMetaFrom returns the client metadata carried by ctx, if any.
func ClientMetaFrom(ctx context.Context) ClientMeta {
	if ctx == nil {
		return ClientMeta{}
	}
	meta, _ := ctx.Value(clientMetaKey{}).(ClientMeta)
	return meta
}

// JSONText renders the metadata for the audit row; empty metadata yields nil.
func (m ClientMeta) JSONText() types.JSONText {
	if m == (ClientMeta{}) {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return types.JSONText(raw)
}
