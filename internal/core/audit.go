package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/cdm/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionCreate        AuditAction = "create"
	ActionUpdate        AuditAction = "update"
	ActionDelete        AuditAction = "delete"
	ActionBulkEdit      AuditAction = "bulk_edit"
	ActionBulkDelete    AuditAction = "bulk_delete"
	ActionUpload        AuditAction = "upload"
	ActionDefaultOrder  AuditAction = "default_order"
	ActionDriverReorder AuditAction = "driver_reorder"
	ActionDriverRename  AuditAction = "driver_rename"
	ActionTaxonomySeed  AuditAction = "taxonomy_seed"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow    AuditSeverity = "low"
	SeverityMedium AuditSeverity = "medium"
	SeverityHigh   AuditSeverity = "high"
)

// DefaultAuditLimit caps audit queries without an explicit limit.
const DefaultAuditLimit = 100

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	Kind         Kind          `json:"kind"`
	RecordID     string        `json:"recordId,omitempty"`
	Column       string        `json:"column,omitempty"`
	OldValue     string        `json:"oldValue,omitempty"`
	NewValue     string        `json:"newValue,omitempty"`
	RowsAffected int           `json:"rowsAffected,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditFilter contains filtering options for querying audit logs.
// Results are newest first.
type AuditFilter struct {
	Kind   Kind
	Action AuditAction
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// Matches reports whether e passes the filter, ignoring paging.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.CreatedAt.After(f.Until) {
		return false
	}
	return true
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionDelete, ActionBulkDelete, ActionBulkEdit, ActionUpload, ActionDriverRename:
		return SeverityHigh
	case ActionDefaultOrder, ActionDriverReorder:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// audit records an entry through st. Failures are logged, not returned, so
// an audit problem never undoes a committed edit.
func (s *Service) audit(ctx context.Context, st Store, e AuditEntry) {
	e.ID = s.newID()
	e.Severity = determineSeverity(e.Action)
	e.IPAddress = GetIPAddressFromContext(ctx)
	e.UserAgent = GetUserAgentFromContext(ctx)
	e.CreatedAt = s.now()

	if err := st.AppendAudit(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("audit append failed",
			"action", e.Action,
			"kind", e.Kind,
			"error", err,
		)
	}
}

// AuditLog returns audit entries, newest first.
func (s *Service) AuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = DefaultAuditLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.ListAudit(ctx, f)
}
