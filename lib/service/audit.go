package service

import (
	"context"

	"github.com/rs/zerolog"
)

// AuditEntry describes a single ledger mutation for the audit trail.
type AuditEntry struct {
	Action      string      `json:"action"`
	EntityType  string      `json:"entity_type"`
	EntityID    int64       `json:"entity_id"`
	Description string      `json:"description"`
	OldValues   interface{} `json:"old_values,omitempty"`
	NewValues   interface{} `json:"new_values,omitempty"`
}

// AuditSink receives mutation notifications. Sinks are best effort: the
// ledger never waits on them and never fails because of them.
type AuditSink interface {
	Log(ctx context.Context, entry AuditEntry) error
}

// notifyAudit forwards an entry to the configured sink. Failures are
// logged and swallowed, a mutation that already committed stays committed.
func (svc *LedgerService) notifyAudit(ctx context.Context, entry AuditEntry) {
	if svc.AuditSink == nil {
		return
	}
	if err := svc.AuditSink.Log(ctx, entry); err != nil {
		svc.Logger.Errorf("Failed to notify audit sink: action:%s entity:%s id:%d error: %v",
			entry.Action, entry.EntityType, entry.EntityID, err)
	}
}

// LoggerAuditSink writes audit entries to a zerolog logger.
type LoggerAuditSink struct {
	Logger zerolog.Logger
}

func (s *LoggerAuditSink) Log(ctx context.Context, entry AuditEntry) error {
	s.Logger.Info().
		Str("action", entry.Action).
		Str("entity_type", entry.EntityType).
		Int64("entity_id", entry.EntityID).
		Str("description", entry.Description).
		Interface("old_values", entry.OldValues).
		Interface("new_values", entry.NewValues).
		Msg("audit")
	return nil
}
