package audit

import (
	"context"

	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

// Audit actions.
const (
	ActionCreateWebsite  = "website.create"
	ActionCreateSnapshot = "snapshot.create"
	ActionSaveAnalysis   = "snapshot.analysis"
	ActionGenerateReport = "report.generate"
)

// Field constants for audit entries.
const (
	FieldAction     = "action"
	FieldWebsiteID  = "website_id"
	FieldSnapshotID = "snapshot_id"
	FieldDetail     = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, organizationID, websiteID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldOrganizationID, organizationID).
		Str(FieldWebsiteID, websiteID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, organizationID, websiteID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldOrganizationID, organizationID).
		Str(FieldWebsiteID, websiteID).
		Str(FieldDetail, detail).
		Msg(msg)
}
