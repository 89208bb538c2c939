package worker

import (
	"github.com/karsaku/session-gate/internal/service"
)

// StartAuditWorker registers the audit handlers on the session event stream.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
