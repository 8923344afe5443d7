// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Events audit.Reader
	Log    *zap.Logger
}

// NewHandler constructs an Audit Log feature handler reading from events.
func NewHandler(events audit.Reader, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Log:    logger,
	}
}
