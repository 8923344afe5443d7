// internal/app/features/auditlog/types.go
package auditlog

import (
	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
)

// listResponse is one page of audit events.
type listResponse struct {
	Events     []eventItem `json:"events"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	HasMore    bool        `json:"has_more"`
}

// eventItem is the JSON shape of one audit event.
type eventItem struct {
	ID            string            `json:"id"`
	Timestamp     string            `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorRole     string            `json:"actor_role,omitempty"`
	SubjectID     string            `json:"subject_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// categoryEvents lists the event types of each category; it bounds the
// category and event_type filters.
var categoryEvents = map[string][]string{
	audit.CategoryLedger: {
		audit.EventDisciplineIssued,
		audit.EventMeritAwarded,
		audit.EventPaymentRecorded,
	},
	audit.CategoryCatalog: {
		audit.EventOffenceCreated,
		audit.EventOffenceUpdated,
		audit.EventOffenceDeleted,
	},
	audit.CategoryAuth: {
		audit.EventSessionStarted,
		audit.EventSessionEnded,
		audit.EventSessionRejected,
	},
}

func knownEventType(t string) bool {
	for _, types := range categoryEvents {
		for _, et := range types {
			if et == t {
				return true
			}
		}
	}
	return false
}
