// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/mwanacheck/internal/app/store/audit"
	"github.com/dalemusser/mwanacheck/internal/app/system/ratelimit"
	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"go.uber.org/zap"
)

// Modes for where audit events go.
const (
	ModeAll = "all" // store + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Sink persists audit events. The MongoDB audit store, the in-memory
// store and the relational store all provide one.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger writes audit events to a Sink and/or zap depending on mode.
// A nil *Logger is a no-op.
type Logger struct {
	sink       Sink
	zapLog     *zap.Logger
	mode       string
	trustProxy bool
}

// New creates an audit Logger. A nil sink downgrades "all" and "db" to
// logging only.
func New(sink Sink, zapLog *zap.Logger, mode string) *Logger {
	switch mode {
	case ModeAll, ModeDB, ModeLog, ModeOff:
	default:
		mode = ModeAll
	}
	return &Logger{sink: sink, zapLog: zapLog, mode: mode}
}

// TrustProxyHeaders makes the logger take client IPs from forwarding
// headers. Only enable it behind a reverse proxy.
func (l *Logger) TrustProxyHeaders(trust bool) {
	if l != nil {
		l.trustProxy = trust
	}
}

func (l *Logger) clientIP(r *http.Request) string {
	return ratelimit.ClientIP(r, l != nil && l.trustProxy)
}

// ValidMode reports whether m is a recognised mode.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.SchoolID != "" {
		fields = append(fields, zap.String("school_id", event.SchoolID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.SubjectID != "" {
		fields = append(fields, zap.String("subject_id", event.SubjectID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the configured mode.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil || l.mode == ModeOff {
		return
	}
	event.Normalize()

	if l.mode == ModeAll || l.mode == ModeLog || l.sink == nil {
		l.logToZap(event)
	}
	if (l.mode == ModeAll || l.mode == ModeDB) && l.sink != nil {
		if err := l.sink.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func actorEvent(category, typ string, actor models.Actor) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: typ,
		SchoolID:  actor.SchoolID,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Success:   true,
	}
}

// --- Ledger events ---

// DisciplineIssued records a committed discipline record.
func (l *Logger) DisciplineIssued(ctx context.Context, actor models.Actor, rec models.DisciplineRecord) {
	e := actorEvent(audit.CategoryLedger, audit.EventDisciplineIssued, actor)
	e.SubjectID = rec.StudentID
	e.Details = map[string]string{
		"record_id":       rec.ID,
		"offence_id":      rec.OffenceID,
		"points_deducted": strconv.Itoa(rec.PointsDeducted),
		"previous_points": strconv.Itoa(rec.PreviousPoints),
		"new_points":      strconv.Itoa(rec.NewPoints),
	}
	l.Log(ctx, e)
}

// MeritAwarded records a committed merit.
func (l *Logger) MeritAwarded(ctx context.Context, actor models.Actor, m models.Merit) {
	e := actorEvent(audit.CategoryLedger, audit.EventMeritAwarded, actor)
	e.SubjectID = m.StudentID
	e.Details = map[string]string{
		"merit_id":        m.ID,
		"points":          strconv.Itoa(m.Points),
		"previous_points": strconv.Itoa(m.PreviousPoints),
		"new_points":      strconv.Itoa(m.NewPoints),
	}
	l.Log(ctx, e)
}

// PaymentRecorded records a committed fee payment.
func (l *Logger) PaymentRecorded(ctx context.Context, actor models.Actor, p models.Payment) {
	e := actorEvent(audit.CategoryLedger, audit.EventPaymentRecorded, actor)
	e.SubjectID = p.StudentID
	e.Details = map[string]string{
		"payment_id":       p.ID,
		"amount":           strconv.FormatInt(p.Amount, 10),
		"method":           p.Method,
		"previous_balance": strconv.FormatInt(p.PreviousBalance, 10),
		"new_balance":      strconv.FormatInt(p.NewBalance, 10),
	}
	l.Log(ctx, e)
}

// --- Catalog events ---

// OffenceChanged records a create, update or delete of an offence.
func (l *Logger) OffenceChanged(ctx context.Context, actor models.Actor, eventType, offenceID string) {
	e := actorEvent(audit.CategoryCatalog, eventType, actor)
	e.SubjectID = offenceID
	l.Log(ctx, e)
}

// --- Session events ---

// SessionStarted records a successful identity token exchange.
func (l *Logger) SessionStarted(ctx context.Context, r *http.Request, actor models.Actor) {
	e := actorEvent(audit.CategoryAuth, audit.EventSessionStarted, actor)
	e.IP = l.clientIP(r)
	l.Log(ctx, e)
}

// SessionEnded records a sign out.
func (l *Logger) SessionEnded(ctx context.Context, r *http.Request, actor models.Actor) {
	e := actorEvent(audit.CategoryAuth, audit.EventSessionEnded, actor)
	e.IP = l.clientIP(r)
	l.Log(ctx, e)
}

// SessionRejected records a failed token exchange.
func (l *Logger) SessionRejected(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSessionRejected,
		IP:            l.clientIP(r),
		Success:       false,
		FailureReason: reason,
	})
}
