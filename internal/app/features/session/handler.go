// internal/app/features/session/handler.go
package session

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/mwanacheck/internal/app/system/auditlog"
	"github.com/dalemusser/mwanacheck/internal/app/system/auth"
	"github.com/dalemusser/mwanacheck/internal/app/system/httpjson"
	"github.com/dalemusser/mwanacheck/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Audit      *auditlog.Logger
	Limiter    *ratelimit.Limiter // per client IP on POST /session; nil disables
	TrustProxy bool               // key the limiter on X-Forwarded-For / X-Real-IP
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Audit:      audit,
	}
}

type startRequest struct {
	Token string `json:"token"`
}

// HandleStart handles POST /session: it exchanges an identity token for a
// session cookie and returns the signed-in actor.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil {
		ip := ratelimit.ClientIP(r, h.TrustProxy)
		if !h.Limiter.Allow(ip) {
			h.Log.Warn("session start rate limited", zap.String("ip", ip))
			h.Audit.SessionRejected(r.Context(), r, "rate limited")
			w.Header().Set("Retry-After", strconv.Itoa(int(h.Limiter.RetryAfter(ip).Seconds())+1))
			httpjson.Write(w, http.StatusTooManyRequests, httpjson.ErrorBody{Error: "too many sign-in attempts", Code: "rate_limited"})
			return
		}
	}

	var req startRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		h.Audit.SessionRejected(r.Context(), r, "missing token")
		httpjson.Unauthorized(w, "identity token required")
		return
	}

	v := h.SessionMgr.Verifier()
	if v == nil {
		httpjson.Write(w, http.StatusServiceUnavailable, httpjson.ErrorBody{Error: "identity provider not configured", Code: "unavailable"})
		return
	}
	actor, err := v.Verify(req.Token)
	if err != nil {
		h.Log.Info("identity token rejected", zap.Error(err))
		h.Audit.SessionRejected(r.Context(), r, err.Error())
		httpjson.Unauthorized(w, "invalid identity token")
		return
	}

	if err := h.SessionMgr.Save(w, r, actor); err != nil {
		h.Log.Error("session: save", zap.Error(err))
		httpjson.Write(w, http.StatusInternalServerError, httpjson.ErrorBody{Error: "internal error", Code: "internal"})
		return
	}
	h.Audit.SessionStarted(r.Context(), r, actor)
	httpjson.Write(w, http.StatusOK, actor)
}

// ServeCurrent handles GET /session.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		httpjson.Unauthorized(w, "not signed in")
		return
	}
	httpjson.Write(w, http.StatusOK, actor)
}

// HandleEnd handles DELETE /session.
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.Clear(w, r); err != nil {
		h.Log.Error("session: clear", zap.Error(err))
	}
	if actor, ok := auth.CurrentActor(r); ok {
		h.Audit.SessionEnded(r.Context(), r, actor)
	}
	w.WriteHeader(http.StatusNoContent)
}
