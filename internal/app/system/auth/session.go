package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/mwanacheck/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey    = "is_authenticated"
	actorIDKey   = "actor_id"
	actorName    = "actor_name"
	actorRole    = "actor_role"
	actorSchool  = "actor_school_id"
	actorStudent = "actor_student_id"
)

// SessionManager keeps the signed-in actor in a gorilla cookie session and
// accepts bearer identity tokens in its place.
type SessionManager struct {
	store    *sessions.CookieStore
	name     string
	verifier *IdentityVerifier
	log      *zap.Logger
}

// NewSessionManager creates a SessionManager. secure marks cookies Secure
// with SameSite=None; otherwise SameSite=Lax is used so plain-http
// development works.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "mwanacheck-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetVerifier enables bearer tokens and the token exchange.
func (sm *SessionManager) SetVerifier(v *IdentityVerifier) { sm.verifier = v }

// Verifier returns the configured identity verifier, or nil.
func (sm *SessionManager) Verifier() *IdentityVerifier { return sm.verifier }

// Save stores actor in the session cookie.
func (sm *SessionManager) Save(w http.ResponseWriter, r *http.Request, actor models.Actor) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
			sm.log.Warn("session cookie invalid, using fresh session",
				zap.Error(err),
				zap.String("actor_id", actor.ID))
		} else {
			sm.log.Error("session store error, using fresh session",
				zap.Error(err),
				zap.String("actor_id", actor.ID))
		}
	}
	sess.Values[isAuthKey] = true
	sess.Values[actorIDKey] = actor.ID
	sess.Values[actorName] = actor.Name
	sess.Values[actorRole] = actor.Role
	sess.Values[actorSchool] = actor.SchoolID
	sess.Values[actorStudent] = actor.StudentID
	return sess.Save(r, w)
}

// Clear ends the session.
func (sm *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadActor puts the request's actor, if any, on its context. A bearer
// token takes precedence over the cookie; an invalid token leaves the
// request anonymous.
func (sm *SessionManager) LoadActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := bearerToken(r); raw != "" {
			if sm.verifier != nil {
				a, err := sm.verifier.Verify(raw)
				if err == nil {
					r = r.WithContext(WithActor(r.Context(), a))
				} else {
					sm.log.Debug("bearer token rejected", zap.Error(err))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			sm.log.Debug("session decode failed", zap.Error(err))
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			a := models.Actor{
				ID:        getString(sess, actorIDKey),
				Name:      getString(sess, actorName),
				Role:      getString(sess, actorRole),
				SchoolID:  getString(sess, actorSchool),
				StudentID: getString(sess, actorStudent),
			}
			r = r.WithContext(WithActor(r.Context(), a))
		}
		next.ServeHTTP(w, r)
	})
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
