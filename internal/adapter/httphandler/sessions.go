package httphandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/niksmo/storefront/internal/adapter/session"
)

const rememberCookieName = "remember_token"

type sessionCtxKey struct{}

// RememberTokens signs the long lived login cookie.
type RememberTokens interface {
	Issue(userID int64) (string, time.Time, error)
	Parse(token string) (int64, error)
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type Sessions struct {
	store    session.Store
	remember RememberTokens
	cookie   CookieConfig
}

type SessionsOpt func(*Sessions)

func RememberOpt(tokens RememberTokens) SessionsOpt {
	return func(s *Sessions) { s.remember = tokens }
}

func NewSessions(
	store session.Store, cookie CookieConfig, opts ...SessionsOpt,
) Sessions {
	if cookie.Name == "" {
		cookie.Name = "session_id"
	}
	s := Sessions{store: store, cookie: cookie}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Load attaches the visitor's session to the request context. A new session
// is started when the cookie is missing or stale. An expired login is
// restored from a valid remember cookie under a new session id.
func (s Sessions) Load(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		const op = "Sessions.Load"
		log := slog.With("op", op)

		ctx := r.Context()
		sess, fresh, err := s.read(r)
		if err != nil {
			log.ErrorContext(ctx, "failed to read session", "err", err)
		}

		if !sess.Authenticated() {
			if userID, ok := s.restore(r); ok {
				if !fresh {
					if err := s.store.Delete(ctx, sess.ID); err != nil {
						log.ErrorContext(ctx, "failed to drop session", "err", err)
					}
				}
				sess.ID = session.New().ID
				sess.UserID = userID
				fresh = true
				if err := s.store.Save(ctx, sess); err != nil {
					log.ErrorContext(ctx, "failed to save restored login", "err", err)
				}
			}
		}

		if fresh {
			s.setSessionCookie(w, sess.ID)
		}

		ctx = context.WithValue(ctx, sessionCtxKey{}, &sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hf)
}

func (s Sessions) read(r *http.Request) (sess session.Session, fresh bool, err error) {
	c, cErr := r.Cookie(s.cookie.Name)
	if cErr != nil || c.Value == "" {
		return session.New(), true, nil
	}

	sess, err = s.store.Get(r.Context(), c.Value)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			err = nil
		}
		return session.New(), true, err
	}
	return sess, false, nil
}

func (s Sessions) restore(r *http.Request) (int64, bool) {
	if s.remember == nil {
		return 0, false
	}
	c, err := r.Cookie(rememberCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	userID, err := s.remember.Parse(c.Value)
	if err != nil {
		slog.DebugContext(r.Context(), "remember cookie rejected", "err", err)
		return 0, false
	}
	return userID, true
}

func (s Sessions) Save(ctx context.Context, sess *session.Session) error {
	return s.store.Save(ctx, *sess)
}

// Login binds the user to a new session id, keeping the anonymous basket.
func (s Sessions) Login(
	w http.ResponseWriter, r *http.Request, userID int64, remember bool,
) error {
	const op = "Sessions.Login"

	ctx := r.Context()
	sess := currentSession(ctx)
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sess.ID = session.New().ID
	sess.UserID = userID
	if err := s.store.Save(ctx, *sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.setSessionCookie(w, sess.ID)

	if remember && s.remember != nil {
		token, expires, err := s.remember.Issue(userID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     rememberCookieName,
			Value:    token,
			Path:     "/",
			Expires:  expires,
			HttpOnly: true,
			Secure:   s.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return nil
}

func (s Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	const op = "Sessions.Logout"

	sess := currentSession(r.Context())
	sess.UserID = 0
	if err := s.store.Save(r.Context(), *sess); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     rememberCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s Sessions) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentSession never returns nil. Outside of [Sessions.Load] it is an empty
// anonymous session.
func currentSession(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(sessionCtxKey{}).(*session.Session); ok {
		return sess
	}
	sess := session.New()
	return &sess
}
