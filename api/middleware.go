package api

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/police-investigations-api/config"
	"github.com/linesmerrill/police-investigations-api/session"
)

// SignInPath is where unauthenticated browsers are sent
const SignInPath = "/signin"

// Authenticator guards routes with the session gate
type Authenticator struct {
	Provider session.Provider
}

// Middleware adds session authentication around accessing the routes. A
// request passes once its gate settles Authenticated; the session is then
// available through session.FromContext.
func (a Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := a.authenticate(r.Context(), session.TokenFromRequest(r))
		if err != nil {
			config.ErrorStatus("failed to check session", http.StatusInternalServerError, w, err)
			return
		}
		if sess == nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			if wantsHTML(r) {
				http.Redirect(w, r, SignInPath, http.StatusFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated", sess.Email)
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

// authenticate opens a gate for token and waits for it to leave Unknown
func (a Authenticator) authenticate(ctx context.Context, token string) (*session.Session, error) {
	gate := session.NewGate(a.Provider, token)
	defer gate.Close()

	if err := gate.Open(ctx); err != nil {
		return nil, err
	}
	state, err := gate.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if state != session.Authenticated {
		return nil, nil
	}
	return gate.Session(), nil
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
