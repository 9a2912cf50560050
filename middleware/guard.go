package middleware

import (
	"net/http"

	formguard "github.com/MrEthical07/formguard"
	"github.com/google/uuid"
)

// DefaultSessionCookie is the cookie the middleware uses to scope the
// replay ledger when no override is configured.
const DefaultSessionCookie = "fg_session"

// Options configures [Protect].
type Options struct {
	// SessionCookie names the cookie carrying the replay-ledger session
	// id. Defaults to [DefaultSessionCookie]. Only consulted when the
	// guard is stateful.
	SessionCookie string

	// Rejected is invoked for every failed validation. The default
	// responds 403 with a generic message; the validation diagnostic is
	// operator-facing and is deliberately not written to the response.
	Rejected func(w http.ResponseWriter, r *http.Request, v formguard.Validation)
}

// Protect validates the anti-forgery token on every state-changing
// request (POST, PUT, PATCH, DELETE) before passing it on. Safe methods
// flow through untouched apart from session-cookie minting in stateful
// mode, so the page render and the later submission share one ledger
// scope.
func Protect(guard *formguard.Guard, opts Options) func(http.Handler) http.Handler {
	cookieName := opts.SessionCookie
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}

	rejected := opts.Rejected
	if rejected == nil {
		rejected = func(w http.ResponseWriter, _ *http.Request, _ formguard.Validation) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			sessionID := ""
			if guard.Stateful() {
				sessionID = ensureSession(w, r, cookieName)
			}

			if !stateChanging(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if err := r.ParseForm(); err != nil {
				rejected(w, r, formguard.Validation{
					Result:     formguard.ResultMissing,
					Diagnostic: "request form unparsable",
				})
				return
			}

			fields := make(map[string]string, len(r.Form))
			for name, values := range r.Form {
				if len(values) > 0 {
					fields[name] = values[0]
				}
			}

			outcome := guard.Validate(r.Context(), sessionID, fields)
			if !outcome.OK() {
				rejected(w, r, outcome)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func stateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// ensureSession returns the request's session id, minting a fresh one and
// setting the cookie when absent.
func ensureSession(w http.ResponseWriter, r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionID := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID
}
