package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/debatehq/debate-service/internal/http/response"
	"github.com/debatehq/debate-service/internal/observability"
	"github.com/debatehq/debate-service/internal/security"
)

type contextKey string

const (
	IdentityContextKey    contextKey = "identity"
	AdminClaimsContextKey contextKey = "admin_claims"
)

// IdentityMiddleware guarantees every public request carries an anonymous
// identity token. A missing or malformed cookie gets a fresh token minted and
// set on the response, so the first vote of a new browser session sticks.
func IdentityMiddleware(secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := security.GetCookie(r, security.IdentityCookieName)
			if !validIdentityToken(token) {
				fresh, err := security.NewIdentityToken()
				if err != nil {
					response.Error(w, r, http.StatusInternalServerError, "internal_error", "internal server error", nil)
					return
				}
				token = fresh
				security.SetIdentityCookie(w, token, secureCookies)
			}
			ctx := context.WithValue(r.Context(), IdentityContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromContext(ctx context.Context) string {
	token, _ := ctx.Value(IdentityContextKey).(string)
	return token
}

// validIdentityToken accepts only the shape NewIdentityToken mints. Anything
// a client made up gets replaced rather than hashed into the ledger.
func validIdentityToken(token string) bool {
	if len(token) != 32 {
		return false
	}
	for _, c := range token {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// AdminAuthMiddleware gates the admin API on a valid admin token, taken from
// the admin cookie or a bearer header. An optional address allowlist runs
// before token parsing.
func AdminAuthMiddleware(tokens *security.AdminTokenManager, allowlist []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, addr := range allowlist {
		allowed[strings.TrimSpace(addr)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) > 0 {
				if _, ok := allowed[security.ClientAddress(r)]; !ok {
					observability.Audit(r, "admin.denied", "reason", "address_not_allowlisted")
					response.Error(w, r, http.StatusForbidden, "forbidden", "access denied", nil)
					return
				}
			}
			raw := security.GetCookie(r, security.AdminTokenCookieName)
			if raw == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					raw = strings.TrimSpace(auth[7:])
				}
			}
			if raw == "" {
				response.Error(w, r, http.StatusUnauthorized, "unauthorized", "missing admin token", nil)
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				observability.Audit(r, "admin.denied", "reason", "invalid_token")
				response.Error(w, r, http.StatusUnauthorized, "unauthorized", "invalid admin token", nil)
				return
			}
			ctx := context.WithValue(r.Context(), AdminClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminClaimsFromContext(ctx context.Context) (*security.AdminClaims, bool) {
	c, ok := ctx.Value(AdminClaimsContextKey).(*security.AdminClaims)
	return c, ok
}
