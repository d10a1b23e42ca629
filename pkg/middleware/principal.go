package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "cabins/pkg/errors"
	"cabins/pkg/logger"
	"cabins/pkg/model"
	"cabins/pkg/sealer"
)

const (
	PrincipalIDHeader        = "X-User-ID"
	PrincipalRoleHeader      = "X-User-Role"
	PrincipalSignatureHeader = "X-User-Signature"

	principalKey contextKey = "principal"
)

// Principal reads the caller identity set by the gateway. Requests on paths
// under protectedPrefix without a valid principal are rejected with 401.
// When secret is non-empty the gateway must also send an HMAC-SHA256 of
// "id:role" in X-User-Signature.
func Principal(protectedPrefix, secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, protectedPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			p := model.Principal{
				ID:   strings.TrimSpace(r.Header.Get(PrincipalIDHeader)),
				Role: model.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(PrincipalRoleHeader)))),
			}
			if !p.Valid() {
				log.Warn("Missing or invalid principal headers",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
				)
				writeRejection(w, apperrors.Unauthorized("Authentication required"))
				return
			}

			if secret != "" && !verifyPrincipalSignature(p, r.Header.Get(PrincipalSignatureHeader), secret) {
				log.Warn("Invalid principal signature",
					"request_id", RequestID(r.Context()),
					"principal_id", p.ID,
					"path", r.URL.Path,
				)
				writeRejection(w, apperrors.Unauthorized("Invalid principal signature"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(model.Principal)
	return p, ok
}

// SignPrincipal is what the gateway computes for X-User-Signature.
func SignPrincipal(p model.Principal, secret string) string {
	return sealer.Seal(secret, p.ID, string(p.Role))
}

func verifyPrincipalSignature(p model.Principal, signature, secret string) bool {
	return sealer.Verify(secret, signature, p.ID, string(p.Role))
}
