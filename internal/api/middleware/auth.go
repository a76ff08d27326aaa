package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edvin/subpay/internal/api/response"
	"github.com/edvin/subpay/internal/core"
)

type contextKey string

const apiKeyIdentityKey contextKey = "api_key_identity"

// APIKeyIdentity is the authenticated caller: the key's ID and the wallet
// address every payment it submits is bound to.
type APIKeyIdentity struct {
	ID      string
	Name    string
	Address common.Address
}

// IdentityFromContext returns the identity set by Auth.
func IdentityFromContext(ctx context.Context) (*APIKeyIdentity, bool) {
	id, ok := ctx.Value(apiKeyIdentityKey).(*APIKeyIdentity)
	return id, ok
}

// WithIdentity is used by handler tests to inject an identity directly.
func WithIdentity(ctx context.Context, identity *APIKeyIdentity) context.Context {
	return context.WithValue(ctx, apiKeyIdentityKey, identity)
}

// Auth returns a middleware that validates the X-API-Key header against the
// api_keys table.
func Auth(db core.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			hash := sha256.Sum256([]byte(key))
			keyHash := hex.EncodeToString(hash[:])

			var identity APIKeyIdentity
			var address string
			err := db.QueryRow(r.Context(),
				`SELECT id, name, address FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`, keyHash,
			).Scan(&identity.ID, &identity.Name, &address)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			identity.Address = common.HexToAddress(address)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), &identity)))
		})
	}
}
