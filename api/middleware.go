/*
middleware.go - Owner identity extraction

PURPOSE:
  Identity comes from an external provider; this service consumes it only
  as an opaque owner id carried in the X-Owner-ID header. The middleware
  rejects requests without one and threads the id through the request
  context so every store call is explicitly owner-scoped.
*/
package api

import (
	"context"
	"net/http"

	"github.com/warp/retainer-engine/ledger"
	"github.com/warp/retainer-engine/pkg/logger"
)

// OwnerHeader carries the opaque owner id issued by the identity provider.
const OwnerHeader = "X-Owner-ID"

type contextKey string

const ownerContextKey contextKey = "owner_id"

// RequireOwner rejects requests without an owner id and stores the id in
// the request context.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(OwnerHeader)
		if owner == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+OwnerHeader+" header", nil)
			return
		}
		ctx := context.WithValue(r.Context(), ownerContextKey, ledger.OwnerID(owner))
		ctx = context.WithValue(ctx, logger.OwnerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerFrom returns the owner id placed by RequireOwner.
func ownerFrom(r *http.Request) ledger.OwnerID {
	owner, _ := r.Context().Value(ownerContextKey).(ledger.OwnerID)
	return owner
}
