package auth

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/timecapsule/pkg/httpx"
	"github.com/ghuser/timecapsule/pkg/identity"
	"github.com/ghuser/timecapsule/pkg/logger"
)

const sessionName = "timecapsule_session"

// Session value keys written by the identity provider at sign-in.
const (
	sessionUserIDKey = "user_id"
	sessionWalletKey = "wallet_address"
)

// RequireAuth is a chi middleware that enforces authentication via session cookies.
// It reads the session cookie, extracts the user and connected wallet, and injects
// an identity.Identity into the request context.
// Returns 401 Unauthorized if the session is missing, invalid, or lacks a valid user_id.
//
// After this middleware, handlers can safely call identity.FromCtx(r.Context()).
func RequireAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, sessionName)
			if err != nil {
				log.WarnContext(r.Context(), "invalid session cookie", "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userIDStr, ok := session.Values[sessionUserIDKey].(string)
			if !ok || userIDStr == "" {
				log.WarnContext(r.Context(), "session missing user_id")
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				log.WarnContext(r.Context(), "invalid user_id in session", "user_id", userIDStr, "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "invalid session data")
				return
			}

			// A missing wallet is allowed here; creation rejects it later.
			wallet, _ := session.Values[sessionWalletKey].(string)

			ctx := identity.With(r.Context(), identity.Identity{
				UserID:        userID,
				WalletAddress: wallet,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
