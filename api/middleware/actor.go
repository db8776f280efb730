package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/api/responses"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
	"github.com/stockline-app/stockline-backend/pkg/logger"
	"github.com/stockline-app/stockline-backend/pkg/types"
)

const (
	userIDHeader = "X-User-Id"
	roleHeader   = "X-User-Role"
)

// ActorContext resolves the caller identity from the gateway-provided
// identity headers and seeds the request context with it. Authentication
// itself happens upstream; requests without both headers are rejected.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := strings.TrimSpace(r.Header.Get(userIDHeader))
			rawRole := strings.TrimSpace(r.Header.Get(roleHeader))
			if rawID == "" || rawRole == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity headers"))
				return
			}

			userID, err := uuid.Parse(rawID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id"))
				return
			}
			role, err := enums.ParseUserRole(rawRole)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user role"))
				return
			}

			ctx := WithActor(r.Context(), types.Actor{ID: userID, Role: role})
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
				ctx = logg.WithActorRole(ctx, role.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
