package v1

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
)

// Identity headers are injected by the authentication gateway in front of
// this service and are trusted as already verified.
const (
	HeaderUserID       = "X-User-Id"
	HeaderUserRole     = "X-User-Role"
	HeaderDepartmentID = "X-User-Department-Id"
)

type userKey struct{}

func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey{}).(*domain.User)
	return user, ok && user != nil
}

// Identity resolves the calling user from the gateway headers and stores it
// in the request context. Requests without a complete identity are rejected
// before any processing.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(HeaderUserID))
		if err != nil {
			http.Error(w, "missing or invalid user identity", http.StatusUnauthorized)
			return
		}

		role := domain.Role(r.Header.Get(HeaderUserRole))
		if !role.Valid() {
			http.Error(w, "missing or invalid user role", http.StatusUnauthorized)
			return
		}

		departmentID, err := uuid.Parse(r.Header.Get(HeaderDepartmentID))
		if err != nil {
			http.Error(w, "missing or invalid user department", http.StatusUnauthorized)
			return
		}

		user := &domain.User{
			ID:           id,
			Role:         role,
			DepartmentID: departmentID,
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}
