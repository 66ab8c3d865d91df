package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/rfid-attendance-backend-go/internal/pkg/jwt"
)

// RequireManager requires the manager role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != jwt.RoleManager {
			response.HandleError(w, auth.ErrInsufficientPermission)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ManagerID returns the manager id claim of the verified token, or "".
func ManagerID(ctx context.Context) string {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return ""
	}
	id, _ := claims["manager_id"].(string)
	return id
}
