package middleware

import (
	"net/http"

	"github.com/leadcrm/crm-backend-go/internal/domain/auth"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/response"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := CurrentUser(r.Context())
		if !ok {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if !identity.IsAdmin() {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
