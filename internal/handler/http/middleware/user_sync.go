package middleware

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/leadcrm/crm-backend-go/internal/domain/auth"
	"github.com/leadcrm/crm-backend-go/internal/domain/user"
	"github.com/leadcrm/crm-backend-go/internal/handler/http/response"
)

// UserSyncMiddleware mirrors token identities into the users table so that
// attendance rows can reference them and stats can count employees.
type UserSyncMiddleware struct {
	users  user.UserRepository
	logger *slog.Logger
	synced sync.Map // user_id -> struct{}
}

func NewUserSyncMiddleware(users user.UserRepository, logger *slog.Logger) *UserSyncMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserSyncMiddleware{
		users:  users,
		logger: logger,
	}
}

// SyncUser upserts the caller once per process. A failed upsert is retried on
// the caller's next request.
func (m *UserSyncMiddleware) SyncUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := CurrentUser(r.Context())
		if !ok {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if _, done := m.synced.Load(identity.UserID); !done {
			if _, err := m.users.Upsert(r.Context(), identity.ToUser()); err != nil {
				m.logger.ErrorContext(r.Context(), "failed to sync user from token",
					slog.String("user_id", identity.UserID),
					slog.Any("error", err),
				)
				response.HandleError(w, err)
				return
			}
			m.synced.Store(identity.UserID, struct{}{})
		}

		next.ServeHTTP(w, r)
	})
}
