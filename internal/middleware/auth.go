package middleware

import (
	"net/http"

	"github.com/rbfontana/acolhe/internal/auth"
	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/store"
)

// SessionCookie is the name of the session token cookie.
const SessionCookie = "acolhe_session"

// SessionResolver resolves a session token to a live session.
type SessionResolver interface {
	GetByToken(token string) (*model.Session, error)
}

// UserResolver resolves a user id to a user.
type UserResolver interface {
	GetByID(id int64) (*model.User, error)
}

var (
	_ SessionResolver = (*store.SessionStore)(nil)
	_ UserResolver    = (*store.UserStore)(nil)
)

// RequireAuth rejects requests without a valid session cookie and puts
// the resolved identity on the request context for handlers downstream.
func RequireAuth(sessions SessionResolver, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(sess.UserID)
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{
				UserID:    user.ID,
				SessionID: sess.ID,
				Email:     user.Email,
				Name:      user.Name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
