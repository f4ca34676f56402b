package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rbfontana/acolhe/internal/auth"
	"github.com/rbfontana/acolhe/internal/middleware"
	"github.com/rbfontana/acolhe/internal/store"
)

const minPasswordLength = 8

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Login checks the credentials and opens a session. The error code tells
// the client which input was wrong: invalid_email for a malformed
// identifier, user_not_found when no account exists, wrong_password when
// the account exists but the password does not match.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_json", "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !validEmail(req.Email) {
		errorJSON(w, http.StatusBadRequest, "invalid_email", "malformed email address")
		return
	}
	if req.Password == "" {
		errorJSON(w, http.StatusBadRequest, "missing_field", "password is required")
		return
	}

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		errorJSON(w, http.StatusInternalServerError, "auth_error", "login failed")
		return
	}
	if user == nil {
		errorJSON(w, http.StatusUnauthorized, "user_not_found", "no account with this email")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errorJSON(w, http.StatusUnauthorized, "wrong_password", "incorrect password")
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		errorJSON(w, http.StatusInternalServerError, "auth_error", "login failed")
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	h.logger.Info("login", "user_id", user.ID)
	writeJSON(w, http.StatusOK, user)
}

// Register creates an account. Error codes follow the same scheme as
// Login: invalid_email, weak_password, email_in_use.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_json", "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if !validEmail(req.Email) {
		errorJSON(w, http.StatusBadRequest, "invalid_email", "malformed email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		errorJSON(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		errorJSON(w, http.StatusInternalServerError, "auth_error", "registration failed")
		return
	}

	user, err := h.userStore.Create(req.Email, req.Name, string(hash))
	if err == store.ErrEmailTaken {
		errorJSON(w, http.StatusConflict, "email_in_use", "email already registered")
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		errorJSON(w, http.StatusInternalServerError, "auth_error", "registration failed")
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		errorJSON(w, http.StatusInternalServerError, "auth_error", "registration failed")
		return
	}

	h.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusCreated, user)
}

// Logout deletes the session and clears the cookie. Logging out with no
// session is fine.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessionStore.DeleteByToken(cookie.Value); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	h.setSessionCookie(w, "", time.Unix(0, 0))
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the signed-in user's identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		errorJSON(w, http.StatusUnauthorized, "unauthorized", "not signed in")
		return
	}
	user, err := h.userStore.GetByID(id.UserID)
	if err != nil || user == nil {
		h.logger.Error("load current user", "error", err)
		errorJSON(w, http.StatusInternalServerError, "auth_error", "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
