package handlers

import (
	"net/http"
	"time"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/middleware"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/session"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

// RegisterRequest is the body of POST /api/auth/register.
// FullName is accepted as an alias of Name.
type RegisterRequest struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user and logs them in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := req.Name
	if name == "" {
		name = req.FullName
	}

	user, err := h.users.Register(r.Context(), domain.Registration{
		Name:     name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}

	logger.FromContext(r.Context()).Info().Str("user_id", user.ID.String()).Msg("user registered")
	middleware.WriteJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Registration successful",
		User:    toUserResponse(user),
	})
}

// Login authenticates the user and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	if !h.startSession(w, r, user) {
		return
	}

	logger.FromContext(r.Context()).Info().Str("user_id", user.ID.String()).Msg("user logged in")
	middleware.WriteJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    toUserResponse(user),
	})
}

// Logout ends the current session, if any.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		h.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, h.cookie("", -1))

	middleware.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logout successful"})
}

// CheckSession reports whether the request carries a live session.
func (h *Handler) CheckSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(r)
	if !ok {
		middleware.WriteJSON(w, http.StatusOK, SessionResponse{Success: true, LoggedIn: false})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, SessionResponse{
		Success:  true,
		LoggedIn: true,
		User: &UserResponse{
			ID:    sess.UserID.String(),
			Name:  sess.Name,
			Email: sess.Email,
		},
	})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *domain.User) bool {
	sess, err := h.sessions.Create(user.ID, user.Name, user.Email)
	if err != nil {
		writeDomainError(w, r, err)
		return false
	}
	http.SetCookie(w, h.cookie(sess.Token, int(h.sessions.TTL()/time.Second)))
	return true
}

func (h *Handler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
