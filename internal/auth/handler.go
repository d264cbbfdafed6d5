package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/devfolio/backend/internal/httpx"
	"github.com/devfolio/backend/internal/models"
	"github.com/devfolio/backend/internal/store"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserStore defines the persistence needed by the auth handlers.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// Limiter throttles credential endpoints. A nil limiter disables throttling.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users   UserStore
	tokens  *TokenManager
	limiter Limiter
}

func NewHandler(users UserStore, tokens *TokenManager, limiter Limiter) *Handler {
	return &Handler{users: users, tokens: tokens, limiter: limiter}
}

// allow consults the rate limiter. Limiter errors fail open: a Redis
// outage must not lock everyone out.
func (h *Handler) allow(r *http.Request, action string) bool {
	if h.limiter == nil {
		return true
	}
	ok, err := h.limiter.Allow(r.Context(), action+":"+clientIP(r))
	if err != nil {
		log.Printf("rate limit check failed: %v", err)
		return true
	}
	return ok
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	return host
}

// Signup creates a new user and issues a session cookie.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if !h.allow(r, "signup") {
		httpx.Error(w, http.StatusTooManyRequests, "Too many attempts. Try again later.")
		return
	}

	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		httpx.Error(w, http.StatusBadRequest, "Name must be at least 2 characters.")
		return
	}
	if !emailRegex.MatchString(req.Email) {
		httpx.Error(w, http.StatusBadRequest, "Invalid email address.")
		return
	}
	if len(req.Password) < 6 {
		httpx.Error(w, http.StatusBadRequest, "Password must be at least 6 characters.")
		return
	}

	email := strings.ToLower(req.Email)
	taken, err := h.users.EmailTaken(r.Context(), email)
	if err != nil {
		log.Printf("signup email lookup: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Server error during signup.")
		return
	}
	if taken {
		httpx.Error(w, http.StatusConflict, "Email already in use.")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("signup hash: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Server error during signup.")
		return
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		log.Printf("signup create user: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Server error during signup.")
		return
	}

	if !h.issueSession(w, user.ID.Hex()) {
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]*models.User{"user": user})
}

// Login verifies credentials and issues a session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.allow(r, "login") {
		httpx.Error(w, http.StatusTooManyRequests, "Too many attempts. Try again later.")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusNotFound, "User not found.")
		return
	}
	if err != nil {
		log.Printf("login lookup: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Server error during login.")
		return
	}

	if !VerifyPassword(user.PasswordHash, req.Password) {
		httpx.Error(w, http.StatusUnauthorized, "Incorrect password.")
		return
	}

	if !h.issueSession(w, user.ID.Hex()) {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]*models.User{"user": user})
}

// Logout clears the session cookie. The token itself simply expires.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w)
	httpx.Message(w, "Logged out")
}

// Me returns the identity resolved by the session middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]*models.User{"user": user})
}

func (h *Handler) issueSession(w http.ResponseWriter, userID string) bool {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		log.Printf("issue session token: %v", err)
		httpx.Error(w, http.StatusInternalServerError, "Server error during login.")
		return false
	}
	SetSessionCookie(w, token, h.tokens.TTL())
	return true
}
