package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopme-store/shopme-backend/internal/domain"
	"github.com/shopme-store/shopme-backend/internal/notify"
)

const resetTokenTTL = time.Hour

const passwordPolicyMessage = "Password must be at least 8 characters long and include uppercase, lowercase, number, and special character"

// forgotPasswordMessage is returned whether or not the email exists,
// so the endpoint cannot be used to probe for accounts.
const forgotPasswordMessage = "If your email is registered, you will receive a reset link."

type Handler struct {
	repo         *UserRepository
	tokens       *TokenManager
	mailer       notify.Mailer
	resetBaseURL string
	logger       *slog.Logger
}

func NewHandler(repo *UserRepository, tokens *TokenManager, mailer notify.Mailer, resetBaseURL string, logger *slog.Logger) *Handler {
	return &Handler{
		repo:         repo,
		tokens:       tokens,
		mailer:       mailer,
		resetBaseURL: resetBaseURL,
		logger:       logger,
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "Name, email, and password are required")
		return
	}

	if !StrongPassword(req.Password) {
		h.writeError(w, http.StatusBadRequest, passwordPolicyMessage)
		return
	}

	existing, err := h.repo.GetByEmail(r.Context(), req.Email, domain.RoleCustomer)
	if err != nil {
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}
	if existing != nil {
		h.writeError(w, http.StatusBadRequest, "User with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), user); err != nil {
		h.logger.Error("failed to create user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  userResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.RoleCustomer)
}

func (h *Handler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, domain.RoleAdmin)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, role domain.Role) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.repo.GetByEmail(r.Context(), req.Email, role)
	if err != nil {
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	// Unknown email and wrong password are indistinguishable to the
	// caller.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)},
	})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r)
	if token == "" {
		h.writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	id, role, err := h.tokens.Verify(token)
	if err != nil {
		if err == ErrTokenExpired {
			h.writeError(w, http.StatusUnauthorized, "Token expired")
		} else {
			h.writeError(w, http.StatusUnauthorized, "Invalid token")
		}
		return
	}

	user, err := h.repo.GetByID(r.Context(), id, role)
	if err != nil {
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if user == nil {
		h.writeError(w, http.StatusNotFound, "User not found")
		return
	}

	h.writeJSON(w, http.StatusOK, userResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.repo.GetByEmail(r.Context(), req.Email, domain.RoleCustomer)
	if err != nil {
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if user == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"message": forgotPasswordMessage})
		return
	}

	token, err := newResetToken()
	if err != nil {
		h.logger.Error("failed to generate reset token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := h.repo.SetResetToken(r.Context(), user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		h.logger.Error("failed to store reset token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	resetURL := h.resetBaseURL + "/reset-password/" + token
	body := "<h2>Hello,</h2>" +
		"<p>You requested a password reset. Click the link below to reset it.</p>" +
		`<p><a href="` + resetURL + `">Reset Password</a></p>` +
		"<p>This link expires in 1 hour.</p>" +
		"<p>If you didn't request this, ignore this email.</p>"

	// Delivery is best-effort. The response is the same either way so
	// a mail failure cannot leak account existence.
	if err := h.mailer.Send(r.Context(), user.Email, "Reset Your Password", body); err != nil {
		h.logger.Error("failed to send reset email", "error", err, "user_id", user.ID)
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": forgotPasswordMessage})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !StrongPassword(req.Password) {
		h.writeError(w, http.StatusBadRequest, passwordPolicyMessage)
		return
	}

	user, err := h.repo.GetByResetToken(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to look up reset token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if user == nil {
		h.writeError(w, http.StatusBadRequest, "Password reset token is invalid or has expired.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if err := h.repo.UpdatePassword(r.Context(), user.ID, string(hash)); err != nil {
		h.logger.Error("failed to update password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.logger.Info("password reset", "user_id", user.ID)
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Your password has been reset successfully."})
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
