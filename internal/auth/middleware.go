package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopme-store/shopme-backend/internal/domain"
)

// IdentityStore is the storage lookup the guard needs to resolve a
// verified token to a live identity.
type IdentityStore interface {
	GetByID(ctx context.Context, id string, role domain.Role) (*domain.User, error)
}

// Guard verifies bearer tokens and attaches a Principal to the
// request context. A token whose identity has since been deleted is
// rejected, matching the not-found failure kind.
type Guard struct {
	tokens *TokenManager
	users  IdentityStore
	logger *slog.Logger
}

func NewGuard(tokens *TokenManager, users IdentityStore, logger *slog.Logger) *Guard {
	return &Guard{tokens: tokens, users: users, logger: logger}
}

// RequireAdmin admits only admin principals; authenticated customers
// get 403, everything else 401.
func (g *Guard) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := g.resolve(w, r)
		if !ok {
			return
		}

		if _, isAdmin := principal.(Admin); !isAdmin {
			g.writeError(w, http.StatusForbidden, "Access denied. Admins only.")
			return
		}

		next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}
}

// RequireCustomer admits only customer principals.
func (g *Guard) RequireCustomer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := g.resolve(w, r)
		if !ok {
			return
		}

		if _, isCustomer := principal.(Customer); !isCustomer {
			g.writeError(w, http.StatusForbidden, "Access denied. Customers only.")
			return
		}

		next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}
}

// resolve authenticates the request, writing the failure response
// itself when the credential is missing, malformed, expired, carries
// an unknown role, or references a deleted identity.
func (g *Guard) resolve(w http.ResponseWriter, r *http.Request) (Principal, bool) {
	token := BearerToken(r)
	if token == "" {
		g.writeError(w, http.StatusUnauthorized, "Not authorized. No token provided.")
		return nil, false
	}

	id, role, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			g.writeError(w, http.StatusUnauthorized, "Token expired")
		} else {
			g.writeError(w, http.StatusUnauthorized, "Invalid token")
		}
		return nil, false
	}

	if role != domain.RoleAdmin && role != domain.RoleCustomer {
		g.writeError(w, http.StatusUnauthorized, "Invalid token role")
		return nil, false
	}

	user, err := g.users.GetByID(r.Context(), id, role)
	if err != nil {
		g.logger.Error("failed to resolve identity", "error", err, "user_id", id)
		g.writeError(w, http.StatusInternalServerError, "Server error")
		return nil, false
	}

	if user == nil {
		if role == domain.RoleAdmin {
			g.writeError(w, http.StatusUnauthorized, "Admin not found")
		} else {
			g.writeError(w, http.StatusUnauthorized, "User not found")
		}
		return nil, false
	}

	if role == domain.RoleAdmin {
		return Admin{ID: user.ID, Email: user.Email}, true
	}
	return Customer{ID: user.ID, Name: user.Name, Email: user.Email}, true
}

// BearerToken extracts the token from an "Authorization: Bearer x"
// header, or returns "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func (g *Guard) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		g.logger.Error("failed to encode error response", "error", err)
	}
}
