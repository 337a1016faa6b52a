package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hward/taskboard/internal/api/dto"
	"github.com/hward/taskboard/internal/api/middleware"
	"github.com/hward/taskboard/internal/auth"
	"github.com/hward/taskboard/internal/database/models"
)

type AuthHandler struct {
	authService *auth.Service
	revoker     auth.Revoker
	tokenExpiry time.Duration
}

func NewAuthHandler(authService *auth.Service, revoker auth.Revoker, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		revoker:     revoker,
		tokenExpiry: tokenExpiry,
	}
}

// Session handles POST /api/v1/auth/session: exchanges an identity
// provider token for a session token, provisioning the user on first
// sign-in.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	var req dto.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	resp, err := h.authService.SignIn(r.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidIdentityToken) {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid identity token"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Sign-in failed"})
		return
	}

	// Cookie for browser clients; API clients use the token from the body.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    resp.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokenExpiry.Seconds()),
	})

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: resp.Token,
		User:  userToDTO(resp.User),
	})
}

// Logout handles POST /api/v1/auth/logout. The session token is added to
// the revocation list so it stops working before its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.revoker != nil {
		if tokenID := middleware.GetTokenID(r.Context()); tokenID != "" {
			_ = h.revoker.Revoke(r.Context(), tokenID, h.tokenExpiry)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

// Me handles GET /api/v1/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load user"})
		return
	}

	writeJSON(w, http.StatusOK, userToDTO(user))
}

// UpdateMe handles PUT /api/v1/me.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	ok, err := h.authService.UpdateProfile(r.Context(), userID, req.DisplayName)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update profile"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Profile updated"})
}

func userToDTO(user *models.User) dto.UserDTO {
	return dto.UserDTO{
		ID:          user.ID.String(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		RoleLabel:   user.Role.DisplayName(),
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
