package handlers_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hward/taskboard/internal/api/dto"
	"github.com/hward/taskboard/internal/api/handlers"
	"github.com/hward/taskboard/internal/api/middleware"
	"github.com/hward/taskboard/internal/auth"
	"github.com/hward/taskboard/internal/database/models"
	"github.com/hward/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIdentitySecret = "handler-test-identity-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	verifier := auth.NewHSIdentityVerifier(testIdentitySecret, "")
	authService := auth.NewService(tc.DB, tc.JWTService, verifier, discardLogger())
	handler := handlers.NewAuthHandler(authService, nil, tc.JWTService.Expiry())

	r := chi.NewRouter()
	r.Post("/api/v1/auth/session", handler.Session)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService, nil))
		r.Post("/api/v1/auth/logout", handler.Logout)
		r.Get("/api/v1/me", handler.Me)
		r.Put("/api/v1/me", handler.UpdateMe)
	})

	return r, tc
}

func TestAuthHandler_Session(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("valid identity token", func(t *testing.T) {
		idToken := testutil.GenerateIdentityToken(t, testIdentitySecret, "uid-77", "new@example.com", "New Person")

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/session",
			dto.SessionRequest{IDToken: idToken})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "new@example.com", resp.User.Email)

		// Session token set as a cookie for browser clients too.
		cookies := rr.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "token", cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
	})

	t.Run("invalid identity token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/session",
			dto.SessionRequest{IDToken: "garbage"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("missing identity token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/session",
			dto.SessionRequest{})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("returns the current user", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/me", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var user dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &user)
		assert.Equal(t, tc.User.Email, user.Email)
		assert.Equal(t, string(models.RoleUser), user.Role)
		assert.Equal(t, "Standard User", user.RoleLabel)
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/me", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestAuthHandler_UpdateMe(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	t.Run("updates display name", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/me",
			dto.UpdateProfileRequest{DisplayName: "Renamed Person"}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var fresh models.User
		require.NoError(t, tc.DB.First(&fresh, "id = ?", tc.User.ID).Error)
		assert.Equal(t, "Renamed Person", fresh.DisplayName)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/me",
			dto.UpdateProfileRequest{DisplayName: "  "}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil, tc.Token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusOK)

	// Cookie cleared on the way out.
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}
