package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hward/taskboard/internal/api/dto"
	"github.com/hward/taskboard/internal/api/handlers"
	"github.com/hward/taskboard/internal/api/middleware"
	"github.com/hward/taskboard/internal/database/models"
	"github.com/hward/taskboard/internal/permissions"
	"github.com/hward/taskboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPermissionTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	permService := permissions.NewService(tc.DB, discardLogger())
	handler := handlers.NewPermissionHandler(permService)

	r := chi.NewRouter()
	r.Use(middleware.Auth(tc.JWTService, nil))
	r.Route("/api/v1/permissions", func(r chi.Router) {
		r.Post("/grid", handler.Grid)
		r.Post("/save", handler.Save)
		r.Get("/users", handler.AvailableUsers)
	})
	r.Get("/api/v1/users/search", handler.SearchUsers)

	return r, tc
}

func superAdminToken(t *testing.T, tc *testutil.TestSetup) (*models.User, string) {
	t.Helper()
	super := testutil.CreateTestUser(t, tc.DB, models.RoleSuperAdmin)
	return super, testutil.GenerateTestToken(t, tc.JWTService, super)
}

func TestPermissionHandler_Grid(t *testing.T) {
	router, tc := setupPermissionTestRouter(t)
	defer tc.Cleanup()

	super, superToken := superAdminToken(t, tc)
	testutil.CreateTestPermission(t, tc.DB, super.ID, models.RoleSuperAdmin)
	ownPerm := testutil.CreateTestPermission(t, tc.DB, tc.User.ID, models.RoleUser)

	t.Run("superadmin sees all records", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/grid",
			dto.PermissionGridRequest{}, superToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Items []dto.PermissionResponse `json:"items"`
			Total int64                    `json:"total"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, int64(2), resp.Total)
	})

	t.Run("regular user sees only own record", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/grid",
			dto.PermissionGridRequest{}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Items []dto.PermissionResponse `json:"items"`
			Total int64                    `json:"total"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, int64(1), resp.Total)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, tc.User.ID.String(), resp.Items[0].UserID)
	})

	t.Run("readonly caller is forbidden", func(t *testing.T) {
		reader := testutil.CreateTestUser(t, tc.DB, models.RoleReadOnly)
		readerToken := testutil.GenerateTestToken(t, tc.JWTService, reader)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/grid",
			dto.PermissionGridRequest{}, readerToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("pending edits shape the superadmin grid", func(t *testing.T) {
		newcomer := testutil.CreateTestUser(t, tc.DB, models.RoleUser)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/grid",
			dto.PermissionGridRequest{
				Additions: []dto.PermissionGrant{{UserID: newcomer.ID.String(), Role: "Admin"}},
				Removals:  []string{ownPerm.ID.String()},
			}, superToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp struct {
			Items []dto.PermissionResponse `json:"items"`
			Total int64                    `json:"total"`
		}
		testutil.ParseJSONResponse(t, rr, &resp)
		// 2 persisted + 1 pending addition - 1 pending removal
		assert.Equal(t, int64(2), resp.Total)
		for _, item := range resp.Items {
			assert.NotEqual(t, ownPerm.ID.String(), item.ID)
		}
	})
}

func TestPermissionHandler_Save(t *testing.T) {
	router, tc := setupPermissionTestRouter(t)
	defer tc.Cleanup()

	t.Run("superadmin saves a batch", func(t *testing.T) {
		_, superToken := superAdminToken(t, tc)
		target := testutil.CreateTestUser(t, tc.DB, models.RoleUser)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/save",
			dto.SavePermissionsRequest{
				Additions: []dto.PermissionGrant{{UserID: target.ID.String(), Role: "Admin"}},
			}, superToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var fresh models.User
		require.NoError(t, tc.DB.First(&fresh, "id = ?", target.ID).Error)
		assert.Equal(t, models.RoleAdmin, fresh.Role)
	})

	t.Run("non-superadmin gets 403", func(t *testing.T) {
		target := testutil.CreateTestUser(t, tc.DB, models.RoleUser)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/save",
			dto.SavePermissionsRequest{
				Additions: []dto.PermissionGrant{{UserID: target.ID.String(), Role: "Admin"}},
			}, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("self removal gets 409", func(t *testing.T) {
		super, superToken := superAdminToken(t, tc)
		ownPerm := testutil.CreateTestPermission(t, tc.DB, super.ID, models.RoleSuperAdmin)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/save",
			dto.SavePermissionsRequest{
				Removals: []string{ownPerm.ID.String()},
			}, superToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("whitespace-padded ids are accepted", func(t *testing.T) {
		super, superToken := superAdminToken(t, tc)
		testutil.CreateTestPermission(t, tc.DB, super.ID, models.RoleSuperAdmin)
		target := testutil.CreateTestUser(t, tc.DB, models.RoleUser)
		targetPerm := testutil.CreateTestPermission(t, tc.DB, target.ID, models.RoleUser)
		promoted := testutil.CreateTestUser(t, tc.DB, models.RoleUser)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/save",
			dto.SavePermissionsRequest{
				Additions: []dto.PermissionGrant{{UserID: "  " + promoted.ID.String() + "  ", Role: "Admin"}},
				Removals:  []string{" " + targetPerm.ID.String() + " "},
			}, superToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var fresh models.User
		require.NoError(t, tc.DB.First(&fresh, "id = ?", promoted.ID).Error)
		assert.Equal(t, models.RoleAdmin, fresh.Role)

		var count int64
		require.NoError(t, tc.DB.Model(&models.Permission{}).
			Where("id = ?", targetPerm.ID).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		_, superToken := superAdminToken(t, tc)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/save",
			dto.SavePermissionsRequest{}, superToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, superToken := superAdminToken(t, tc)
		target := testutil.CreateTestUser(t, tc.DB, models.RoleUser)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/permissions/save",
			dto.SavePermissionsRequest{
				Additions: []dto.PermissionGrant{{UserID: target.ID.String(), Role: "Wizard"}},
			}, superToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestPermissionHandler_UserLookups(t *testing.T) {
	router, tc := setupPermissionTestRouter(t)
	defer tc.Cleanup()

	t.Run("available users", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/permissions/users", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var users []dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &users)
		assert.NotEmpty(t, users)
	})

	t.Run("search by email", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET",
			"/api/v1/users/search?q="+tc.User.Email, nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var users []dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &users)
		require.Len(t, users, 1)
		assert.Equal(t, tc.User.Email, users[0].Email)
	})

	t.Run("readonly caller forbidden", func(t *testing.T) {
		reader := testutil.CreateTestUser(t, tc.DB, models.RoleReadOnly)
		readerToken := testutil.GenerateTestToken(t, tc.JWTService, reader)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/permissions/users", nil, readerToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})
}
