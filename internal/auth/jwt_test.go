package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/auth"
	"github.com/hward/taskboard/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService(t *testing.T) {
	svc := auth.NewJWTService("unit-test-secret", time.Hour)
	userID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, "u@example.com", models.RoleAdmin)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "u@example.com", claims.Email)
		assert.Equal(t, models.RoleAdmin, claims.Role)
		assert.NotEmpty(t, claims.ID, "token must carry a jti for revocation")
	})

	t.Run("distinct tokens get distinct jtis", func(t *testing.T) {
		first, err := svc.GenerateToken(userID, "u@example.com", models.RoleUser)
		require.NoError(t, err)
		second, err := svc.GenerateToken(userID, "u@example.com", models.RoleUser)
		require.NoError(t, err)

		c1, err := svc.ValidateToken(first)
		require.NoError(t, err)
		c2, err := svc.ValidateToken(second)
		require.NoError(t, err)
		assert.NotEqual(t, c1.ID, c2.ID)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewJWTService("unit-test-secret", -time.Minute)
		token, err := expired.GenerateToken(userID, "u@example.com", models.RoleUser)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewJWTService("a-different-secret", time.Hour)
		token, err := other.GenerateToken(userID, "u@example.com", models.RoleUser)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
