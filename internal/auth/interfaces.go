package auth

import (
	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/database/models"
)

// TokenService defines the interface for session token operations.
type TokenService interface {
	GenerateToken(userID uuid.UUID, email string, role models.Role) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ TokenService     = (*JWTService)(nil)
	_ IdentityVerifier = (*HSIdentityVerifier)(nil)
	_ Revoker          = (*RedisRevoker)(nil)
)
