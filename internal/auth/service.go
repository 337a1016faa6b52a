package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hward/taskboard/internal/api/validation"
	"github.com/hward/taskboard/internal/database/models"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type Service struct {
	db       *gorm.DB
	jwt      *JWTService
	verifier IdentityVerifier
	log      *slog.Logger
}

func NewService(db *gorm.DB, jwt *JWTService, verifier IdentityVerifier, log *slog.Logger) *Service {
	return &Service{db: db, jwt: jwt, verifier: verifier, log: log}
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SignIn verifies an identity-provider token and returns a session token
// for the matching user, provisioning the user on first sight.
func (s *Service) SignIn(ctx context.Context, idToken string) (*AuthResponse, error) {
	ident, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.GetOrCreateUser(ctx, *ident)
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

// GetOrCreateUser finds the user for a verified identity, or creates one.
// Lookup order: external UID first, then email (back-filling the UID for
// accounts created before the provider issued one), then create. The very
// first user in an empty system is granted SuperAdmin; everyone after
// defaults to User. The emptiness check runs inside the same transaction
// as the insert, so concurrent first registrations cannot both win.
func (s *Service) GetOrCreateUser(ctx context.Context, ident Identity) (*models.User, error) {
	uid := strings.TrimSpace(ident.UID)
	email := strings.TrimSpace(ident.Email)
	if uid == "" || email == "" {
		return nil, ErrInvalidIdentityToken
	}
	// The users column is varchar(255); identity providers are not bound
	// by our request DTO limits.
	name := validation.TruncateString(strings.TrimSpace(ident.Name), 255)

	var user models.User
	err := s.db.WithContext(ctx).Where("external_uid = ?", uid).First(&user).Error
	if err == nil {
		return s.syncProfile(ctx, &user, email, name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up user by uid: %w", err)
	}

	// The account may predate the provider UID.
	err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		user.ExternalUID = uid
		if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, fmt.Errorf("backfilling external uid: %w", err)
		}
		s.log.Info("user matched by email, external uid stored", "email", email)
		return s.syncProfile(ctx, &user, email, name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return fmt.Errorf("counting users: %w", err)
		}

		role := models.RoleUser
		if count == 0 {
			role = models.RoleSuperAdmin
		}

		user = models.User{
			ExternalUID: uid,
			Email:       email,
			DisplayName: name,
			Role:        role,
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		grant := models.Permission{
			UserID: user.ID,
			Role:   role,
		}
		if err := tx.Create(&grant).Error; err != nil {
			return fmt.Errorf("creating permission record: %w", err)
		}

		if role == models.RoleSuperAdmin {
			s.log.Warn("first user created as SuperAdmin", "email", email)
		} else {
			s.log.Info("new user created", "email", email)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// syncProfile keeps email and display name in step with what the identity
// provider asserts.
func (s *Service) syncProfile(ctx context.Context, user *models.User, email, name string) (*models.User, error) {
	changed := false
	if user.Email != email {
		user.Email = email
		changed = true
	}
	if name != "" && user.DisplayName != name {
		user.DisplayName = name
		changed = true
	}
	if changed {
		if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
			return nil, fmt.Errorf("syncing user profile: %w", err)
		}
	}
	return user, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the user's display name. False when the user does
// not exist.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, displayName string) (bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("user not found for profile update", "user_id", userID)
			return false, nil
		}
		return false, fmt.Errorf("loading user %s: %w", userID, err)
	}

	user.DisplayName = strings.TrimSpace(displayName)
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return false, fmt.Errorf("updating profile for %s: %w", userID, err)
	}

	s.log.Info("user profile updated", "user_id", userID)
	return true, nil
}
