package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/travelmap/itinerary-backend/internal/cache"
	"github.com/travelmap/itinerary-backend/internal/config"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// Roles carried in access tokens
const (
	RoleAdmin = "admin"
	RoleGuest = "guest"
)

// AdminAuthService handles admin authentication business logic. The single
// admin account comes from configuration.
type AdminAuthService struct {
	admin      models.AdminUser
	jwtService *jwt.Service
	revoker    cache.Revoker
	now        func() time.Time
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(cfg config.AdminConfig, jwtService *jwt.Service, revoker cache.Revoker) *AdminAuthService {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	return &AdminAuthService{
		admin: models.AdminUser{
			ID:           AdminID(email),
			Email:        email,
			PasswordHash: cfg.PasswordHash,
			FullName:     cfg.Name,
		},
		jwtService: jwtService,
		revoker:    revoker,
		now:        time.Now,
	}
}

// AdminID derives a stable user id from the admin email so tokens survive
// restarts
func AdminID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("travelmap:admin:"+email))
}

// Login authenticates the admin and returns tokens
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (*models.AdminLoginResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.ToLower(strings.TrimSpace(email)) != s.admin.Email {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue()
}

// RefreshToken exchanges a valid, unrevoked refresh token for new tokens.
// The old refresh token is revoked.
func (s *AdminAuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AdminLoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if claims.Email != s.admin.Email || claims.UserID != s.admin.ID {
		return nil, ErrInvalidCredentials
	}

	if err := s.revoker.Revoke(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issue()
}

// Logout revokes the refresh token for the rest of its lifetime
func (s *AdminAuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Session describes the caller. Nil claims mean a guest.
func (s *AdminAuthService) Session(claims *jwt.Claims) models.SessionInfo {
	if claims == nil || !claims.HasRole(RoleAdmin) {
		return models.SessionInfo{Authenticated: false, Role: RoleGuest}
	}
	return models.SessionInfo{Authenticated: true, Role: RoleAdmin, Email: claims.Email}
}

// Admin returns the configured admin account
func (s *AdminAuthService) Admin() models.AdminUser {
	return s.admin
}

func (s *AdminAuthService) issue() (*models.AdminLoginResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(s.admin.ID, s.admin.Email, []string{RoleAdmin})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(s.admin.ID, s.admin.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	admin := s.admin
	return &models.AdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		AdminUser:    &admin,
	}, nil
}
