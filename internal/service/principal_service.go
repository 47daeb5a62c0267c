package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/medibook-api/internal/models"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
)

type principalUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PrincipalConfig configures token verification.
type PrincipalConfig struct {
	Secret string
	Issuer string
}

// PrincipalService resolves bearer tokens into principals. Tokens are issued
// elsewhere; this service only verifies them.
type PrincipalService struct {
	users  principalUserRepository
	logger *zap.Logger
	config PrincipalConfig
}

// NewPrincipalService constructs the resolver.
func NewPrincipalService(users principalUserRepository, logger *zap.Logger, config PrincipalConfig) *PrincipalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrincipalService{users: users, logger: logger, config: config}
}

// ValidateToken verifies signature, expiry and issuer of an HS256 token.
func (s *PrincipalService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Resolve returns the principal behind an Authorization header value. The
// stored user is authoritative for role and hospital.
func (s *PrincipalService) Resolve(ctx context.Context, header string) (*models.Principal, error) {
	raw := strings.TrimSpace(header)
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token")
	}
	claims, err := s.ValidateToken(strings.TrimSpace(raw[7:]))
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown user")
		}
		return nil, internal(err, "failed to resolve principal")
	}
	if !user.Role.Valid() {
		s.logger.Warn("user with unknown role", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
	}
	return models.PrincipalFromUser(user), nil
}
