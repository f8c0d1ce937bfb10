// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/coursemarket/internal/core"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrRefreshRequired     = errors.New("refresh token is required")
)

const defaultRole = "user"

type UserInfo struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

func (u *UserInfo) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         string
}

// UserProvider resolves principals. Every lookup only sees live users
// and reports absent ones with core.ErrNotFound.
type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(ctx context.Context, user NewUser) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	VerifyTimingSafe(
		ctx context.Context,
		password string,
		encodedHash *string,
	) (bool, string, error)
}

type Service struct {
	tokens    *TokenManager
	users     UserProvider
	hasher    Hasher
	validator *validator.Validate
}

func NewService(tokens *TokenManager, users UserProvider, hasher Hasher) *Service {
	return &Service{
		tokens:    tokens,
		users:     users,
		hasher:    hasher,
		validator: core.NewValidator(),
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*AuthResponse, error) {
	req.Email = core.NormalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrEmailExists
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, NewUser{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         defaultRole,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	core.AddSpanEvent(ctx, "auth.register", attribute.String("user.id", user.ID))
	return s.createAuthResponse(user)
}

// Login answers unknown emails and wrong passwords identically, and
// spends the same hashing work on both.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, core.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = s.hasher.VerifyTimingSafe(ctx, req.Password, nil)
			core.AddSpanEvent(ctx, "auth.login_failed")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := s.hasher.VerifyTimingSafe(
		ctx,
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		core.AddSpanEvent(ctx, "auth.login_failed")
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash not persisted",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	core.AddSpanEvent(ctx, "auth.login", attribute.String("user.id", user.ID))
	return s.createAuthResponse(user)
}

// Refresh mints a new access token. The principal is looked up again so
// a token issued to a since-deleted account cannot be redeemed.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
) (*AccessTokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrRefreshRequired
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		core.AddSpanEvent(ctx, "auth.refresh_rejected")
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.AddSpanEvent(ctx, "auth.refresh_rejected",
				attribute.String("user.id", claims.UserID),
			)
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	access, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AccessTokenResponse{AccessToken: access.Token}, nil
}

func (s *Service) Profile(
	ctx context.Context,
	userID string,
) (*ProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ProfileResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *Service) createAuthResponse(user *UserInfo) (*AuthResponse, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &AuthResponse{
		ID:           user.ID,
		Name:         user.FullName(),
		Email:        user.Email,
		Role:         user.Role,
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
	}, nil
}
