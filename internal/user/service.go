// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/coursemarket/internal/auth"
	"github.com/carterperez-dev/coursemarket/internal/core"
	"github.com/carterperez-dev/coursemarket/internal/lifecycle"
)

type Service struct {
	users     *lifecycle.Manager[User]
	hasher    auth.Hasher
	validator *validator.Validate
}

func NewService(store lifecycle.Store[User], hasher auth.Hasher) *Service {
	return &Service{
		users:     lifecycle.NewManager[User](store, Table, "user"),
		hasher:    hasher,
		validator: core.NewValidator(),
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.users.FindOne(ctx, lifecycle.Predicate{
		"email": core.NormalizeEmail(email),
	})
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	nu auth.NewUser,
) (*auth.UserInfo, error) {
	user, err := s.create(ctx, nu)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	_, err := s.users.Update(ctx, userID, lifecycle.Patch{
		"password_hash": passwordHash,
	})
	return err
}

func (s *Service) create(ctx context.Context, nu auth.NewUser) (*User, error) {
	role := nu.Role
	if role == "" {
		role = RoleUser
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		FirstName:    nu.FirstName,
		LastName:     nu.LastName,
		Email:        core.NormalizeEmail(nu.Email),
		PasswordHash: nu.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, role string) ([]User, error) {
	where := lifecycle.Predicate{}
	if role != "" {
		where["role"] = role
	}
	return s.users.List(ctx, where)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.users.Get(ctx, id)
}

// CreateUser is the admin path: unlike registration it may set a role
// and returns no tokens.
func (s *Service) CreateUser(
	ctx context.Context,
	req CreateUserRequest,
) (*User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	passwordHash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.create(ctx, auth.NewUser{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
	})
}

func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, core.ValidationError(core.FormatValidationError(err))
	}

	patch := lifecycle.Patch{}
	if req.FirstName != nil {
		patch["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		patch["last_name"] = *req.LastName
	}
	if req.Role != nil {
		patch["role"] = *req.Role
	}

	if len(patch) == 0 {
		return s.users.Get(ctx, id)
	}
	return s.users.Update(ctx, id, patch)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// CanDeleteUser lets admins remove non-admin accounts. Targets that are
// already tombstoned pass through so Delete can re-stamp them. Users
// close their own account through DELETE /users/profile.
func (s *Service) CanDeleteUser(
	ctx context.Context,
	requesterID, targetID string,
) error {
	requester, err := s.users.Get(ctx, requesterID)
	if err != nil {
		return err
	}

	if !requester.IsAdmin() {
		return fmt.Errorf("delete user: %w", core.ErrForbidden)
	}

	target, err := s.users.Get(ctx, targetID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		return fmt.Errorf("cannot delete admin users: %w", core.ErrForbidden)
	}

	return nil
}

// Count reports the number of live users.
func (s *Service) Count(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
