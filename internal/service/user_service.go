package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.UserRepository
	logger *zerolog.Logger
}

func NewUserService(repo domain.UserRepository, logger *zerolog.Logger) *UserService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, req models.NewUser) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, domain.Validation("User email is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.Validation("User name is required")
	}

	user := &models.User{Name: name, Email: email}
	err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, database.ErrDuplicate) {
		return nil, domain.Conflict("User with email %s already exists", email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, domain.NotFound(nil, "User with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// UpdateUser applies the non-blank fields of patch.
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		email := strings.TrimSpace(*patch.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}

	err = s.repo.UpdateUser(ctx, user)
	switch {
	case errors.Is(err, database.ErrDuplicate):
		return nil, domain.Conflict("User with email %s already exists", user.Email)
	case errors.Is(err, database.ErrNotFound):
		return nil, domain.NotFound(nil, "User with id %d not found", id)
	case err != nil:
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	s.logger.Info().Int64("user_id", id).Msg("user updated")
	return user, nil
}

// DeleteUser removes a user that no item or booking refers to.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	err := s.repo.DeleteUser(ctx, id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return domain.NotFound(nil, "User with id %d not found", id)
	case errors.Is(err, database.ErrInUse):
		return domain.Conflict("User with id %d still owns items or has bookings", id)
	case err != nil:
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func validateEmail(email string) error {
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.Validation("Invalid email: %s", email)
	}
	return nil
}
