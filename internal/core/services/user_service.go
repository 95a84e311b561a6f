package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskpad/api/internal/core/domain"
	"github.com/taskpad/api/internal/core/ports"
)

type userService struct {
	userRepo ports.UserRepository
	taskRepo ports.TaskRepository
}

func NewUserService(userRepo ports.UserRepository, taskRepo ports.TaskRepository) ports.UserService {
	return &userService{
		userRepo: userRepo,
		taskRepo: taskRepo,
	}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// Delete removes an account together with every task it owns. The cascade is
// an explicit step here rather than a foreign-key action, so ownership
// cleanup stays visible in application code.
func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.taskRepo.DeleteByOwner(ctx, id); err != nil {
		return fmt.Errorf("failed to delete owned tasks: %w", err)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
