package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskpad/api/internal/core/domain"
	"github.com/taskpad/api/internal/core/ports"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// sortColumns maps the client-facing sort keys to the columns the repository
// may order by. Anything outside this map falls back to created_at.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

type taskService struct {
	repo ports.TaskRepository
}

func NewTaskService(repo ports.TaskRepository) ports.TaskService {
	return &taskService{repo: repo}
}

func (s *taskService) Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*domain.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.ErrInvalidTitle
	}

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, taskID, actingUserID uuid.UUID) (*domain.Task, error) {
	return s.ownedTask(ctx, taskID, actingUserID)
}

// Update applies a partial patch to an owned task. The whole patch is
// validated before any field is written, so a rejected patch leaves the task
// untouched.
func (s *taskService) Update(ctx context.Context, taskID, actingUserID uuid.UUID, patch ports.TaskPatch) (*domain.Task, error) {
	task, err := s.ownedTask(ctx, taskID, actingUserID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, domain.ErrInvalidTitle
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	task.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, taskID, actingUserID uuid.UUID) error {
	if _, err := s.ownedTask(ctx, taskID, actingUserID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// List returns one page of the owner's tasks. All option normalization
// happens here: the repository only ever sees whitelisted sort columns and
// in-range paging values.
func (s *taskService) List(ctx context.Context, ownerID uuid.UUID, input ports.ListTasksInput) (*ports.TaskPage, error) {
	page := input.Page
	if page < 1 {
		page = defaultPage
	}
	limit := input.Limit
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	column, ok := sortColumns[input.Sort]
	if !ok {
		column = sortColumns["created_at"]
	}
	desc := strings.ToLower(input.Order) != "asc"

	filter := ports.TaskFilter{
		OwnerID:    ownerID,
		Completed:  input.Completed,
		Search:     input.Search,
		SortColumn: column,
		SortDesc:   desc,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return &ports.TaskPage{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}, nil
}

// ownedTask fetches a task and enforces ownership. Existence is checked
// against the whole table first, so a task owned by someone else yields
// ErrForbidden rather than ErrTaskNotFound.
func (s *taskService) ownedTask(ctx context.Context, taskID, actingUserID uuid.UUID) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	if task.OwnerID != actingUserID {
		return nil, domain.ErrForbidden
	}
	return task, nil
}
