package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskpad/api/internal/core/domain"
)

// TaskFilter is the fully normalized query the repository executes. SortColumn
// is always one of the whitelisted column names; services never pass
// client-supplied values through unchecked.
type TaskFilter struct {
	OwnerID    uuid.UUID
	Completed  *bool
	Search     string
	SortColumn string
	SortDesc   bool
	Limit      int
	Offset     int
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)
}

type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// ListTasksInput carries the raw, client-facing list options. Out-of-range
// values are normalized by the service before they reach the repository.
type ListTasksInput struct {
	Completed *bool
	Search    string
	Sort      string
	Order     string
	Page      int
	Limit     int
}

type TaskPage struct {
	Items []*domain.Task `json:"data"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
}

type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, title, description string) (*domain.Task, error)
	Get(ctx context.Context, taskID, actingUserID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, taskID, actingUserID uuid.UUID, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, taskID, actingUserID uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, input ListTasksInput) (*TaskPage, error)
}
