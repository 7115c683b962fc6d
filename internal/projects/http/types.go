package http

import (
	"context"

	"github.com/campusbridge/projects-backend/internal/projects/domain"
)

// Service is what the handlers need from the project directory service.
type Service interface {
	Publish(ctx context.Context, req domain.PublishRequest) (string, error)
	ListAll(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, id int64) (*domain.Project, error)
	Update(ctx context.Context, id int64, f domain.UpdateFields) (*domain.Project, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ListForEnterprise(ctx context.Context, enterpriseID string) ([]domain.ProjectResponse, error)
	FilterByName(ctx context.Context, name string) ([]domain.Project, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Project, error)
	ListVisibleForStudents(ctx context.Context) ([]domain.ProjectSummary, error)
	ListByEnterprise(ctx context.Context, enterpriseID string) ([]domain.Project, error)
}

// Handler bundles the dependencies for project HTTP endpoints.
type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}
