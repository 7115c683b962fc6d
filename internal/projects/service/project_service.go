package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusbridge/projects-backend/internal/assets"
	"github.com/campusbridge/projects-backend/internal/projects/domain"
)

// Repository is the metadata-store collaborator. Not-found policy lives
// there: this service passes its results through unchanged.
type Repository interface {
	Insert(ctx context.Context, req domain.PublishRequest, blobPath string) (*domain.Project, error)
	GetAll(ctx context.Context) ([]domain.Project, error)
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	Update(ctx context.Context, id int64, f domain.UpdateFields) (*domain.Project, error)
	Delete(ctx context.Context, id int64) (bool, error)
	FilterByName(ctx context.Context, name string) ([]domain.Project, error)
	GetByEnterprise(ctx context.Context, enterpriseID string) ([]domain.Project, error)
	GetVisibleForStudents(ctx context.Context) ([]domain.VisibleProject, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*domain.Project, error)
}

// AssetStore is the blob-store collaborator holding the three per-project
// artifacts.
type AssetStore interface {
	UploadArtifacts(ctx context.Context, prefix, requirementsHTML string, menus json.RawMessage, deliverables []domain.Deliverable) error
	FetchRequirements(ctx context.Context, prefix string) string
}

// ProjectService orchestrates publish, read, update, delete and listing
// operations. It owns no storage itself.
type ProjectService struct {
	repo  Repository
	store AssetStore
	log   *zap.Logger
	now   func() time.Time
}

func NewProjectService(repo Repository, store AssetStore, log *zap.Logger) *ProjectService {
	return &ProjectService{
		repo:  repo,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Publish uploads the three artifacts and then persists the metadata row.
// The ordering is the invariant: a row never references an unwritten asset
// set, so an upload failure aborts before any metadata is written. A
// metadata failure after a successful upload leaves an orphaned asset set
// for the sweeper to report.
func (s *ProjectService) Publish(ctx context.Context, req domain.PublishRequest) (string, error) {
	prefix := assets.PathPrefix(req.EnterpriseID, req.ProjectName, s.now())

	if err := s.store.UploadArtifacts(ctx, prefix, req.RequirementsHTML, req.Menus, req.Deliverables); err != nil {
		return "", fmt.Errorf("upload artifacts: %w", err)
	}

	if _, err := s.repo.Insert(ctx, req, prefix); err != nil {
		s.log.Error("project row insert failed after asset upload",
			zap.String("blob_path", prefix),
			zap.Error(err))
		return "", fmt.Errorf("save project: %w", err)
	}

	s.log.Info("project published",
		zap.String("enterprise_id", req.EnterpriseID),
		zap.String("name", req.ProjectName),
		zap.String("blob_path", prefix))

	return prefix, nil
}

// ListAll returns every project.
func (s *ProjectService) ListAll(ctx context.Context) ([]domain.Project, error) {
	return s.repo.GetAll(ctx)
}

// Get returns one project by id.
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// Update merges the provided fields into the project. Assets are never
// re-uploaded by mutation.
func (s *ProjectService) Update(ctx context.Context, id int64, f domain.UpdateFields) (*domain.Project, error) {
	return s.repo.Update(ctx, id, f)
}

// Delete removes the metadata row only; blob assets are not purged.
func (s *ProjectService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// ListForEnterprise returns the enterprise's projects with the requirements
// text rehydrated from the blob store. A project without a blob path gets an
// empty requirements value without a fetch being attempted. Fetches run
// sequentially and repository order is preserved.
func (s *ProjectService) ListForEnterprise(ctx context.Context, enterpriseID string) ([]domain.ProjectResponse, error) {
	projects, err := s.repo.GetByEnterprise(ctx, enterpriseID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		requirements := ""
		if p.BlobPath != nil && *p.BlobPath != "" {
			requirements = s.store.FetchRequirements(ctx, *p.BlobPath)
		}

		responses = append(responses, domain.ProjectResponse{
			ID:           p.ID,
			Name:         p.Name,
			EnterpriseID: p.EnterpriseID,
			CreatedAt:    p.CreatedAt,
			Deliverables: p.Deliverables,
			Description:  p.Description,
			Technologies: p.Technologies,
			Complexity:   p.Complexity,
			Category:     p.Category,
			Score:        p.Score,
			Country:      p.Country,
			Status:       p.Status,
			Progress:     p.Progress,
			Team:         p.Students,
			Requirements: requirements,
		})
	}

	return responses, nil
}

// FilterByName returns projects whose name matches the given filter.
func (s *ProjectService) FilterByName(ctx context.Context, name string) ([]domain.Project, error) {
	return s.repo.FilterByName(ctx, name)
}

// UpdateStatus sets the project's status field. Validation of the allowed
// value set is owned by the repository side.
func (s *ProjectService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Project, error) {
	return s.repo.UpdateStatus(ctx, id, status)
}

// ListVisibleForStudents returns flat summaries of student-visible projects,
// each with estimated_hours summed over every task of every deliverable and
// the owning enterprise's display name.
func (s *ProjectService) ListVisibleForStudents(ctx context.Context) ([]domain.ProjectSummary, error) {
	projects, err := s.repo.GetVisibleForStudents(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, domain.ProjectSummary{
			ID:             p.ID,
			Name:           p.Name,
			EnterpriseID:   p.EnterpriseID,
			EnterpriseName: p.EnterpriseName,
			Description:    p.Description,
			Complexity:     p.Complexity,
			Score:          p.Score,
			Status:         p.Status,
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
			BlobPath:       p.BlobPath,
			Technologies:   p.Technologies,
			Category:       p.Category,
			Country:        p.Country,
			EstimatedHours: p.EstimatedHours(),
		})
	}

	return summaries, nil
}

// ListByEnterprise returns the raw rows without asset rehydration, for
// callers that do not need the requirements text.
func (s *ProjectService) ListByEnterprise(ctx context.Context, enterpriseID string) ([]domain.Project, error) {
	return s.repo.GetByEnterprise(ctx, enterpriseID)
}
