package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusbridge/projects-backend/internal/projects/domain"
)

type fakeRepo struct {
	Repository

	inserted     []string // blob paths handed to Insert
	insertErr    error
	byEnterprise []domain.Project
	visible      []domain.VisibleProject
	statusCalls  map[int64]string
}

func (f *fakeRepo) Insert(ctx context.Context, req domain.PublishRequest, blobPath string) (*domain.Project, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, blobPath)
	return &domain.Project{ID: 1, EnterpriseID: req.EnterpriseID, Name: req.ProjectName, BlobPath: &blobPath}, nil
}

func (f *fakeRepo) GetByEnterprise(ctx context.Context, enterpriseID string) ([]domain.Project, error) {
	return f.byEnterprise, nil
}

func (f *fakeRepo) GetVisibleForStudents(ctx context.Context) ([]domain.VisibleProject, error) {
	return f.visible, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Project, error) {
	if f.statusCalls == nil {
		f.statusCalls = make(map[int64]string)
	}
	f.statusCalls[id] = status
	return &domain.Project{ID: id, Status: status, UpdatedAt: time.Now()}, nil
}

type fakeStore struct {
	uploads   []string // prefixes handed to UploadArtifacts
	uploadErr error
	fetched   []string // prefixes handed to FetchRequirements
	content   map[string]string
}

func (f *fakeStore) UploadArtifacts(ctx context.Context, prefix, requirementsHTML string, menus json.RawMessage, deliverables []domain.Deliverable) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, prefix)
	return nil
}

func (f *fakeStore) FetchRequirements(ctx context.Context, prefix string) string {
	f.fetched = append(f.fetched, prefix)
	return f.content[prefix]
}

func newTestService(repo *fakeRepo, store *fakeStore) *ProjectService {
	s := NewProjectService(repo, store, zap.NewNop())
	s.now = func() time.Time {
		return time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)
	}
	return s
}

func TestPublish(t *testing.T) {
	t.Run("uploads then inserts under the same prefix", func(t *testing.T) {
		repo := &fakeRepo{}
		store := &fakeStore{}
		s := newTestService(repo, store)

		prefix, err := s.Publish(context.Background(), domain.PublishRequest{
			EnterpriseID:     "E1",
			ProjectName:      "Alpha",
			RequirementsHTML: "<p>x</p>",
		})
		require.NoError(t, err)

		assert.Regexp(t, `^E1/Alpha_2026-08-31T14-30-05`, prefix)
		require.Len(t, store.uploads, 1)
		require.Len(t, repo.inserted, 1)
		assert.Equal(t, prefix, store.uploads[0])
		assert.Equal(t, prefix, repo.inserted[0])
	})

	t.Run("upload failure aborts before any metadata write", func(t *testing.T) {
		repo := &fakeRepo{}
		store := &fakeStore{uploadErr: errors.New("blob store down")}
		s := newTestService(repo, store)

		_, err := s.Publish(context.Background(), domain.PublishRequest{
			EnterpriseID: "E1",
			ProjectName:  "Alpha",
		})
		require.Error(t, err)
		assert.Empty(t, repo.inserted)
	})

	t.Run("metadata failure after upload surfaces the error", func(t *testing.T) {
		repo := &fakeRepo{insertErr: errors.New("db down")}
		store := &fakeStore{}
		s := newTestService(repo, store)

		_, err := s.Publish(context.Background(), domain.PublishRequest{
			EnterpriseID: "E1",
			ProjectName:  "Alpha",
		})
		require.Error(t, err)
		// The assets were already written; they become sweeper work.
		assert.Len(t, store.uploads, 1)
	})
}

func TestListForEnterprise(t *testing.T) {
	path := "E1/Alpha_ts"
	repo := &fakeRepo{byEnterprise: []domain.Project{
		{ID: 1, Name: "Alpha", EnterpriseID: "E1", BlobPath: &path, Students: []string{"s1", "s2"}},
		{ID: 2, Name: "Beta", EnterpriseID: "E1", BlobPath: nil},
	}}
	store := &fakeStore{content: map[string]string{path: "<p>x</p>"}}
	s := newTestService(repo, store)

	out, err := s.ListForEnterprise(context.Background(), "E1")
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Repository order is preserved and students surface as team.
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, "<p>x</p>", out[0].Requirements)
	assert.Equal(t, []string{"s1", "s2"}, out[0].Team)

	// A project without a blob path gets empty requirements without a fetch.
	assert.Equal(t, int64(2), out[1].ID)
	assert.Equal(t, "", out[1].Requirements)
	assert.Equal(t, []string{path}, store.fetched)
}

func TestListVisibleForStudents(t *testing.T) {
	repo := &fakeRepo{visible: []domain.VisibleProject{
		{
			Project: domain.Project{
				ID:   1,
				Name: "Alpha",
				Deliverables: []domain.Deliverable{
					{Name: "MVP", Tasks: []domain.Task{
						{Name: "design", EstimatedTime: 4.5},
						{Name: "build", EstimatedTime: 10},
					}},
					{Name: "Final", Tasks: []domain.Task{
						{Name: "polish", EstimatedTime: 2.5},
					}},
				},
			},
			EnterpriseName: "Acme Corp",
		},
		{
			Project:        domain.Project{ID: 2, Name: "Beta"},
			EnterpriseName: "Beta Inc",
		},
	}}
	s := newTestService(repo, &fakeStore{})

	out, err := s.ListVisibleForStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, 17.0, out[0].EstimatedHours)
	assert.Equal(t, "Acme Corp", out[0].EnterpriseName)

	// Zero deliverables means zero estimated hours, not an error.
	assert.Equal(t, 0.0, out[1].EstimatedHours)
}

func TestUpdateStatus(t *testing.T) {
	repo := &fakeRepo{}
	s := newTestService(repo, &fakeStore{})

	p, err := s.UpdateStatus(context.Background(), 7, "approved")
	require.NoError(t, err)

	assert.Equal(t, "approved", p.Status)
	assert.Equal(t, "approved", repo.statusCalls[7])
	assert.False(t, p.UpdatedAt.IsZero())
}
