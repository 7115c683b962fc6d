package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbridge/projects-backend/internal/projects/domain"
)

type fakeService struct {
	Service

	publishPrefix string
	publishReq    *domain.PublishRequest
	filtered      []domain.Project
	filterName    string
	byEnterprise  []domain.ProjectResponse
	getErr        error
	project       *domain.Project
}

func (f *fakeService) Publish(ctx context.Context, req domain.PublishRequest) (string, error) {
	f.publishReq = &req
	return f.publishPrefix, nil
}

func (f *fakeService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.project, nil
}

func (f *fakeService) FilterByName(ctx context.Context, name string) ([]domain.Project, error) {
	f.filterName = name
	return f.filtered, nil
}

func (f *fakeService) ListForEnterprise(ctx context.Context, enterpriseID string) ([]domain.ProjectResponse, error) {
	return f.byEnterprise, nil
}

func (f *fakeService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Project, error) {
	return &domain.Project{ID: id, Status: status, UpdatedAt: time.Now()}, nil
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc)
	h.Register(r.Group("/projects"), r.Group("/enterprises"))
	return r
}

func TestPublishHandler(t *testing.T) {
	t.Run("returns the blob path on success", func(t *testing.T) {
		svc := &fakeService{publishPrefix: "E1/Alpha_ts"}
		r := newTestRouter(svc)

		body := `{"enterprise_id":"E1","project_name":"Alpha","requirements_html":"<p>x</p>","menus":{},"deliverables":[]}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body))
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			OK       bool   `json:"ok"`
			BlobPath string `json:"blob_path"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.Equal(t, "E1/Alpha_ts", resp.BlobPath)

		require.NotNil(t, svc.publishReq)
		assert.Equal(t, "E1", svc.publishReq.EnterpriseID)
	})

	t.Run("rejects a body without identity fields", func(t *testing.T) {
		r := newTestRouter(&fakeService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{"project_name":"  "}`))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		r := newTestRouter(&fakeService{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(`{`))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetHandler(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		r := newTestRouter(&fakeService{})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found passes through as 404", func(t *testing.T) {
		r := newTestRouter(&fakeService{getErr: domain.ErrNotFound})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/7", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListHandler_NameFilter(t *testing.T) {
	svc := &fakeService{filtered: []domain.Project{{ID: 1, Name: "Alpha"}}}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects?name=Alp", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alp", svc.filterName)
}

func TestUpdateStatusHandler(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/projects/7/status", strings.NewReader(`{"status":"approved"}`))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Project domain.Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Project.ID)
	assert.Equal(t, "approved", resp.Project.Status)
	assert.False(t, resp.Project.UpdatedAt.IsZero())
}

func TestListForEnterpriseHandler(t *testing.T) {
	svc := &fakeService{byEnterprise: []domain.ProjectResponse{
		{ID: 1, Name: "Alpha", Requirements: "<p>x</p>", Team: []string{"s1"}},
	}}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/enterprises/E1/projects", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Projects []domain.ProjectResponse `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Projects, 1)
	assert.Equal(t, "<p>x</p>", resp.Projects[0].Requirements)
	assert.Equal(t, []string{"s1"}, resp.Projects[0].Team)
}
