package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("project not found")

// Project statuses observed across the platform. The allowed set is owned by
// the status-update callers; the repository stores whatever it is handed.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Task is a single planned work item inside a deliverable.
type Task struct {
	Name          string  `json:"name"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Deliverable groups the tasks of one planned project outcome.
type Deliverable struct {
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
}

// Project is the core entity. Menus are not part of the row: they live only
// in the blob store next to the requirements and deliverables artifacts.
type Project struct {
	ID           int64         `json:"id"`
	EnterpriseID string        `json:"enterprise_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Technologies []string      `json:"technologies"`
	Complexity   string        `json:"complexity"`
	Category     string        `json:"category"`
	Score        int           `json:"score"`
	Country      string        `json:"country"`
	Deliverables []Deliverable `json:"deliverables"`
	BlobPath     *string       `json:"blob_path"`
	Status       string        `json:"status"`
	Progress     int           `json:"progress"`
	Students     []string      `json:"students"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// EstimatedHours sums estimated_time over every task of every deliverable.
func (p *Project) EstimatedHours() float64 {
	var total float64
	for _, d := range p.Deliverables {
		for _, t := range d.Tasks {
			total += t.EstimatedTime
		}
	}
	return total
}

// PublishRequest carries everything a publish needs: the metadata fields for
// the row plus the three artifacts destined for the blob store.
type PublishRequest struct {
	EnterpriseID     string          `json:"enterprise_id"`
	ProjectName      string          `json:"project_name"`
	RequirementsHTML string          `json:"requirements_html"`
	Menus            json.RawMessage `json:"menus"`
	Deliverables     []Deliverable   `json:"deliverables"`
	Description      string          `json:"description"`
	Technologies     []string        `json:"technologies"`
	Complexity       string          `json:"complexity"`
	Category         string          `json:"category"`
	Score            int             `json:"score"`
	Country          string          `json:"country"`
}

// ProjectResponse is the enterprise-facing read shape: the stored row plus the
// rehydrated requirements text, with the student assignment surfaced as team.
type ProjectResponse struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	EnterpriseID string        `json:"enterprise_id"`
	CreatedAt    time.Time     `json:"created_at"`
	Deliverables []Deliverable `json:"deliverables"`
	Description  string        `json:"description"`
	Technologies []string      `json:"technologies"`
	Complexity   string        `json:"complexity"`
	Category     string        `json:"category"`
	Score        int           `json:"score"`
	Country      string        `json:"country"`
	Status       string        `json:"status"`
	Progress     int           `json:"progress"`
	Team         []string      `json:"team"`
	Requirements string        `json:"requirements"`
}

// VisibleProject is a student-visible row joined with its owner's name.
type VisibleProject struct {
	Project
	EnterpriseName string `json:"enterprise_name"`
}

// ProjectSummary is the flat student-facing listing entry.
type ProjectSummary struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	EnterpriseID   string    `json:"enterprise_id"`
	EnterpriseName string    `json:"enterprise_name"`
	Description    string    `json:"description"`
	Complexity     string    `json:"complexity"`
	Score          int       `json:"score"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	BlobPath       *string   `json:"blob_path"`
	Technologies   []string  `json:"technologies"`
	Category       string    `json:"category"`
	Country        string    `json:"country"`
	EstimatedHours float64   `json:"estimated_hours"`
}

// UpdateFields is the partial-update payload. Nil fields are left unchanged.
type UpdateFields struct {
	Name         *string        `json:"name"`
	Description  *string        `json:"description"`
	Technologies *[]string      `json:"technologies"`
	Complexity   *string        `json:"complexity"`
	Category     *string        `json:"category"`
	Score        *int           `json:"score"`
	Country      *string        `json:"country"`
	Progress     *int           `json:"progress"`
	Students     *[]string      `json:"students"`
	Deliverables *[]Deliverable `json:"deliverables"`
}

// Empty reports whether the payload carries no changes at all.
func (u UpdateFields) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Technologies == nil &&
		u.Complexity == nil && u.Category == nil && u.Score == nil &&
		u.Country == nil && u.Progress == nil && u.Students == nil &&
		u.Deliverables == nil
}
