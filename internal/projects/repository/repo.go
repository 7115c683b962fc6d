package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusbridge/projects-backend/internal/projects/domain"
)

// Repo provides relational persistence for projects.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const projectColumns = `id, enterprise_id, name, description, technologies, complexity,
category, score, country, deliverables, blob_path, status, progress, students,
created_at, updated_at`

// Insert persists a newly published project. The row is written only after
// the artifacts exist: blob_path points at an already-uploaded asset set.
func (r *Repo) Insert(ctx context.Context, req domain.PublishRequest, blobPath string) (*domain.Project, error) {
	if req.ProjectName == "" {
		return nil, fmt.Errorf("project name required")
	}
	if req.EnterpriseID == "" {
		return nil, fmt.Errorf("enterprise id required")
	}

	deliverables, err := marshalDeliverables(req.Deliverables)
	if err != nil {
		return nil, err
	}

	technologies := req.Technologies
	if technologies == nil {
		technologies = []string{}
	}

	const q = `
insert into projects (enterprise_id, name, description, technologies, complexity,
                      category, score, country, deliverables, blob_path)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
returning ` + projectColumns + `;
`
	row := r.db.QueryRow(ctx, q,
		req.EnterpriseID, req.ProjectName, req.Description, technologies,
		req.Complexity, req.Category, req.Score, req.Country, deliverables, blobPath)

	return scanProject(row)
}

// GetAll returns every project, oldest first.
func (r *Repo) GetAll(ctx context.Context) ([]domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
order by created_at;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProjects(rows)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where id = $1;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update merges the provided fields into the row. Absent fields are left
// unchanged; updated_at always refreshes.
func (r *Repo) Update(ctx context.Context, id int64, f domain.UpdateFields) (*domain.Project, error) {
	set := []string{"updated_at = now()"}
	args := []any{id}

	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if f.Name != nil {
		add("name", *f.Name)
	}
	if f.Description != nil {
		add("description", *f.Description)
	}
	if f.Technologies != nil {
		add("technologies", *f.Technologies)
	}
	if f.Complexity != nil {
		add("complexity", *f.Complexity)
	}
	if f.Category != nil {
		add("category", *f.Category)
	}
	if f.Score != nil {
		add("score", *f.Score)
	}
	if f.Country != nil {
		add("country", *f.Country)
	}
	if f.Progress != nil {
		add("progress", *f.Progress)
	}
	if f.Students != nil {
		add("students", *f.Students)
	}
	if f.Deliverables != nil {
		deliverables, err := marshalDeliverables(*f.Deliverables)
		if err != nil {
			return nil, err
		}
		add("deliverables", deliverables)
	}

	q := fmt.Sprintf(`
update projects
set %s
where id = $1
returning %s;
`, strings.Join(set, ", "), projectColumns)

	p, err := scanProject(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes the metadata row. Blob assets are left in place; the orphan
// sweep reports them.
func (r *Repo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `delete from projects where id = $1;`

	ct, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// FilterByName matches projects whose name contains the given substring.
func (r *Repo) FilterByName(ctx context.Context, name string) ([]domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where name ilike '%' || $1 || '%'
order by created_at;
`
	rows, err := r.db.Query(ctx, q, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProjects(rows)
}

// GetByEnterprise returns the enterprise's projects in creation order.
func (r *Repo) GetByEnterprise(ctx context.Context, enterpriseID string) ([]domain.Project, error) {
	const q = `
select ` + projectColumns + `
from projects
where enterprise_id = $1
order by created_at;
`
	rows, err := r.db.Query(ctx, q, enterpriseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProjects(rows)
}

// GetVisibleForStudents returns approved projects joined with the owning
// enterprise's display name.
func (r *Repo) GetVisibleForStudents(ctx context.Context) ([]domain.VisibleProject, error) {
	const q = `
select p.id, p.enterprise_id, p.name, p.description, p.technologies, p.complexity,
       p.category, p.score, p.country, p.deliverables, p.blob_path, p.status,
       p.progress, p.students, p.created_at, p.updated_at,
       coalesce(e.name, '')
from projects p
left join enterprises e on e.id = p.enterprise_id
where p.status = $1
order by p.created_at;
`
	rows, err := r.db.Query(ctx, q, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.VisibleProject, 0, 16)
	for rows.Next() {
		var (
			v            domain.VisibleProject
			deliverables []byte
		)
		err := rows.Scan(
			&v.ID, &v.EnterpriseID, &v.Name, &v.Description, &v.Technologies,
			&v.Complexity, &v.Category, &v.Score, &v.Country, &deliverables,
			&v.BlobPath, &v.Status, &v.Progress, &v.Students,
			&v.CreatedAt, &v.UpdatedAt, &v.EnterpriseName)
		if err != nil {
			return nil, err
		}
		if err := unmarshalDeliverables(deliverables, &v.Deliverables); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status field only. The allowed value set is owned by
// the callers; anything handed in is stored as-is.
func (r *Repo) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Project, error) {
	const q = `
update projects
set status = $2, updated_at = now()
where id = $1
returning ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// AllBlobPaths returns every non-empty blob_path currently referenced by a
// row. Input to the orphan sweep.
func (r *Repo) AllBlobPaths(ctx context.Context) ([]string, error) {
	const q = `
select blob_path
from projects
where blob_path is not null and blob_path <> '';
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p            domain.Project
		deliverables []byte
	)
	err := row.Scan(
		&p.ID, &p.EnterpriseID, &p.Name, &p.Description, &p.Technologies,
		&p.Complexity, &p.Category, &p.Score, &p.Country, &deliverables,
		&p.BlobPath, &p.Status, &p.Progress, &p.Students,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalDeliverables(deliverables, &p.Deliverables); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProjects(rows pgx.Rows) ([]domain.Project, error) {
	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var (
			p            domain.Project
			deliverables []byte
		)
		err := rows.Scan(
			&p.ID, &p.EnterpriseID, &p.Name, &p.Description, &p.Technologies,
			&p.Complexity, &p.Category, &p.Score, &p.Country, &deliverables,
			&p.BlobPath, &p.Status, &p.Progress, &p.Students,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if err := unmarshalDeliverables(deliverables, &p.Deliverables); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func marshalDeliverables(d []domain.Deliverable) ([]byte, error) {
	if d == nil {
		d = []domain.Deliverable{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal deliverables: %w", err)
	}
	return b, nil
}

func unmarshalDeliverables(b []byte, dst *[]domain.Deliverable) error {
	if len(b) == 0 {
		*dst = nil
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("unmarshal deliverables: %w", err)
	}
	return nil
}
