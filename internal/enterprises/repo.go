package enterprises

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("enterprise not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type UpsertEnterprise struct {
	ID    string
	Name  string
	Email string
}

// Ensure upserts the enterprise row so that project ownership joins always
// resolve a display name. Blank name/email never clobber stored values.
func (r *Repo) Ensure(ctx context.Context, e UpsertEnterprise) error {
	if e.ID == "" {
		return fmt.Errorf("enterprise id required")
	}

	const q = `
insert into enterprises (id, name, email, updated_at)
values ($1, coalesce(nullif($2,''), $1), nullif($3,''), now())
on conflict (id) do update
set
  name = coalesce(nullif(excluded.name, enterprises.id), enterprises.name),
  email = coalesce(excluded.email, enterprises.email),
  updated_at = now();
`
	_, err := r.db.Exec(ctx, q, e.ID, e.Name, e.Email)
	return err
}

// GetName returns the enterprise's display name.
func (r *Repo) GetName(ctx context.Context, id string) (string, error) {
	const q = `select name from enterprises where id = $1;`

	var name string
	if err := r.db.QueryRow(ctx, q, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return name, nil
}
