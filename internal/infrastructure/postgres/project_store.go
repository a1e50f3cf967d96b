// Package postgres provides a PostgreSQL-backed project store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/internal/metrics"
	"project-scaffold-web/pkg/filetree"
	"project-scaffold-web/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	prompt     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	ideation   JSONB,
	tree       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS projects_owner_idx ON projects (owner, updated_at DESC);
`

const projectColumns = `id, owner, name, prompt, status, ideation, tree, created_at, updated_at`

// Store is a PostgreSQL project store. Trees are kept as JSONB in the
// {name, type, children, content} shape.
type Store struct {
	db *sql.DB
}

// New opens the database and makes sure the schema exists.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the projects table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	logger.Info("running migration", zap.String("table", "projects"))
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate projects: %w", err)
	}
	return nil
}

func observe(query string, start time.Time) {
	metrics.RecordDBQuery(query, time.Since(start))
}

func encode(p *models.Project) (ideation []byte, tree []byte, err error) {
	if p.Ideation != nil {
		if ideation, err = json.Marshal(p.Ideation); err != nil {
			return nil, nil, fmt.Errorf("encode ideation: %w", err)
		}
	}
	if tree, err = filetree.Egest(p.Tree); err != nil {
		return nil, nil, fmt.Errorf("encode tree: %w", err)
	}
	return ideation, tree, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	var (
		p        models.Project
		status   string
		ideation []byte
		tree     []byte
	)
	if err := row.Scan(&p.ID, &p.Owner, &p.Name, &p.Prompt, &status, &ideation, &tree, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Status = models.ProjectStatus(status)
	if len(ideation) > 0 {
		p.Ideation = &models.Ideation{}
		if err := json.Unmarshal(ideation, p.Ideation); err != nil {
			return nil, fmt.Errorf("decode ideation of %s: %w", p.ID, err)
		}
	}
	root, err := filetree.Ingest(tree)
	if err != nil {
		return nil, fmt.Errorf("decode tree of %s: %w", p.ID, err)
	}
	p.Tree = root
	return &p, nil
}

// Create inserts a new project.
func (s *Store) Create(ctx context.Context, p *models.Project) error {
	defer observe("create_project", time.Now())
	ideation, tree, err := encode(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Owner, p.Name, p.Prompt, string(p.Status), nullJSON(ideation), tree, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// Get loads one project.
func (s *Store) Get(ctx context.Context, id string) (*models.Project, error) {
	defer observe("get_project", time.Now())
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// List returns the projects matching filter, most recently updated first.
func (s *Store) List(ctx context.Context, filter models.ProjectFilter) ([]*models.Project, error) {
	defer observe("list_projects", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE ($1 = '' OR owner = $1)
		   AND ($2 = '' OR status = $2)
		   AND ($3 = '' OR name ILIKE '%' || $3 || '%')
		 ORDER BY updated_at DESC, id`,
		filter.Owner, string(filter.Status), filter.Query)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update overwrites a project.
func (s *Store) Update(ctx context.Context, p *models.Project) error {
	defer observe("update_project", time.Now())
	ideation, tree, err := encode(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET owner = $2, name = $3, prompt = $4, status = $5, ideation = $6, tree = $7, updated_at = $8
		 WHERE id = $1`,
		p.ID, p.Owner, p.Name, p.Prompt, string(p.Status), nullJSON(ideation), tree, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return expectOne(res)
}

// Delete removes a project.
func (s *Store) Delete(ctx context.Context, id string) error {
	defer observe("delete_project", time.Now())
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrProjectNotFound
	}
	return nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
