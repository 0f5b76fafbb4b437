package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"promanage/internal/access"
	"promanage/internal/common"
	"promanage/internal/models"
)

// WorkspaceStore is the project store of a single workspace. Every statement
// it issues is bound to that workspace, so four of them behave as four
// independent tables over the shared projects table.
type WorkspaceStore struct {
	store     *Store
	workspace models.Workspace
}

const projectColumns = `id, name, description, status, priority, due_date, image, pm_id, developer_id, created_at, updated_at`

// Name returns the workspace this store is bound to.
func (w *WorkspaceStore) Name() models.Workspace {
	return w.workspace
}

func (w *WorkspaceStore) scan(row interface{ Scan(...any) error }) (models.Project, error) {
	var (
		p                       models.Project
		description, image, dev sql.NullString
		due                     sql.NullTime
		status, priority        string
	)
	if err := row.Scan(&p.ID, &p.Name, &description, &status, &priority, &due, &image, &p.PMID, &dev, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Project{}, err
	}
	p.Status = models.Status(status)
	p.Priority = models.Priority(priority)
	if description.Valid {
		p.Description = &description.String
	}
	if image.Valid {
		p.Image = &image.String
	}
	if dev.Valid {
		p.DeveloperID = &dev.String
	}
	if due.Valid {
		t := due.Time
		p.DueDate = &t
	}
	p.Workspace = w.workspace
	return p, nil
}

// where builds the workspace-bound WHERE clause for a scope.
func (w *WorkspaceStore) where(scope access.Scope) (string, []any) {
	clauses := []string{"workspace = ?"}
	args := []any{string(w.workspace)}

	switch {
	case scope.Involving != "":
		clauses = append(clauses, "(pm_id = ? OR developer_id = ?)")
		args = append(args, scope.Involving, scope.Involving)
	default:
		if scope.PMID != "" {
			clauses = append(clauses, "pm_id = ?")
			args = append(args, scope.PMID)
		}
		if scope.DeveloperID != "" {
			clauses = append(clauses, "developer_id = ?")
			args = append(args, scope.DeveloperID)
		}
	}
	return strings.Join(clauses, " AND "), args
}

func (w *WorkspaceStore) list(ctx context.Context, where string, args []any, limit int) ([]models.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE ` + where + ` ORDER BY created_at DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := w.store.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s projects: %w", w.workspace, err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := w.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// List returns every project visible under scope, newest first.
func (w *WorkspaceStore) List(ctx context.Context, scope access.Scope) ([]models.Project, error) {
	where, args := w.where(scope)
	return w.list(ctx, where, args, 0)
}

// Recent returns at most limit projects visible under scope, newest first.
func (w *WorkspaceStore) Recent(ctx context.Context, scope access.Scope, limit int) ([]models.Project, error) {
	where, args := w.where(scope)
	return w.list(ctx, where, args, limit)
}

// Search matches name or description case-insensitively.
func (w *WorkspaceStore) Search(ctx context.Context, scope access.Scope, f models.ProjectFilter) ([]models.Project, error) {
	where, args := w.where(scope)
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		where += " AND priority = ?"
		args = append(args, string(f.Priority))
	}
	return w.list(ctx, where, args, 0)
}

// likeEscaper makes wildcard characters in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Count returns the number of projects visible under scope.
func (w *WorkspaceStore) Count(ctx context.Context, scope access.Scope) (int, error) {
	where, args := w.where(scope)
	var n int
	if err := w.store.queryRow(ctx, `SELECT COUNT(*) FROM projects WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s projects: %w", w.workspace, err)
	}
	return n, nil
}

func (w *WorkspaceStore) countBy(ctx context.Context, column string, scope access.Scope) (map[string]int, error) {
	where, args := w.where(scope)
	rows, err := w.store.query(ctx, `SELECT `+column+`, COUNT(*) FROM projects WHERE `+where+` GROUP BY `+column, args...)
	if err != nil {
		return nil, fmt.Errorf("count %s projects by %s: %w", w.workspace, column, err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", column, err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// StatusCounts breaks the visible projects down by status. Every status is
// present in the result, zero when absent.
func (w *WorkspaceStore) StatusCounts(ctx context.Context, scope access.Scope) (map[models.Status]int, error) {
	raw, err := w.countBy(ctx, "status", scope)
	if err != nil {
		return nil, err
	}
	out := make(map[models.Status]int, len(models.Statuses))
	for _, st := range models.Statuses {
		out[st] = raw[string(st)]
	}
	return out, nil
}

// PriorityCounts breaks the visible projects down by priority.
func (w *WorkspaceStore) PriorityCounts(ctx context.Context, scope access.Scope) (map[models.Priority]int, error) {
	raw, err := w.countBy(ctx, "priority", scope)
	if err != nil {
		return nil, err
	}
	out := make(map[models.Priority]int, len(models.Priorities))
	for _, pr := range models.Priorities {
		out[pr] = raw[string(pr)]
	}
	return out, nil
}

// Get fetches a single project of this workspace by id.
func (w *WorkspaceStore) Get(ctx context.Context, id string) (models.Project, error) {
	p, err := w.scan(w.store.queryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE workspace = ? AND id = ?`, string(w.workspace), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// Insert persists a new project into this workspace.
func (w *WorkspaceStore) Insert(ctx context.Context, p models.Project) error {
	_, err := w.store.exec(ctx, `INSERT INTO projects(id, workspace, name, description, status, priority, due_date, image, pm_id, developer_id, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(w.workspace), p.Name, p.Description, string(p.Status), string(p.Priority), p.DueDate, p.Image, p.PMID, p.DeveloperID, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing project.
func (w *WorkspaceStore) Update(ctx context.Context, p models.Project) error {
	res, err := w.store.exec(ctx, `UPDATE projects SET name = ?, description = ?, status = ?, priority = ?, due_date = ?, image = ?, pm_id = ?, developer_id = ?, updated_at = ?
        WHERE workspace = ? AND id = ?`,
		p.Name, p.Description, string(p.Status), string(p.Priority), p.DueDate, p.Image, p.PMID, p.DeveloperID, p.UpdatedAt, string(w.workspace), p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return rowsAffected(res, "update project "+p.ID)
}

// Delete removes a project from this workspace.
func (w *WorkspaceStore) Delete(ctx context.Context, id string) error {
	res, err := w.store.exec(ctx, `DELETE FROM projects WHERE workspace = ? AND id = ?`, string(w.workspace), id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return rowsAffected(res, "delete project "+id)
}
