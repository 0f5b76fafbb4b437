package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"promanage/internal/access"
	"promanage/internal/auth"
	"promanage/internal/common"
	"promanage/internal/models"
)

const (
	msgProjectNotFound  = "Project not found"
	msgInvalidStatus    = "Invalid status. Must be one of: TODO, IN_PROGRESS, COMPLETED, REVISIONS"
	msgInvalidPriority  = "Invalid priority. Must be one of: LOW, MEDIUM, HIGH, CRITICAL"
	msgInvalidWorkspace = "Invalid workspace type. Must be one of: LOGO, WEB_DESIGN, WEB_DEVELOPMENT, CONTENT"
)

// CreateProjectInput is the body of a create request.
type CreateProjectInput struct {
	Name        string  `json:"name"`
	Workspace   string  `json:"workspace"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	DueDate     string  `json:"dueDate"`
	PMID        string  `json:"pmId"`
	DeveloperID string  `json:"developerId"`
	Image       *string `json:"image"`
}

// UpdateProjectInput is a partial update. Workspace is deliberately absent:
// projects never move between stores.
type UpdateProjectInput struct {
	Name        Patch[string] `json:"name"`
	Description Patch[string] `json:"description"`
	Status      Patch[string] `json:"status"`
	Priority    Patch[string] `json:"priority"`
	DueDate     Patch[string] `json:"dueDate"`
	Image       Patch[string] `json:"image"`
	PMID        Patch[string] `json:"pmId"`
	DeveloperID Patch[string] `json:"developerId"`
}

// ProjectService aggregates the four workspace stores into one project
// collection and applies the caller's access scope to every read.
type ProjectService struct {
	stores StoreSet
	users  UserStore
	rec    recorder
	logger *slog.Logger
	now    func() time.Time
}

func NewProjectService(stores StoreSet, users UserStore, events EventStore, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ProjectService{stores: stores, users: users, logger: logger, now: utcNow}
	s.rec = recorder{events: events, logger: logger, now: func() time.Time { return s.now() }}
	return s
}

// ListByWorkspace returns the caller's projects of one workspace, newest first.
func (s *ProjectService) ListByWorkspace(ctx context.Context, actor auth.Identity, ws models.Workspace) ([]models.Project, error) {
	scope, err := access.ScopeFor(actor.Role, actor.ID)
	if err != nil {
		return nil, err
	}
	store, ok := s.stores[ws]
	if !ok {
		return nil, common.Validation(msgInvalidWorkspace)
	}
	return store.List(ctx, scope)
}

// ListAll merges the caller's projects across every workspace, newest first.
func (s *ProjectService) ListAll(ctx context.Context, actor auth.Identity) ([]models.Project, error) {
	scope, err := access.ScopeFor(actor.Role, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.fanOut(ctx, func(ctx context.Context, store ProjectStore) ([]models.Project, error) {
		return store.List(ctx, scope)
	})
}

// Search matches name and description across every workspace. Empty status
// or priority means any.
func (s *ProjectService) Search(ctx context.Context, actor auth.Identity, query, status, priority string) ([]models.Project, error) {
	scope, err := access.ScopeFor(actor.Role, actor.ID)
	if err != nil {
		return nil, err
	}

	f := models.ProjectFilter{Query: strings.TrimSpace(query)}
	if status != "" {
		if f.Status, err = models.ParseStatus(status); err != nil {
			return nil, common.Validation(msgInvalidStatus)
		}
	}
	if priority != "" {
		if f.Priority, err = models.ParsePriority(priority); err != nil {
			return nil, common.Validation(msgInvalidPriority)
		}
	}

	return s.fanOut(ctx, func(ctx context.Context, store ProjectStore) ([]models.Project, error) {
		return store.Search(ctx, scope, f)
	})
}

// Get finds a project by id in whichever workspace holds it. Projects outside
// the caller's scope are reported as missing.
func (s *ProjectService) Get(ctx context.Context, actor auth.Identity, id string) (models.Project, error) {
	p, _, err := s.visible(ctx, actor, id)
	return p, err
}

// Create validates the input and inserts the project into its workspace.
func (s *ProjectService) Create(ctx context.Context, actor auth.Identity, in CreateProjectInput) (models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Project{}, common.Validation("Project name is required")
	}
	ws, err := models.ParseWorkspace(in.Workspace)
	if err != nil {
		return models.Project{}, common.Validation(msgInvalidWorkspace)
	}
	priority := models.PriorityMedium
	if in.Priority != "" {
		if priority, err = models.ParsePriority(in.Priority); err != nil {
			return models.Project{}, common.Validation(msgInvalidPriority)
		}
	}
	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return models.Project{}, err
	}

	pmID := strings.TrimSpace(in.PMID)
	if pmID == "" {
		pmID = actor.ID
	}
	if _, err := s.checkPM(ctx, pmID); err != nil {
		return models.Project{}, err
	}

	var developer *models.User
	if devID := strings.TrimSpace(in.DeveloperID); devID != "" {
		u, err := s.checkDeveloper(ctx, devID)
		if err != nil {
			return models.Project{}, err
		}
		developer = &u
	}

	now := s.now()
	p := models.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    models.StatusTodo,
		Priority:  priority,
		DueDate:   due,
		PMID:      pmID,
		Workspace: ws,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Description != nil {
		p.Description = optional(*in.Description)
	}
	if in.Image != nil {
		p.Image = optional(*in.Image)
	}
	if developer != nil {
		p.DeveloperID = &developer.ID
	}

	if err := s.stores[ws].Insert(ctx, p); err != nil {
		return models.Project{}, err
	}

	s.rec.activity(ctx, p.ID, actor.ID, "Created project: "+p.Name)
	if developer != nil && developer.ID != actor.ID {
		s.rec.notify(ctx, developer.ID, p.ID, models.NotificationAssigned, fmt.Sprintf("You have been assigned to %q", p.Name))
	}
	return p, nil
}

// Update applies a partial update to a visible project. All validation runs
// before the store is touched.
func (s *ProjectService) Update(ctx context.Context, actor auth.Identity, id string, in UpdateProjectInput) (models.Project, error) {
	current, store, err := s.visible(ctx, actor, id)
	if err != nil {
		return models.Project{}, err
	}

	next := current
	if in.Name.Set {
		if cleared(in.Name) {
			return models.Project{}, common.Validation("Project name cannot be empty")
		}
		next.Name = strings.TrimSpace(in.Name.Value)
	}
	if in.Status.Set {
		if next.Status, err = models.ParseStatus(in.Status.Value); err != nil {
			return models.Project{}, common.Validation(msgInvalidStatus)
		}
	}
	if in.Priority.Set {
		if next.Priority, err = models.ParsePriority(in.Priority.Value); err != nil {
			return models.Project{}, common.Validation(msgInvalidPriority)
		}
	}
	if in.DueDate.Set {
		if next.DueDate, err = parseDueDate(in.DueDate.Value); err != nil {
			return models.Project{}, err
		}
	}
	if in.Description.Set {
		next.Description = nil
		if !in.Description.Null {
			next.Description = optional(in.Description.Value)
		}
	}
	if in.Image.Set {
		next.Image = nil
		if !in.Image.Null {
			next.Image = optional(in.Image.Value)
		}
	}
	if in.PMID.Set {
		if cleared(in.PMID) {
			return models.Project{}, common.Validation("Project Manager is required")
		}
		pm, err := s.checkPM(ctx, strings.TrimSpace(in.PMID.Value))
		if err != nil {
			return models.Project{}, err
		}
		next.PMID = pm.ID
	}
	var developer *models.User
	if in.DeveloperID.Set {
		next.DeveloperID = nil
		if !cleared(in.DeveloperID) {
			u, err := s.checkDeveloper(ctx, strings.TrimSpace(in.DeveloperID.Value))
			if err != nil {
				return models.Project{}, err
			}
			developer = &u
			next.DeveloperID = &u.ID
		}
	}

	next.UpdatedAt = s.now()
	if err := store.Update(ctx, next); err != nil {
		return models.Project{}, err
	}

	s.recordChanges(ctx, actor, current, next, developer)
	return next, nil
}

// Delete removes a visible project from its workspace.
func (s *ProjectService) Delete(ctx context.Context, actor auth.Identity, id string) error {
	p, store, err := s.visible(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, p.ID); err != nil {
		return err
	}
	s.logger.Info("project deleted", slog.String("id", p.ID), slog.String("workspace", string(p.Workspace)), slog.String("by", actor.ID))
	return nil
}

func (s *ProjectService) recordChanges(ctx context.Context, actor auth.Identity, before, after models.Project, developer *models.User) {
	var actions []string
	if before.Status != after.Status {
		actions = append(actions, "Moved to "+string(after.Status))
	}
	if before.Priority != after.Priority {
		actions = append(actions, "Changed priority to "+string(after.Priority))
	}
	if !sameTime(before.DueDate, after.DueDate) {
		if after.DueDate == nil {
			actions = append(actions, "Removed due date")
		} else {
			actions = append(actions, "Changed due date to "+after.DueDate.Format(time.DateOnly))
		}
	}
	devChanged := !sameString(before.DeveloperID, after.DeveloperID)
	if devChanged {
		if developer == nil {
			actions = append(actions, "Unassigned developer")
		} else {
			actions = append(actions, "Changed developer to "+developer.Name)
		}
	}
	if len(actions) == 0 {
		actions = append(actions, "Updated project")
	}
	for _, a := range actions {
		s.rec.activity(ctx, after.ID, actor.ID, a)
	}

	if devChanged && developer != nil && developer.ID != actor.ID {
		s.rec.notify(ctx, developer.ID, after.ID, models.NotificationAssigned, fmt.Sprintf("You have been assigned to %q", after.Name))
	}
	if before.Status != after.Status && after.PMID != actor.ID {
		s.rec.notify(ctx, after.PMID, after.ID, models.NotificationStatus, fmt.Sprintf("%q moved to %s", after.Name, after.Status))
	}
}

// visible locates a project and applies the caller's scope to it.
func (s *ProjectService) visible(ctx context.Context, actor auth.Identity, id string) (models.Project, ProjectStore, error) {
	scope, err := access.ScopeFor(actor.Role, actor.ID)
	if err != nil {
		return models.Project{}, nil, err
	}
	p, store, err := s.locate(ctx, id)
	if err != nil {
		return models.Project{}, nil, err
	}
	if !scope.Allows(p) {
		return models.Project{}, nil, common.NotFound(msgProjectNotFound)
	}
	return p, store, nil
}

// locate probes every workspace store concurrently. When several stores
// answer, the first in probe order wins.
func (s *ProjectService) locate(ctx context.Context, id string) (models.Project, ProjectStore, error) {
	found := make([]*models.Project, len(models.Workspaces))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range models.Workspaces {
		store := s.stores[w]
		g.Go(func() error {
			p, err := store.Get(gctx, id)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			p.Workspace = w
			found[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Project{}, nil, err
	}

	for i, p := range found {
		if p != nil {
			return *p, s.stores[models.Workspaces[i]], nil
		}
	}
	return models.Project{}, nil, common.NotFound(msgProjectNotFound)
}

// fanOut runs fn against every store concurrently, tags the results with
// their workspace and merges them newest first. Any failure aborts the whole
// call.
func (s *ProjectService) fanOut(ctx context.Context, fn func(context.Context, ProjectStore) ([]models.Project, error)) ([]models.Project, error) {
	return fanOut(ctx, s.stores, fn, 0)
}

func fanOut(ctx context.Context, stores StoreSet, fn func(context.Context, ProjectStore) ([]models.Project, error), limit int) ([]models.Project, error) {
	results := make([][]models.Project, len(models.Workspaces))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range models.Workspaces {
		store := stores[w]
		g.Go(func() error {
			projects, err := fn(gctx, store)
			if err != nil {
				return err
			}
			for j := range projects {
				projects[j].Workspace = w
			}
			results[i] = projects
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mergeNewest(results, limit), nil
}

// mergeNewest concatenates in probe order, stable sorts by creation time
// descending and truncates to limit when limit > 0.
func mergeNewest(lists [][]models.Project, limit int) []models.Project {
	merged := []models.Project{}
	for _, l := range lists {
		merged = append(merged, l...)
	}
	slices.SortStableFunc(merged, func(a, b models.Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (s *ProjectService) checkPM(ctx context.Context, id string) (models.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return models.User{}, common.NotFound("Project Manager not found")
	}
	if err != nil {
		return models.User{}, err
	}
	if u.Role != models.RolePM {
		return models.User{}, common.Forbidden("Only users with PM role can be assigned as Project Managers")
	}
	return u, nil
}

func (s *ProjectService) checkDeveloper(ctx context.Context, id string) (models.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return models.User{}, common.NotFound("Developer not found")
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
