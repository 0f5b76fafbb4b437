package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"promanage/internal/access"
	"promanage/internal/auth"
	"promanage/internal/models"
)

const (
	recentPerStore = 2
	recentLimit    = 5
)

// WorkspaceStats holds one number per workspace.
type WorkspaceStats struct {
	LogoDesign     int `json:"logoDesign"`
	WebDesign      int `json:"webDesign"`
	WebDevelopment int `json:"webDevelopment"`
	ContentWriter  int `json:"contentWriter"`
}

func (ws *WorkspaceStats) set(w models.Workspace, n int) {
	switch w {
	case models.WorkspaceLogo:
		ws.LogoDesign = n
	case models.WorkspaceWebDesign:
		ws.WebDesign = n
	case models.WorkspaceWebDevelopment:
		ws.WebDevelopment = n
	case models.WorkspaceContent:
		ws.ContentWriter = n
	}
}

type StatusStats struct {
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Revisions  int `json:"revisions"`
}

func (s *StatusStats) add(counts map[models.Status]int) {
	s.Todo += counts[models.StatusTodo]
	s.InProgress += counts[models.StatusInProgress]
	s.Completed += counts[models.StatusCompleted]
	s.Revisions += counts[models.StatusRevisions]
}

type PriorityStats struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

func (p *PriorityStats) add(counts map[models.Priority]int) {
	p.Low += counts[models.PriorityLow]
	p.Medium += counts[models.PriorityMedium]
	p.High += counts[models.PriorityHigh]
	p.Critical += counts[models.PriorityCritical]
}

// Overview is the dashboard summary for the caller's scope.
type Overview struct {
	WorkspaceStats WorkspaceStats   `json:"workspaceStats"`
	StatusStats    StatusStats      `json:"statusStats"`
	PriorityStats  PriorityStats    `json:"priorityStats"`
	TotalProjects  int              `json:"totalProjects"`
	RecentProjects []models.Project `json:"recentProjects"`
}

// WorkspaceTotals is a per-workspace breakdown plus its sum.
type WorkspaceTotals struct {
	WorkspaceStats
	Total int `json:"total"`
}

// MyStats summarises the projects the caller manages or is assigned to.
type MyStats struct {
	MyWorkspaceStats struct {
		Managed  WorkspaceTotals `json:"managed"`
		Assigned WorkspaceTotals `json:"assigned"`
	} `json:"myWorkspaceStats"`
	MyRecentProjects []models.Project `json:"myRecentProjects"`
}

// DashboardService computes statistics over the four workspace stores.
type DashboardService struct {
	stores StoreSet
}

func NewDashboardService(stores StoreSet) *DashboardService {
	return &DashboardService{stores: stores}
}

type storeSummary struct {
	total      int
	statuses   map[models.Status]int
	priorities map[models.Priority]int
	recent     []models.Project
}

// Overview counts the caller's visible projects per workspace, status and
// priority and lists the five most recent. A failing store fails the call.
func (d *DashboardService) Overview(ctx context.Context, actor auth.Identity) (Overview, error) {
	scope, err := access.ScopeFor(actor.Role, actor.ID)
	if err != nil {
		return Overview{}, err
	}

	summaries := make([]storeSummary, len(models.Workspaces))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range models.Workspaces {
		store := d.stores[w]
		g.Go(func() error {
			var sum storeSummary
			var err error
			if sum.total, err = store.Count(gctx, scope); err != nil {
				return err
			}
			if sum.statuses, err = store.StatusCounts(gctx, scope); err != nil {
				return err
			}
			if sum.priorities, err = store.PriorityCounts(gctx, scope); err != nil {
				return err
			}
			if sum.recent, err = store.Recent(gctx, scope, recentPerStore); err != nil {
				return err
			}
			for j := range sum.recent {
				sum.recent[j].Workspace = w
			}
			summaries[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	var out Overview
	recent := make([][]models.Project, len(summaries))
	for i, sum := range summaries {
		out.WorkspaceStats.set(models.Workspaces[i], sum.total)
		out.StatusStats.add(sum.statuses)
		out.PriorityStats.add(sum.priorities)
		out.TotalProjects += sum.total
		recent[i] = sum.recent
	}
	out.RecentProjects = mergeNewest(recent, recentLimit)
	return out, nil
}

// MyStats ignores the role scope and looks only at projects the caller
// manages or is assigned to.
func (d *DashboardService) MyStats(ctx context.Context, actor auth.Identity) (MyStats, error) {
	type counts struct{ managed, assigned int }

	perStore := make([]counts, len(models.Workspaces))
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range models.Workspaces {
		store := d.stores[w]
		g.Go(func() error {
			var c counts
			var err error
			if c.managed, err = store.Count(gctx, access.ManagedBy(actor.ID)); err != nil {
				return err
			}
			if c.assigned, err = store.Count(gctx, access.AssignedTo(actor.ID)); err != nil {
				return err
			}
			perStore[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MyStats{}, err
	}

	recent, err := fanOut(ctx, d.stores, func(ctx context.Context, store ProjectStore) ([]models.Project, error) {
		return store.Recent(ctx, access.Involving(actor.ID), recentPerStore)
	}, recentLimit)
	if err != nil {
		return MyStats{}, err
	}

	var out MyStats
	for i, c := range perStore {
		w := models.Workspaces[i]
		out.MyWorkspaceStats.Managed.set(w, c.managed)
		out.MyWorkspaceStats.Managed.Total += c.managed
		out.MyWorkspaceStats.Assigned.set(w, c.assigned)
		out.MyWorkspaceStats.Assigned.Total += c.assigned
	}
	out.MyRecentProjects = recent
	return out, nil
}
