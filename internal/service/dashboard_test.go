package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promanage/internal/common"
	"promanage/internal/models"
)

func TestOverviewTotalsAgree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var created []models.Project
	for i, w := range []string{"LOGO", "LOGO", "LOGO", "WEB_DESIGN", "WEB_DEVELOPMENT", "CONTENT", "CONTENT"} {
		pm := f.pmA
		if i%3 == 2 {
			pm = f.pmB
		}
		created = append(created, f.create(t, pm, CreateProjectInput{Name: "p", Workspace: w, Priority: []string{"LOW", "HIGH", "CRITICAL"}[i%3]}))
	}
	_, err := f.projects.Update(ctx, identity(f.pmA), created[0].ID, decodeUpdate(t, `{"status":"COMPLETED"}`))
	require.NoError(t, err)

	for _, u := range []models.User{f.exec, f.pmA, f.pmB, f.tl} {
		o, err := f.dashboard.Overview(ctx, identity(u))
		require.NoError(t, err)

		s := o.StatusStats
		assert.Equal(t, o.TotalProjects, s.Todo+s.InProgress+s.Completed+s.Revisions, u.Username)
		p := o.PriorityStats
		assert.Equal(t, o.TotalProjects, p.Low+p.Medium+p.High+p.Critical, u.Username)
		w := o.WorkspaceStats
		assert.Equal(t, o.TotalProjects, w.LogoDesign+w.WebDesign+w.WebDevelopment+w.ContentWriter, u.Username)
		assert.LessOrEqual(t, len(o.RecentProjects), 5)
	}

	o, err := f.dashboard.Overview(ctx, identity(f.exec))
	require.NoError(t, err)
	assert.Equal(t, 7, o.TotalProjects)
	assert.Equal(t, WorkspaceStats{LogoDesign: 3, WebDesign: 1, WebDevelopment: 1, ContentWriter: 2}, o.WorkspaceStats)
	assert.Equal(t, 1, o.StatusStats.Completed)
	assert.Equal(t, 6, o.StatusStats.Todo)

	// Two per store at most, then the five newest of those.
	require.Len(t, o.RecentProjects, 5)
	assert.Equal(t, created[6].ID, o.RecentProjects[0].ID)
	assert.Equal(t, models.WorkspaceContent, o.RecentProjects[0].Workspace)
	for i := 1; i < len(o.RecentProjects); i++ {
		assert.False(t, o.RecentProjects[i].CreatedAt.After(o.RecentProjects[i-1].CreatedAt))
	}
	assert.NotContains(t, ids(o.RecentProjects), created[0].ID, "third newest logo project is cut by the per-store limit")

	pmB, err := f.dashboard.Overview(ctx, identity(f.pmB))
	require.NoError(t, err)
	assert.Equal(t, 2, pmB.TotalProjects)
}

func TestMyStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.pmA, CreateProjectInput{Name: "a", Workspace: "LOGO", DeveloperID: f.tl.ID})
	f.create(t, f.pmA, CreateProjectInput{Name: "b", Workspace: "CONTENT"})
	f.create(t, f.pmB, CreateProjectInput{Name: "c", Workspace: "CONTENT", DeveloperID: f.pmA.ID})
	f.create(t, f.pmB, CreateProjectInput{Name: "d", Workspace: "WEB_DESIGN"})

	st, err := f.dashboard.MyStats(ctx, identity(f.pmA))
	require.NoError(t, err)
	assert.Equal(t, 2, st.MyWorkspaceStats.Managed.Total)
	assert.Equal(t, 1, st.MyWorkspaceStats.Managed.LogoDesign)
	assert.Equal(t, 1, st.MyWorkspaceStats.Managed.ContentWriter)
	assert.Equal(t, 1, st.MyWorkspaceStats.Assigned.Total)
	assert.Equal(t, 1, st.MyWorkspaceStats.Assigned.ContentWriter)
	require.Len(t, st.MyRecentProjects, 3)
	assert.Equal(t, "c", st.MyRecentProjects[0].Name)

	tl, err := f.dashboard.MyStats(ctx, identity(f.tl))
	require.NoError(t, err)
	assert.Equal(t, 0, tl.MyWorkspaceStats.Managed.Total)
	assert.Equal(t, 1, tl.MyWorkspaceStats.Assigned.Total)
}

func TestOverviewUnknownRole(t *testing.T) {
	f := newFixture(t)
	id := identity(f.exec)
	id.Role = "GUEST"
	_, err := f.dashboard.Overview(context.Background(), id)
	assert.ErrorIs(t, err, common.ErrForbidden)
}
