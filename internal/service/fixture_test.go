package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"promanage/internal/auth"
	"promanage/internal/models"
	"promanage/internal/storage/sqlstore"
)

type fixture struct {
	store       *sqlstore.Store
	projects    *ProjectService
	dashboard   *DashboardService
	auth        *AuthService
	collab      *CollabService
	pmA, pmB    models.User
	tl, prod    models.User
	exec        models.User
	passwordSet string
}

func identity(u models.User) auth.Identity {
	return auth.Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// ticker returns a clock advancing one second per call.
func ticker() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, filepath.Join(t.TempDir(), "promanage.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	mk := func(username, name string, role models.Role) models.User {
		u, err := store.UpsertUser(ctx, models.User{Username: username, Email: username + "@company.com", Password: hash, Role: role, Name: name})
		require.NoError(t, err)
		return u
	}

	f := &fixture{
		store:       store,
		pmA:         mk("pm.azharrajput", "Azhar Rajput", models.RolePM),
		pmB:         mk("pm.aqsarathore", "Aqsa Rathore", models.RolePM),
		tl:          mk("tl.mustufa", "Mustufa", models.RoleTL),
		prod:        mk("prod.syedtaha", "Syed Taha", models.RoleProduction),
		exec:        mk("exec.tahaanwar", "Taha Anwar", models.RoleExecutive),
		passwordSet: "password123",
	}

	clock := ticker()
	stores := NewStoreSet(store)
	f.projects = NewProjectService(stores, store, store, logger)
	f.projects.now = clock
	f.dashboard = NewDashboardService(stores)
	f.auth = NewAuthService(store, []byte("test-secret"), time.Hour, logger)
	f.collab = NewCollabService(f.projects, store, store, store, logger)
	f.collab.now = clock
	return f
}

func (f *fixture) create(t *testing.T, actor models.User, in CreateProjectInput) models.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), identity(actor), in)
	require.NoError(t, err)
	return p
}
