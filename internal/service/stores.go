// Package service holds the business operations behind the HTTP API: the
// project aggregator over the four workspace stores, dashboard statistics,
// authentication and collaboration features.
package service

import (
	"context"

	"promanage/internal/access"
	"promanage/internal/models"
	"promanage/internal/storage/sqlstore"
)

// ProjectStore is one workspace's project store.
type ProjectStore interface {
	Name() models.Workspace
	List(ctx context.Context, scope access.Scope) ([]models.Project, error)
	Recent(ctx context.Context, scope access.Scope, limit int) ([]models.Project, error)
	Search(ctx context.Context, scope access.Scope, f models.ProjectFilter) ([]models.Project, error)
	Count(ctx context.Context, scope access.Scope) (int, error)
	StatusCounts(ctx context.Context, scope access.Scope) (map[models.Status]int, error)
	PriorityCounts(ctx context.Context, scope access.Scope) (map[models.Priority]int, error)
	Get(ctx context.Context, id string) (models.Project, error)
	Insert(ctx context.Context, p models.Project) error
	Update(ctx context.Context, p models.Project) error
	Delete(ctx context.Context, id string) error
}

// StoreSet holds one ProjectStore per workspace.
type StoreSet map[models.Workspace]ProjectStore

// NewStoreSet binds a store to every workspace.
func NewStoreSet(s *sqlstore.Store) StoreSet {
	set := make(StoreSet, len(models.Workspaces))
	for _, w := range models.Workspaces {
		set[w] = s.Workspace(w)
	}
	return set
}

// UserStore resolves accounts.
type UserStore interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// EventStore records project history and user notifications.
type EventStore interface {
	InsertActivity(ctx context.Context, a models.Activity) error
	ListActivity(ctx context.Context, projectID string) ([]models.Activity, error)
	InsertNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
}

// CommentStore persists project comments.
type CommentStore interface {
	ListComments(ctx context.Context, projectID string) ([]models.Comment, error)
	GetComment(ctx context.Context, id string) (models.Comment, error)
	InsertComment(ctx context.Context, c models.Comment) error
	UpdateComment(ctx context.Context, c models.Comment) error
	DeleteComment(ctx context.Context, id string) error
}

// AttachmentStore persists attachment metadata.
type AttachmentStore interface {
	InsertAttachment(ctx context.Context, a models.Attachment) error
	GetAttachment(ctx context.Context, id string) (models.Attachment, error)
	ListAttachments(ctx context.Context, projectID string) ([]models.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
}
