package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"promanage/internal/auth"
	"promanage/internal/common"
	"promanage/internal/models"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.]+)`)

// CollabService covers comments, project history and notifications.
type CollabService struct {
	projects *ProjectService
	comments CommentStore
	events   EventStore
	users    UserStore
	rec      recorder
	now      func() time.Time
}

func NewCollabService(projects *ProjectService, comments CommentStore, events EventStore, users UserStore, logger *slog.Logger) *CollabService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CollabService{projects: projects, comments: comments, events: events, users: users, now: utcNow}
	s.rec = recorder{events: events, logger: logger, now: func() time.Time { return s.now() }}
	return s
}

// ListComments returns a visible project's comments, oldest first.
func (s *CollabService) ListComments(ctx context.Context, actor auth.Identity, projectID string) ([]models.Comment, error) {
	if _, err := s.projects.Get(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.comments.ListComments(ctx, projectID)
}

// AddComment stores a comment and notifies mentioned users and the PM.
func (s *CollabService) AddComment(ctx context.Context, actor auth.Identity, projectID, content string) (models.Comment, error) {
	p, err := s.projects.Get(ctx, actor, projectID)
	if err != nil {
		return models.Comment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, common.Validation("Comment content is required")
	}

	mentions, err := s.resolveMentions(ctx, content)
	if err != nil {
		return models.Comment{}, err
	}

	now := s.now()
	c := models.Comment{
		ID:        uuid.NewString(),
		ProjectID: p.ID,
		UserID:    actor.ID,
		Content:   content,
		Mentions:  mentions,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.InsertComment(ctx, c); err != nil {
		return models.Comment{}, err
	}

	s.rec.activity(ctx, p.ID, actor.ID, "Added comment")
	author := s.displayName(ctx, actor)
	for _, id := range mentions {
		if id != actor.ID {
			s.rec.notify(ctx, id, p.ID, models.NotificationComment, fmt.Sprintf("%s mentioned you on %q", author, p.Name))
		}
	}
	if p.PMID != actor.ID && !slices.Contains(mentions, p.PMID) {
		s.rec.notify(ctx, p.PMID, p.ID, models.NotificationComment, fmt.Sprintf("%s commented on %q", author, p.Name))
	}
	return c, nil
}

// UpdateComment lets the author edit a comment. Users mentioned for the
// first time are notified.
func (s *CollabService) UpdateComment(ctx context.Context, actor auth.Identity, projectID, commentID, content string) (models.Comment, error) {
	p, err := s.projects.Get(ctx, actor, projectID)
	if err != nil {
		return models.Comment{}, err
	}
	c, err := s.comment(ctx, projectID, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if c.UserID != actor.ID {
		return models.Comment{}, common.Forbidden("Only the author can edit a comment")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, common.Validation("Comment content is required")
	}

	mentions, err := s.resolveMentions(ctx, content)
	if err != nil {
		return models.Comment{}, err
	}
	previous := c.Mentions
	c.Content = content
	c.Mentions = mentions
	c.UpdatedAt = s.now()
	if err := s.comments.UpdateComment(ctx, c); err != nil {
		return models.Comment{}, err
	}

	s.rec.activity(ctx, p.ID, actor.ID, "Updated comment")
	author := s.displayName(ctx, actor)
	for _, id := range mentions {
		if id != actor.ID && !slices.Contains(previous, id) {
			s.rec.notify(ctx, id, p.ID, models.NotificationComment, fmt.Sprintf("%s mentioned you on %q", author, p.Name))
		}
	}
	return c, nil
}

// DeleteComment is allowed to the author and to the project's PM.
func (s *CollabService) DeleteComment(ctx context.Context, actor auth.Identity, projectID, commentID string) error {
	p, err := s.projects.Get(ctx, actor, projectID)
	if err != nil {
		return err
	}
	c, err := s.comment(ctx, projectID, commentID)
	if err != nil {
		return err
	}
	if c.UserID != actor.ID && p.PMID != actor.ID {
		return common.Forbidden("Only the author or the project manager can delete a comment")
	}
	if err := s.comments.DeleteComment(ctx, c.ID); err != nil {
		return err
	}
	s.rec.activity(ctx, p.ID, actor.ID, "Deleted comment")
	return nil
}

// ListActivity returns a visible project's history, newest first.
func (s *CollabService) ListActivity(ctx context.Context, actor auth.Identity, projectID string) ([]models.Activity, error) {
	if _, err := s.projects.Get(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.events.ListActivity(ctx, projectID)
}

func (s *CollabService) Notifications(ctx context.Context, actor auth.Identity, unreadOnly bool) ([]models.Notification, error) {
	return s.events.ListNotifications(ctx, actor.ID, unreadOnly)
}

// MarkRead only touches the caller's own notifications.
func (s *CollabService) MarkRead(ctx context.Context, actor auth.Identity, id string) error {
	err := s.events.MarkNotificationRead(ctx, actor.ID, id)
	if errors.Is(err, common.ErrNotFound) {
		return common.NotFound("Notification not found")
	}
	return err
}

func (s *CollabService) MarkAllRead(ctx context.Context, actor auth.Identity) (int64, error) {
	return s.events.MarkAllNotificationsRead(ctx, actor.ID)
}

func (s *CollabService) comment(ctx context.Context, projectID, id string) (models.Comment, error) {
	c, err := s.comments.GetComment(ctx, id)
	if errors.Is(err, common.ErrNotFound) || (err == nil && c.ProjectID != projectID) {
		return models.Comment{}, common.NotFound("Comment not found")
	}
	return c, err
}

// resolveMentions maps every @token to the users whose username, or display
// name with whitespace removed, matches it case-insensitively.
func (s *CollabService) resolveMentions(ctx context.Context, content string) ([]string, error) {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return []string{}, nil
	}

	tokens := make(map[string]bool, len(matches))
	for _, m := range matches {
		if t := strings.ToLower(strings.TrimRight(m[1], ".")); t != "" {
			tokens[t] = true
		}
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, u := range users {
		if tokens[strings.ToLower(u.Username)] || tokens[models.NormalizeUsername(u.Name)] {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (s *CollabService) displayName(ctx context.Context, actor auth.Identity) string {
	u, err := s.users.GetUser(ctx, actor.ID)
	if err != nil || u.Name == "" {
		return actor.Email
	}
	return u.Name
}
