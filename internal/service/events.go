package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"promanage/internal/models"
)

// recorder writes activity and notifications on behalf of other operations.
// Failures are logged and swallowed so the triggering write still succeeds.
type recorder struct {
	events EventStore
	logger *slog.Logger
	now    func() time.Time
}

func (r recorder) activity(ctx context.Context, projectID, userID, action string) {
	if r.events == nil {
		return
	}
	err := r.events.InsertActivity(ctx, models.Activity{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		UserID:    userID,
		Action:    action,
		CreatedAt: r.now(),
	})
	if err != nil {
		r.logger.Warn("record activity", slog.String("project", projectID), slog.String("error", err.Error()))
	}
}

func (r recorder) notify(ctx context.Context, userID, projectID string, typ models.NotificationType, message string) {
	if r.events == nil || userID == "" {
		return
	}
	err := r.events.InsertNotification(ctx, models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProjectID: projectID,
		Type:      typ,
		Message:   message,
		CreatedAt: r.now(),
	})
	if err != nil {
		r.logger.Warn("send notification", slog.String("user", userID), slog.String("error", err.Error()))
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
