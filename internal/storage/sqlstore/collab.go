package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"promanage/internal/common"
	"promanage/internal/models"
)

const commentColumns = `id, project_id, user_id, content, mentions, created_at, updated_at`

func scanComment(row interface{ Scan(...any) error }) (models.Comment, error) {
	var c models.Comment
	var mentions string
	if err := row.Scan(&c.ID, &c.ProjectID, &c.UserID, &c.Content, &mentions, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Comment{}, err
	}
	c.Mentions = []string{}
	if mentions != "" {
		if err := json.Unmarshal([]byte(mentions), &c.Mentions); err != nil {
			return models.Comment{}, fmt.Errorf("decode mentions: %w", err)
		}
	}
	return c, nil
}

func encodeMentions(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode mentions: %w", err)
	}
	return string(raw), nil
}

// ListComments returns the comments of a project, oldest first.
func (s *Store) ListComments(ctx context.Context, projectID string) ([]models.Comment, error) {
	rows, err := s.query(ctx, `SELECT `+commentColumns+` FROM comments WHERE project_id = ? ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// GetComment fetches a single comment.
func (s *Store) GetComment(ctx context.Context, id string) (models.Comment, error) {
	c, err := scanComment(s.queryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, fmt.Errorf("comment %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (s *Store) InsertComment(ctx context.Context, c models.Comment) error {
	mentions, err := encodeMentions(c.Mentions)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO comments(id, project_id, user_id, content, mentions, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.UserID, c.Content, mentions, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *Store) UpdateComment(ctx context.Context, c models.Comment) error {
	mentions, err := encodeMentions(c.Mentions)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, `UPDATE comments SET content = ?, mentions = ?, updated_at = ? WHERE id = ?`,
		c.Content, mentions, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return rowsAffected(res, "update comment "+c.ID)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return rowsAffected(res, "delete comment "+id)
}

// InsertActivity appends an entry to a project's history.
func (s *Store) InsertActivity(ctx context.Context, a models.Activity) error {
	_, err := s.exec(ctx, `INSERT INTO activities(id, project_id, user_id, action, created_at) VALUES(?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.UserID, a.Action, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivity returns a project's history, newest first.
func (s *Store) ListActivity(ctx context.Context, projectID string) ([]models.Activity, error) {
	rows, err := s.query(ctx, `SELECT id, project_id, user_id, action, created_at FROM activities
        WHERE project_id = ? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.Action, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Store) InsertNotification(ctx context.Context, n models.Notification) error {
	_, err := s.exec(ctx, `INSERT INTO notifications(id, user_id, project_id, type, message, is_read, created_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.ProjectID, string(n.Type), n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns the notifications addressed to userID, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	q := `SELECT id, user_id, project_id, type, message, is_read, created_at FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		q += ` AND is_read = ?`
		args = append(args, false)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &n.ProjectID, &typ, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flags one notification as read. A notification owned by
// someone else is reported as not found.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.exec(ctx, `UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`, true, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return rowsAffected(res, "notification "+id)
}

// MarkAllNotificationsRead returns the number of notifications changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.exec(ctx, `UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?`, true, userID, false)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.RowsAffected()
}

const attachmentColumns = `id, project_id, user_id, filename, type, storage_key, created_at`

func scanAttachment(row interface{ Scan(...any) error }) (models.Attachment, error) {
	var a models.Attachment
	var typ string
	if err := row.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.Filename, &typ, &a.StorageKey, &a.CreatedAt); err != nil {
		return models.Attachment{}, err
	}
	a.Type = models.AttachmentType(typ)
	return a, nil
}

func (s *Store) InsertAttachment(ctx context.Context, a models.Attachment) error {
	_, err := s.exec(ctx, `INSERT INTO attachments(id, project_id, user_id, filename, type, storage_key, created_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.UserID, a.Filename, string(a.Type), a.StorageKey, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (s *Store) GetAttachment(ctx context.Context, id string) (models.Attachment, error) {
	a, err := scanAttachment(s.queryRow(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Attachment{}, fmt.Errorf("attachment %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return models.Attachment{}, fmt.Errorf("get attachment: %w", err)
	}
	return a, nil
}

func (s *Store) ListAttachments(ctx context.Context, projectID string) ([]models.Attachment, error) {
	rows, err := s.query(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE project_id = ? ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	attachments := []models.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (s *Store) DeleteAttachment(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return rowsAffected(res, "delete attachment "+id)
}
