package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"promanage/internal/auth"
	"promanage/internal/blob"
	"promanage/internal/common"
	"promanage/internal/models"
)

// Presigner issues object storage URLs.
type Presigner interface {
	PutURL(ctx context.Context, key string) (string, error)
	GetURL(ctx context.Context, key string) (string, error)
}

// UploadTicket tells the client where to PUT the file.
type UploadTicket struct {
	Attachment models.Attachment `json:"attachment"`
	UploadURL  string            `json:"uploadUrl"`
}

// AttachmentService links files in object storage to projects. With a nil
// presigner every operation reports the feature as unavailable.
type AttachmentService struct {
	projects *ProjectService
	store    AttachmentStore
	blobs    Presigner
	rec      recorder
	now      func() time.Time
}

func NewAttachmentService(projects *ProjectService, store AttachmentStore, blobs Presigner, events EventStore, logger *slog.Logger) *AttachmentService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AttachmentService{projects: projects, store: store, blobs: blobs, now: utcNow}
	s.rec = recorder{events: events, logger: logger, now: func() time.Time { return s.now() }}
	return s
}

func (s *AttachmentService) enabled() error {
	if s.blobs == nil {
		return common.Unavailable("Attachment storage is not configured")
	}
	return nil
}

// CreateUpload records the attachment and returns a presigned upload URL.
func (s *AttachmentService) CreateUpload(ctx context.Context, actor auth.Identity, projectID, filename, typ string) (UploadTicket, error) {
	if err := s.enabled(); err != nil {
		return UploadTicket{}, err
	}
	p, err := s.projects.Get(ctx, actor, projectID)
	if err != nil {
		return UploadTicket{}, err
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return UploadTicket{}, common.Validation("Filename is required")
	}
	at, err := models.ParseAttachmentType(typ)
	if err != nil {
		return UploadTicket{}, common.Validation("Invalid attachment type. Must be one of: image, pdf")
	}

	a := models.Attachment{
		ID:         uuid.NewString(),
		ProjectID:  p.ID,
		UserID:     actor.ID,
		Filename:   filename,
		Type:       at,
		StorageKey: blob.StorageKey(p.ID, filename),
		CreatedAt:  s.now(),
	}
	url, err := s.blobs.PutURL(ctx, a.StorageKey)
	if err != nil {
		return UploadTicket{}, err
	}
	if err := s.store.InsertAttachment(ctx, a); err != nil {
		return UploadTicket{}, err
	}

	s.rec.activity(ctx, p.ID, actor.ID, "Attached "+a.Filename)
	return UploadTicket{Attachment: a, UploadURL: url}, nil
}

// List returns a visible project's attachments with download URLs.
func (s *AttachmentService) List(ctx context.Context, actor auth.Identity, projectID string) ([]models.Attachment, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}
	if _, err := s.projects.Get(ctx, actor, projectID); err != nil {
		return nil, err
	}
	attachments, err := s.store.ListAttachments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range attachments {
		if attachments[i].URL, err = s.blobs.GetURL(ctx, attachments[i].StorageKey); err != nil {
			return nil, err
		}
	}
	return attachments, nil
}

// Delete removes the attachment record. Allowed to the uploader and the
// project's PM. The stored object is left to bucket lifecycle rules.
func (s *AttachmentService) Delete(ctx context.Context, actor auth.Identity, projectID, attachmentID string) error {
	if err := s.enabled(); err != nil {
		return err
	}
	p, err := s.projects.Get(ctx, actor, projectID)
	if err != nil {
		return err
	}
	a, err := s.store.GetAttachment(ctx, attachmentID)
	if errors.Is(err, common.ErrNotFound) || (err == nil && a.ProjectID != p.ID) {
		return common.NotFound("Attachment not found")
	}
	if err != nil {
		return err
	}
	if a.UserID != actor.ID && p.PMID != actor.ID {
		return common.Forbidden("Only the uploader or the project manager can delete an attachment")
	}
	if err := s.store.DeleteAttachment(ctx, a.ID); err != nil {
		return err
	}
	s.rec.activity(ctx, p.ID, actor.ID, "Removed attachment "+a.Filename)
	return nil
}
