package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Content string `json:"content"`
}

type attachmentRequest struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

func (s *Server) handleListComments(c *gin.Context) {
	comments, err := s.svc.Collab.ListComments(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Comments retrieved successfully", gin.H{"comments": comments})
}

func (s *Server) handleAddComment(c *gin.Context) {
	var req commentRequest
	if !s.bindJSON(c, &req) {
		return
	}
	comment, err := s.svc.Collab.AddComment(c.Request.Context(), identity(c), c.Param("id"), req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, "Comment added successfully", gin.H{"comment": comment})
}

func (s *Server) handleUpdateComment(c *gin.Context) {
	var req commentRequest
	if !s.bindJSON(c, &req) {
		return
	}
	comment, err := s.svc.Collab.UpdateComment(c.Request.Context(), identity(c), c.Param("id"), c.Param("commentId"), req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Comment updated successfully", gin.H{"comment": comment})
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	if err := s.svc.Collab.DeleteComment(c.Request.Context(), identity(c), c.Param("id"), c.Param("commentId")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Comment deleted successfully", nil)
}

func (s *Server) handleListActivity(c *gin.Context) {
	activity, err := s.svc.Collab.ListActivity(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Activity retrieved successfully", gin.H{"activity": activity})
}

func (s *Server) handleListAttachments(c *gin.Context) {
	attachments, err := s.svc.Attachments.List(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Attachments retrieved successfully", gin.H{"attachments": attachments})
}

// handleCreateAttachment registers the file and hands back an upload URL.
func (s *Server) handleCreateAttachment(c *gin.Context) {
	var req attachmentRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ticket, err := s.svc.Attachments.CreateUpload(c.Request.Context(), identity(c), c.Param("id"), req.Filename, req.Type)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, "Upload URL created successfully", ticket)
}

func (s *Server) handleDeleteAttachment(c *gin.Context) {
	if err := s.svc.Attachments.Delete(c.Request.Context(), identity(c), c.Param("id"), c.Param("attachmentId")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Attachment deleted successfully", nil)
}

func (s *Server) handleListNotifications(c *gin.Context) {
	notifications, err := s.svc.Collab.Notifications(c.Request.Context(), identity(c), c.Query("unread") == "true")
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Notifications retrieved successfully", gin.H{"notifications": notifications})
}

func (s *Server) handleMarkRead(c *gin.Context) {
	if err := s.svc.Collab.MarkRead(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Notification marked as read", nil)
}

func (s *Server) handleMarkAllRead(c *gin.Context) {
	n, err := s.svc.Collab.MarkAllRead(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": n})
}
