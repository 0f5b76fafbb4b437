package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promanage/internal/models"
	"promanage/internal/service"
)

var workspaceLabels = map[models.Workspace]string{
	models.WorkspaceLogo:           "Logo design",
	models.WorkspaceWebDesign:      "Web design",
	models.WorkspaceWebDevelopment: "Web development",
	models.WorkspaceContent:        "Content writer",
}

// handleListProjects returns the caller's projects across every workspace.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.svc.Projects.ListAll(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "All projects retrieved successfully", gin.H{"projects": projects})
}

// handleListWorkspace serves one of the per-workspace list routes.
func (s *Server) handleListWorkspace(w models.Workspace) gin.HandlerFunc {
	message := workspaceLabels[w] + " projects retrieved successfully"
	return func(c *gin.Context) {
		projects, err := s.svc.Projects.ListByWorkspace(c.Request.Context(), identity(c), w)
		if err != nil {
			s.respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, message, gin.H{"projects": projects})
	}
}

func (s *Server) handleSearchProjects(c *gin.Context) {
	projects, err := s.svc.Projects.Search(c.Request.Context(), identity(c), c.Query("q"), c.Query("status"), c.Query("priority"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Projects retrieved successfully", gin.H{"projects": projects})
}

func (s *Server) handleGetProject(c *gin.Context) {
	project, err := s.svc.Projects.Get(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Project retrieved successfully", gin.H{"project": project})
}

// handleCreateProject creates a project in the workspace named by the body.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req service.CreateProjectInput
	if !s.bindJSON(c, &req) {
		return
	}

	project, err := s.svc.Projects.Create(c.Request.Context(), identity(c), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, "Project created successfully in "+string(project.Workspace)+" workspace", gin.H{"project": project})
}

// handleUpdateProject applies a partial update; a workspace in the body is ignored.
func (s *Server) handleUpdateProject(c *gin.Context) {
	var req service.UpdateProjectInput
	if !s.bindJSON(c, &req) {
		return
	}

	project, err := s.svc.Projects.Update(c.Request.Context(), identity(c), c.Param("id"), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Project updated successfully", gin.H{"project": project})
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	if err := s.svc.Projects.Delete(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Project deleted successfully", nil)
}

func (s *Server) handleOverview(c *gin.Context) {
	overview, err := s.svc.Dashboard.Overview(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Dashboard overview retrieved successfully", overview)
}

func (s *Server) handleMyStats(c *gin.Context) {
	stats, err := s.svc.Dashboard.MyStats(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "User dashboard stats retrieved successfully", stats)
}
