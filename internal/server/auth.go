package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	res, err := s.svc.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Login successful", res)
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.svc.Auth.Me(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "User profile retrieved successfully", gin.H{"user": user})
}

// handleLogout acknowledges; tokens are stateless and simply dropped by the client.
func (s *Server) handleLogout(c *gin.Context) {
	respondSuccess(c, http.StatusOK, "Logout successful", nil)
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.svc.Auth.Directory(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Users retrieved successfully", gin.H{"users": users})
}
