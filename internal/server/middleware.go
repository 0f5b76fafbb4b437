package server

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"promanage/internal/auth"
	"promanage/internal/common"
	"promanage/internal/models"
)

const identityKey = "identity"

// requireAuth verifies the bearer token and stores the caller identity.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			s.respondError(c, common.Unauthenticated("Authorization token is required"))
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			s.respondError(c, common.Unauthenticated("Authorization header format must be Bearer {token}"))
			return
		}

		id, err := s.svc.Auth.Verify(strings.TrimSpace(token))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// requireRoles lets only the listed roles through.
func (s *Server) requireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, identity(c).Role) {
			s.respondError(c, common.Forbidden("Access denied. Insufficient permissions."))
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(auth.Identity)
	return id
}
