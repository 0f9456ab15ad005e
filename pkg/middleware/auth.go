package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talhadevelopes/a11yguard-sub001/pkg/jwt"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/response"
)

const (
	OrganizationIDKey = "organization_id"
	MemberIDKey       = "member_id"
	MemberRoleKey     = "member_role"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
)

// AuthMiddleware validates bearer JWTs locally.
type AuthMiddleware struct {
	tokens *jwt.Manager
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(tokens *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(BearerPrefix):])
	return token, token != ""
}

// RequireAuth returns a Gin middleware that validates JWT tokens.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing authorization header")
			return
		}

		token, ok := BearerToken(authHeader)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid authorization format")
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, err.Error())
			return
		}

		if claims.OrganizationID == "" || claims.MemberID == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "token is missing organization or member")
			return
		}

		c.Set(OrganizationIDKey, claims.OrganizationID)
		c.Set(MemberIDKey, claims.MemberID)
		c.Set(MemberRoleKey, claims.MemberRole)

		c.Next()
	}
}

// GetOrganizationID extracts the organization scope from Gin context.
func GetOrganizationID(c *gin.Context) string {
	if id, exists := c.Get(OrganizationIDKey); exists {
		return id.(string)
	}
	return ""
}

// GetMemberID extracts the member ID from Gin context.
func GetMemberID(c *gin.Context) string {
	if id, exists := c.Get(MemberIDKey); exists {
		return id.(string)
	}
	return ""
}

// GetMemberRole extracts the member role from Gin context.
func GetMemberRole(c *gin.Context) string {
	if role, exists := c.Get(MemberRoleKey); exists {
		return role.(string)
	}
	return ""
}
