package auth

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/campusbridge/projects-backend/internal/enterprises"
)

const (
	CtxEnterpriseID   = "enterprise_id"
	CtxEnterpriseName = "enterprise_name"
)

// WithEnterprise resolves the calling enterprise and upserts its row so the
// visible-projects join always finds an owner name.
//
// When a Firebase auth client is configured, the Bearer token is verified and
// the enterprise identity comes from its claims. Without one (local dev) the
// identity falls back to the X-Enterprise-Id / X-Enterprise-Name headers.
func WithEnterprise(authClient *auth.Client, repo *enterprises.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, name, email, ok := resolveIdentity(c, authClient)
		if !ok {
			return
		}

		if id == "" {
			id = "demo-enterprise"
		}

		err := repo.Ensure(c.Request.Context(), enterprises.UpsertEnterprise{
			ID:    id,
			Name:  name,
			Email: email,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure enterprise: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxEnterpriseID, id)
		c.Set(CtxEnterpriseName, name)
		c.Next()
	}
}

func resolveIdentity(c *gin.Context, authClient *auth.Client) (id, name, email string, ok bool) {
	if authClient == nil {
		return strings.TrimSpace(c.GetHeader("X-Enterprise-Id")),
			c.GetHeader("X-Enterprise-Name"),
			c.GetHeader("X-Enterprise-Email"),
			true
	}

	token := extractToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
		c.Abort()
		return "", "", "", false
	}

	decoded, err := authClient.VerifyIDToken(context.Background(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
		c.Abort()
		return "", "", "", false
	}

	if n, found := decoded.Claims["name"].(string); found {
		name = n
	}
	if e, found := decoded.Claims["email"].(string); found {
		email = e
	}
	return decoded.UID, name, email, true
}

// EnterpriseID extracts the caller's enterprise ID from the Gin context.
func EnterpriseID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxEnterpriseID))
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
