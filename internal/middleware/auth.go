package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/access"
	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/logger"
	"github.com/a2a-routing/console/internal/models"
)

const identityKey = "identity"

// LoginPath is where unauthenticated and unauthorized operators are sent
const LoginPath = "/login"

// IdentityResolver resolves the operator behind a set of backend credentials
type IdentityResolver interface {
	Resolve(ctx context.Context, creds backend.Credentials) models.Identity
}

// resolve looks the identity up once per request
func resolve(c *gin.Context, r IdentityResolver) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	id := r.Resolve(c.Request.Context(), Credentials(c))
	c.Set(identityKey, id)
	return id
}

// Identity returns the identity resolved for the request, or no_auth
func Identity(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(models.Identity); ok {
			return id
		}
	}
	return models.Identity{Role: models.RoleNoAuth}
}

func redirectToLogin(c *gin.Context, id models.Identity, reason string) {
	logger.WithFields(map[string]interface{}{
		"path":   c.Request.URL.Path,
		"role":   id.Role,
		"reason": reason,
	}).Info("Redirecting to login")
	c.Redirect(http.StatusFound, LoginPath)
	c.Abort()
}

// OptionalLogin resolves the operator but lets everybody through
func OptionalLogin(r IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolve(c, r)
		c.Next()
	}
}

// RequireLogin sends unauthenticated operators to the login page
func RequireLogin(r IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolve(c, r)
		if !id.Authenticated() {
			redirectToLogin(c, id, "unauthenticated")
			return
		}
		c.Next()
	}
}

// RequireRole sends operators whose role is not in roles to the login page.
// The role is resolved on every request, so a role change takes effect on
// the next one.
func RequireRole(r IdentityResolver, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolve(c, r)
		if !access.Permits(id, roles) {
			redirectToLogin(c, id, "role not permitted")
			return
		}
		c.Next()
	}
}

// RequireCapability sends operators lacking capability to the login page
func RequireCapability(r IdentityResolver, policy *access.Policy, capability access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolve(c, r)
		if !policy.Can(id.Role, capability) {
			redirectToLogin(c, id, "missing capability "+string(capability))
			return
		}
		c.Next()
	}
}
