package access

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/logger"
	"github.com/a2a-routing/console/internal/models"
)

// IdentitySource answers "who am I" for a set of backend credentials
type IdentitySource interface {
	Me(ctx context.Context, creds backend.Credentials) (models.Identity, error)
}

// Resolver turns credentials into an identity with a single lookup
type Resolver struct {
	src IdentitySource
	log *logrus.Entry
}

// NewResolver creates a resolver over src
func NewResolver(src IdentitySource) *Resolver {
	return &Resolver{src: src, log: logger.Component("access")}
}

// Resolve never fails: any error, non-OK answer or empty role yields the
// no_auth identity. There is no retry.
func (r *Resolver) Resolve(ctx context.Context, creds backend.Credentials) models.Identity {
	id, err := r.src.Me(ctx, creds)
	if err != nil {
		r.log.WithField("error", err.Error()).Debug("Identity lookup failed, treating as unauthenticated")
		return models.Identity{Role: models.RoleNoAuth}
	}
	if id.Role == "" {
		id.Role = models.RoleNoAuth
	}
	return id
}

// Permits reports whether id's role is one of roles
func Permits(id models.Identity, roles []models.Role) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}
