package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/models"
)

type profileEnsurer interface {
	EnsureProfile(ctx context.Context, identity *models.Identity)
}

// ProfileSync makes sure every authenticated caller has a profile row. It
// never blocks the request; failures are logged by the profile service.
func ProfileSync(profiles profileEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, ok := IdentityFrom(c); ok {
			profiles.EnsureProfile(c.Request.Context(), identity)
		}
		c.Next()
	}
}
