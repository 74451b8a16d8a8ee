package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/rentalops/internal/observability/context"
)

const HeaderActor = "X-Actor-Id"

// actorID returns the explicit author when given, otherwise the request actor.
func actorID(c *gin.Context, explicit *string) *string {
	if explicit != nil {
		if trimmed := strings.TrimSpace(*explicit); trimmed != "" {
			return &trimmed
		}
	}
	actor := obscontext.ActorIDFromContext(c.Request.Context())
	if actor == "" {
		actor = strings.TrimSpace(c.GetHeader(HeaderActor))
	}
	if actor == "" {
		return nil
	}
	return &actor
}
