package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskdeck/taskdeck/internal/auth"
	"github.com/taskdeck/taskdeck/internal/policy"
)

const actorKey = "actor"

// requireAuth validates the bearer token and stashes the actor in the
// request context for handlers.
func requireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		actor, err := auth.ParseToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// currentActor returns the actor stored by requireAuth.
func currentActor(c *gin.Context) policy.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(policy.Actor)
	return actor
}
