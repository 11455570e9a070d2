package httpapi

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"attendance-bot/internal/domain"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Actor: вызывающий, переданный вышестоящим сервисом идентификации.
type Actor struct {
	ID   int64
	Role domain.Role
}

func (a Actor) Creator() domain.Creator {
	return domain.Worker{ID: a.ID, Role: a.Role}.Creator()
}

// ActorFromHeaders читает X-Actor-ID и X-Actor-Role. Аутентификация выполнена выше,
// здесь заголовкам доверяют.
func ActorFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader("X-Actor-ID"), 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "detail": "X-Actor-ID header required"})
			return
		}
		role := domain.Role(c.GetHeader("X-Actor-Role"))
		switch role {
		case domain.RoleWorker, domain.RoleManager, domain.RoleAdmin:
		case "":
			role = domain.RoleWorker
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "detail": "unknown role"})
			return
		}
		c.Set(actorKey, Actor{ID: id, Role: role})
		c.Next()
	}
}

func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		if a.Role != domain.RoleManager && a.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func actor(c *gin.Context) Actor {
	v, _ := c.Get(actorKey)
	a, _ := v.(Actor)
	return a
}

func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[http] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
