package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 健康检查依赖
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health 逐个检查依赖，任一失败返回 503
func Health(deps map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		pctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(gin.H, len(deps))
		for name, p := range deps {
			if err := p.PingContext(pctx); err != nil {
				status = http.StatusServiceUnavailable
				components[name] = gin.H{"status": "down", "error": err.Error()}
				continue
			}
			components[name] = gin.H{"status": "ok"}
		}
		state := "ok"
		if status != http.StatusOK {
			state = "down"
		}
		c.JSON(status, gin.H{"status": state, "components": components, "timestamp": time.Now().UTC()})
	}
}

// PingFunc 把函数适配为 Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }
