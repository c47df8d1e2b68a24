package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
)

// Logger writes one line per request. Ingestion traffic is high-rate, so
// successful requests log at V(1) and only failures log unconditionally.
func Logger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		line := "%s - %s %s %d %s id=%s"
		args := []any{
			start.UTC().Format(time.RFC3339Nano),
			ctx.Request.Method,
			ctx.Request.URL.Path,
			status,
			time.Since(start),
			RequestIDFrom(ctx),
		}
		switch {
		case status >= 500:
			glog.Errorf(line, args...)
		case status >= 400:
			glog.Warningf(line, args...)
		default:
			glog.V(1).Infof(line, args...)
		}
	}
}
