package middleware

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Maintenance pauses ingestion while the flag file exists. Observers and
// reads are left alone so displays keep the last known state.
func Maintenance(flagPath string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, err := os.Stat(flagPath); err == nil {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "relay is in maintenance, update not applied"})
			return
		}
		ctx.Next()
	}
}
