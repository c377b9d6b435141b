package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rkco/fuel-ledger/pkg/logger"
)

// RequestLogger logs each ledger request with its route template, the
// party it touched and the acting user.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if c.Request.URL.Path == "/api/v1/health" {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.ClientIP()),
		}

		// Statement, balance and payment routes name the party in the path
		if party := c.Param("name"); party != "" {
			attrs = append(attrs, slog.String("party", party))
		}
		if id := c.Param("id"); id != "" {
			attrs = append(attrs, slog.String("record_id", id))
		}
		if email := c.GetString("userEmail"); email != "" {
			attrs = append(attrs, slog.String("user", email), slog.String("role", c.GetString("userRole")))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			attrs = append(attrs, slog.String("error", errs))
		}

		switch {
		case status >= 500:
			logger.Log.Error("Ledger request failed", attrs...)
		case status >= 400:
			logger.Log.Warn("Ledger request rejected", attrs...)
		default:
			logger.Log.Info("Ledger request", attrs...)
		}
	}
}
