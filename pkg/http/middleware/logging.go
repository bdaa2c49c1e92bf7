package middleware

import (
	"time"

	applogger "FlowICT/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request through the structured logger:
// failures at error, requests slower than slowThreshold at warn, the
// rest at debug.
func RequestLogging(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if l == nil {
				return err
			}

			latency := time.Since(start)
			fields := []applogger.Field{
				applogger.String("method", c.Request().Method),
				applogger.String("path", c.Request().URL.Path),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency_ms", latency),
				applogger.Int64("bytes", c.Response().Size),
				applogger.String("remote", c.RealIP()),
			}

			switch {
			case err != nil || c.Response().Status >= 500:
				if err != nil {
					fields = append(fields, applogger.Error(err))
				}
				l.Error("http request", fields...)
			case slowThreshold > 0 && latency >= slowThreshold:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return err
		}
	}
}
