package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// BearerAuthConfig holds bearer auth configuration.
type BearerAuthConfig struct {
	// Secret is the HS256 signing key. Empty disables auth.
	Secret string
	// SkipPrefixes lists path prefixes served without a token.
	SkipPrefixes []string
}

// BearerAuth returns JWT bearer auth middleware. Tokens must be signed
// with HS256 using the configured secret.
func BearerAuth(cfg BearerAuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Secret == "" {
				return next(c)
			}
			for _, p := range cfg.SkipPrefixes {
				if strings.HasPrefix(c.Request().URL.Path, p) {
					return next(c)
				}
			}

			header := c.Request().Header.Get("Authorization")
			raw := strings.TrimPrefix(header, "Bearer ")
			if raw == "" || raw == header {
				return unauthorized(c, "missing bearer token")
			}

			_, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				return []byte(cfg.Secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"status":  http.StatusUnauthorized,
		"message": msg,
	})
}
