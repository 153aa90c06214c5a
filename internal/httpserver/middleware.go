package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/session"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

// Common is the middleware stack every route runs behind. With no allowed
// origins configured CORS falls back to echo's permissive default.
func Common(logger *slog.Logger, origins []string, sess session.Reader) []echo.MiddlewareFunc {
	user := func(echo.Context) (int64, bool) {
		id, ok := sess.Current()
		return id.ID, ok
	}

	cors := echomw.CORS()
	if len(origins) > 0 {
		cors = echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     origins,
			AllowCredentials: true,
		})
	}
	return []echo.MiddlewareFunc{
		echomw.Recover(),
		echomw.RequestID(),
		loggingmw.RequestLogger(logger, loggingmw.WithUser(user), loggingmw.WithQuietPrefix("/health/")),
		cors,
		echomw.Secure(),
	}
}
