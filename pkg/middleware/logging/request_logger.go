package loggingmw

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

// UserFunc names the signed-in user for a request, if there is one.
type UserFunc func(c echo.Context) (userID int64, ok bool)

type options struct {
	user       UserFunc
	quietPaths []string
}

type Option func(*options)

// WithUser tags every completion line with the user id user reports.
func WithUser(user UserFunc) Option {
	return func(o *options) { o.user = user }
}

// WithQuietPrefix logs successful requests under prefix at debug level, for
// probes that would otherwise flood the log.
func WithQuietPrefix(prefix string) Option {
	return func(o *options) { o.quietPaths = append(o.quietPaths, prefix) }
}

func RequestLogger(base *slog.Logger, opts ...Option) echo.MiddlewareFunc {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Request().Header.Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", c.Request().Method,
				"route", c.Path(),
				"url", c.Request().URL.Path,
			)
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}

			c.SetRequest(c.Request().WithContext(logging.IntoContext(c.Request().Context(), l)))

			start := time.Now()
			err := next(c)
			dur := time.Since(start)

			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status

			// Resolved after the handler: login and logout change who is signed in.
			attrs := []any{"status", status, "duration_ms", dur.Milliseconds()}
			if o.user != nil {
				if id, ok := o.user(c); ok {
					attrs = append(attrs, "user_id", id)
				}
			}

			switch {
			case status >= 500:
				l.Error("request completed", append(attrs, "error", errStr(err))...)
			case status >= 400:
				l.Warn("request completed", append(attrs, "error", errStr(err))...)
			case o.quiet(c.Request().URL.Path):
				l.Debug("request completed", attrs...)
			default:
				l.Info("request completed", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}

func (o *options) quiet(path string) bool {
	for _, p := range o.quietPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%v", err)
}
