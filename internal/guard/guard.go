package guard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	HomeRoute    = "/"
	AccessDenied = "Access Denied"

	CtxIdentity = "identity"
)

type Decision int

const (
	Redirect Decision = iota + 1
	Deny
	Allow
)

func (d Decision) String() string {
	switch d {
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Evaluate decides admission to an admin view from the current identity alone.
func Evaluate(id session.Identity, ok bool) Decision {
	if !ok {
		return Redirect
	}
	if !id.IsAdmin {
		return Deny
	}
	return Allow
}

// AdminOnly re-evaluates the session on every request: no identity redirects to
// the home route, a non-admin gets Access Denied in place of the view.
func AdminOnly(sess session.Reader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := sess.Current()
			decision := Evaluate(id, ok)
			l := logging.FromContext(c.Request().Context()).With("guard", "admin_only")

			switch decision {
			case Redirect:
				l.Info("guard_redirect", "to", HomeRoute)
				return c.Redirect(http.StatusFound, HomeRoute)
			case Deny:
				l.Warn("guard_denied", "user_id", id.ID)
				return c.JSON(http.StatusForbidden, echo.Map{"message": AccessDenied})
			default:
				c.Set(CtxIdentity, id)
				return next(c)
			}
		}
	}
}

// RequireLogin renders prompt instead of the view when nobody is logged in.
func RequireLogin(sess session.Reader, prompt string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := sess.Current()
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"login_required": true,
					"message":        prompt,
					"login_route":    "/login",
				})
			}
			c.Set(CtxIdentity, id)
			return next(c)
		}
	}
}

func IdentityFrom(c echo.Context) (session.Identity, bool) {
	id, ok := c.Get(CtxIdentity).(session.Identity)
	return id, ok
}
