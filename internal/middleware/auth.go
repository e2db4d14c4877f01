package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-admindb/internal/services"
)

const (
	SessionCookie = "cookie_session"
	callerKey     = "caller"
)

// Identity resolves the session cookie to the caller's email. Requests
// without a cookie continue anonymously; the services reject them.
func Identity(idp services.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := c.Cookies(SessionCookie)
		if session == "" {
			return c.Next()
		}

		email, err := idp.Identify(c.UserContext(), session)
		if err != nil {
			return err
		}
		c.Locals(callerKey, email)
		return c.Next()
	}
}

// Caller returns the identity set by Identity, or "".
func Caller(c *fiber.Ctx) string {
	email, _ := c.Locals(callerKey).(string)
	return email
}
