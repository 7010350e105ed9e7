package middleware

import (
	"net/url"

	"footballshop/internal/models"
	"footballshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Cookie names.
const (
	SessionCookie   = "sessionid"
	LastLoginCookie = "last_login" // display only, never used for authorization
)

// LoginURL is where anonymous visitors of protected pages are sent.
const LoginURL = "/login"

// SessionToken returns the raw session token of the request.
func SessionToken(c *fiber.Ctx) string {
	return c.Cookies(SessionCookie)
}

// Locals keys holding the resolved session of a request.
const (
	userLocalsKey           = "user"
	sessionCheckedLocalsKey = "session_checked"
)

// CurrentUser resolves the request's session to an account, or nil when the
// request is anonymous. The result is kept in the request locals, so the
// session is looked up once per request.
func CurrentUser(c *fiber.Ctx, auth *services.AuthService) *models.User {
	if checked, _ := c.Locals(sessionCheckedLocalsKey).(bool); checked {
		user, _ := c.Locals(userLocalsKey).(*models.User)
		return user
	}

	user, err := auth.CurrentUser(SessionToken(c))
	if err != nil {
		user = nil
	}
	c.Locals(sessionCheckedLocalsKey, true)
	c.Locals(userLocalsKey, user)
	return user
}

// LoginRequired redirects requests without a valid session to the login
// page, remembering the requested path in the next query parameter.
func LoginRequired(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c, auth) == nil {
			return c.Redirect(LoginURL+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}
