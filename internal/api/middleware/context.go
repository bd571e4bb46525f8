package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// Headers set by the platform proxy in front of this service. Auth itself is
// the platform's job; we only consume the identity it forwards.
const (
	postIDHeader   = "X-Post-Id"
	usernameHeader = "X-Username"

	postIDKey   = "postID"
	usernameKey = "username"

	anonymousUser = "anonymous"
)

// PlatformContext extracts the hosting post and viewer identity into request
// locals. Username falls back to anonymous; a missing post identity is left
// for each handler to reject so the error payload matches its endpoint.
func PlatformContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(postIDKey, c.Get(postIDHeader))

		username := c.Get(usernameHeader)
		if username == "" {
			username = anonymousUser
		}
		c.Locals(usernameKey, username)

		return c.Next()
	}
}

// PostID returns the hosting post's identity, empty when the platform
// supplied none
func PostID(c *fiber.Ctx) string {
	postID, _ := c.Locals(postIDKey).(string)
	return postID
}

// Username returns the viewer's identity, never empty
func Username(c *fiber.Ctx) string {
	username, _ := c.Locals(usernameKey).(string)
	if username == "" {
		return anonymousUser
	}
	return username
}
