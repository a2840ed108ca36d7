package middleware

import "github.com/gofiber/fiber/v2"

// requestIDKey is where the requestid middleware stores the id.
const requestIDKey = "requestid"

// RequestID returns the id assigned by the requestid middleware, or "".
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}
