package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

// BasicAuth builds the dashboard guard from "user:secret" entries.
func BasicAuth(credentials []string) (fiber.Handler, error) {
	users := make(map[string]string, len(credentials))
	for _, entry := range credentials {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		user, secret, ok := strings.Cut(entry, ":")
		if !ok || user == "" || secret == "" {
			return nil, fmt.Errorf("basic auth entry %q is not in the <user>:<secret> format", user)
		}
		users[user] = secret
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("no basic auth credentials configured")
	}

	return basicauth.New(basicauth.Config{
		Users: users,
		Realm: "ravenabot",
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
	}), nil
}
