package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/EventFox/internal/pkg/usercontext"
)

// UserContextMiddleware projects the dashboard session into the user context
// for every request.
func UserContextMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			log.Warnf("[Session] Could not load session: %v", err)
			usercontext.SetUserContext(c, usercontext.UserContext{})
			return c.Next()
		}

		uc := usercontext.UserContext{
			CustomerID: stringValue(sess.Get(usercontext.KeyCustomerID)),
			AdminID:    stringValue(sess.Get(usercontext.KeyAdminID)),
			Username:   stringValue(sess.Get(usercontext.KeyUsername)),
		}
		isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)
		uc.IsAdmin = isAdmin && uc.AdminID != ""
		uc.IsLoggedIn = uc.CustomerID != "" || uc.IsAdmin

		usercontext.SetUserContext(c, uc)
		return c.Next()
	}
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
