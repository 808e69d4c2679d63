package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/EventFox/internal/pkg/cache"
	"github.com/ManuelReschke/EventFox/internal/pkg/env"
)

// NewSessionStore opens the session store shared with the dashboard.
func NewSessionStore(cfg cache.Config) *session.Store {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}

	// Sessions live in their own database (cache uses DB 0)
	storage := redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: env.GetEnvInt("SESSION_DB", 1),
		Reset:    false,
	})

	return NewStore(storage)
}

// NewStore builds the session store on top of any fiber storage.
func NewStore(storage fiber.Storage) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		Expiration:     time.Hour * 1,
		KeyLookup:      "cookie:" + env.GetEnv("SESSION_COOKIE", "session_id"),
	})
}

// GetSessionValue retrieves a string value by key from the user's session
func GetSessionValue(store *session.Store, c *fiber.Ctx, key string) string {
	if store == nil {
		return ""
	}

	sess, err := store.Get(c)
	if err != nil {
		return ""
	}

	switch v := sess.Get(key).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
