package middleware

import (
	"strconv"

	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	userLocal = "user"

	// ClientIDHeader carries the anonymous device token.
	ClientIDHeader = "X-Client-Id"
)

// RequireAuth ensures a user is in the session.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentIdentity(c).IsUser() {
			return response.Fail(c, fiber.StatusUnauthorized, response.CodeLoginRequired, "Login required")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentUser decodes the session user. ok is false when nobody is logged in.
func CurrentUser(c *fiber.Ctx) (SessionUser, bool) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return SessionUser{}, false
	}
	u := SessionUser{}
	u.UserID = stringField(m, "user_id")
	u.Nickname = stringField(m, "nickname")
	u.Email = stringField(m, "email")
	u.Provider = stringField(m, "provider")
	if u.UserID == "" {
		return SessionUser{}, false
	}
	return u, true
}

// CurrentIdentity is the logged-in user, or the zero Identity.
func CurrentIdentity(c *fiber.Ctx) domain.Identity {
	u, ok := CurrentUser(c)
	if !ok {
		return domain.Identity{}
	}
	return domain.UserIdentity(u.UserID)
}

// SubmitterIdentity resolves who is submitting: the session user first, then
// the device token header when allowDevice is set.
func SubmitterIdentity(c *fiber.Ctx, allowDevice bool) domain.Identity {
	if id := CurrentIdentity(c); !id.IsZero() {
		return id
	}
	if !allowDevice {
		return domain.Identity{}
	}
	id, err := domain.DeviceIdentity(c.Get(ClientIDHeader))
	if err != nil {
		return domain.Identity{}
	}
	return id
}

// AdminKey returns the moderation secret from ?key= or a JSON body "key".
func AdminKey(c *fiber.Ctx) string {
	if k := c.Query("key"); k != "" {
		return k
	}
	var body struct {
		Key string `json:"key"`
	}
	if len(c.Body()) > 0 && c.BodyParser(&body) == nil {
		return body.Key
	}
	return ""
}

func stringField(m map[string]interface{}, k string) string {
	switch v := m[k].(type) {
	case string:
		return v
	case float64:
		// numeric ids written by the login service
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
