package auth

import (
	"context"
	"net/url"
	"strings"

	"popfitup-backend/internal/interfaces/dto"
	"popfitup-backend/internal/middleware"
	"popfitup-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userSessionsPrefix = "user_sessions:"

// Handlers holds dependencies for identity endpoints. The OAuth handshake
// itself lives in the external login service; it writes sessions in the
// same Redis format SessionStore reads.
type Handlers struct {
	Rdb         *redis.Client
	Config      middleware.SessionConfig
	LoginURL    string
	DevPassword string
}

// Me GET /api/users/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return response.Success(c, "Not authenticated", dto.MeResponse{Authenticated: false}, nil)
	}
	return response.Success(c, "Authenticated", dto.MeResponse{
		Authenticated: true,
		UserID:        u.UserID,
		Nickname:      u.Nickname,
		Email:         u.Email,
		Identity:      middleware.CurrentIdentity(c).String(),
	}, nil)
}

// Login GET /auth/login[?returnTo=/path] redirects to the external login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	target := h.LoginURL
	if rt := c.Query("returnTo"); strings.HasPrefix(rt, "/") && !strings.HasPrefix(rt, "//") {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "returnTo=" + url.QueryEscape(rt)
	}
	return c.Redirect(target, fiber.StatusFound)
}

// DevLoginRequest is the body of POST /auth/dev-login.
type DevLoginRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// DevLogin POST /auth/dev-login creates a session without OAuth. It needs
// the dev-password header and is only mounted outside production.
func (h *Handlers) DevLogin(c *fiber.Ctx) error {
	if h.DevPassword == "" || c.Get("dev-password") != h.DevPassword {
		return response.Fail(c, fiber.StatusForbidden, response.CodeForbidden, "Dev login disabled")
	}
	var req DevLoginRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		return response.BadRequest(c, "user_id is required")
	}

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   strings.TrimSpace(req.UserID),
		Nickname: req.Nickname,
		Email:    req.Email,
		Provider: "dev",
	})
	if err := h.Rdb.SAdd(context.Background(), userSessionsPrefix+req.UserID, sessionID).Err(); err != nil {
		log.Warn().Err(err).Msg("auth: track session failed")
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)
	return response.Success(c, "Login successful", dto.MeResponse{
		Authenticated: true,
		UserID:        req.UserID,
		Nickname:      req.Nickname,
		Email:         req.Email,
		Identity:      middleware.CurrentIdentity(c).String(),
	}, nil)
}

// Logout POST /auth/logout destroys the session and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if u, ok := middleware.CurrentUser(c); ok && sessionID != "" {
		_ = h.Rdb.SRem(ctx, userSessionsPrefix+u.UserID, sessionID).Err()
	}
	if sessionID != "" {
		if err := h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err(); err != nil {
			log.Warn().Err(err).Msg("auth: delete session failed")
		}
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out successfully", nil, nil)
}
