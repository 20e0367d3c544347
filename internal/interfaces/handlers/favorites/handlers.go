package favorites

import (
	"errors"
	"strconv"

	favsvc "popfitup-backend/internal/application/favorites"
	"popfitup-backend/internal/interfaces/dto"
	"popfitup-backend/internal/middleware"
	"popfitup-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for favorites endpoints. Every route sits
// behind middleware.RequireAuth.
type Handlers struct {
	Service *favsvc.Service
}

// Add POST /api/favorites {popupId}
func (h *Handlers) Add(c *fiber.Ctx) error {
	var req dto.FavoriteRequest
	if err := c.BodyParser(&req); err != nil || req.PopupID == 0 {
		return response.BadRequest(c, "popupId is required")
	}
	count, err := h.Service.Add(c.UserContext(), middleware.CurrentIdentity(c), req.PopupID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Favorite added", dto.FavoriteResponse{
		PopupID:       req.PopupID,
		Favorited:     true,
		FavoriteCount: count,
	}, nil)
}

// Remove DELETE /api/favorites/:popupId
func (h *Handlers) Remove(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("popupId"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid popup id")
	}
	count, err := h.Service.Remove(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Favorite removed", dto.FavoriteResponse{
		PopupID:       id,
		Favorited:     false,
		FavoriteCount: count,
	}, nil)
}

// ListMine GET /api/users/me/favorites
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	ls, err := h.Service.ListMine(c.UserContext(), middleware.CurrentIdentity(c))
	if err != nil {
		return h.fail(c, err)
	}
	all := make(map[uint64]bool, len(ls))
	for _, l := range ls {
		all[l.ID] = true
	}
	return response.Success(c, "Favorites fetched successfully", dto.NewPopupItems(ls, all), fiber.Map{"count": len(ls)})
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, favsvc.ErrLoginRequired):
		return response.Fail(c, fiber.StatusUnauthorized, response.CodeLoginRequired, err.Error())
	case errors.Is(err, favsvc.ErrNotFound):
		return response.NotFound(c, err.Error())
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("favorites: request failed")
	return response.Fail(c, fiber.StatusInternalServerError, response.CodeInternal, "Internal Server Error")
}
