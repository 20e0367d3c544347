package popups

import (
	"context"
	"errors"
	"strconv"

	"popfitup-backend/internal/application/catalog"
	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/interfaces/dto"
	"popfitup-backend/internal/middleware"
	"popfitup-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for catalog endpoints.
type Handlers struct {
	Service   *catalog.Service
	Favorites dto.FavoriteLookup
	PageSize  int
}

// Search GET /api/popups?region&category&date&keyword&page&pageSize
func (h *Handlers) Search(c *fiber.Ctx) error {
	filter := domain.SearchFilter{
		Location: c.Query("region"),
		Category: c.Query("category"),
		Date:     c.Query("date"),
		Keyword:  c.Query("keyword"),
	}
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("pageSize", h.PageSize)

	result, err := h.Service.Search(c.UserContext(), filter, page, pageSize)
	if err != nil {
		return h.fail(c, err)
	}
	items, err := dto.Annotate(c.UserContext(), h.Favorites, middleware.CurrentIdentity(c), result.Items)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Popups fetched successfully", dto.SearchResponse{
		Items:    items,
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	}, fiber.Map{"filter": filter.Normalize()})
}

// Get GET /api/popups/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := popupID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid popup id")
	}
	l, err := h.Service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	items, err := dto.Annotate(c.UserContext(), h.Favorites, middleware.CurrentIdentity(c), []domain.Listing{*l})
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Popup fetched successfully", items[0], nil)
}

// Similar GET /api/popups/:id/similar
func (h *Handlers) Similar(c *fiber.Ctx) error {
	return h.related(c, h.Service.GetSimilar, "Similar popups fetched successfully")
}

// Nearby GET /api/popups/:id/nearby
func (h *Handlers) Nearby(c *fiber.Ctx) error {
	return h.related(c, h.Service.GetNearby, "Nearby popups fetched successfully")
}

type relatedFunc func(ctx context.Context, id uint64) ([]domain.Listing, error)

func (h *Handlers) related(c *fiber.Ctx, fetch relatedFunc, msg string) error {
	id, err := popupID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid popup id")
	}
	ls, err := fetch(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	items, err := dto.Annotate(c.UserContext(), h.Favorites, middleware.CurrentIdentity(c), ls)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, msg, items, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return response.NotFound(c, err.Error())
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("popups: request failed")
	return response.Fail(c, fiber.StatusInternalServerError, response.CodeInternal, "Internal Server Error")
}

func popupID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
