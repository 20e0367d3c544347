package home

import (
	"popfitup-backend/internal/application/home"
	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/interfaces/dto"
	"popfitup-backend/internal/middleware"
	"popfitup-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for the home feed.
type Handlers struct {
	Service   *home.Service
	Favorites dto.FavoriteLookup
}

// Get GET /api/home[?month=YYYY-MM]. Without month it returns all three
// buckets; with month only the monthly bucket.
func (h *Handlers) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	who := middleware.CurrentIdentity(c)

	if raw := c.Query("month"); raw != "" {
		month, err := domain.ParseMonthKey(raw)
		if err != nil {
			return response.BadRequest(c, "month must be YYYY-MM")
		}
		listings, err := h.Service.Monthly(ctx, month)
		if err != nil {
			return h.fail(c, err)
		}
		monthly, err := dto.Annotate(ctx, h.Favorites, who, listings)
		if err != nil {
			return h.fail(c, err)
		}
		return response.Success(c, "Monthly popups fetched successfully", dto.HomeResponse{
			Month:   month.String(),
			Monthly: monthly,
		}, nil)
	}

	b, err := h.Service.Initial(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	out := dto.HomeResponse{Month: b.Month.String()}
	if out.Latest, err = dto.Annotate(ctx, h.Favorites, who, b.Latest); err != nil {
		return h.fail(c, err)
	}
	if out.Popular, err = dto.Annotate(ctx, h.Favorites, who, b.Popular); err != nil {
		return h.fail(c, err)
	}
	if out.Monthly, err = dto.Annotate(ctx, h.Favorites, who, b.Monthly); err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Home fetched successfully", out, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("home: request failed")
	return response.Fail(c, fiber.StatusInternalServerError, response.CodeInternal, "Internal Server Error")
}
