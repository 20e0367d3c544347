package reports

import (
	"errors"
	"strconv"

	reportsvc "popfitup-backend/internal/application/reports"
	"popfitup-backend/internal/interfaces/dto"
	"popfitup-backend/internal/middleware"
	"popfitup-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for report endpoints.
type Handlers struct {
	Service *reportsvc.Service
	// AllowDeviceToken accepts X-Client-Id as the submitter when nobody is logged in.
	AllowDeviceToken bool
}

// Submit POST /api/reports
func (h *Handlers) Submit(c *fiber.Ctx) error {
	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	who := middleware.SubmitterIdentity(c, h.AllowDeviceToken)
	r, err := h.Service.Submit(c.UserContext(), who, reportsvc.SubmitInput{
		Name:        req.Name,
		Address:     req.Address,
		Description: req.Description,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessCreated(c, "Report submitted", dto.NewReportItem(*r), nil)
}

// ListMine GET /api/reports/mine
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	who := middleware.SubmitterIdentity(c, h.AllowDeviceToken)
	rs, err := h.Service.ListMine(c.UserContext(), who)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Reports fetched successfully", dto.NewReportItems(rs), fiber.Map{"count": len(rs)})
}

// ListAll GET /api/reports?key=
func (h *Handlers) ListAll(c *fiber.Ctx) error {
	rs, err := h.Service.ListAll(c.UserContext(), middleware.AdminKey(c))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Reports fetched successfully", dto.NewReportItems(rs), fiber.Map{"count": len(rs)})
}

// Answer POST /api/reports/:id/answer?key= {answer}
func (h *Handlers) Answer(c *fiber.Ctx) error {
	id, err := reportID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid report id")
	}
	var req dto.AnswerRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	r, err := h.Service.Answer(c.UserContext(), id, middleware.AdminKey(c), req.Answer)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Report answered", dto.NewReportItem(*r), nil)
}

// Delete DELETE /api/reports/:id[?key=]. With a key it is an admin delete,
// otherwise the caller must own the report.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := reportID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid report id")
	}
	if key := middleware.AdminKey(c); key != "" {
		err = h.Service.DeleteAdmin(c.UserContext(), id, key)
	} else {
		err = h.Service.DeleteOwn(c.UserContext(), id, middleware.SubmitterIdentity(c, h.AllowDeviceToken))
	}
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Report deleted", fiber.Map{"id": id}, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, reportsvc.ErrValidation), errors.Is(err, reportsvc.ErrAnswerRequired):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, reportsvc.ErrQuotaExceeded):
		return response.Fail(c, fiber.StatusTooManyRequests, response.CodeQuotaExceeded, err.Error())
	case errors.Is(err, reportsvc.ErrNoIdentity):
		return response.Fail(c, fiber.StatusUnauthorized, response.CodeLoginRequired, err.Error())
	case errors.Is(err, reportsvc.ErrUnauthorized):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, reportsvc.ErrForbidden):
		return response.Fail(c, fiber.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, reportsvc.ErrNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, reportsvc.ErrAlreadyAnswered):
		return response.Fail(c, fiber.StatusConflict, response.CodeAlreadyAnswered, err.Error())
	case errors.Is(err, reportsvc.ErrAnsweredLocked):
		return response.Fail(c, fiber.StatusConflict, response.CodeAnswerLocked, err.Error())
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("reports: request failed")
	return response.Fail(c, fiber.StatusInternalServerError, response.CodeInternal, "Internal Server Error")
}

func reportID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
