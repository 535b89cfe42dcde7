package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util/errorutil"
)

// SLAHandler exposes the engine's operations over HTTP. The handlers only
// adapt JSON to engine calls; all SLA semantics live below.
type SLAHandler struct {
	slas *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{slas: slaService}
}

// Assign POST /tickets/:id/sla/assign.
func (h *SLAHandler) Assign(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	tracker, err := h.slas.AssignToTicketID(c.UserContext(), ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return err
	}
	if tracker == nil {
		return c.Status(fiber.StatusNoContent).Send(nil)
	}
	resp := dto.TrackerResponse{
		TicketID:           tracker.TicketID,
		PolicyID:           tracker.Policy.PolicyID,
		FirstResponseDueAt: tracker.FirstResponseDueAt,
		NextResponseDueAt:  tracker.NextResponseDueAt,
		ResolutionDueAt:    tracker.ResolutionDueAt,
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": resp})
}

// Status GET /tickets/:id/sla/status.
func (h *SLAHandler) Status(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	report, err := h.slas.Status(c.UserContext(), ticketID, time.Now())
	if err != nil {
		return err
	}
	resp := dto.SLAStatusResponse{
		TicketID:                      ticketID,
		Frozen:                        report.Frozen,
		FirstResponseBreached:         report.FirstResponseBreached,
		ResolutionBreached:            report.ResolutionBreached,
		FirstResponseRemainingMinutes: report.FirstResponseRemainingMinutes,
		ResolutionRemainingMinutes:    report.ResolutionRemainingMinutes,
		FirstResponsePercentage:       report.FirstResponsePercentage,
		ResolutionPercentage:          report.ResolutionPercentage,
	}
	return c.JSON(fiber.Map{"data": resp})
}

// StatusChange POST /tickets/:id/sla/events/status-change.
func (h *SLAHandler) StatusChange(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.NewStatus == "" {
		return apperrors.NewValidationError("new_status required", nil)
	}
	if err := h.slas.HandleStatusChange(c.UserContext(), c.Params("id"), req.OldStatus, req.NewStatus, eventTime(req.At)); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).Send(nil)
}

// FirstResponse POST /tickets/:id/sla/events/first-response.
func (h *SLAHandler) FirstResponse(c *fiber.Ctx) error {
	var req dto.LifecycleEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.slas.RecordFirstResponse(c.UserContext(), c.Params("id"), eventTime(req.At)); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).Send(nil)
}

// Resolution POST /tickets/:id/sla/events/resolution.
func (h *SLAHandler) Resolution(c *fiber.Ctx) error {
	var req dto.LifecycleEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.slas.RecordResolution(c.UserContext(), c.Params("id"), eventTime(req.At)); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).Send(nil)
}

// CustomerReply POST /tickets/:id/sla/events/customer-reply.
func (h *SLAHandler) CustomerReply(c *fiber.Ctx) error {
	var req dto.LifecycleEventRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.slas.HandleCustomerReply(c.UserContext(), c.Params("id"), eventTime(req.At)); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).Send(nil)
}

// PriorityChange POST /tickets/:id/sla/events/priority-change.
func (h *SLAHandler) PriorityChange(c *fiber.Ctx) error {
	if err := h.slas.HandlePriorityChange(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).Send(nil)
}

func eventTime(at *time.Time) time.Time {
	if at != nil {
		return at.UTC()
	}
	return time.Now().UTC()
}
