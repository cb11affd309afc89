package handlers

import (
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminComplaintsHandler exposes the administrator's complaint endpoints.
type AdminComplaintsHandler struct {
	service *service.ComplaintService
}

// NewAdminComplaintsHandler constructs handler.
func NewAdminComplaintsHandler(complaintService *service.ComplaintService) *AdminComplaintsHandler {
	return &AdminComplaintsHandler{service: complaintService}
}

// List GET /admin/complaints.
func (h *AdminComplaintsHandler) List(c *fiber.Ctx) error {
	filter := parseComplaintQuery(c)
	complaints, err := h.service.ListAll(c.UserContext(), auth.CallerFromContext(c), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AdminComplaintResponse, 0, len(complaints))
	for i := range complaints {
		items = append(items, dto.NewAdminComplaintResponse(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Stats GET /admin/complaints/stats.
func (h *AdminComplaintsHandler) Stats(c *fiber.Ctx) error {
	counts, err := h.service.Stats(c.UserContext(), auth.CallerFromContext(c))
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return c.JSON(fiber.Map{"data": dto.ComplaintStatsResponse{Total: total, ByStatus: counts}})
}

// UpdateStatus PUT /admin/complaints/:id.
func (h *AdminComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.service.UpdateStatus(c.UserContext(), auth.CallerFromContext(c), c.Params("id"), req.Status, req.AdminReply)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewComplaintResponse(complaint)})
}

func parseComplaintQuery(c *fiber.Ctx) service.ComplaintListFilter {
	filter := service.ComplaintListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(part))
			}
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	filter.Limit = pageSize
	filter.Offset = pageOffset(page, pageSize)
	return filter
}

// pageOffset saturates instead of overflowing, so an absurd page yields an empty result.
func pageOffset(page, pageSize int) int {
	if page-1 > math.MaxInt32/pageSize {
		return math.MaxInt32
	}
	return (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
