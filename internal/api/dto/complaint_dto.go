package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// ComplaintRequest payload for creating or editing a complaint. Any owner or status
// fields a client sends are ignored.
type ComplaintRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateStatusRequest payload for the admin status endpoint.
type UpdateStatusRequest struct {
	Status     domain.ComplaintStatus `json:"status"`
	AdminReply string                 `json:"adminReply"`
}

// ComplaintResponse is the complaint shape returned to owners.
type ComplaintResponse struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      domain.ComplaintStatus `json:"status"`
	AdminReply  string                 `json:"adminReply"`
	ResolvedAt  *time.Time             `json:"resolvedAt"`
	CreatedBy   string                 `json:"createdBy"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// ComplaintOwner identifies the complaint author in admin listings.
type ComplaintOwner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AdminComplaintResponse embeds the owner's name and email.
type AdminComplaintResponse struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Status      domain.ComplaintStatus `json:"status"`
	AdminReply  string                 `json:"adminReply"`
	ResolvedAt  *time.Time             `json:"resolvedAt"`
	CreatedBy   ComplaintOwner         `json:"createdBy"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// ComplaintStatsResponse counts complaints per status.
type ComplaintStatsResponse struct {
	Total    int                            `json:"total"`
	ByStatus map[domain.ComplaintStatus]int `json:"byStatus"`
}

// NewComplaintResponse maps a domain complaint.
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	return ComplaintResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		AdminReply:  c.AdminReply,
		ResolvedAt:  c.ResolvedAt,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// NewAdminComplaintResponse maps a complaint joined with its owner.
func NewAdminComplaintResponse(c *domain.ComplaintWithOwner) AdminComplaintResponse {
	return AdminComplaintResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		AdminReply:  c.AdminReply,
		ResolvedAt:  c.ResolvedAt,
		CreatedBy: ComplaintOwner{
			ID:    c.CreatedBy,
			Name:  c.OwnerName,
			Email: c.OwnerEmail,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
