package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusInProgress ComplaintStatus = "in-progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

// ComplaintStatuses lists every status in lifecycle order.
var ComplaintStatuses = []ComplaintStatus{
	ComplaintStatusPending,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
}

// Valid reports whether s is one of the known statuses.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// Complaint is a grievance submitted by a user and tracked through resolution.
// AdminReply and ResolvedAt are only populated while Status is resolved.
type Complaint struct {
	ID          string
	Title       string
	Description string
	Status      ComplaintStatus
	AdminReply  string
	ResolvedAt  *time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComplaintWithOwner is a complaint joined with its owner's public profile.
type ComplaintWithOwner struct {
	Complaint
	OwnerName  string
	OwnerEmail string
}

// StatusChange is the full set of lifecycle columns written by a status update.
type StatusChange struct {
	Status     ComplaintStatus
	AdminReply string
	ResolvedAt *time.Time
}
