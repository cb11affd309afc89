package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// ComplaintService coordinates the complaint lifecycle. Every method consults
// auth.Authorize exactly once before touching the store.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Clock         func() time.Time
}

// ComplaintInput carries the user-editable complaint fields. Owner and lifecycle fields
// are never taken from input.
type ComplaintInput struct {
	Title       string
	Description string
}

// ComplaintListFilter describes admin listing filters.
type ComplaintListFilter struct {
	Statuses []domain.ComplaintStatus
	Limit    int
	Offset   int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// Create files a new pending complaint owned by the caller.
func (s *ComplaintService) Create(ctx context.Context, caller *auth.Caller, input ComplaintInput) (*domain.Complaint, error) {
	if err := auth.Authorize(caller, auth.OpCreateOwn, "", s.now()).Err(); err != nil {
		return nil, err
	}
	title, description, err := normalizeContent(input.Title, input.Description)
	if err != nil {
		return nil, err
	}

	complaint := &domain.Complaint{
		Title:       title,
		Description: description,
		Status:      domain.ComplaintStatusPending,
		CreatedBy:   caller.ID,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, caller, complaint, events.EventComplaintCreated, events.ComplaintCreatedPayload{Title: complaint.Title})
	return complaint, nil
}

// ListOwn returns the caller's complaints, newest first.
func (s *ComplaintService) ListOwn(ctx context.Context, caller *auth.Caller) ([]domain.Complaint, error) {
	if err := auth.Authorize(caller, auth.OpReadOwn, callerID(caller), s.now()).Err(); err != nil {
		return nil, err
	}
	return s.complaints.ListByOwner(ctx, caller.ID)
}

// GetOwn returns one of the caller's complaints.
func (s *ComplaintService) GetOwn(ctx context.Context, caller *auth.Caller, id string) (*domain.Complaint, error) {
	return s.loadOwned(ctx, caller, id, auth.OpReadOwn)
}

// EditFields replaces title and description of the caller's complaint. Lifecycle fields
// and ownership are never written by this path.
func (s *ComplaintService) EditFields(ctx context.Context, caller *auth.Caller, id string, input ComplaintInput) (*domain.Complaint, error) {
	complaint, err := s.loadOwned(ctx, caller, id, auth.OpUpdateOwnFields)
	if err != nil {
		return nil, err
	}
	title, description, err := normalizeContent(input.Title, input.Description)
	if err != nil {
		return nil, err
	}

	updated, err := s.complaints.UpdateFields(ctx, complaint.ID, title, description)
	if err != nil {
		return nil, notFoundAs(err)
	}
	s.publishEvent(ctx, caller, updated, events.EventComplaintUpdated, nil)
	return updated, nil
}

// Delete permanently removes the caller's complaint. Deleting again yields NOT_FOUND.
func (s *ComplaintService) Delete(ctx context.Context, caller *auth.Caller, id string) error {
	complaint, err := s.loadOwned(ctx, caller, id, auth.OpDeleteOwn)
	if err != nil {
		return err
	}
	if err := s.complaints.Delete(ctx, complaint.ID); err != nil {
		return notFoundAs(err)
	}
	s.publishEvent(ctx, caller, complaint, events.EventComplaintDeleted, nil)
	return nil
}

// ListAll returns every complaint with its owner's name and email. Admin only.
func (s *ComplaintService) ListAll(ctx context.Context, caller *auth.Caller, filter ComplaintListFilter) ([]domain.ComplaintWithOwner, error) {
	if err := auth.Authorize(caller, auth.OpReadAll, "", s.now()).Err(); err != nil {
		return nil, err
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": status})
		}
	}
	return s.complaints.ListAll(ctx, repository.ComplaintFilter{
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// Stats counts complaints per status. Admin only.
func (s *ComplaintService) Stats(ctx context.Context, caller *auth.Caller) (map[domain.ComplaintStatus]int, error) {
	if err := auth.Authorize(caller, auth.OpReadAll, "", s.now()).Err(); err != nil {
		return nil, err
	}
	return s.complaints.CountByStatus(ctx)
}

// UpdateStatus moves a complaint to status. Resolving stores reply and the resolution time;
// the three lifecycle columns are written in one statement, so a rejected update leaves
// the complaint untouched. Admin only.
func (s *ComplaintService) UpdateStatus(ctx context.Context, caller *auth.Caller, id string, status domain.ComplaintStatus, reply string) (*domain.Complaint, error) {
	now := s.now()
	if err := auth.Authorize(caller, auth.OpUpdateStatus, "", now).Err(); err != nil {
		return nil, err
	}
	change, err := PlanStatusUpdate(status, reply, now)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, complaintNotFound(id)
	}
	current, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err)
	}

	updated, err := s.complaints.UpdateStatus(ctx, id, change)
	if err != nil {
		return nil, notFoundAs(err)
	}
	observability.ObserveStatusTransition(string(updated.Status))
	s.publishEvent(ctx, caller, updated, events.EventComplaintStatusChanged, events.ComplaintStatusChangedPayload{
		OldStatus:  current.Status,
		NewStatus:  updated.Status,
		AdminReply: updated.AdminReply,
	})
	return updated, nil
}

// loadOwned authenticates, fetches the complaint, then checks ownership for op.
// Unauthenticated callers get 401 before any lookup happens.
func (s *ComplaintService) loadOwned(ctx context.Context, caller *auth.Caller, id string, op auth.Operation) (*domain.Complaint, error) {
	now := s.now()
	if !auth.Authenticated(caller, now) {
		return nil, auth.Authorize(caller, op, "", now).Err()
	}
	if !validID(id) {
		return nil, complaintNotFound(id)
	}
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err)
	}
	if err := auth.Authorize(caller, op, complaint.CreatedBy, now).Err(); err != nil {
		return nil, err
	}
	return complaint, nil
}

func (s *ComplaintService) publishEvent(ctx context.Context, caller *auth.Caller, complaint *domain.Complaint, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		ComplaintID: complaint.ID,
		OwnerID:     complaint.CreatedBy,
		Actor:       events.Actor{UserID: caller.ID, Role: caller.Role},
		Timestamp:   s.now(),
		Payload:     payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(eventType)),
			zap.String("complaint_id", complaint.ID),
			zap.Error(err))
	}
}

func callerID(caller *auth.Caller) string {
	if caller == nil {
		return ""
	}
	return caller.ID
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func complaintNotFound(id string) error {
	return apperrors.NewNotFound("complaint", map[string]any{"id": id})
}

func notFoundAs(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("complaint", nil)
	}
	return err
}
