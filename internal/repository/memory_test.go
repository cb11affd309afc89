package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/domain"
)

func seedUser(t *testing.T, store *MemoryStore, name, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email, Role: domain.RoleUser}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func seedComplaint(t *testing.T, store *MemoryStore, owner, title string, status domain.ComplaintStatus) *domain.Complaint {
	t.Helper()
	complaint := &domain.Complaint{Title: title, Description: "details", Status: status, CreatedBy: owner}
	require.NoError(t, store.Complaints().Create(context.Background(), complaint))
	return complaint
}

func TestMemoryUsers_UniqueEmail(t *testing.T) {
	store := NewMemoryStore()
	seedUser(t, store, "Ana", "ana@campus.edu")

	err := store.Users().Create(context.Background(), &domain.User{Name: "Other", Email: "ana@campus.edu"})

	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryUsers_Lookup(t *testing.T) {
	store := NewMemoryStore()
	ana := seedUser(t, store, "Ana", "ana@campus.edu")

	byEmail, err := store.Users().GetByEmail(context.Background(), "ana@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, byEmail.ID)

	_, err = store.Users().GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryComplaints_ListByOwnerNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	first := seedComplaint(t, store, "u1", "first", domain.ComplaintStatusPending)
	seedComplaint(t, store, "u2", "foreign", domain.ComplaintStatusPending)
	second := seedComplaint(t, store, "u1", "second", domain.ComplaintStatusPending)

	list, err := store.Complaints().ListByOwner(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestMemoryComplaints_ListAllFiltersAndJoinsOwner(t *testing.T) {
	store := NewMemoryStore()
	ana := seedUser(t, store, "Ana", "ana@campus.edu")
	seedComplaint(t, store, ana.ID, "wifi", domain.ComplaintStatusPending)
	seedComplaint(t, store, ana.ID, "heater", domain.ComplaintStatusInProgress)
	seedComplaint(t, store, ana.ID, "desk", domain.ComplaintStatusPending)

	pending, err := store.Complaints().ListAll(context.Background(), ComplaintFilter{
		Statuses: []domain.ComplaintStatus{domain.ComplaintStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "desk", pending[0].Title)
	assert.Equal(t, "Ana", pending[0].OwnerName)
	assert.Equal(t, "ana@campus.edu", pending[0].OwnerEmail)

	page, err := store.Complaints().ListAll(context.Background(), ComplaintFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "heater", page[0].Title)

	empty, err := store.Complaints().ListAll(context.Background(), ComplaintFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryComplaints_UpdateStatusWritesAllLifecycleColumns(t *testing.T) {
	store := NewMemoryStore()
	complaint := seedComplaint(t, store, "u1", "wifi", domain.ComplaintStatusPending)
	resolvedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	updated, err := store.Complaints().UpdateStatus(context.Background(), complaint.ID, domain.StatusChange{
		Status:     domain.ComplaintStatusResolved,
		AdminReply: "Fixed",
		ResolvedAt: &resolvedAt,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusResolved, updated.Status)
	assert.Equal(t, "Fixed", updated.AdminReply)
	assert.Equal(t, &resolvedAt, updated.ResolvedAt)
	assert.Equal(t, "wifi", updated.Title)

	_, err = store.Complaints().UpdateStatus(context.Background(), "missing", domain.StatusChange{})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryComplaints_DeleteAndCount(t *testing.T) {
	store := NewMemoryStore()
	complaint := seedComplaint(t, store, "u1", "wifi", domain.ComplaintStatusPending)
	seedComplaint(t, store, "u1", "heater", domain.ComplaintStatusResolved)

	counts, err := store.Complaints().CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[domain.ComplaintStatus]int{
		domain.ComplaintStatusPending:    1,
		domain.ComplaintStatusInProgress: 0,
		domain.ComplaintStatusResolved:   1,
	}, counts)

	require.NoError(t, store.Complaints().Delete(context.Background(), complaint.ID))
	assert.ErrorIs(t, store.Complaints().Delete(context.Background(), complaint.ID), pgx.ErrNoRows)
}
