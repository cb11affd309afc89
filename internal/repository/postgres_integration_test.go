package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/persistence"
)

// Set GRIEVANCE_TEST_POSTGRES_DSN to a disposable database to run these tests. Both tables
// are truncated.
const testDSNEnv = "GRIEVANCE_TEST_POSTGRES_DSN"

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 4}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pg.Pool, "../../migrations", zap.NewNop()))
	_, err = pg.Pool.Exec(ctx, `TRUNCATE complaints, users`)
	require.NoError(t, err)
	return pg.Pool
}

func TestPostgresUsers(t *testing.T) {
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	ctx := context.Background()

	user := &domain.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "hash", Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	dup := &domain.User{Name: "Other", Email: "asha@example.com", PasswordHash: "hash", Role: domain.RoleUser}
	assert.ErrorIs(t, users.Create(ctx, dup), ErrDuplicateEmail)

	byEmail, err := users.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, byID.Role)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestPostgresComplaints(t *testing.T) {
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	complaints := NewComplaintRepository(pool)
	ctx := context.Background()

	owner := &domain.User{Name: "Asha", Email: "asha@example.com", PasswordHash: "hash", Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, owner))

	first := &domain.Complaint{Title: "Wifi down", Description: "Block C", Status: domain.ComplaintStatusPending, CreatedBy: owner.ID}
	require.NoError(t, complaints.Create(ctx, first))
	second := &domain.Complaint{Title: "Mess food", Description: "Cold", Status: domain.ComplaintStatusPending, CreatedBy: owner.ID}
	require.NoError(t, complaints.Create(ctx, second))

	resolvedAt := time.Now().UTC().Truncate(time.Microsecond)
	resolved, err := complaints.UpdateStatus(ctx, first.ID, domain.StatusChange{
		Status:     domain.ComplaintStatusResolved,
		AdminReply: "Router replaced",
		ResolvedAt: &resolvedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusResolved, resolved.Status)
	assert.Equal(t, "Router replaced", resolved.AdminReply)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, resolvedAt.Equal(*resolved.ResolvedAt))

	// A resolved row without a reply violates the table constraint and changes nothing.
	_, err = complaints.UpdateStatus(ctx, first.ID, domain.StatusChange{Status: domain.ComplaintStatusResolved})
	assert.Error(t, err)
	stored, err := complaints.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Router replaced", stored.AdminReply)

	edited, err := complaints.UpdateFields(ctx, second.ID, "Mess food again", "Still cold")
	require.NoError(t, err)
	assert.Equal(t, "Mess food again", edited.Title)
	assert.Equal(t, domain.ComplaintStatusPending, edited.Status)

	filtered, err := complaints.ListAll(ctx, ComplaintFilter{Statuses: []domain.ComplaintStatus{
		domain.ComplaintStatusResolved, domain.ComplaintStatusInProgress,
	}})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)
	assert.Equal(t, "Asha", filtered[0].OwnerName)
	assert.Equal(t, "asha@example.com", filtered[0].OwnerEmail)

	page, err := complaints.ListAll(ctx, ComplaintFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	own, err := complaints.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	counts, err := complaints.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.ComplaintStatus]int{
		domain.ComplaintStatusPending:    1,
		domain.ComplaintStatusInProgress: 0,
		domain.ComplaintStatusResolved:   1,
	}, counts)

	require.NoError(t, complaints.Delete(ctx, second.ID))
	assert.ErrorIs(t, complaints.Delete(ctx, second.ID), pgx.ErrNoRows)
	_, err = complaints.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = complaints.UpdateFields(ctx, second.ID, "x", "y")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
