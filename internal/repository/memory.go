package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// MemoryStore keeps users and complaints in process memory. It backs local runs without
// POSTGRES_DSN and the test suites, and mirrors the Postgres repositories' error contract.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	complaints map[string]domain.Complaint
	seq        map[string]int
	next       int
	now        func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]domain.User),
		complaints: make(map[string]domain.Complaint),
		seq:        make(map[string]int),
		now:        time.Now,
	}
}

// Users exposes the store as a UserRepository.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Complaints exposes the store as a ComplaintRepository.
func (s *MemoryStore) Complaints() ComplaintRepository { return memoryComplaints{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = m.s.now()
	user.UpdatedAt = user.CreatedAt
	m.s.users[user.ID] = *user
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	user, ok := m.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, user := range m.s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryComplaints struct{ s *MemoryStore }

func (m memoryComplaints) Create(_ context.Context, complaint *domain.Complaint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	complaint.ID = uuid.NewString()
	complaint.CreatedAt = m.s.now()
	complaint.UpdatedAt = complaint.CreatedAt
	m.s.complaints[complaint.ID] = *complaint
	m.s.next++
	m.s.seq[complaint.ID] = m.s.next
	return nil
}

func (m memoryComplaints) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	complaint, ok := m.s.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &complaint, nil
}

func (m memoryComplaints) ListByOwner(_ context.Context, ownerID string) ([]domain.Complaint, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	result := []domain.Complaint{}
	for _, complaint := range m.s.newestFirst() {
		if complaint.CreatedBy == ownerID {
			result = append(result, complaint)
		}
	}
	return result, nil
}

func (m memoryComplaints) ListAll(_ context.Context, filter ComplaintFilter) ([]domain.ComplaintWithOwner, error) {
	filter = filter.normalized()
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	wanted := make(map[domain.ComplaintStatus]bool, len(filter.Statuses))
	for _, status := range filter.Statuses {
		wanted[status] = true
	}

	matched := []domain.ComplaintWithOwner{}
	for _, complaint := range m.s.newestFirst() {
		if len(wanted) > 0 && !wanted[complaint.Status] {
			continue
		}
		item := domain.ComplaintWithOwner{Complaint: complaint}
		if owner, ok := m.s.users[complaint.CreatedBy]; ok {
			item.OwnerName = owner.Name
			item.OwnerEmail = owner.Email
		}
		matched = append(matched, item)
	}

	if filter.Offset >= len(matched) {
		return []domain.ComplaintWithOwner{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func (m memoryComplaints) CountByStatus(_ context.Context) (map[domain.ComplaintStatus]int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	counts := make(map[domain.ComplaintStatus]int, len(domain.ComplaintStatuses))
	for _, status := range domain.ComplaintStatuses {
		counts[status] = 0
	}
	for _, complaint := range m.s.complaints {
		counts[complaint.Status]++
	}
	return counts, nil
}

func (m memoryComplaints) UpdateStatus(_ context.Context, id string, change domain.StatusChange) (*domain.Complaint, error) {
	return m.s.update(id, func(c *domain.Complaint) {
		c.Status = change.Status
		c.AdminReply = change.AdminReply
		c.ResolvedAt = change.ResolvedAt
	})
}

func (m memoryComplaints) UpdateFields(_ context.Context, id, title, description string) (*domain.Complaint, error) {
	return m.s.update(id, func(c *domain.Complaint) {
		c.Title = title
		c.Description = description
	})
}

func (m memoryComplaints) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.complaints[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.s.complaints, id)
	delete(m.s.seq, id)
	return nil
}

func (s *MemoryStore) update(id string, apply func(*domain.Complaint)) (*domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	complaint, ok := s.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	apply(&complaint)
	complaint.UpdatedAt = s.now()
	s.complaints[id] = complaint
	return &complaint, nil
}

// newestFirst must be called with the lock held.
func (s *MemoryStore) newestFirst() []domain.Complaint {
	list := make([]domain.Complaint, 0, len(s.complaints))
	for _, complaint := range s.complaints {
		list = append(list, complaint)
	}
	sort.Slice(list, func(i, j int) bool {
		return s.seq[list[i].ID] > s.seq[list[j].ID]
	})
	return list
}
