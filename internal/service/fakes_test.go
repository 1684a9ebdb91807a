package service

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// memTicketStore is a compare-and-swap ticket store backed by a map.
type memTicketStore struct {
	mu      sync.Mutex
	tickets map[domain.ID]domain.Ticket
	// beforeWrite runs between the read and the swap to simulate a concurrent writer.
	beforeWrite func(store *memTicketStore)
}

func newMemTicketStore(tickets ...domain.Ticket) *memTicketStore {
	store := &memTicketStore{tickets: map[domain.ID]domain.Ticket{}}
	for _, t := range tickets {
		store.tickets[t.ID] = t
	}
	return store
}

func (s *memTicketStore) GetByID(_ context.Context, id domain.ID) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	t.AssignedUsers = append([]domain.ID{}, t.AssignedUsers...)
	return &t, nil
}

func (s *memTicketStore) SaveStatus(_ context.Context, id domain.ID, expected, next domain.TicketStatus) (*domain.Ticket, error) {
	if hook := s.beforeWrite; hook != nil {
		s.beforeWrite = nil
		hook(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if t.Status != expected {
		return nil, repository.ErrStaleWrite
	}
	t.Status = next
	s.tickets[id] = t
	return &t, nil
}

func (s *memTicketStore) SaveAssignees(_ context.Context, id domain.ID, expected, next []domain.ID) (*domain.Ticket, error) {
	if hook := s.beforeWrite; hook != nil {
		s.beforeWrite = nil
		hook(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if !sameSet(t.AssignedUsers, expected) {
		return nil, repository.ErrStaleWrite
	}
	t.AssignedUsers = append([]domain.ID{}, next...)
	s.tickets[id] = t
	return &t, nil
}

func (s *memTicketStore) get(id domain.ID) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets[id]
}

func sameSet(a, b []domain.ID) bool {
	sa, sb := domain.NewIDSet(a...), domain.NewIDSet(b...)
	if len(sa) != len(sb) {
		return false
	}
	for id := range sa {
		if !sb.Has(id) {
			return false
		}
	}
	return true
}

// memDirectory answers membership from a mutable map and counts lookups.
type memDirectory struct {
	mu      sync.Mutex
	members map[domain.ID][]domain.ID
	lookups int
}

func (d *memDirectory) MembersOfDepartment(_ context.Context, deptID domain.ID) ([]domain.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	return append([]domain.ID{}, d.members[deptID]...), nil
}

func (d *memDirectory) set(deptID domain.ID, ids ...domain.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[deptID] = ids
}

type memHistory struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
	failing bool
}

func (h *memHistory) Create(_ context.Context, entry *domain.TicketHistory) error {
	if h.failing {
		return errors.New("history unavailable")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *memHistory) ListByTicket(_ context.Context, ticketID domain.ID, _, _ int) ([]domain.TicketHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []domain.TicketHistory
	for _, e := range h.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}
