package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
)

func (s *memTicketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID.IsZero() {
		ticket.ID = domain.NewID()
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *memTicketStore) UpdateDetails(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cur.Title, cur.Description, cur.Priority, cur.CategoryID = ticket.Title, ticket.Description, ticket.Priority, ticket.CategoryID
	s.tickets[ticket.ID] = cur
	return nil
}

func (s *memTicketStore) Delete(_ context.Context, id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.tickets, id)
	return nil
}

func (s *memTicketStore) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Ticket
	for _, t := range s.tickets {
		if filter.AssigneeID != nil && !t.IsAssigned(*filter.AssigneeID) {
			continue
		}
		if filter.CreatedBy != nil && t.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[domain.ID]domain.User
}

func newMemUsers(users ...domain.User) *memUsers {
	m := &memUsers{users: map[domain.ID]domain.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = domain.NewID()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) Delete(_ context.Context, id domain.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id domain.ID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == strings.TrimSpace(username) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) FindByIdentity(_ context.Context, username, email string, phoneExt int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if u.Username == username || strings.EqualFold(u.Email, email) || u.PhoneExt == phoneExt {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) List(_ context.Context, _, _ int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memUsers) ListByDepartment(_ context.Context, deptID domain.ID, activeOnly bool) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if u.DepartmentID == nil || *u.DepartmentID != deptID {
			continue
		}
		if activeOnly && !u.Active {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memUsers) MembersOfDepartment(ctx context.Context, deptID domain.ID) ([]domain.ID, error) {
	users, err := m.ListByDepartment(ctx, deptID, false)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.ID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

func (m *memUsers) SetActive(_ context.Context, id domain.ID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Active = active
	m.users[id] = u
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id domain.ID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memUsers) get(id domain.ID) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

type memDepartments struct {
	depts map[domain.ID]domain.Department
}

func newMemDepartments(depts ...domain.Department) *memDepartments {
	m := &memDepartments{depts: map[domain.ID]domain.Department{}}
	for _, d := range depts {
		m.depts[d.ID] = d
	}
	return m
}

func (m *memDepartments) Create(_ context.Context, dept *domain.Department) error {
	if dept.ID.IsZero() {
		dept.ID = domain.NewID()
	}
	m.depts[dept.ID] = *dept
	return nil
}

func (m *memDepartments) Update(_ context.Context, dept *domain.Department) error {
	if _, ok := m.depts[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.depts[dept.ID] = *dept
	return nil
}

func (m *memDepartments) Delete(_ context.Context, id domain.ID) error {
	if _, ok := m.depts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.depts, id)
	return nil
}

func (m *memDepartments) GetByID(_ context.Context, id domain.ID) (*domain.Department, error) {
	d, ok := m.depts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &d, nil
}

func (m *memDepartments) GetByName(_ context.Context, name string) (*domain.Department, error) {
	for _, d := range m.depts {
		if strings.EqualFold(d.Name, name) {
			return &d, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memDepartments) List(_ context.Context) ([]domain.Department, error) {
	out := make([]domain.Department, 0, len(m.depts))
	for _, d := range m.depts {
		out = append(out, d)
	}
	return out, nil
}

type memCategories struct {
	cats map[domain.ID]domain.Category
}

func newMemCategories(cats ...domain.Category) *memCategories {
	m := &memCategories{cats: map[domain.ID]domain.Category{}}
	for _, c := range cats {
		m.cats[c.ID] = c
	}
	return m
}

func (m *memCategories) Create(_ context.Context, cat *domain.Category) error {
	if cat.ID.IsZero() {
		cat.ID = domain.NewID()
	}
	m.cats[cat.ID] = *cat
	return nil
}

func (m *memCategories) Update(_ context.Context, cat *domain.Category) error {
	if _, ok := m.cats[cat.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.cats[cat.ID] = *cat
	return nil
}

func (m *memCategories) Delete(_ context.Context, id domain.ID) error {
	if _, ok := m.cats[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.cats, id)
	return nil
}

func (m *memCategories) GetByID(_ context.Context, id domain.ID) (*domain.Category, error) {
	c, ok := m.cats[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (m *memCategories) List(_ context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(m.cats))
	for _, c := range m.cats {
		out = append(out, c)
	}
	return out, nil
}

type memMessages struct {
	msgs map[domain.ID]domain.Message
}

func newMemMessages() *memMessages {
	return &memMessages{msgs: map[domain.ID]domain.Message{}}
}

func (m *memMessages) Create(_ context.Context, msg *domain.Message) error {
	if msg.ID.IsZero() {
		msg.ID = domain.NewID()
	}
	m.msgs[msg.ID] = *msg
	return nil
}

func (m *memMessages) UpdateBody(_ context.Context, msg *domain.Message) error {
	cur, ok := m.msgs[msg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cur.Body = msg.Body
	m.msgs[msg.ID] = cur
	return nil
}

func (m *memMessages) Delete(_ context.Context, id domain.ID) error {
	if _, ok := m.msgs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.msgs, id)
	return nil
}

func (m *memMessages) GetByID(_ context.Context, id domain.ID) (*domain.Message, error) {
	msg, ok := m.msgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &msg, nil
}

func (m *memMessages) ListByTicket(_ context.Context, ticketID domain.ID) ([]domain.Message, error) {
	var out []domain.Message
	for _, msg := range m.msgs {
		if msg.TicketID == ticketID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type memAttachments struct {
	items     map[domain.ID]domain.Attachment
	createErr error
}

func newMemAttachments() *memAttachments {
	return &memAttachments{items: map[domain.ID]domain.Attachment{}}
}

func (m *memAttachments) Create(_ context.Context, a *domain.Attachment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if a.ID.IsZero() {
		a.ID = domain.NewID()
	}
	m.items[a.ID] = *a
	return nil
}

func (m *memAttachments) UpdateMetadata(_ context.Context, a *domain.Attachment) error {
	if _, ok := m.items[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.items[a.ID] = *a
	return nil
}

func (m *memAttachments) Delete(_ context.Context, id domain.ID) error {
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memAttachments) GetByID(_ context.Context, id domain.ID) (*domain.Attachment, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (m *memAttachments) ListByTicket(_ context.Context, ticketID domain.ID) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, a := range m.items {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordingMailer struct {
	mu       sync.Mutex
	sent     []notify.Mail
	sendErr  error
	probe    []notify.ProbeResult
	probeErr error
	status   notify.Status
	ctxErrs  []error
}

func (m *recordingMailer) Send(ctx context.Context, mail notify.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	return m.sendErr
}

func (m *recordingMailer) Status() notify.Status {
	return m.status
}

func (m *recordingMailer) Probe(context.Context) ([]notify.ProbeResult, error) {
	return m.probe, m.probeErr
}

var (
	_ repository.TicketRepository        = (*memTicketStore)(nil)
	_ repository.UserRepository          = (*memUsers)(nil)
	_ repository.DepartmentRepository    = (*memDepartments)(nil)
	_ repository.CategoryRepository      = (*memCategories)(nil)
	_ repository.TicketMessageRepository = (*memMessages)(nil)
	_ repository.AttachmentRepository    = (*memAttachments)(nil)
	_ notify.Mailer                      = (*recordingMailer)(nil)
)
