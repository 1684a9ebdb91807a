package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var (
	routeTicket    = domain.ID("6b0e9c8e-1f43-4c55-8f0d-2a6f4e1b0001")
	routeDept      = domain.ID("6b0e9c8e-1f43-4c55-8f0d-2a6f4e1b0002")
	routeCreator   = domain.ID("6b0e9c8e-1f43-4c55-8f0d-2a6f4e1b0003")
	routeAssignee  = domain.ID("6b0e9c8e-1f43-4c55-8f0d-2a6f4e1b0004")
	routeColleague = domain.ID("6b0e9c8e-1f43-4c55-8f0d-2a6f4e1b0005")
)

type routeTicketStore struct {
	mu     sync.Mutex
	ticket domain.Ticket
	stale  bool
}

func (s *routeTicketStore) GetByID(_ context.Context, id domain.ID) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.ticket.ID {
		return nil, pgx.ErrNoRows
	}
	t := s.ticket
	t.AssignedUsers = append([]domain.ID{}, s.ticket.AssignedUsers...)
	return &t, nil
}

func (s *routeTicketStore) SaveStatus(_ context.Context, _ domain.ID, _, next domain.TicketStatus) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return nil, repository.ErrStaleWrite
	}
	s.ticket.Status = next
	t := s.ticket
	return &t, nil
}

func (s *routeTicketStore) SaveAssignees(_ context.Context, _ domain.ID, _, next []domain.ID) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return nil, repository.ErrStaleWrite
	}
	s.ticket.AssignedUsers = append([]domain.ID{}, next...)
	t := s.ticket
	return &t, nil
}

type routeDirectory map[domain.ID][]domain.ID

func (d routeDirectory) MembersOfDepartment(_ context.Context, deptID domain.ID) ([]domain.ID, error) {
	return d[deptID], nil
}

type routeUsers map[domain.ID]*domain.User

func (u routeUsers) GetByID(_ context.Context, id domain.ID) (*domain.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

type lifecycleApp struct {
	app    *fiber.App
	store  *routeTicketStore
	tokens *auth.TokenManager
}

func newLifecycleApp(t *testing.T) *lifecycleApp {
	t.Helper()
	dept := routeDept
	store := &routeTicketStore{ticket: domain.Ticket{
		ID:            routeTicket,
		Title:         "Printer offline",
		Status:        domain.TicketStatusOpen,
		Priority:      domain.TicketPriorityMedium,
		CreatedBy:     routeCreator,
		DepartmentID:  &dept,
		AssignedUsers: []domain.ID{routeAssignee},
	}}
	users := routeUsers{
		routeCreator:   {ID: routeCreator, Username: "creator", Active: true, Role: domain.RoleCollaborator},
		routeAssignee:  {ID: routeAssignee, Username: "assignee", Active: true, Role: domain.RoleCollaborator, DepartmentID: &dept},
		routeColleague: {ID: routeColleague, Username: "colleague", Active: true, Role: domain.RoleCollaborator, DepartmentID: &dept},
	}
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		TicketStore: store,
		Members:     routeDirectory{routeDept: {routeAssignee, routeColleague}},
	})
	tokens := auth.NewTokenManager("route-secret", 5)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	RegisterRoutes(app, RouteConfig{
		Tickets:        handlers.NewTicketsHandler(nil, lifecycle),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, users),
	})
	return &lifecycleApp{app: app, store: store, tokens: tokens}
}

func (a *lifecycleApp) call(t *testing.T, as domain.ID, method, path, body string) (int, map[string]any) {
	t.Helper()
	token, _, err := a.tokens.GenerateToken(&domain.User{ID: as})
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestLifecycleRoutes(t *testing.T) {
	statusPath := "/tickets/" + routeTicket.String() + "/status"
	assignPath := "/tickets/" + routeTicket.String() + "/assign"
	unassignPath := "/tickets/" + routeTicket.String() + "/unassign"
	shoutedColleague := strings.ToUpper(routeColleague.String())

	cases := []struct {
		name   string
		stale  bool
		as     domain.ID
		method string
		path   string
		body   string
		status int
		code   string
		check  func(t *testing.T, data map[string]any)
	}{
		{
			name: "status is required", as: routeCreator,
			method: http.MethodPut, path: statusPath, body: `{}`,
			status: http.StatusBadRequest, code: apperrors.CodeValidation,
		},
		{
			name: "creator puts ticket on hold", as: routeCreator,
			method: http.MethodPut, path: statusPath, body: `{"status":3}`,
			status: http.StatusOK,
			check: func(t *testing.T, data map[string]any) {
				assert.Equal(t, float64(1), data["previous_status"])
				assert.Equal(t, float64(3), data["status"])
				assert.Equal(t, "on_hold", data["status_name"])
			},
		},
		{
			name: "upper-case ticket path resolves", as: routeCreator,
			method: http.MethodPut, path: "/tickets/" + strings.ToUpper(routeTicket.String()) + "/status", body: `{"status":3}`,
			status: http.StatusOK,
		},
		{
			name: "malformed ticket path", as: routeCreator,
			method: http.MethodPut, path: "/tickets/not-an-id/status", body: `{"status":3}`,
			status: http.StatusBadRequest, code: apperrors.CodeValidation,
		},
		{
			name: "lost race is a retryable conflict", stale: true, as: routeCreator,
			method: http.MethodPut, path: statusPath, body: `{"status":0}`,
			status: http.StatusConflict, code: apperrors.CodeConflict,
		},
		{
			name: "assign accepts upper-case member ids", as: routeAssignee,
			method: http.MethodPost, path: assignPath, body: `{"user_ids":["` + shoutedColleague + `"]}`,
			status: http.StatusOK,
			check: func(t *testing.T, data map[string]any) {
				assert.Equal(t, float64(1), data["assigned_count"])
				ticket := data["ticket"].(map[string]any)
				assert.ElementsMatch(t, []any{routeAssignee.String(), routeColleague.String()}, ticket["assigned_users"])
			},
		},
		{
			name: "assign lists malformed ids", as: routeAssignee,
			method: http.MethodPost, path: assignPath, body: `{"user_ids":["nope"]}`,
			status: http.StatusBadRequest, code: apperrors.CodeInvalidAssignees,
		},
		{
			name: "unassign reports removed count", as: routeColleague,
			method: http.MethodPost, path: unassignPath, body: `{"user_ids":["` + routeAssignee.String() + `"]}`,
			status: http.StatusOK,
			check: func(t *testing.T, data map[string]any) {
				assert.Equal(t, float64(1), data["removed_count"])
				ticket := data["ticket"].(map[string]any)
				assert.Empty(t, ticket["assigned_users"])
			},
		},
		{
			name: "assign conflict", stale: true, as: routeAssignee,
			method: http.MethodPost, path: assignPath, body: `{"user_ids":["` + routeColleague.String() + `"]}`,
			status: http.StatusConflict, code: apperrors.CodeConflict,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newLifecycleApp(t)
			a.store.stale = tc.stale

			status, body := a.call(t, tc.as, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, status, "body: %v", body)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(body))
			}
			if tc.code == apperrors.CodeConflict {
				details := body["error"].(map[string]any)["details"].(map[string]any)
				assert.Equal(t, true, details["retryable"])
			}
			if tc.check != nil {
				tc.check(t, body["data"].(map[string]any))
			}
		})
	}
}
