package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Status       *int                   `json:"status"`
	Priority     *domain.TicketPriority `json:"priority"`
	DepartmentID *string                `json:"department_id"`
	CategoryID   *string                `json:"category_id"`
}

// UpdateTicketRequest payload; status and assignees have dedicated endpoints.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	CategoryID  *string                `json:"category_id"`
}

// ChangeStatusRequest accepts the numeric target code.
type ChangeStatusRequest struct {
	Status *int `json:"status"`
}

// AssigneesRequest is shared by assign and unassign.
type AssigneesRequest struct {
	UserIDs []string `json:"user_ids"`
}

// TicketResponse payload.
type TicketResponse struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Status        domain.TicketStatus   `json:"status"`
	StatusName    string                `json:"status_name"`
	Priority      domain.TicketPriority `json:"priority"`
	CategoryID    *string               `json:"category_id"`
	CreatedBy     string                `json:"created_by"`
	DepartmentID  *string               `json:"department_id"`
	AssignedUsers []string              `json:"assigned_users"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID.String(),
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		StatusName:    t.Status.String(),
		Priority:      t.Priority,
		CategoryID:    idPtrString(t.CategoryID),
		CreatedBy:     t.CreatedBy.String(),
		DepartmentID:  idPtrString(t.DepartmentID),
		AssignedUsers: idStrings(t.AssignedUsers),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketResponse
	Messages    []MessageResponse    `json:"messages"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// StatusChangeResponse reports a transition.
type StatusChangeResponse struct {
	PreviousStatus domain.TicketStatus `json:"previous_status"`
	Status         domain.TicketStatus `json:"status"`
	StatusName     string              `json:"status_name"`
	Ticket         TicketResponse      `json:"ticket"`
}

// MessageRequest payload.
type MessageRequest struct {
	Body string `json:"body"`
}

// MessageResponse represents a thread message.
type MessageResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	CreatedBy string    `json:"created_by"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID.String(),
		TicketID:  m.TicketID.String(),
		CreatedBy: m.CreatedBy.String(),
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func NewMessageList(msgs []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, NewMessageResponse(&msgs[i]))
	}
	return out
}

// AttachmentUpdateRequest payload. Omitted fields keep their value.
type AttachmentUpdateRequest struct {
	FileName *string `json:"file_name"`
	MimeType *string `json:"mime_type"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	UploadedBy    string    `json:"uploaded_by"`
	FileName      string    `json:"file_name"`
	FileExtension string    `json:"file_extension"`
	MimeType      string    `json:"mime_type"`
	SizeBytes     int64     `json:"size_bytes"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:            a.ID.String(),
		TicketID:      a.TicketID.String(),
		UploadedBy:    a.UploadedBy.String(),
		FileName:      a.FileName,
		FileExtension: a.FileExtension,
		MimeType:      a.MimeType,
		SizeBytes:     a.SizeBytes,
		URL:           "/attachments/" + a.ID.String() + "/download",
		CreatedAt:     a.CreatedAt,
	}
}

func NewAttachmentList(items []domain.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(items))
	for i := range items {
		out = append(out, NewAttachmentResponse(&items[i]))
	}
	return out
}

// HistoryResponse is one audit entry.
type HistoryResponse struct {
	ID          string         `json:"id"`
	ChangedByID string         `json:"changed_by_id"`
	ChangeType  string         `json:"change_type"`
	OldValue    map[string]any `json:"old_value"`
	NewValue    map[string]any `json:"new_value"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewHistoryList(entries []domain.TicketHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryResponse{
			ID:          e.ID.String(),
			ChangedByID: e.ChangedByID.String(),
			ChangeType:  string(e.ChangeType),
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}
