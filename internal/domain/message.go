package domain

import "time"

// Message is a comment in a ticket thread.
type Message struct {
	ID        ID
	TicketID  ID
	CreatedBy ID
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attachment stores metadata for an uploaded ticket file.
type Attachment struct {
	ID            ID
	TicketID      ID
	UploadedBy    ID
	FileName      string
	StorageKey    string
	FileExtension string
	MimeType      string
	SizeBytes     int64
	CreatedAt     time.Time
}
