package service

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestMessages_AuthorOnlyEdits(t *testing.T) {
	store := newMemTicketStore(liveTicket(domain.TicketStatusInProgress))
	dispatcher := &recordingDispatcher{}
	svc := NewMessageService(MessageDependencies{MessageRepo: newMemMessages(), TicketRepo: store, Dispatcher: dispatcher})
	ctx := context.Background()

	msg, err := svc.AddMessage(ctx, assignee, ticketID, "  Looking into it  ")
	require.NoError(t, err)
	assert.Equal(t, "Looking into it", msg.Body)
	assert.Equal(t, []events.EventType{events.EventTicketMessageAdded}, dispatcher.types())

	_, err = svc.UpdateMessage(ctx, creator, msg.ID, "hijack")
	requireCode(t, err, apperrors.CodeForbidden)
	requireCode(t, svc.DeleteMessage(ctx, creator, msg.ID), apperrors.CodeForbidden)

	updated, err := svc.UpdateMessage(ctx, assignee, msg.ID, "Fixed the toner")
	require.NoError(t, err)
	assert.Equal(t, "Fixed the toner", updated.Body)

	require.NoError(t, svc.DeleteMessage(ctx, assignee, msg.ID))
	_, err = svc.GetMessage(ctx, msg.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	assert.Equal(t, domain.TicketStatusInProgress, store.get(ticketID).Status)
}

func TestMessages_Validation(t *testing.T) {
	svc := NewMessageService(MessageDependencies{MessageRepo: newMemMessages(), TicketRepo: newMemTicketStore()})
	_, err := svc.AddMessage(context.Background(), creator, ticketID, "hello")
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = svc.AddMessage(context.Background(), creator, ticketID, "   ")
	requireCode(t, err, apperrors.CodeValidation)
}

type attachmentFixture struct {
	svc   *AttachmentService
	repo  *memAttachments
	blobs *storage.LocalBlobStore
	dir   string
}

func newAttachmentFixture(t *testing.T) *attachmentFixture {
	t.Helper()
	dir := t.TempDir()
	blobs, err := storage.NewLocalBlobStore(dir)
	require.NoError(t, err)
	repo := newMemAttachments()
	svc := NewAttachmentService(AttachmentDependencies{
		AttachmentRepo: repo,
		TicketRepo:     newMemTicketStore(liveTicket(domain.TicketStatusOpen)),
		Blobs:          blobs,
	})
	return &attachmentFixture{svc: svc, repo: repo, blobs: blobs, dir: dir}
}

func TestAttachments_UploadDownloadDelete(t *testing.T) {
	f := newAttachmentFixture(t)
	svc, blobs := f.svc, f.blobs
	ctx := context.Background()

	att, err := svc.Upload(ctx, creator, UploadInput{TicketID: ticketID, FileName: "Screen Shot.PNG", MimeType: "image/png", Content: strings.NewReader("png-bytes")})
	require.NoError(t, err)
	assert.Equal(t, "png", att.FileExtension)
	assert.Equal(t, int64(9), att.SizeBytes)
	assert.True(t, strings.HasSuffix(att.StorageKey, "_Screen_Shot.PNG"))

	meta, rc, err := svc.Open(ctx, att.ID)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, "Screen Shot.PNG", meta.FileName)

	requireCode(t, svc.DeleteAttachment(ctx, outsider, att.ID), apperrors.CodeForbidden)
	require.NoError(t, svc.DeleteAttachment(ctx, creator, att.ID))

	_, err = blobs.Open(ctx, att.StorageKey)
	assert.ErrorIs(t, err, storage.ErrBlobNotFound)
}

func TestAttachments_AdminMayDelete(t *testing.T) {
	svc := newAttachmentFixture(t).svc
	att, err := svc.Upload(context.Background(), creator, UploadInput{TicketID: ticketID, FileName: "log.txt", Content: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", att.MimeType)
	require.NoError(t, svc.DeleteAttachment(context.Background(), superAdmin, att.ID))
}

func TestAttachments_RecordFailureRemovesBlob(t *testing.T) {
	f := newAttachmentFixture(t)
	f.repo.createErr = errors.New("db down")

	_, err := f.svc.Upload(context.Background(), creator, UploadInput{TicketID: ticketID, FileName: "a.txt", Content: strings.NewReader("x")})
	requireCode(t, err, apperrors.CodeInternal)

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAttachments_UnknownTicket(t *testing.T) {
	svc := newAttachmentFixture(t).svc
	_, err := svc.Upload(context.Background(), creator, UploadInput{TicketID: "ghost", FileName: "a.txt", Content: strings.NewReader("x")})
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = svc.Upload(context.Background(), creator, UploadInput{TicketID: ticketID, FileName: " "})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestAttachments_UpdateMetadata(t *testing.T) {
	svc := newAttachmentFixture(t).svc
	ctx := context.Background()
	att, err := svc.Upload(ctx, creator, UploadInput{TicketID: ticketID, FileName: "scan.png", Content: strings.NewReader("x")})
	require.NoError(t, err)

	name, mimeType := " ../Quarterly Report.PDF ", "application/pdf"
	updated, err := svc.UpdateAttachment(ctx, creator, att.ID, AttachmentUpdate{FileName: &name, MimeType: &mimeType})
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report.PDF", updated.FileName)
	assert.Equal(t, "pdf", updated.FileExtension)
	assert.Equal(t, "application/pdf", updated.MimeType)
	assert.Equal(t, att.StorageKey, updated.StorageKey)

	_, rc, err := svc.Open(ctx, att.ID)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	_, err = svc.UpdateAttachment(ctx, outsider, att.ID, AttachmentUpdate{MimeType: &mimeType})
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = svc.UpdateAttachment(ctx, superAdmin, att.ID, AttachmentUpdate{MimeType: &mimeType})
	require.NoError(t, err)

	blank := "  "
	_, err = svc.UpdateAttachment(ctx, creator, att.ID, AttachmentUpdate{FileName: &blank})
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.UpdateAttachment(ctx, creator, att.ID, AttachmentUpdate{})
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.UpdateAttachment(ctx, creator, "ghost", AttachmentUpdate{MimeType: &mimeType})
	requireCode(t, err, apperrors.CodeNotFound)
}
