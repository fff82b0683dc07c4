package interfaces

import (
	"context"

	"github.com/peopledesk/mailbridge/internal/models"
)

// MailStore is the per-request gateway to the remote IMAP store. Every
// method opens its own session and tears it down before returning; no
// connection is ever shared across calls.
type MailStore interface {
	// TestConnection opens a session, selects INBOX and reports the
	// message count. Bounded by a hard wall-clock timeout.
	TestConnection(ctx context.Context, account *models.MailAccount) (uint32, error)

	// FetchFolder returns a page of messages from the named folder,
	// newest first.
	FetchFolder(ctx context.Context, account *models.MailAccount, folder string, limit, offset uint32) ([]models.EmailMessage, error)

	// FetchFirstAvailable opens the first folder of the candidate list
	// that exists and returns a page of its messages, newest first.
	FetchFirstAvailable(ctx context.Context, account *models.MailAccount, candidates []string, limit, offset uint32) ([]models.EmailMessage, error)

	// ListFolders returns all folders keyed by name.
	ListFolders(ctx context.Context, account *models.MailAccount) (map[string]models.FolderInfo, error)

	// MoveToTrash moves one message by UID from a friendly source folder
	// into the trash folder.
	MoveToTrash(ctx context.Context, account *models.MailAccount, uid uint32, sourceFolder string) error

	// DeletePermanently flags a UID in the trash folder as deleted and
	// expunges it.
	DeletePermanently(ctx context.Context, account *models.MailAccount, uid uint32) error

	// AppendToSent archives a raw outbound message into the first
	// workable Sent-folder candidate.
	AppendToSent(ctx context.Context, account *models.MailAccount, raw []byte) error
}

// EmailDispatcher submits outbound messages to the SMTP server.
type EmailDispatcher interface {
	Send(ctx context.Context, account *models.MailAccount, message *models.OutboundMessage, opts models.DispatchOptions) (*models.DispatchResult, error)
}
