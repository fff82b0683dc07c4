package imap

import (
	"context"
	"time"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// MoveToTrash moves one message by UID from a friendly source folder into
// the trash folder. The friendly name is validated before any connection
// is attempted.
func (s *MailStoreService) MoveToTrash(ctx context.Context, account *models.MailAccount, uid uint32, sourceFolder string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailStoreService.MoveToTrash")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)
	span.SetTag("uid", uid)
	span.SetTag("source_folder", sourceFolder)

	storeFolder, ok := models.SourceFolders[sourceFolder]
	if !ok {
		err := errors.Wrapf(mailbridge_errors.ErrUnknownSourceFolder, "%q", sourceFolder)
		tracing.TraceErr(span, err)
		return err
	}

	c, err := s.connectFn(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	defer s.disconnect(account.Email, c)

	if _, err := s.selectFolder(c, storeFolder, false); err != nil {
		err = errors.Wrapf(err, "failed to open source folder %s", storeFolder)
		tracing.TraceErr(span, err)
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	if err := c.UidMove(seqSet, models.TrashFolder); err != nil {
		err = errors.Wrapf(err, "failed to move message %d to trash", uid)
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

// DeletePermanently flags a UID in the trash folder as deleted and closes
// the folder so the store expunges it. Each step fails with its own
// message so the caller can tell which phase broke.
func (s *MailStoreService) DeletePermanently(ctx context.Context, account *models.MailAccount, uid uint32) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailStoreService.DeletePermanently")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)
	span.SetTag("uid", uid)

	c, err := s.connectFn(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	defer s.disconnect(account.Email, c)

	if _, err := s.selectFolder(c, models.TrashFolder, false); err != nil {
		err = errors.Wrap(err, "failed to open trash folder")
		tracing.TraceErr(span, err)
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.DeletedFlag}

	if err := c.UidStore(seqSet, item, flags, nil); err != nil {
		err = errors.Wrapf(err, "failed to flag message %d for deletion", uid)
		tracing.TraceErr(span, err)
		return err
	}

	// Close expunges messages flagged \Deleted.
	c.SetTimeout(30 * time.Second)
	err = c.Close()
	c.SetTimeout(0)
	if err != nil {
		err = errors.Wrap(err, "failed to expunge trash folder")
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
