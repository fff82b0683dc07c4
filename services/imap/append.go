package imap

import (
	"bytes"
	"context"
	"time"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// AppendToSent archives a raw outbound message into the first Sent-folder
// candidate that accepts it. Unlike the folder opener, any append error
// just advances to the next candidate; the caller treats exhaustion as
// advisory only.
func (s *MailStoreService) AppendToSent(ctx context.Context, account *models.MailAccount, raw []byte) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailStoreService.AppendToSent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)

	c, err := s.connectFn(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	defer s.disconnect(account.Email, c)

	// Prefer whatever folder the store itself marks as Sent; the literal
	// candidates are only a fallback for stores that tag nothing.
	candidates := models.SentAppendCandidates
	if folders, err := s.listFolders(c); err == nil {
		if resolved := ResolveFolderByRole(folders, models.FolderRoleSent); resolved != "" {
			candidates = append([]string{resolved}, candidates...)
		}
	}

	flags := []string{imap.SeenFlag}
	now := time.Now()

	var lastErr error
	tried := make(map[string]bool)
	for _, candidate := range candidates {
		if tried[candidate] {
			continue
		}
		tried[candidate] = true

		err := c.Append(candidate, flags, now, bytes.NewBuffer(raw))
		if err == nil {
			tracing.TagFolder(span, candidate)
			s.log.Debugf("[%s] archived sent message to %s", account.Email, candidate)
			return nil
		}
		lastErr = err
	}

	err = errors.Wrapf(mailbridge_errors.ErrNoValidFolder, "could not archive sent message: %v", lastErr)
	tracing.TraceErr(span, err)
	return err
}
