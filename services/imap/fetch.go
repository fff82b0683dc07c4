package imap

import (
	"context"
	"io"
	"time"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// fetchWindow drives one bulk fetch over the computed page window and
// aggregates the per-message events. A fetch-channel error aborts the
// whole batch; a single message failing to parse is dropped silently.
func (s *MailStoreService) fetchWindow(ctx context.Context, c storeClient, mbox *imap.MailboxStatus, limit, offset uint32) ([]models.EmailMessage, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "MailStoreService.fetchWindow")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("messages.total", mbox.Messages)
	span.SetTag("limit", limit)
	span.SetTag("offset", offset)

	window, ok := ComputeWindow(mbox.Messages, limit, offset)
	if !ok {
		return []models.EmailMessage{}, nil
	}
	span.SetTag("seq.start", window.Start)
	span.SetTag("seq.end", window.End)

	seqSet := new(imap.SeqSet)
	seqSet.AddRange(window.Start, window.End)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{
		imap.FetchEnvelope,
		imap.FetchFlags,
		imap.FetchUid,
		imap.FetchBodyStructure,
		section.FetchItem(),
	}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)

	c.SetTimeout(60 * time.Second)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	asm := newAssembler(window.Count())
	for msg := range messages {
		asm.ApplyAttributes(msg.SeqNum, msg.Uid, msg.Flags)
		if body := fullMessageBody(msg); body != nil {
			asm.ApplyBody(msg.SeqNum, body)
		}
	}
	c.SetTimeout(0)

	if err := <-done; err != nil {
		err = errors.Wrap(err, "error fetching messages")
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.SetTag("messages.processed", asm.completed)
	if !asm.Done() {
		s.log.Warnf("fetch window [%d:%d] yielded %d of %d messages", window.Start, window.End, asm.completed, asm.expected)
	}

	return asm.Results(), nil
}

// fullMessageBody locates the literal carrying the entire raw message in
// a fetch response.
func fullMessageBody(msg *imap.Message) io.Reader {
	for section, literal := range msg.Body {
		if len(section.Path) == 0 && section.Specifier == imap.EntireSpecifier {
			return literal
		}
	}
	return nil
}
