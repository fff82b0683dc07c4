package imap

import (
	"context"
	"time"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"

	"github.com/peopledesk/mailbridge/config"
	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/logger"
	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// MailStoreService proxies operations against the remote IMAP store. One
// session per operation: each public method connects, performs a single
// logical operation and disconnects on every exit path.
type MailStoreService struct {
	cfg *config.IMAPConfig
	log logger.Logger

	// connectFn is swapped for a scripted session in tests.
	connectFn func(ctx context.Context, account *models.MailAccount) (storeClient, error)
}

func NewMailStoreService(cfg *config.IMAPConfig, log logger.Logger) *MailStoreService {
	s := &MailStoreService{
		cfg: cfg,
		log: log,
	}
	s.connectFn = s.connect
	return s
}

// TestConnection verifies credentials by selecting INBOX and returning its
// message count. The whole operation races a hard wall-clock timeout, and
// when the deadline fires the session is forcibly destroyed rather than
// left waiting on the store.
func (s *MailStoreService) TestConnection(ctx context.Context, account *models.MailAccount) (uint32, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailStoreService.TestConnection")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)

	type result struct {
		total uint32
		err   error
	}

	done := make(chan result, 1)
	connected := make(chan storeClient, 1)

	go func() {
		c, err := s.connectFn(ctx, account)
		if err != nil {
			done <- result{err: err}
			return
		}
		connected <- c
		defer s.disconnect(account.Email, c)

		c.SetTimeout(s.cfg.TestConnectionTimeout)
		mbox, err := c.Select("INBOX", true)
		c.SetTimeout(0)
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{total: mbox.Messages}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			tracing.TraceErr(span, r.err)
			return 0, r.err
		}
		span.SetTag("messages.total", r.total)
		return r.total, nil
	case <-time.After(s.cfg.TestConnectionTimeout):
		// Tear the session down so the store cannot hold the socket open.
		select {
		case c := <-connected:
			c.Terminate()
		default:
		}
		err := mailbridge_errors.ErrConnectionTimeout
		tracing.TraceErr(span, err)
		return 0, err
	}
}

// FetchFolder returns one page of the named folder, newest first.
func (s *MailStoreService) FetchFolder(ctx context.Context, account *models.MailAccount, folder string, limit, offset uint32) ([]models.EmailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailStoreService.FetchFolder")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)
	tracing.TagFolder(span, folder)

	c, err := s.connectFn(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer s.disconnect(account.Email, c)

	mbox, err := s.selectFolder(c, folder, true)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return s.fetchWindow(ctx, c, mbox, limit, offset)
}

// FetchFirstAvailable opens the first candidate folder that exists and
// returns one page of its messages, newest first.
func (s *MailStoreService) FetchFirstAvailable(ctx context.Context, account *models.MailAccount, candidates []string, limit, offset uint32) ([]models.EmailMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailStoreService.FetchFirstAvailable")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)
	span.SetTag("folder.candidates", candidates)

	c, err := s.connectFn(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer s.disconnect(account.Email, c)

	mbox, opened, err := openFirstAvailable(s.selector(c, true), candidates)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	tracing.TagFolder(span, opened)

	return s.fetchWindow(ctx, c, mbox, limit, offset)
}

// ListFolders returns every folder the store reports, keyed by name.
func (s *MailStoreService) ListFolders(ctx context.Context, account *models.MailAccount) (map[string]models.FolderInfo, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailStoreService.ListFolders")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)

	c, err := s.connectFn(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer s.disconnect(account.Email, c)

	folders, err := s.listFolders(c)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.SetTag("folders.count", len(folders))
	return folders, nil
}

// selectFolder selects a folder with a temporary command timeout.
func (s *MailStoreService) selectFolder(c storeClient, folder string, readOnly bool) (*imap.MailboxStatus, error) {
	c.SetTimeout(30 * time.Second)
	mbox, err := c.Select(folder, readOnly)
	c.SetTimeout(0)
	return mbox, err
}

// selector adapts the live session to the opener's open function.
func (s *MailStoreService) selector(c storeClient, readOnly bool) openFunc {
	return func(name string) (*imap.MailboxStatus, error) {
		return s.selectFolder(c, name, readOnly)
	}
}
