package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
)

// storeClient is the slice of the live session the mail operations drive.
// It exists so failure-path tests can substitute a scripted session for
// the real client.
type storeClient interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	List(ref, name string, ch chan *imap.MailboxInfo) error
	UidMove(seqset *imap.SeqSet, dest string) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	Close() error
	Append(mbox string, flags []string, date time.Time, msg imap.Literal) error
	Logout() error
	Terminate() error
	SetTimeout(d time.Duration)
}

// liveClient adapts the real client to storeClient; Timeout is a struct
// field on the client, not a method.
type liveClient struct {
	*client.Client
}

func (l liveClient) SetTimeout(d time.Duration) {
	l.Client.Timeout = d
}

// connect establishes an authenticated session with the mail store. The
// caller owns the returned client and must disconnect it on every path.
func (s *MailStoreService) connect(ctx context.Context, account *models.MailAccount) (storeClient, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "MailStoreService.connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("server", s.cfg.Host)
	span.SetTag("port", s.cfg.Port)

	serverAddr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	dialer := &net.Dialer{
		Timeout:   s.cfg.ConnectTimeout,
		KeepAlive: s.cfg.KeepAlive,
	}

	// Certificate validation is disabled when TLSSkipVerify is set; the
	// flag is surfaced in config and logged at startup.
	tlsConfig := &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.TLSSkipVerify,
	}

	c, err := client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}

	caps, err := c.Capability()
	if err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get capabilities: %w", err)
	}
	span.SetTag("server.capabilities", fmt.Sprintf("%v", caps))

	c.Timeout = s.cfg.AuthTimeout
	err = c.Login(account.Email, account.Password)
	if err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to login as %s: %w", account.Email, err)
	}
	c.Timeout = 0 // No timeout for normal operations

	s.log.Debugf("[%s] connected to %s", account.Email, serverAddr)

	return liveClient{c}, nil
}

// disconnect logs the session out, racing the logout against a timeout so
// a wedged store cannot hold the request open.
func (s *MailStoreService) disconnect(account string, c storeClient) {
	if c == nil {
		return
	}

	logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.SetTimeout(5 * time.Second)

	done := make(chan error, 1)
	go func() {
		done <- c.Logout()
		close(done)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.log.Warnf("[%s] error during logout: %v", account, err)
		}
	case <-logoutCtx.Done():
		s.log.Warnf("[%s] logout timed out, terminating connection", account)
		c.Terminate()
	}
}
