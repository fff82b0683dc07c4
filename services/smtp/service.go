package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/peopledesk/mailbridge/config"
	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/logger"
	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/tracing"
	"github.com/peopledesk/mailbridge/internal/utils"
)

// sentArchiver archives a copy of an outbound message after a successful
// send. Failures are advisory only.
type sentArchiver interface {
	AppendToSent(ctx context.Context, account *models.MailAccount, raw []byte) error
}

// DispatchService submits outbound messages over implicit TLS with a
// verify-then-send handshake, independent timeouts for each phase and a
// bounded retry loop.
type DispatchService struct {
	cfg      *config.SMTPConfig
	log      logger.Logger
	archiver sentArchiver

	// seams for tests; default to the real wire implementations
	verifyFn   func(ctx context.Context, account *models.MailAccount) error
	transmitFn func(ctx context.Context, account *models.MailAccount, from string, recipients []string, raw []byte) (string, error)
}

func NewDispatchService(cfg *config.SMTPConfig, log logger.Logger, archiver sentArchiver) *DispatchService {
	s := &DispatchService{
		cfg:      cfg,
		log:      log,
		archiver: archiver,
	}
	s.verifyFn = s.verify
	s.transmitFn = s.transmit
	return s
}

// Send submits the message, retrying up to opts.MaxAttempts with a fixed
// delay between attempts. Only the last failure is reported. On success a
// copy is archived to the Sent folder best-effort; archival can never
// change the outcome of the send.
func (s *DispatchService) Send(ctx context.Context, account *models.MailAccount, message *models.OutboundMessage, opts models.DispatchOptions) (*models.DispatchResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DispatchService.Send")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)
	span.SetTag("recipients.count", len(message.AllRecipients()))

	if err := s.validateMessage(message); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	opts = s.withDefaults(opts)
	span.SetTag("max_attempts", opts.MaxAttempts)

	raw, err := buildMessage(message)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	recipients := message.AllRecipients()

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		response, err := s.attempt(ctx, account, message.From, recipients, raw, opts)
		if err == nil {
			span.SetTag("attempts", attempt)
			s.archiveBestEffort(ctx, account, raw)
			return &models.DispatchResult{
				MessageID: message.MessageID,
				Response:  response,
				Attempts:  attempt,
			}, nil
		}

		lastErr = err
		s.log.Warnf("[%s] send attempt %d/%d failed: %v", account.Email, attempt, opts.MaxAttempts, err)

		if attempt < opts.MaxAttempts {
			select {
			case <-time.After(opts.RetryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = opts.MaxAttempts
			}
		}
	}

	dispatchErr := &models.DispatchError{
		Attempts: opts.MaxAttempts,
		Code:     smtpErrorCode(lastErr),
		Err:      lastErr,
	}
	tracing.TraceErr(span, dispatchErr)
	return nil, dispatchErr
}

// attempt runs one verify-then-send cycle. Each phase races its own
// timeout; a timeout is an ordinary attempt failure, not a crash.
func (s *DispatchService) attempt(ctx context.Context, account *models.MailAccount, from string, recipients []string, raw []byte, opts models.DispatchOptions) (string, error) {
	err := runWithTimeout("verify connection", opts.VerifyTimeout, func() error {
		return s.verifyFn(ctx, account)
	})
	if err != nil {
		return "", err
	}

	var response string
	err = runWithTimeout("send message", opts.SendTimeout, func() error {
		var sendErr error
		response, sendErr = s.transmitFn(ctx, account, from, recipients, raw)
		return sendErr
	})
	if err != nil {
		return "", err
	}

	return response, nil
}

func (s *DispatchService) validateMessage(message *models.OutboundMessage) error {
	if message.From == "" {
		return errors.New("from address is required")
	}
	if len(message.To) == 0 {
		return mailbridge_errors.ErrNoRecipients
	}
	if message.Subject == "" {
		return errors.New("email must have a subject")
	}
	if message.BodyText == "" && message.BodyHTML == "" {
		return errors.New("email must have either text or HTML content")
	}
	if message.MessageID == "" {
		message.MessageID = utils.GenerateMessageID(domainOf(message.From), "")
	}
	return nil
}

func (s *DispatchService) withDefaults(opts models.DispatchOptions) models.DispatchOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = s.cfg.MaxAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = s.cfg.RetryDelay
	}
	if opts.VerifyTimeout <= 0 {
		opts.VerifyTimeout = s.cfg.VerifyTimeout
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = s.cfg.SendTimeout
	}
	return opts
}

// archiveBestEffort copies the sent message into the Sent folder. Errors
// are logged and swallowed: the send already succeeded.
func (s *DispatchService) archiveBestEffort(ctx context.Context, account *models.MailAccount, raw []byte) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.AppendToSent(ctx, account, raw); err != nil {
		s.log.Warnf("[%s] could not archive sent message: %v", account.Email, err)
	}
}

// verify opens an authenticated connection to the submission server and
// closes it again, proving the credentials and route work.
func (s *DispatchService) verify(ctx context.Context, account *models.MailAccount) error {
	client, err := s.dial(account)
	if err != nil {
		return err
	}
	return client.Quit()
}

// transmit sends the prepared message over one fresh connection. Adapted
// from the explicit-TLS submission path: dial, auth, envelope, data.
func (s *DispatchService) transmit(ctx context.Context, account *models.MailAccount, from string, recipients []string, raw []byte) (string, error) {
	client, err := s.dial(account)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err = client.Mail(from); err != nil {
		return "", errors.Wrap(err, "SMTP MAIL command failed")
	}

	for _, recipient := range recipients {
		if err = client.Rcpt(recipient); err != nil {
			return "", errors.Wrapf(err, "SMTP RCPT command failed for %s", recipient)
		}
	}

	dataWriter, err := client.Data()
	if err != nil {
		return "", errors.Wrap(err, "SMTP DATA command failed")
	}

	if _, err = dataWriter.Write(raw); err != nil {
		return "", errors.Wrap(err, "failed to write email data")
	}

	if err = dataWriter.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close data writer")
	}

	if err = client.Quit(); err != nil {
		return "", errors.Wrap(err, "SMTP QUIT failed")
	}

	return fmt.Sprintf("accepted for delivery to %d recipient(s)", len(recipients)), nil
}

// dial opens an implicit-TLS connection and authenticates.
func (s *DispatchService) dial(account *models.MailAccount) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	tlsConfig := &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.TLSSkipVerify,
	}

	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: 30 * time.Second}, "tcp", addr, tlsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to SMTP server")
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to create SMTP client")
	}

	auth := smtp.PlainAuth("", account.Email, account.Password, s.cfg.Host)
	if err = client.Auth(auth); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "SMTP authentication failed")
	}

	return client, nil
}

// runWithTimeout races fn against the deadline. The fn goroutine is left
// to finish in the background on timeout; its connection will be torn
// down when the dialer's own deadline fires.
func runWithTimeout(name string, timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return errors.Errorf("%s timed out after %s", name, timeout)
	}
}

// smtpErrorCode extracts the server reply code from a failed attempt,
// falling back to the UNKNOWN_ERROR sentinel.
func smtpErrorCode(err error) string {
	if err == nil {
		return models.UnknownErrorCode
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return strconv.Itoa(protoErr.Code)
	}
	return models.UnknownErrorCode
}

func domainOf(address string) string {
	if idx := strings.LastIndex(address, "@"); idx >= 0 {
		return address[idx+1:]
	}
	return address
}
