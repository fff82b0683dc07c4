package models

import (
	"fmt"
	"time"
)

// OutboundMessage is a fully assembled email ready for SMTP submission.
type OutboundMessage struct {
	From        string
	FromName    string
	To          []string
	Cc          []string
	Bcc         []string
	ReplyTo     string
	Subject     string
	BodyText    string
	BodyHTML    string
	MessageID   string
	Attachments []*OutboundAttachment
}

// OutboundAttachment holds attachment content received with the request.
// Content lives only for the lifetime of the request.
type OutboundAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

func (m *OutboundMessage) AllRecipients() []string {
	recipients := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	recipients = append(recipients, m.To...)
	recipients = append(recipients, m.Cc...)
	recipients = append(recipients, m.Bcc...)
	return recipients
}

func (m *OutboundMessage) HasRichContent() bool {
	return m.BodyHTML != "" || len(m.Attachments) > 0
}

// DispatchOptions bound one send operation. RetryDelay is caller-supplied
// rather than a shared constant since callers legitimately differ.
type DispatchOptions struct {
	MaxAttempts   int
	RetryDelay    time.Duration
	VerifyTimeout time.Duration
	SendTimeout   time.Duration
}

// DispatchResult reports a successful submission.
type DispatchResult struct {
	MessageID string `json:"messageId"`
	Response  string `json:"response"`
	Attempts  int    `json:"attempts"`
}

// UnknownErrorCode is reported when the server supplied no SMTP code.
const UnknownErrorCode = "UNKNOWN_ERROR"

// DispatchError is returned once the retry budget is exhausted. It carries
// the attempt count and the last underlying failure only.
type DispatchError struct {
	Attempts int
	Code     string
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to send email after %d attempts: %s (code %s)", e.Attempts, e.Err.Error(), e.Code)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
