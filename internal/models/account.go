package models

// MailAccount carries the mail-store credentials supplied on each request.
// Credentials are passed through to the remote servers and never persisted.
type MailAccount struct {
	Email    string
	Password string
}
