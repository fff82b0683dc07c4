package mailbridge_errors

import "github.com/pkg/errors"

var (
	// connection errors
	ErrConnectionTimeout = errors.New("connection test timed out")

	// folder errors
	ErrNoValidFolder       = errors.New("no valid folder found")
	ErrUnknownSourceFolder = errors.New("unknown source folder")

	// dispatch errors
	ErrNoRecipients = errors.New("at least one recipient is required")
)
