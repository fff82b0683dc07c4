package imap

import (
	"strings"

	"github.com/emersion/go-imap"
	"github.com/pkg/errors"

	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/models"
)

// listFolders collects every folder the store reports into a map keyed by
// folder name.
func (s *MailStoreService) listFolders(c storeClient) (map[string]models.FolderInfo, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)

	go func() {
		done <- c.List("", "*", mailboxes)
	}()

	folders := make(map[string]models.FolderInfo)
	for m := range mailboxes {
		folders[m.Name] = models.FolderInfo{
			Name:       m.Name,
			Delimiter:  m.Delimiter,
			Attributes: m.Attributes,
		}
	}

	if err := <-done; err != nil {
		return nil, errors.Wrap(err, "error listing folders")
	}

	return folders, nil
}

// ResolveFolderByRole locates a folder for a logical role: first by the
// store's special-use attribute, then by the role's conventional literal
// names. Returns "" when nothing matches; callers treat that as a
// non-fatal "could not resolve".
func ResolveFolderByRole(folders map[string]models.FolderInfo, role models.FolderRole) string {
	attribute := role.SpecialUseAttribute()
	for name, info := range folders {
		for _, attr := range info.Attributes {
			if strings.EqualFold(attr, attribute) {
				return name
			}
		}
	}

	for _, candidate := range role.LiteralCandidates() {
		if _, ok := folders[candidate]; ok {
			return candidate
		}
	}

	return ""
}

// openFunc attempts to open one folder on a live session.
type openFunc func(name string) (*imap.MailboxStatus, error)

// openFirstAvailable tries candidates strictly in order. A "mailbox does
// not exist" failure advances to the next candidate; any other error is
// fatal immediately since it will recur for every candidate. Exhaustion
// fails with ErrNoValidFolder.
func openFirstAvailable(open openFunc, candidates []string) (*imap.MailboxStatus, string, error) {
	if len(candidates) == 0 {
		return nil, "", mailbridge_errors.ErrNoValidFolder
	}

	mbox, err := open(candidates[0])
	if err == nil {
		return mbox, candidates[0], nil
	}

	if isMissingFolderErr(err) {
		return openFirstAvailable(open, candidates[1:])
	}

	return nil, "", err
}

// isMissingFolderErr matches the store's "that folder is not there"
// responses; everything else indicates a connection or permission problem.
func isMissingFolderErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such mailbox") || strings.Contains(msg, "does not exist")
}
