package imap

import (
	"testing"

	"github.com/emersion/go-imap"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	mailbridge_errors "github.com/peopledesk/mailbridge/errors"
	"github.com/peopledesk/mailbridge/internal/models"
)

func TestResolveFolderByRole_AttributeWinsOverLiteralName(t *testing.T) {
	// "Gesendet" carries the special-use attribute; a different folder is
	// literally named "Sent". The attribute-tagged one must win.
	folders := map[string]models.FolderInfo{
		"Sent": {
			Name:       "Sent",
			Attributes: []string{"\\HasNoChildren"},
		},
		"Gesendet": {
			Name:       "Gesendet",
			Attributes: []string{"\\HasNoChildren", "\\Sent"},
		},
	}

	assert.Equal(t, "Gesendet", ResolveFolderByRole(folders, models.FolderRoleSent))
}

func TestResolveFolderByRole_FallsBackToLiteralNames(t *testing.T) {
	folders := map[string]models.FolderInfo{
		"INBOX":       {Name: "INBOX"},
		"INBOX.Trash": {Name: "INBOX.Trash"},
	}

	assert.Equal(t, "INBOX.Trash", ResolveFolderByRole(folders, models.FolderRoleTrash))
}

func TestResolveFolderByRole_NoMatch(t *testing.T) {
	folders := map[string]models.FolderInfo{
		"INBOX": {Name: "INBOX"},
	}

	assert.Equal(t, "", ResolveFolderByRole(folders, models.FolderRoleSent))
}

func TestOpenFirstAvailable_FallsBackOnMissingFolder(t *testing.T) {
	opened := []string{}
	open := func(name string) (*imap.MailboxStatus, error) {
		opened = append(opened, name)
		if name == "Foo" {
			return nil, errors.New("NO [TRYCREATE] no such mailbox")
		}
		return &imap.MailboxStatus{Name: name, Messages: 3}, nil
	}

	mbox, name, err := openFirstAvailable(open, []string{"Foo", "Bar"})

	assert.NoError(t, err)
	assert.Equal(t, "Bar", name)
	assert.Equal(t, uint32(3), mbox.Messages)
	assert.Equal(t, []string{"Foo", "Bar"}, opened)
}

func TestOpenFirstAvailable_FatalErrorShortCircuits(t *testing.T) {
	fatal := errors.New("NO permission denied")
	opened := []string{}
	open := func(name string) (*imap.MailboxStatus, error) {
		opened = append(opened, name)
		return nil, fatal
	}

	_, _, err := openFirstAvailable(open, []string{"Foo", "Bar"})

	assert.Equal(t, fatal, err)
	assert.Equal(t, []string{"Foo"}, opened)
}

func TestOpenFirstAvailable_ExhaustedCandidates(t *testing.T) {
	open := func(name string) (*imap.MailboxStatus, error) {
		return nil, errors.New("mailbox does not exist")
	}

	_, _, err := openFirstAvailable(open, []string{"Foo", "Bar"})

	assert.ErrorIs(t, err, mailbridge_errors.ErrNoValidFolder)
}

func TestOpenFirstAvailable_EmptyCandidates(t *testing.T) {
	called := false
	open := func(name string) (*imap.MailboxStatus, error) {
		called = true
		return nil, nil
	}

	_, _, err := openFirstAvailable(open, nil)

	assert.ErrorIs(t, err, mailbridge_errors.ErrNoValidFolder)
	assert.False(t, called)
}
