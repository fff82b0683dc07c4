package imap

import (
	"io"
	"sort"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"

	"github.com/peopledesk/mailbridge/internal/models"
	"github.com/peopledesk/mailbridge/internal/utils"
)

// messageRecord accumulates the two per-message events of a bulk fetch.
// Attributes (uid, flags) and the raw body arrive independently and in
// either order; the record is complete only once both have been applied
// and the body parsed. A failed parse leaves the record processed but
// excluded from the results.
type messageRecord struct {
	seq        uint32
	email      models.EmailMessage
	attrsDone  bool
	bodyDone   bool
	parseError bool
}

func (r *messageRecord) complete() bool {
	return r.attrsDone && r.bodyDone
}

// assembler aggregates a bulk fetch over a sequence range. It tracks one
// record per sequence number and a completion count against the expected
// range size.
type assembler struct {
	expected  int
	records   map[uint32]*messageRecord
	completed int
}

func newAssembler(expected int) *assembler {
	return &assembler{
		expected: expected,
		records:  make(map[uint32]*messageRecord),
	}
}

func (a *assembler) record(seq uint32) *messageRecord {
	rec, ok := a.records[seq]
	if !ok {
		rec = &messageRecord{seq: seq}
		rec.email.SeqNum = seq
		a.records[seq] = rec
	}
	return rec
}

// ApplyAttributes applies the uid/flags event for one sequence number.
func (a *assembler) ApplyAttributes(seq, uid uint32, flags []string) {
	rec := a.record(seq)
	if rec.attrsDone {
		return
	}

	rec.email.UID = uid
	rec.email.Flags = flags
	for _, flag := range flags {
		if flag == imap.SeenFlag {
			rec.email.Seen = true
		}
	}

	rec.attrsDone = true
	if rec.complete() {
		a.completed++
	}
}

// ApplyBody parses the raw message for one sequence number. A parse
// failure is tolerated: the record still counts as processed, it just
// never appears in the results.
func (a *assembler) ApplyBody(seq uint32, body io.Reader) {
	rec := a.record(seq)
	if rec.bodyDone {
		return
	}

	env, err := enmime.ReadEnvelope(body)
	if err != nil {
		rec.parseError = true
	} else {
		applyEnvelope(&rec.email, env)
	}

	rec.bodyDone = true
	if rec.complete() {
		a.completed++
	}
}

// Done reports whether every message in the requested range has been
// fully processed.
func (a *assembler) Done() bool {
	return a.completed >= a.expected
}

// Results returns the completed messages sorted by sequence number
// descending (newest first).
func (a *assembler) Results() []models.EmailMessage {
	emails := make([]models.EmailMessage, 0, len(a.records))
	for _, rec := range a.records {
		if !rec.complete() || rec.parseError {
			continue
		}
		emails = append(emails, rec.email)
	}

	sort.Slice(emails, func(i, j int) bool {
		return emails[i].SeqNum > emails[j].SeqNum
	})

	return emails
}

// applyEnvelope maps the parsed MIME envelope onto the API message. HTML
// is preferred over plaintext; absent fields default to empty strings.
func applyEnvelope(email *models.EmailMessage, env *enmime.Envelope) {
	email.From = env.GetHeader("From")
	email.To = env.GetHeader("To")
	email.Cc = env.GetHeader("Cc")
	email.Bcc = env.GetHeader("Bcc")
	email.Subject = env.GetHeader("Subject")
	email.Date = env.GetHeader("Date")

	if env.HTML != "" {
		email.Body = env.HTML
	} else {
		email.Body = env.Text
	}

	text := env.Text
	if text == "" && env.HTML != "" {
		text = utils.HTMLToText(env.HTML)
	}
	email.Preview = utils.Preview(strings.TrimSpace(text), 150)

	email.HasAttachments = len(env.Attachments) > 0
}
