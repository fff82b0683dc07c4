package models

// EmailMessage is one fetched email as returned to the HTTP caller.
// SeqNum is the transient position within the queried folder, UID the
// stable folder-scoped identifier used for move/flag operations.
type EmailMessage struct {
	SeqNum         uint32   `json:"seqno"`
	UID            uint32   `json:"uid"`
	Flags          []string `json:"flags"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	Cc             string   `json:"cc"`
	Bcc            string   `json:"bcc"`
	Subject        string   `json:"subject"`
	Date           string   `json:"date"`
	Body           string   `json:"body"`
	Preview        string   `json:"preview"`
	Seen           bool     `json:"seen"`
	HasAttachments bool     `json:"hasAttachments"`
}

// FolderInfo describes one folder as reported by the mail store.
type FolderInfo struct {
	Name       string   `json:"name"`
	Delimiter  string   `json:"delimiter"`
	Attributes []string `json:"attribs"`
}
