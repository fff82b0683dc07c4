package models

// FolderRole is a logical folder role independent of the literal name a
// given mail store assigns to it.
type FolderRole string

const (
	FolderRoleSent  FolderRole = "Sent"
	FolderRoleTrash FolderRole = "Trash"
)

// SpecialUseAttribute is the RFC 6154 marker a store reports for the role.
func (r FolderRole) SpecialUseAttribute() string {
	return "\\" + string(r)
}

// LiteralCandidates is the ordered fallback list of conventional literal
// names tried when no folder carries the special-use attribute.
func (r FolderRole) LiteralCandidates() []string {
	switch r {
	case FolderRoleSent:
		return []string{"Sent", "INBOX.Sent"}
	default:
		return []string{"Trash", "Junk", "INBOX.Trash", "INBOX.Junk"}
	}
}

// Ordered folder-name candidates per operation. These are configuration
// data, not heuristics: the opener tries them strictly in order.
var (
	TrashFetchCandidates = []string{"INBOX.Trash", "Trash"}
	SentFetchCandidates  = []string{"INBOX.Sent", "Sent"}

	// SentAppendCandidates is tried when archiving an outbound copy.
	SentAppendCandidates = []string{"INBOX.Sent", "Sent", "Sent Items", "Sent Mail"}
)

// TrashFolder is the fixed destination for move-to-trash and the folder
// opened for permanent deletion.
const TrashFolder = "INBOX.Trash"

// SourceFolders maps the friendly folder names accepted by the move
// operation to their store names.
var SourceFolders = map[string]string{
	"inbox": "INBOX",
	"sent":  "INBOX.Sent",
}
