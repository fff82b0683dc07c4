package dto

// Credentials carries the mail-store credentials every mail operation
// requires. They are forwarded per request and never persisted.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Present() bool {
	return c.Email != "" && c.Password != ""
}

type ConnectionRequest struct {
	Credentials
}

type FetchRequest struct {
	Credentials
	Folder string  `json:"folder"`
	Limit  *uint32 `json:"limit"`
	Offset *uint32 `json:"offset"`
}

type FetchPageRequest struct {
	Credentials
	Limit  *uint32 `json:"limit"`
	Offset *uint32 `json:"offset"`
}

type MoveToTrashRequest struct {
	Credentials
	UID          uint32 `json:"uid"`
	SourceFolder string `json:"sourceFolder"`
}

type DeleteRequest struct {
	Credentials
	UID uint32 `json:"uid"`
}
