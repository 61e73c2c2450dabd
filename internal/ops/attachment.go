package ops

import (
	"database/sql"
	"fmt"

	"github.com/sujankapadia/evernote-importer/internal/db"
)

// AttachmentOutput is a raw attachment payload ready to serve. Filename and
// Mime carry fallbacks for resources imported without metadata.
type AttachmentOutput struct {
	Data     []byte
	Filename string
	Mime     string
}

// Attachment returns one attachment's payload, scoped by its owning note.
// Returns NOT_FOUND when the pair doesn't exist.
func Attachment(database *sql.DB, noteID, resourceID int64) (*AttachmentOutput, error) {
	res, err := db.GetResource(database, noteID, resourceID)
	if err != nil {
		return nil, err
	}

	out := &AttachmentOutput{
		Data:     res.Data,
		Filename: fmt.Sprintf("attachment-%d", resourceID),
		Mime:     "application/octet-stream",
	}
	if res.Filename != nil && *res.Filename != "" {
		out.Filename = *res.Filename
	}
	if res.Mime != nil && *res.Mime != "" {
		out.Mime = *res.Mime
	}
	return out, nil
}
