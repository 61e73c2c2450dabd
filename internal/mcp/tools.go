package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var importToolDef = mcp.NewTool("note_import",
	mcp.WithDescription("Import an ENEX archive from a path on the server's filesystem. "+
		"Notes are matched by guid: existing notes are updated in place, new ones inserted. "+
		"Returns per-file counts of inserted and updated notes."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Filesystem path of the .enex archive to import"),
	),
	mcp.WithString("source",
		mcp.Description("Label recorded as the notes' source file (defaults to the path's base name)"),
	),
)

var listToolDef = mcp.NewTool("note_list",
	mcp.WithDescription("List imported notes ordered by most recent activity first. "+
		"Returns summaries without HTML or extracted text."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum notes to return (default 50, max 500)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of notes to skip for pagination"),
	),
)

var fetchToolDef = mcp.NewTool("note_fetch",
	mcp.WithDescription("Fetch a single note by id, including its HTML content, "+
		"extracted plain text, and attachment metadata."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Numeric id of the note"),
	),
)

var searchToolDef = mcp.NewTool("note_search",
	mcp.WithDescription("Full-text search over note titles and body text. "+
		"Each term matches as a prefix; results are ranked with titles weighted higher, "+
		"and include a highlighted snippet."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search terms"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum results to return (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of results to skip for pagination"),
	),
)

var deleteToolDef = mcp.NewTool("note_delete",
	mcp.WithDescription("Delete a note by id along with its attachments and search index entry."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Numeric id of the note"),
	),
)
