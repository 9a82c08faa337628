package mcpserver

// NoteFormatContract describes the note shape returned by every tool.
const NoteFormatContract = `# tagnote Note Format

Notes are returned as JSON objects:

` + "```" + `json
{
  "id": "5f0c2a9e-8d1b-4c5e-9f3a-2b7d6e1c0a44",
  "title": "Groceries",
  "content": "milk, eggs",
  "tags": ["shopping", "errands"],
  "createdAt": "2025-01-20T09:30:00Z"
}
` + "```" + `

## Rules

1. **id** is a random UUID assigned on creation. It never changes.
2. **title** and **content** are free text. A note always has at least one of them non-blank.
3. **tags** is always an array, possibly empty. Tags are suggested by a language model
   when the note is created and are kept exactly as suggested (case included).
4. **createdAt** is an RFC 3339 timestamp set on creation.
5. Notes are listed newest first.

## Filtering

- ` + "`" + `list_notes` + "`" + ` with ` + "`" + `tag` + "`" + ` keeps notes carrying exactly that tag (case-sensitive).
- ` + "`" + `list_notes` + "`" + ` with ` + "`" + `query` + "`" + ` keeps notes whose title, content, or any tag
  contains the query, ignoring case.
- When both are given, only the tag is applied.
`
