package mcpserver

// ExportFormatContract describes the export file accepted by the import
// endpoint and produced by the export_data tool.
const ExportFormatContract = `# taskflow Export Format

An export file is a single JSON object:

` + "```" + `json
{
  "lists": [ { "id": "...", "title": "Home", "color": "blue", "sortMethod": "smart",
               "createdAt": "2024-01-01T09:00:00Z",
               "tasks": [ { "id": "...", "title": "Water plants", "completed": false,
                            "priority": "medium", "createdAt": "...", "updatedAt": "..." } ] } ],
  "templates": [ { "id": "...", "name": "Weekly review", "title": "Review week", "priority": "high" } ],
  "settings": { "theme": "light", "workingHours": { "start": "09:00", "end": "17:00" } },
  "calendarEvents": [ { "id": "...", "title": "Standup", "start": "...", "end": "...", "color": "sky" } ],
  "exportedAt": "2024-01-01T09:00:00Z",
  "version": "1.0.0"
}
` + "```" + `

## Rules

1. ` + "`lists`" + ` and ` + "`templates`" + ` are required arrays. A file without them is rejected.
2. Every list needs ` + "`id`, `title`" + ` and a ` + "`tasks`" + ` array. Every task needs ` + "`id`, `title`" + `
   and a boolean ` + "`completed`" + `.
3. Every template needs ` + "`id`, `name`" + ` and ` + "`title`" + `.
4. ` + "`settings`" + ` is optional. Missing fields take their defaults when read back.
5. ` + "`calendarEvents`" + ` is optional. Every event needs ` + "`id`, `title`, `start`" + ` and ` + "`end`" + `.
6. Timestamps are RFC 3339 strings. Priorities are low, medium or high.
7. An import replaces the documents it carries; nothing is written when the file is rejected.
`
