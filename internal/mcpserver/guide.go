package mcpserver

// GuideURI addresses the guide resource.
const GuideURI = "inscribe://guide"

// Guide explains the note model to LLM consumers.
const Guide = `# Inscribe Guide

Inscribe keeps short notes for many owners in one shared store.

## Notes

- A note has an id, an owner, a title, a content pointer, a timestamp and an active flag.
- Ids are global, start at 1 and are never reused, even after deletion.
- Only the owner can read, update or delete a note. Other owners see nothing.
- Deleting a note hides it but keeps it in the owner's stats (total vs active).

## Content

The note body is not stored in the note itself. The note records a **content
pointer** of the form ` + "`sha256:<hex digest>`" + `. Pass the body as ` + "`content`" + `
to create_note or update_note and the pointer is computed for you, or store it
first with store_content.

## Fees

Creating and updating notes is charged the current fee, paid to the operator.
Use contract_info to see the fee. Deleting and reading are free.

## Tools

| Tool | Acts as | Charged |
|---|---|---|
| create_note | you | yes |
| read_note | you | no |
| update_note | you | yes |
| delete_note | you | no |
| list_notes | any owner | no |
| note_stats | any owner | no |
| contract_info | anyone | no |
| store_content | anyone | no |
`
