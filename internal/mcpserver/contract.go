package mcpserver

// FormatContract describes the front-matter header format that LLM
// consumers should follow when writing documents.
const FormatContract = `# Folio Front-Matter Format Contract

Every document is a text file with an optional front-matter header followed
by a free-form body (Markdown or HTML).

## Structure

` + "```" + `markdown
---
title: "Human-readable title"
date: "2025-01-15"
draft: false
order: 3
tags:
- "go"
- "web"
summary: |
  First line of a multi-line value.
  Second line.
---
Body text.
` + "```" + `

## Rules

1. The first line of the file is exactly ` + "`---`" + `; the header ends at the next line
   that is exactly ` + "`---`" + `. Everything after that line is the body, byte for byte.
2. One field per line: ` + "`key: value`" + `. Keys use letters, digits, ` + "`_`, `-` and `.`" + `,
   start at column 0 and are never nested.
3. Values:
   - ` + "`true` / `false`" + ` (unquoted) are booleans.
   - Decimal numbers are numbers, **even when quoted**: ` + "`\"1.0\"`" + ` reads back as 1.
     Avoid storing version strings such as ` + "`\"1.0\"`" + `; write ` + "`\"v1.0\"`" + ` instead.
   - Anything else is text; one pair of outer quotes is removed.
   - ` + "`key: |`" + ` followed by lines indented two spaces is multi-line text.
   - ` + "`key:`" + ` followed by ` + "`- item`" + ` lines is a list of strings; ` + "`key: []`" + ` is an
     empty list. List items are never converted to numbers or booleans.
4. Fields with empty text are not written.
5. Lines the reader cannot understand are skipped; the rest of the header
   still loads.
6. File paths are relative to the category root, use forward slashes and end
   with ` + "`.md`" + `. Use the ` + "`slugify`" + ` tool to derive a file name from a title.

## Categories

` + "`blog`, `project`, `research` and `mantra`" + `. Each category has its own
root directory; paths never cross from one category into another.

## Writing with write_document

Pass the header as a flat JSON object: strings, numbers, booleans, ` + "`null`" + `
(skipped) and arrays of strings. Key order is preserved.

` + "```" + `json
{"title": "Weekly notes", "date": "2025-01-20", "tags": ["notes"], "draft": true}
` + "```" + `
`
