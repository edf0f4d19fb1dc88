package mcpserver

// DocumentFormatContract describes the canonical Markdown document format
// that LLM consumers should follow when creating or updating documents.
const DocumentFormatContract = `# Ansuz Document Format Contract

Every Markdown document stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `markdown
---
layout: content                     # REQUIRED – content, base, section, or workspace
title: Human-readable title         # REQUIRED – used in search and listings
category: guide                     # OPTIONAL – guide, reference, concept, or decision
description: One-line summary       # OPTIONAL – at most 160 characters
tags: ["tag-one", "tag-two"]        # OPTIONAL – bracketed, quoted, at most 10
dateAdded: 2026-01-15               # OPTIONAL – YYYY-MM-DD
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **The frontmatter header is mandatory.** The ` + "```" + `---` + "```" + ` fences must be the
   first thing in the file (no leading blank lines).
2. **` + "`" + `layout` + "`" + ` and ` + "`" + `title` + "`" + ` are required.** Everything else depends on the
   layout: which fields a layout carries is defined by the workspace field table.
3. **Header lines are ` + "`" + `key: value` + "`" + `**, one per line. List values use brackets
   with double-quoted entries: ` + "`" + `tags: ["a", "b"]` + "`" + `.
4. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `release-notes` + "`" + `).
   At most 10 tags per document.
5. **Dates** (` + "`" + `dateAdded` + "`" + `, ` + "`" + `lastReviewed` + "`" + `, ` + "`" + `reviewDue` + "`" + `) are ` + "`" + `YYYY-MM-DD` + "`" + `.
6. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
7. **Encoding** is UTF-8 with a trailing newline.
8. Use the ` + "`" + `validate_document` + "`" + ` tool after writing: the header is checked
   against a JSON Schema and unknown fields are rejected.

## Example

` + "```" + `markdown
---
layout: content
title: Deployment Checklist
category: guide
description: Steps to roll a release to production
tags: ["deploy", "release"]
dateAdded: 2026-01-20
status: approved
---

# Deployment Checklist

1. Tag the release.
2. Run the smoke suite.
` + "```" + `
`
