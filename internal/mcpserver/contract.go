package mcpserver

// DocFormatContract describes the Markdown document format that the
// manifest builder and renderer understand.
const DocFormatContract = `# Document Format Contract

Every document is a UTF-8 ` + "`" + `.md` + "`" + ` file somewhere under the content root. The file
name (without ` + "`" + `.md` + "`" + `) becomes the document slug, so names must be unique across
all folders.

## Structure

` + "```" + `markdown
---
title: "React Hooks Guide"   # OPTIONAL – falls back to the first "# " heading, then the file name
category: "React"            # OPTIONAL – defaults to General
tags: [react, hooks]         # OPTIONAL – YAML list, searchable
date: 2025-01-15             # OPTIONAL – ISO-8601; defaults to build time
description: "..."           # OPTIONAL – defaults to the first body line, cut at 200 characters
---

# React Hooks Guide

Intro paragraph.

## Section

` + "```" + `go
fmt.Println("code blocks name their language")
` + "```" + `
` + "```" + `

## Rules

1. **Header block** must start on the first line with ` + "`" + `---` + "`" + ` and end with a line
   holding only ` + "`" + `---` + "`" + `. It is removed before rendering.
2. **Headings** at levels 2 to 4 (` + "`" + `##` + "`" + ` to ` + "`" + `####` + "`" + `) form the table of contents.
   Every heading gets an anchor id derived from its text; repeated texts get
   ` + "`" + `-1` + "`" + `, ` + "`" + `-2` + "`" + ` suffixes.
3. **Code blocks** should be fenced and name a language so they are highlighted.
   Unknown languages render as plain text.
4. **Reading time** is estimated at 200 words per minute.
5. **New documents** are best created with the ` + "`" + `create_doc` + "`" + ` tool, which fills the
   header from the standard template.
`
