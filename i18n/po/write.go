// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package po

import (
	"fmt"
	"strings"
)

// Marshal renders the catalog in PO format.
//
// The header comes first with its fields in stored order, followed by the
// active entries and then the obsolete ones.
func (c *Catalog) Marshal() []byte {
	var b strings.Builder

	writeHeader(&b, c)

	for _, e := range c.Entries {
		if !e.Obsolete {
			b.WriteString("\n")
			writeEntry(&b, e, "")
		}
	}

	for _, e := range c.Entries {
		if e.Obsolete {
			b.WriteString("\n")
			writeEntry(&b, e, "#~ ")
		}
	}

	return []byte(b.String())
}

// String implements fmt.Stringer.
func (e *Entry) String() string {
	var b strings.Builder

	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}

	writeEntry(&b, e, prefix)

	return b.String()
}

func writeHeader(b *strings.Builder, c *Catalog) {
	for _, line := range c.HeaderComments {
		writeComment(b, "#", line)
	}

	if len(c.HeaderFlags) > 0 {
		fmt.Fprintf(b, "#, %s\n", strings.Join(c.HeaderFlags, ", "))
	}

	b.WriteString("msgid \"\"\n")
	b.WriteString("msgstr \"\"\n")

	for _, f := range c.Metadata {
		fmt.Fprintf(b, "%s\n", quote(f.Key+": "+f.Value+"\n"))
	}
}

func writeEntry(b *strings.Builder, e *Entry, prefix string) {
	for _, line := range e.TranslatorComments {
		writeComment(b, "#", line)
	}

	for _, line := range e.ExtractedComments {
		writeComment(b, "#.", line)
	}

	if len(e.References) > 0 {
		fmt.Fprintf(b, "#: %s\n", strings.Join(e.References, " "))
	}

	if len(e.Flags) > 0 {
		fmt.Fprintf(b, "#, %s\n", strings.Join(e.Flags, ", "))
	}

	for _, line := range e.Previous {
		fmt.Fprintf(b, "%s#| %s\n", prefix, line)
	}

	if e.Context != "" {
		writeField(b, prefix, "msgctxt", e.Context)
	}

	writeField(b, prefix, "msgid", e.ID)

	if e.IDPlural != "" {
		writeField(b, prefix, "msgid_plural", e.IDPlural)

		plural := e.StrPlural
		if len(plural) == 0 {
			plural = []string{"", ""}
		}

		for i, s := range plural {
			writeField(b, prefix, fmt.Sprintf("msgstr[%d]", i), s)
		}

		return
	}

	writeField(b, prefix, "msgstr", e.Str)
}

func writeComment(b *strings.Builder, marker, text string) {
	if text == "" {
		fmt.Fprintf(b, "%s\n", marker)

		return
	}

	fmt.Fprintf(b, "%s %s\n", marker, text)
}

// writeField writes a keyword and its value, splitting multi-line values
// after each newline.
func writeField(b *strings.Builder, prefix, keyword, value string) {
	lines := strings.SplitAfter(value, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if len(lines) <= 1 {
		fmt.Fprintf(b, "%s%s %s\n", prefix, keyword, quote(value))

		return
	}

	fmt.Fprintf(b, "%s%s \"\"\n", prefix, keyword)

	for _, line := range lines {
		fmt.Fprintf(b, "%s%s\n", prefix, quote(line))
	}
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
