// Copyright 2025, the txsync contributors
// SPDX-License-Identifier: AGPL-3.0-only

package po

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errUnterminatedString = errors.New("unterminated string")
	errUnknownKeyword     = errors.New("unknown keyword")
	errOrphanString       = errors.New("string continuation without keyword")
	errDuplicateEntry     = errors.New("duplicate entry")
)

// ParseError reports the line a catalog failed to parse at.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("po: line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// parser accumulates one entry at a time.
type parser struct {
	catalog *Catalog
	cur     *Entry
	seenID  bool
	seenStr bool
	// target receives string continuation lines.
	target *string
	header bool
	keys   map[string]struct{}
}

// Parse reads a catalog from data.
func Parse(data []byte) (*Catalog, error) {
	p := &parser{
		catalog: &Catalog{},
		cur:     &Entry{},
		keys:    make(map[string]struct{}),
	}

	text := strings.TrimPrefix(string(data), "\ufeff")

	for i, raw := range strings.Split(text, "\n") {
		if err := p.line(strings.TrimRight(raw, "\r")); err != nil {
			return nil, &ParseError{Line: i + 1, Err: err}
		}
	}

	if err := p.flush(); err != nil {
		return nil, err
	}

	return p.catalog, nil
}

func (p *parser) line(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return p.flush()
	}

	obsolete := false

	if rest, ok := strings.CutPrefix(trimmed, "#~"); ok {
		obsolete = true
		trimmed = strings.TrimSpace(rest)

		if trimmed == "" {
			return nil
		}

		if strings.HasPrefix(trimmed, "|") {
			trimmed = "#" + trimmed
		}
	}

	switch {
	case strings.HasPrefix(trimmed, "#"):
		if p.seenStr {
			if err := p.flush(); err != nil {
				return err
			}
		}

		p.comment(trimmed)
	case strings.HasPrefix(trimmed, `"`):
		if p.target == nil {
			return errOrphanString
		}

		s, err := unquote(trimmed)
		if err != nil {
			return err
		}

		*p.target += s
	default:
		if err := p.keyword(trimmed); err != nil {
			return err
		}
	}

	if obsolete {
		p.cur.Obsolete = true
	}

	return nil
}

func (p *parser) comment(line string) {
	p.target = nil

	switch {
	case strings.HasPrefix(line, "#."):
		p.cur.ExtractedComments = append(p.cur.ExtractedComments, strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#:"):
		p.cur.References = append(p.cur.References, strings.Fields(line[2:])...)
	case strings.HasPrefix(line, "#,"):
		for flag := range strings.SplitSeq(line[2:], ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				p.cur.Flags = append(p.cur.Flags, flag)
			}
		}
	case strings.HasPrefix(line, "#|"):
		p.cur.Previous = append(p.cur.Previous, strings.TrimSpace(line[2:]))
	default:
		text := strings.TrimPrefix(line, "#")
		text = strings.TrimPrefix(text, " ")
		p.cur.TranslatorComments = append(p.cur.TranslatorComments, text)
	}
}

func (p *parser) keyword(line string) error {
	keyword, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	// A new msgctxt or msgid after a msgstr starts the next entry.
	if (keyword == "msgctxt" || keyword == "msgid") && p.seenStr {
		if err := p.flush(); err != nil {
			return err
		}
	}

	value, err := unquote(rest)
	if err != nil {
		return err
	}

	switch {
	case keyword == "msgctxt":
		p.cur.Context = value
		p.target = &p.cur.Context
	case keyword == "msgid":
		p.cur.ID = value
		p.seenID = true
		p.target = &p.cur.ID
	case keyword == "msgid_plural":
		p.cur.IDPlural = value
		p.target = &p.cur.IDPlural
	case keyword == "msgstr":
		p.cur.Str = value
		p.seenStr = true
		p.target = &p.cur.Str
	case strings.HasPrefix(keyword, "msgstr[") && strings.HasSuffix(keyword, "]"):
		n, err := strconv.Atoi(keyword[len("msgstr[") : len(keyword)-1])
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s", errUnknownKeyword, keyword)
		}

		for len(p.cur.StrPlural) <= n {
			p.cur.StrPlural = append(p.cur.StrPlural, "")
		}

		p.cur.StrPlural[n] = value
		p.seenStr = true
		p.target = &p.cur.StrPlural[n]
	default:
		return fmt.Errorf("%w: %s", errUnknownKeyword, keyword)
	}

	return nil
}

// flush finishes the current entry. Comments without a msgid stay attached
// to the entry that follows them.
func (p *parser) flush() error {
	if !p.seenID {
		return nil
	}

	e := p.cur

	p.cur = &Entry{}
	p.seenID = false
	p.seenStr = false
	p.target = nil

	if !p.header && e.ID == "" && e.Context == "" && !e.Obsolete {
		p.header = true
		p.catalog.HeaderComments = e.TranslatorComments
		p.catalog.HeaderFlags = e.Flags
		p.catalog.Metadata = parseHeader(e.Str)

		return nil
	}

	if !e.Obsolete {
		if _, dup := p.keys[e.Key()]; dup {
			return fmt.Errorf("%w: %q", errDuplicateEntry, e.ID)
		}

		p.keys[e.Key()] = struct{}{}
	}

	p.catalog.Entries = append(p.catalog.Entries, e)

	return nil
}

// unquote decodes a double-quoted PO string with C escapes.
func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("%w: %s", errUnterminatedString, s)
	}

	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)

			continue
		}

		i++

		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		default:
			// \" \\ \' and anything unknown keep the escaped character.
			b.WriteByte(s[i])
		}
	}

	return b.String(), nil
}
