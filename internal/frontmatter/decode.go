package frontmatter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	delimiter   = "---"
	blockMarker = "|"
	blockIndent = "  "
	emptyList   = "[]"
)

var (
	keyLineRe = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_.-]*):(?:[ \t]+(.*))?$`)
	keyRe     = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)
	numberRe  = regexp.MustCompile(`^[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?$`)
)

// Warning describes a header line the decoder could not use.
type Warning struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Reason)
}

// Result is the outcome of Inspect.
type Result struct {
	Record *Record
	Body   string
	// HasHeader is false when the text carries no complete header block.
	HasHeader bool
	Warnings  []Warning
}

// PartialDecodeError is returned by DecodeStrict when the header contained
// lines the decoder skipped or values it had to coerce.
type PartialDecodeError struct {
	Warnings []Warning
}

func (e *PartialDecodeError) Error() string {
	if len(e.Warnings) == 1 {
		return "frontmatter: " + e.Warnings[0].String()
	}
	return fmt.Sprintf("frontmatter: %d header problems, first at %s", len(e.Warnings), e.Warnings[0])
}

// ValidKey reports whether key can be written to and read back from a header.
func ValidKey(key string) bool {
	return keyRe.MatchString(key)
}

// Decode splits text into its front-matter record and body. It never fails:
// text without a complete header yields an empty record and the text itself
// as body, and malformed header lines are skipped.
func Decode(text string) (*Record, string) {
	res := Inspect(text)
	return res.Record, res.Body
}

// DecodeStrict decodes like Decode but reports every skipped line or coerced
// value as a *PartialDecodeError. The best-effort record and body are
// returned either way.
func DecodeStrict(text string) (*Record, string, error) {
	res := Inspect(text)
	if len(res.Warnings) > 0 {
		return res.Record, res.Body, &PartialDecodeError{Warnings: res.Warnings}
	}
	return res.Record, res.Body, nil
}

// Inspect decodes text and reports what the lenient decoder glossed over.
func Inspect(text string) Result {
	lines, body, status := splitHeader(text)
	switch status {
	case headerMissing:
		return Result{Record: &Record{}, Body: text}
	case headerUnterminated:
		return Result{
			Record:   &Record{},
			Body:     text,
			Warnings: []Warning{{Line: 1, Text: delimiter, Reason: "header has no closing delimiter"}},
		}
	}

	d := &decoder{rec: &Record{}}
	for i, line := range lines {
		// Line 1 is the opening delimiter.
		d.line(i+2, line)
	}
	d.flush()

	return Result{Record: d.rec, Body: body, HasHeader: true, Warnings: d.warnings}
}

type headerStatus int

const (
	headerMissing headerStatus = iota
	headerUnterminated
	headerComplete
)

// splitHeader returns the lines between the delimiters and everything after
// the closing delimiter line.
func splitHeader(text string) ([]string, string, headerStatus) {
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimSuffix(first, "\r") != delimiter {
		return nil, "", headerMissing
	}

	var lines []string
	for {
		line, after, more := strings.Cut(rest, "\n")
		line = strings.TrimSuffix(line, "\r")
		if line == delimiter {
			if !more {
				return lines, "", headerComplete
			}
			return lines, after, headerComplete
		}
		if !more {
			return nil, "", headerUnterminated
		}
		lines = append(lines, line)
		rest = after
	}
}

type state int

const (
	expectKey state = iota
	inList
	inBlock
)

type decoder struct {
	rec      *Record
	warnings []Warning

	state state
	key   string
	items []string
	block []string
	// seen records the line each key was first decoded on.
	seen map[string]int
}

func (d *decoder) line(n int, line string) {
	if d.state == inBlock {
		if rest, ok := strings.CutPrefix(line, blockIndent); ok {
			d.block = append(d.block, rest)
			return
		}
		d.flush()
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return
	}

	if item, ok := listItem(trimmed); ok {
		if d.state != inList {
			d.warn(n, line, "list item outside a list")
			return
		}
		d.items = append(d.items, stripQuotes(item))
		return
	}

	m := keyLineRe.FindStringSubmatch(line)
	if m == nil {
		d.warn(n, line, "not a key: value line")
		return
	}
	d.flush()
	d.field(n, line, m[1], strings.TrimSpace(m[2]))
}

func (d *decoder) field(n int, line, key, raw string) {
	if first, dup := d.seen[key]; dup {
		d.warn(n, line, fmt.Sprintf("duplicate key %q (first on line %d)", key, first))
	} else {
		if d.seen == nil {
			d.seen = make(map[string]int)
		}
		d.seen[key] = n
	}

	switch raw {
	case "":
		d.state, d.key, d.items = inList, key, nil
		return
	case blockMarker:
		d.state, d.key, d.block = inBlock, key, nil
		return
	case emptyList:
		d.rec.Set(key, List())
		return
	case "true":
		d.rec.Set(key, Boolean(true))
		return
	case "false":
		d.rec.Set(key, Boolean(false))
		return
	}

	s, quoted := unquote(raw)
	if numberRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if quoted {
				d.warn(n, line, fmt.Sprintf("quoted value of %q decoded as a number", key))
			}
			d.rec.Set(key, Number(f))
			return
		}
	}
	d.rec.Set(key, Text(s))
}

// flush commits a pending list or block literal.
func (d *decoder) flush() {
	switch d.state {
	case inList:
		if len(d.items) == 0 {
			d.rec.Set(d.key, Absent())
		} else {
			d.rec.Set(d.key, List(d.items...))
		}
	case inBlock:
		d.rec.Set(d.key, Text(strings.Join(d.block, "\n")))
	}
	d.state, d.key, d.items, d.block = expectKey, "", nil, nil
}

func (d *decoder) warn(n int, line, reason string) {
	d.warnings = append(d.warnings, Warning{Line: n, Text: line, Reason: reason})
}

func listItem(trimmed string) (string, bool) {
	if trimmed == "-" {
		return "", true
	}
	if rest, ok := strings.CutPrefix(trimmed, "- "); ok {
		return strings.TrimSpace(rest), true
	}
	return "", false
}

// stripQuotes removes one matching pair of outer quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// unquote strips one layer of wrapping quotes, undoing the \" escape inside
// double quotes, and reports whether quotes were present.
func unquote(s string) (string, bool) {
	inner := stripQuotes(s)
	if len(inner) == len(s) {
		return s, false
	}
	if s[0] == '"' {
		inner = strings.ReplaceAll(inner, `\"`, `"`)
	}
	return inner, true
}
