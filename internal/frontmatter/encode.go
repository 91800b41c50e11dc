package frontmatter

import (
	"strconv"
	"strings"
)

// Encode renders rec as a header block, delimiters included. The closing
// delimiter is not followed by a newline; EncodeDocument adds the separator.
//
// Absent fields and empty text are omitted. Double quotes inside list items
// are written as-is, so such items do not survive a round trip. Multi-line
// text is written one line per row, and since headers accept CRLF line
// endings a "\r\n" inside such text decodes back as "\n".
func Encode(rec *Record) string {
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteByte('\n')

	for key, v := range rec.All() {
		switch v.Kind() {
		case KindAbsent:
			continue
		case KindText:
			s, _ := v.AsText()
			if s == "" {
				continue
			}
			if strings.Contains(s, "\n") {
				b.WriteString(key + ": " + blockMarker + "\n")
				for _, line := range strings.Split(s, "\n") {
					b.WriteString(blockIndent + line + "\n")
				}
				continue
			}
			b.WriteString(key + `: "` + strings.ReplaceAll(s, `"`, `\"`) + "\"\n")
		case KindNumber:
			f, _ := v.AsNumber()
			b.WriteString(key + ": " + formatNumber(f) + "\n")
		case KindBoolean:
			t, _ := v.AsBoolean()
			b.WriteString(key + ": " + strconv.FormatBool(t) + "\n")
		case KindList:
			items, _ := v.AsList()
			if len(items) == 0 {
				b.WriteString(key + ": " + emptyList + "\n")
				continue
			}
			b.WriteString(key + ":\n")
			for _, it := range items {
				b.WriteString(`- "` + it + "\"\n")
			}
		}
	}

	b.WriteString(delimiter)
	return b.String()
}
