package news

import "strings"

// Sanitize strips characters that break downstream consumers: ASCII control
// characters other than tab/newline/carriage-return become a single space
// (replacement, not deletion, keeps character offsets stable for debugging),
// and zero-width/BOM characters are removed outright. Idempotent.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			b.WriteByte(' ')
		case r >= 0x200b && r <= 0x200d:
			// zero-width space / non-joiner / joiner
		case r == 0xfeff:
			// BOM
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseWhitespace squeezes runs of spaces inside each line to one space,
// trims every line, and drops blank lines. Used on extracted article bodies.
func CollapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n")
}
