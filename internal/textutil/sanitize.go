package textutil

import "strings"

// SanitizeToken converts a string to a lowercase token safe for object keys
// and file names. Letters are lowercased, digits and hyphens/underscores are
// kept, everything else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// CleanObjectPath normalizes a slash-separated object key. It trims
// surrounding whitespace and slashes and collapses duplicate separators.
// ok is false for empty keys and keys containing "." or ".." segments.
func CleanObjectPath(value string) (string, bool) {
	value = strings.Trim(strings.TrimSpace(value), "/")
	if value == "" {
		return "", false
	}
	parts := strings.Split(value, "/")
	kept := parts[:0]
	for _, part := range parts {
		switch part {
		case "":
			continue
		case ".", "..":
			return "", false
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, "/"), true
}
