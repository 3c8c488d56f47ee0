package retrieval

import "strings"

// Compose renders chunks as the evidence block shown to the generator.
// Each entry is a "=== label ===" header followed by the trimmed text;
// entries are separated by a blank line and keep the retriever's order.
func Compose(chunks []Chunk) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = "=== " + c.Label() + " ===\n" + strings.TrimSpace(c.Text) + "\n"
	}
	return strings.Join(parts, "\n")
}

// DocIDs lists the provenance label of each chunk in order.
func DocIDs(chunks []Chunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.Label()
	}
	return ids
}
