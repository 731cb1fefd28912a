package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// Tags requested from the model for each bookmark.
	minSuggestedTags = 3
	maxSuggestedTags = 5

	// Existing tags shown in the prompt. Keeps the prompt bounded for
	// collections with very large taxonomies.
	taxonomyPromptLimit = 100
)

const systemPrompt = "You are a bookmark categorization assistant. " +
	"You assign concise, consistent tags to bookmarks and always answer with valid JSON."

// promptBookmark is the shape of a bookmark as serialized into the prompt.
type promptBookmark struct {
	ID      int64  `json:"_id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
	URL     string `json:"url"`
	Domain  string `json:"domain,omitempty"`
}

// buildPrompt renders the categorization request for one batch.
func buildPrompt(bookmarks []Bookmark, taxonomy []string) (string, error) {
	data := make([]promptBookmark, len(bookmarks))
	for i, b := range bookmarks {
		data[i] = promptBookmark{
			ID:      b.ID,
			Title:   b.Title,
			Excerpt: b.Excerpt,
			URL:     b.URL,
			Domain:  b.Domain,
		}
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode bookmarks: %w", err)
	}

	shown := taxonomy
	if len(shown) > taxonomyPromptLimit {
		shown = shown[:taxonomyPromptLimit]
	}

	tagsLine := "none yet"
	if len(shown) > 0 {
		tagsLine = strings.Join(shown, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze these bookmarks and assign %d-%d relevant tags to each one.\n\n", minSuggestedTags, maxSuggestedTags)
	fmt.Fprintf(&sb, "Existing tags in the collection (prefer these when they fit):\n%s\n\n", tagsLine)
	fmt.Fprintf(&sb, "Bookmarks to categorize:\n%s\n\n", encoded)
	sb.WriteString("Rules:\n")
	sb.WriteString("- Prefer existing tags over inventing new ones\n")
	sb.WriteString("- Use lowercase tags containing only letters, digits, spaces or hyphens\n")
	sb.WriteString("- Tag by topic and content type, not by the bookmarking service\n\n")
	sb.WriteString("Return ONLY a JSON array in this exact format, with no other text:\n")
	sb.WriteString(`[{"_id": 123, "tags": ["tag1", "tag2", "tag3"]}]`)
	sb.WriteString("\nInclude every bookmark exactly once.")

	return sb.String(), nil
}
