// Package tagging implements the bookmark auto-tagging pipeline: it pulls
// untagged bookmarks from Raindrop, asks a language model for tag
// assignments in bounded batches, validates the answers, and writes the
// surviving tags back.
package tagging

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/raintag/raintag/internal/ai"
	"github.com/raintag/raintag/pkg/clients/raindrop"
)

const (
	maxTitleLen   = 200
	maxExcerptLen = 500
	maxDomainLen  = 100
	maxURLLen     = 2000
)

var (
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// NewBookmark converts a raw Raindrop item into a pipeline bookmark. Text
// fields are sanitized and bounded so they are safe to embed in a prompt;
// items without an id or with an unusable link are rejected.
func NewBookmark(item raindrop.Raindrop) (ai.Bookmark, error) {
	if item.ID == 0 {
		return ai.Bookmark{}, fmt.Errorf("bookmark has no id")
	}

	link := strings.TrimSpace(item.Link)
	if err := validateLink(link); err != nil {
		return ai.Bookmark{}, fmt.Errorf("bookmark %d: %w", item.ID, err)
	}

	return ai.Bookmark{
		ID:      item.ID,
		Title:   sanitizeText(item.Title, maxTitleLen),
		Excerpt: sanitizeText(item.Excerpt, maxExcerptLen),
		URL:     link,
		Domain:  sanitizeText(item.Domain, maxDomainLen),
	}, nil
}

func sanitizeText(s string, maxLen int) string {
	s = controlChars.ReplaceAllString(s, " ")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return truncate(s, maxLen)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}

func validateLink(link string) error {
	if link == "" {
		return fmt.Errorf("empty link")
	}
	if len(link) > maxURLLen {
		return fmt.Errorf("link exceeds %d characters", maxURLLen)
	}

	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("unparseable link: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported link scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("link has no host")
	}

	return nil
}
