package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const maxSnippetLen = 200

// assignmentWire mirrors one element of the model's JSON response.
type assignmentWire struct {
	ID   flexID   `json:"_id"`
	Tags []string `json:"tags"`
}

// flexID tolerates models quoting numeric bookmark IDs.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)

	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid bookmark id %q", s)
	}

	*f = flexID(v)
	return nil
}

// parseAssignments decodes the model response and enforces a one-to-one
// mapping with the requested batch. The result follows batch order.
func parseAssignments(raw string, bookmarks []Bookmark) ([]Assignment, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, &ParseError{Reason: "empty response", Raw: snippet(raw)}
	}

	var wire []assignmentWire
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: snippet(cleaned)}
	}

	expected := make(map[int64]bool, len(bookmarks))
	for _, b := range bookmarks {
		expected[b.ID] = true
	}

	tagsByID := make(map[int64][]string, len(wire))
	for _, entry := range wire {
		id := int64(entry.ID)

		if !expected[id] {
			return nil, &ParseError{Reason: fmt.Sprintf("unknown bookmark id %d", id), Raw: snippet(cleaned)}
		}
		if _, dup := tagsByID[id]; dup {
			return nil, &ParseError{Reason: fmt.Sprintf("duplicate bookmark id %d", id), Raw: snippet(cleaned)}
		}

		tagsByID[id] = entry.Tags
	}

	if len(tagsByID) != len(bookmarks) {
		return nil, &ParseError{
			Reason: fmt.Sprintf("%d of %d bookmarks answered", len(tagsByID), len(bookmarks)),
			Raw:    snippet(cleaned),
		}
	}

	assignments := make([]Assignment, len(bookmarks))
	for i, b := range bookmarks {
		assignments[i] = Assignment{BookmarkID: b.ID, Tags: tagsByID[b.ID]}
	}

	return assignments, nil
}

// stripCodeFences removes a wrapping markdown code block. Some models
// fence their output despite the plain-JSON instruction.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")

	// Drop the language hint line, if any
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		return strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen] + "..."
	}
	return s
}
