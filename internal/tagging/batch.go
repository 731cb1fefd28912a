package tagging

import "github.com/raintag/raintag/internal/ai"

// DefaultBatchSize is the number of bookmarks sent to the model per request.
const DefaultBatchSize = 25

// Batch is an ordered group of bookmarks categorized in one model request.
type Batch []ai.Bookmark

// BuildBatches splits bookmarks into ordered batches of at most batchSize.
// Concatenating the batches reproduces the input exactly.
func BuildBatches(bookmarks []ai.Bookmark, batchSize int) []Batch {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if len(bookmarks) == 0 {
		return nil
	}

	batches := make([]Batch, 0, (len(bookmarks)+batchSize-1)/batchSize)

	for start := 0; start < len(bookmarks); start += batchSize {
		end := start + batchSize
		if end > len(bookmarks) {
			end = len(bookmarks)
		}
		batches = append(batches, Batch(bookmarks[start:end]))
	}

	return batches
}
