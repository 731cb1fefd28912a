package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raintag/raintag/internal/ai"
)

func makeBookmarks(n int) []ai.Bookmark {
	bookmarks := make([]ai.Bookmark, n)
	for i := range bookmarks {
		bookmarks[i] = ai.Bookmark{ID: int64(i + 1), URL: "https://example.com"}
	}
	return bookmarks
}

func TestBuildBatchesPartitionsExactly(t *testing.T) {
	bookmarks := makeBookmarks(60)

	batches := BuildBatches(bookmarks, 25)
	require.Len(t, batches, 3)

	assert.Len(t, batches[0], 25)
	assert.Len(t, batches[1], 25)
	assert.Len(t, batches[2], 10)

	var ids []int64
	for _, batch := range batches {
		for _, bookmark := range batch {
			ids = append(ids, bookmark.ID)
		}
	}

	require.Len(t, ids, 60)
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}
}

func TestBuildBatchesSmallInputSingleBatch(t *testing.T) {
	batches := BuildBatches(makeBookmarks(12), 25)

	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 12)
}

func TestBuildBatchesEmptyInput(t *testing.T) {
	assert.Nil(t, BuildBatches(nil, 25))
}

func TestBuildBatchesDefaultsBatchSize(t *testing.T) {
	batches := BuildBatches(makeBookmarks(30), 0)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0], DefaultBatchSize)
	assert.Len(t, batches[1], 5)
}
