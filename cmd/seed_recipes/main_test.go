package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCorpus(t *testing.T) {
	t.Run("json array", func(t *testing.T) {
		input := `[{"title": "Pancakes", "ingredients": ["flour"]}, {"title": "Salad", "ingredients": ["lettuce"]}]`
		records, err := parseCorpus(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Pancakes", records[0].Title)
	})

	t.Run("ndjson with blank lines", func(t *testing.T) {
		input := "{\"title\": \"Pancakes\", \"ingredients\": [\"flour\"]}\n\n{\"title\": \"Salad\", \"ingredients\": [\"lettuce\"]}\n"
		records, err := parseCorpus(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Salad", records[1].Title)
	})

	t.Run("broken ndjson line reports its position", func(t *testing.T) {
		input := "{\"title\": \"Pancakes\"}\nnot json\n"
		_, err := parseCorpus(strings.NewReader(input))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("empty corpus is an error", func(t *testing.T) {
		_, err := parseCorpus(strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestParseS3Path(t *testing.T) {
	bucket, key, err := parseS3Path("s3://corpus-bucket/dumps/recipes.ndjson")
	require.NoError(t, err)
	assert.Equal(t, "corpus-bucket", bucket)
	assert.Equal(t, "dumps/recipes.ndjson", key)

	_, _, err = parseS3Path("s3://only-bucket")
	assert.Error(t, err)
}
