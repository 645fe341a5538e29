package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSettings(t *testing.T) {
	settings := BuildSettings(1, 0, "2s")

	assert.Equal(t, 1, lookup(t, settings, "index.number_of_shards"))
	assert.Equal(t, 0, lookup(t, settings, "index.number_of_replicas"))
	assert.Equal(t, "2s", lookup(t, settings, "index.refresh_interval"))
	assert.Equal(t, MaxResultWindow, lookup(t, settings, "index.max_result_window"))
	assert.Equal(t, "ngram_tokenizer", lookup(t, settings, "analysis", "analyzer", "charSplit", "tokenizer"))
	assert.Equal(t, []string{"letter", "digit"}, lookup(t, settings, "analysis", "tokenizer", "ngram_tokenizer", "token_chars"))
}

func TestBuildSettings_AnalysisIdempotent(t *testing.T) {
	first, err := json.Marshal(BuildSettings(1, 0, "2s").Sub("analysis"))
	require.NoError(t, err)
	second, err := json.Marshal(BuildSettings(5, 1, "1s").Sub("analysis"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalysisSettings_FreshCopy(t *testing.T) {
	a := AnalysisSettings()
	a.Sub("tokenizer").Sub(NGramTokenizer).set("max_gram", "2")
	chars, _ := a.Lookup("tokenizer", NGramTokenizer, "token_chars")
	chars.([]string)[0] = "symbol"

	v, ok := AnalysisSettings().Lookup("tokenizer", NGramTokenizer, "max_gram")
	require.True(t, ok)
	assert.Equal(t, "30", v)

	chars, ok = AnalysisSettings().Lookup("tokenizer", NGramTokenizer, "token_chars")
	require.True(t, ok)
	assert.Equal(t, []string{"letter", "digit"}, chars)
}
