package schema

import "strconv"

// Settings keys and constants of the settings document
const (
	SettingRefreshInterval = "index.refresh_interval"
	SettingReplicas        = "index.number_of_replicas"
	SettingShards          = "index.number_of_shards"
	SettingMaxResultWindow = "index.max_result_window"
	SettingAnalysis        = "analysis"

	// MaxResultWindow lifts the engine's default paging ceiling
	MaxResultWindow = 100000000

	// NGramAnalyzer is the custom analyzer every index carries; text fields opt in by name
	NGramAnalyzer = "charSplit"
	// NGramTokenizer backs NGramAnalyzer
	NGramTokenizer = "ngram_tokenizer"
	NGramMinGram   = 1
	NGramMaxGram   = 30
)

// NGramTokenChars are the character classes kept by NGramTokenizer
var NGramTokenChars = []string{"letter", "digit"}

// BuildSettings compiles the index settings document
func BuildSettings(shards, replicas int, refreshInterval string) *Tree {
	return newTree().
		set(SettingRefreshInterval, refreshInterval).
		set(SettingReplicas, replicas).
		set(SettingShards, shards).
		set(SettingMaxResultWindow, MaxResultWindow).
		set(SettingAnalysis, AnalysisSettings())
}

// AnalysisSettings returns a fresh copy of the analysis block shared by every index
func AnalysisSettings() *Tree {
	return analysisSettings.Clone()
}

var analysisSettings = newTree().
	set("analyzer", newTree().
		set(NGramAnalyzer, newTree().
			set("type", "custom").
			set("tokenizer", NGramTokenizer))).
	set("tokenizer", newTree().
		set(NGramTokenizer, newTree().
			set("type", "ngram").
			set("min_gram", strconv.Itoa(NGramMinGram)).
			set("max_gram", strconv.Itoa(NGramMaxGram)).
			set("token_chars", append([]string(nil), NGramTokenChars...))))
