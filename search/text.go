package search

import (
	"strings"

	"github.com/poiesic/indexit/core"
)

// Stop words to filter out when checking for verbatim matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// matchesAllQueryWords checks whether every query word (after filtering)
// appears somewhere in the chunk. Keyword and question annotations count as
// matchable text alongside the content, which is what gives them their
// retrieval-boosting role.
func matchesAllQueryWords(chunk *core.ProcessedChunk, query string) bool {
	if chunk == nil {
		return false
	}

	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	chunkWords := tokenizeAndFilter(chunk.Content)
	for _, keyword := range chunk.ImportantKeywords {
		chunkWords = append(chunkWords, tokenizeAndFilter(keyword)...)
	}
	for _, question := range chunk.Questions {
		chunkWords = append(chunkWords, tokenizeAndFilter(question)...)
	}

	chunkWordSet := make(map[string]bool, len(chunkWords))
	for _, word := range chunkWords {
		chunkWordSet[word] = true
	}

	for _, queryWord := range queryWords {
		if !chunkWordSet[queryWord] {
			return false
		}
	}

	return true
}
