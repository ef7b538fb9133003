package retrieval

import (
	"regexp"
	"sort"
	"strings"

	"github.com/xxxsen/gsqlai/internal/model"
)

const DefaultTopK = 7

// Score weights. Tunable, but changing them changes result ordering.
const (
	weightExactPhrase    = 100
	weightTitleWord      = 30
	weightTitleSubstring = 20
	weightContentWord    = 15
	weightContentSubstr  = 10
	weightKeyword        = 5
)

type searchTerm struct {
	word     string
	boundary *regexp.Regexp
}

// Score ranks chunks by lexical overlap with query and schema and returns the
// topK chunks with a positive score, highest first. Ties keep chunk order.
func Score(query, schema string, chunks []*model.KnowledgeChunk, topK int) []model.ScoredChunk {
	if topK <= 0 {
		topK = DefaultTopK
	}
	searchText := strings.ToLower(query + " " + schema)
	terms := buildTerms(searchText)

	scored := make([]model.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		if score := scoreChunk(searchText, terms, chunk); score > 0 {
			scored = append(scored, model.ScoredChunk{Chunk: chunk, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func buildTerms(searchText string) []searchTerm {
	words := strings.Fields(searchText)
	terms := make([]searchTerm, 0, len(words))
	for _, word := range words {
		if len(word) <= 2 {
			continue
		}
		terms = append(terms, searchTerm{
			word:     word,
			boundary: regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`),
		})
	}
	return terms
}

func scoreChunk(searchText string, terms []searchTerm, chunk *model.KnowledgeChunk) int {
	title := strings.ToLower(chunk.Title)
	content := strings.ToLower(chunk.Content)
	titleWords := splitTitle(title)

	score := 0
	if strings.Contains(content, searchText) {
		score += weightExactPhrase
	}
	for _, term := range terms {
		if _, ok := titleWords[term.word]; ok {
			score += weightTitleWord
		} else if strings.Contains(title, term.word) {
			score += weightTitleSubstring
		}
	}
	for _, term := range terms {
		if term.boundary.MatchString(content) {
			score += weightContentWord
		} else if strings.Contains(content, term.word) {
			score += weightContentSubstr
		}
		if containsKeyword(chunk.Keywords, term.word) {
			score += weightKeyword
		}
	}
	return score
}

func splitTitle(title string) map[string]struct{} {
	parts := strings.FieldsFunc(title, func(r rune) bool {
		return r == '_' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		out[p] = struct{}{}
	}
	return out
}

func containsKeyword(keywords []string, word string) bool {
	for _, kw := range keywords {
		if kw == word {
			return true
		}
	}
	return false
}

// Confidence is a rough 0-100 normalisation of the retrieved scores.
func Confidence(chunks []model.ScoredChunk) int {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += c.Score
	}
	confidence := int(float64(total)/float64(len(chunks)*100)*100 + 0.5)
	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

func Titles(chunks []model.ScoredChunk) []string {
	titles := make([]string, 0, len(chunks))
	for _, c := range chunks {
		titles = append(titles, c.Chunk.Title)
	}
	return titles
}
