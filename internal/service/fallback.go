package service

import (
	"strings"

	"github.com/xxxsen/gsqlai/internal/model"
	"github.com/xxxsen/gsqlai/internal/retrieval"
)

const unreachableNotice = "The AI service could not be reached, so this answer was built from the local documentation index. Please try again shortly."

func ragContext(retrieved []model.ScoredChunk) *model.RAGContext {
	if len(retrieved) == 0 {
		return nil
	}
	return &model.RAGContext{
		ChunksRetrieved:  len(retrieved),
		RelevantSections: retrieval.Titles(retrieved),
		Confidence:       retrieval.Confidence(retrieved),
	}
}

func relevantSectionsSentence(titles []string) string {
	if len(titles) == 0 {
		return ""
	}
	return " These documentation sections look relevant: " + strings.Join(titles, ", ") + "."
}

func generationFallback(retrieved []model.ScoredChunk) *model.GenerationResult {
	titles := retrieval.Titles(retrieved)
	explanation := unreachableNotice + relevantSectionsSentence(titles)
	var code strings.Builder
	code.WriteString("// GSQL generation is temporarily unavailable.\n")
	for _, title := range titles {
		code.WriteString("// see: " + title + "\n")
	}
	return &model.GenerationResult{
		Code:         strings.TrimSpace(code.String()),
		Explanation:  explanation,
		Features:     titles,
		FullResponse: explanation,
		RAGContext:   ragContext(retrieved),
		Degraded:     true,
	}
}

func chatFallback(retrieved []model.ScoredChunk) *model.ChatResult {
	return &model.ChatResult{
		Reply:      unreachableNotice + relevantSectionsSentence(retrieval.Titles(retrieved)),
		RAGContext: ragContext(retrieved),
		Degraded:   true,
	}
}
