package service

import (
	"regexp"
	"strings"

	"github.com/xxxsen/gsqlai/internal/model"
)

const defaultExplanation = "Generated GSQL query based on your requirements."

var (
	// the fence tag is matched case-insensitively, "```GSQL" is common
	gsqlBlockPattern   = regexp.MustCompile("(?is)```gsql\\b[ \\t]*\\r?\\n?(.*?)```")
	explanationPattern = regexp.MustCompile(`(?s)\*\*Explanation\*\*:[ \t]*(.*?)(?:\n[ \t]*\n|\n\*\*|\z)`)
	featuresPattern    = regexp.MustCompile(`(?s)\*\*Key Features\*\*:[ \t]*(.*?)(?:\n[ \t]*\n|\n\*\*|\z)`)
	bulletPrefix       = regexp.MustCompile(`^\s*(?:[-*•+]|\d+[.)])\s*`)
)

// parseGeneration pulls the code, explanation and feature list out of a free
// text reply. Every part has a fallback, so it never fails.
func parseGeneration(raw string) *model.GenerationResult {
	text := strings.TrimSpace(raw)
	return &model.GenerationResult{
		Code:         extractCode(text),
		Explanation:  extractExplanation(text),
		Features:     extractFeatures(text),
		FullResponse: text,
	}
}

func extractCode(text string) string {
	if m := gsqlBlockPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

func extractExplanation(text string) string {
	if m := explanationPattern.FindStringSubmatch(text); m != nil {
		if explanation := strings.TrimSpace(m[1]); explanation != "" {
			return explanation
		}
	}
	return defaultExplanation
}

func extractFeatures(text string) []string {
	features := make([]string, 0)
	m := featuresPattern.FindStringSubmatch(text)
	if m == nil {
		return features
	}
	for _, line := range strings.Split(m[1], "\n") {
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if item == "" {
			continue
		}
		features = append(features, item)
	}
	return features
}
