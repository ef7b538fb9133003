package knowledge

import (
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// ExtractKeywords returns up to limit of the most frequent alphanumeric tokens
// longer than three characters. Ties keep first-occurrence order.
func ExtractKeywords(content string, limit int) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(content), -1) {
		if len(tok) <= 3 {
			continue
		}
		if _, ok := counts[tok]; !ok {
			order = append(order, tok)
		}
		counts[tok]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}
