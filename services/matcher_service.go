package services

import (
	"strings"

	"github.com/tiendabot/tiendabot-api/models"
	"github.com/tiendabot/tiendabot-api/utils"
)

// brandAliases expands well-known product names into the spellings customers
// actually type. Keyed by a substring of the normalized product name.
var brandAliases = map[string][]string{
	"coca":   {"cocacola", "coca"},
	"yerba":  {"yerbamate", "yrba"},
	"azucar": {"asucar", "azuca"},
}

// MatchProduct scores a free-text candidate against the merchant's catalog
// and returns the best-scoring product. A non-positive score means no match;
// callers must ask for clarification instead of guessing.
func MatchProduct(candidate string, catalog []models.Product) (*models.Product, float64) {
	normCandidate := utils.Normalize(candidate)
	if normCandidate == "" {
		return nil, 0
	}
	squashedCandidate := utils.Squash(candidate)
	candidateTokens := utils.Tokens(candidate)

	var best *models.Product
	bestScore := 0.0

	for i := range catalog {
		product := &catalog[i]
		score := scoreProduct(normCandidate, squashedCandidate, candidateTokens, product)
		// Strictly-greater keeps the earliest-seen product on ties
		if score > bestScore {
			bestScore = score
			best = product
		}
	}

	return best, bestScore
}

func scoreProduct(normCandidate, squashedCandidate string, candidateTokens []string, product *models.Product) float64 {
	normName := utils.Normalize(product.Name)
	squashedName := utils.Squash(product.Name)

	score := 0.0

	if mutualSubstring(normCandidate, normName) {
		score += 3
	}
	if mutualSubstring(squashedCandidate, squashedName) {
		score += 3
	}

	for _, token := range candidateTokens {
		if strings.Contains(normName, token) {
			score += 1
		}
	}

	for _, alias := range aliasesFor(normName) {
		if mutualSubstring(alias, squashedCandidate) {
			score += 2
			continue
		}
		switch utils.LevenshteinDistance(alias, squashedCandidate) {
		case 1:
			score += 1.5
		case 2:
			score += 1
		}
	}

	return score
}

// aliasesFor returns the hand-seeded aliases triggered by the product name.
func aliasesFor(normName string) []string {
	var aliases []string
	for trigger, expansion := range brandAliases {
		if strings.Contains(normName, trigger) {
			aliases = append(aliases, expansion...)
		}
	}
	return aliases
}

func mutualSubstring(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
