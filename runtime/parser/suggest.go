package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/syntaxalyser/core/types"
)

// suggest proposes a keyword when an identifier sits where one of the
// candidate keywords was expected. It returns "" when nothing is close.
func suggest(found types.Token, candidates []types.Symbol) string {
	if found.Symbol != types.Identifier {
		return ""
	}

	var words []string
	for _, sym := range candidates {
		if sym.IsKeyword() {
			words = append(words, sym.Spelling())
		}
	}
	if len(words) == 0 {
		return ""
	}

	text := strings.ToLower(found.Text)

	// Edit distance catches transpositions and typos ("whiel", "ned")
	best, bestDist := "", -1
	for _, w := range words {
		d := fuzzy.LevenshteinDistance(text, w)
		if d > maxTypoDistance(w) {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = w, d
		}
	}
	if best != "" {
		return fmt.Sprintf("did you mean '%s'?", best)
	}

	// Subsequence match catches dropped letters in longer words ("whle")
	if len(text) >= 3 {
		ranks := fuzzy.RankFindFold(text, words)
		if len(ranks) > 0 {
			sort.Sort(ranks)
			return fmt.Sprintf("did you mean '%s'?", ranks[0].Target)
		}
	}
	return ""
}

func maxTypoDistance(word string) int {
	if len(word) <= 3 {
		return 1
	}
	return 2
}
