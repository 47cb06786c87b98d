package classify

import (
	"fmt"
	"sort"
	"strings"
)

// Category is the dispatch decision derived from a raw query.
type Category string

const (
	CategoryKBOnly    Category = "kb_only"
	CategoryPriceOnly Category = "price_only"
	CategoryCombined  Category = "combined"
	CategoryAuto      Category = "auto"
)

// Valid reports whether s is one of the known categories.
func Valid(s string) bool {
	switch Category(s) {
	case CategoryKBOnly, CategoryPriceOnly, CategoryCombined, CategoryAuto:
		return true
	}
	return false
}

// Classification carries the category plus the evidence that drove it.
type Classification struct {
	Category         Category
	Reasoning        string
	DetectedProjects []string
}

// priceKeywords and technicalKeywords are matched by substring containment
// against the lowercased query. "market" matches inside "marketing"; that
// looseness is accepted behavior, do not add word-boundary guards.
var priceKeywords = []string{
	"price",
	"cost",
	"worth",
	"market",
	"trading",
	"bullish",
	"bearish",
	"chart",
	"volume",
	"marketcap",
	"market cap",
	"usd",
	"expensive",
}

var technicalKeywords = []string{
	"consensus",
	"whitepaper",
	"protocol",
	"algorithm",
	"mechanism",
	"network",
	"validation",
	"mining",
	"stake",
	"hash",
	"block",
	"transaction",
	"security",
	"cryptography",
	"smart contract",
	"proof of work",
	"proof of stake",
	"byzantine",
}

type alias struct {
	surface   string
	canonical string
}

// projectAliases maps surface forms (name or ticker) to canonical project ids.
var projectAliases = []alias{
	{"bitcoin", "bitcoin"},
	{"btc", "bitcoin"},
	{"ethereum", "ethereum"},
	{"eth", "ethereum"},
	{"solana", "solana"},
	{"sol", "solana"},
	{"cardano", "cardano"},
	{"ada", "cardano"},
	{"polkadot", "polkadot"},
	{"dot", "polkadot"},
	{"ripple", "ripple"},
	{"xrp", "ripple"},
	{"litecoin", "litecoin"},
	{"ltc", "litecoin"},
	{"dogecoin", "dogecoin"},
	{"doge", "dogecoin"},
	{"polygon", "polygon"},
	{"matic", "polygon"},
	{"arbitrum", "arbitrum"},
	{"arb", "arbitrum"},
	{"optimism", "optimism"},
	{"op", "optimism"},
}

// Classify maps a raw query to a category plus supporting evidence. It is
// deterministic, does no I/O and has no failure modes: keyword-free input
// falls through to the adaptive default instead of erroring.
func Classify(query string) Classification {
	lower := strings.ToLower(query)

	detected := detectProjects(lower)
	priceCount := countKeywords(lower, priceKeywords)
	technicalCount := countKeywords(lower, technicalKeywords)

	switch {
	case priceCount > 0 && technicalCount > 0:
		return Classification{
			Category:         CategoryCombined,
			Reasoning:        fmt.Sprintf("Query contains both price terms (%d) and technical terms (%d). Executing both KB search and price fetch.", priceCount, technicalCount),
			DetectedProjects: detected,
		}
	case priceCount > 0:
		return Classification{
			Category:         CategoryPriceOnly,
			Reasoning:        fmt.Sprintf("Query contains %d price-related keywords. Fetching live price data.", priceCount),
			DetectedProjects: detected,
		}
	case technicalCount > 0:
		return Classification{
			Category:         CategoryKBOnly,
			Reasoning:        fmt.Sprintf("Query contains %d technical keywords. Searching knowledge base.", technicalCount),
			DetectedProjects: detected,
		}
	case len(detected) > 0:
		return Classification{
			Category:         CategoryAuto,
			Reasoning:        fmt.Sprintf("Detected crypto project mentions (%s). Using adaptive detection.", strings.Join(detected, ", ")),
			DetectedProjects: detected,
		}
	default:
		return Classification{
			Category:  CategoryAuto,
			Reasoning: "No clear classification. Using adaptive mode.",
		}
	}
}

// detectProjects collects canonical ids for every alias contained in the
// lowercased query, deduplicated, ordered by the position of the earliest
// matching alias in the text.
func detectProjects(lower string) []string {
	firstSeen := make(map[string]int)
	for _, a := range projectAliases {
		idx := strings.Index(lower, a.surface)
		if idx < 0 {
			continue
		}
		if prev, ok := firstSeen[a.canonical]; !ok || idx < prev {
			firstSeen[a.canonical] = idx
		}
	}
	if len(firstSeen) == 0 {
		return nil
	}
	out := make([]string, 0, len(firstSeen))
	for id := range firstSeen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if firstSeen[out[i]] == firstSeen[out[j]] {
			return out[i] < out[j]
		}
		return firstSeen[out[i]] < firstSeen[out[j]]
	})
	return out
}

// countKeywords counts how many of the fixed keywords appear in the query.
// Each keyword counts at most once no matter how often it occurs.
func countKeywords(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
