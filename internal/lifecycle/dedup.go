package lifecycle

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/dsu"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/merchants"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
)

// Display-time deduplication. A scan can fragment one real purchase into
// several records (confirmation seeded one, a tracking-only email seeded
// another) before a merge-triggering email arrives. Grouping here is
// read-only: stored orders are never mutated, only the returned clones are
// enriched.

var summaryTokenRe = regexp.MustCompile(`[a-z0-9]+`)

var summaryStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "for": true,
	"and": true, "with": true, "your": true, "from": true,
	"order": true, "item": true, "items": true, "qty": true, "x": true,
}

func summaryTokens(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range summaryTokenRe.FindAllString(strings.ToLower(s), -1) {
		if !summaryStopWords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// tokenOverlap is the overlap coefficient: |A∩B| / min(|A|, |B|). Empty
// token sets never overlap.
func tokenOverlap(a, b string) float64 {
	ta, tb := summaryTokens(a), summaryTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for tok := range ta {
		if tb[tok] {
			shared++
		}
	}
	smaller := len(ta)
	if len(tb) < smaller {
		smaller = len(tb)
	}
	return float64(shared) / float64(smaller)
}

// sameDisplayOrder decides whether two orders in the same merchant group
// refer to one purchase. Two different non-empty order IDs are never the
// same purchase, no matter how similar the text is.
func (e *Engine) sameDisplayOrder(a, b *orders.Order) bool {
	if a.OrderID != "" && b.OrderID != "" {
		return a.OrderID == b.OrderID
	}
	overlap := tokenOverlap(a.ItemSummary, b.ItemSummary)
	return overlap >= e.cfg.TokenOverlapThreshold
}

// richnessScore favors records with the fields the display layer most needs.
func richnessScore(o *orders.Order) int {
	score := 0
	if o.DeliveryDate != nil {
		score += 8
	}
	if o.ReturnByDate != nil {
		score += 8
	}
	if o.OrderID != "" {
		score += 4
	}
	if o.ExplicitReturnBy != nil {
		score += 4
	}
	if o.TrackingNumber != "" {
		score += 2
	}
	if o.Amount != nil {
		score++
	}
	if o.ItemSummary != "" && o.ItemSummary != orders.UnknownItemSummary {
		score++
	}
	return score
}

// DedupForDisplay collapses fragmented orders into one display record per
// real purchase. Within each normalized-merchant group a union-find clusters
// orders that share an order ID or whose summaries overlap enough; the
// richest member represents the cluster, backfilled from the others.
func (e *Engine) DedupForDisplay(all []*orders.Order) []*orders.Order {
	groups := make(map[string][]*orders.Order)
	var groupKeys []string
	for _, o := range all {
		key := merchants.NormalizeKey(o.MerchantDomain, o.MerchantName)
		if _, seen := groups[key]; !seen {
			groupKeys = append(groupKeys, key)
		}
		groups[key] = append(groups[key], o)
	}
	sort.Strings(groupKeys)

	var out []*orders.Order
	for _, key := range groupKeys {
		group := groups[key]
		set := dsu.New(len(group))
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if e.sameDisplayOrder(group[i], group[j]) {
					set.Union(i, j)
				}
			}
		}

		clusters := set.Groups()
		roots := make([]int, 0, len(clusters))
		for root := range clusters {
			roots = append(roots, root)
		}
		sort.Ints(roots)

		for _, root := range roots {
			members := clusters[root]
			best := members[0]
			for _, idx := range members[1:] {
				if betterRepresentative(group[idx], group[best]) {
					best = idx
				}
			}

			display := group[best].Clone()
			for _, idx := range members {
				if idx == best {
					continue
				}
				display.FillMissingFrom(group[idx])
				for _, id := range group[idx].SourceEmailIDs {
					display.AddSourceEmail(id)
				}
			}
			out = append(out, display)
		}
	}
	return out
}

// betterRepresentative orders candidates by richness, then age, then key,
// so cluster output is deterministic.
func betterRepresentative(a, b *orders.Order) bool {
	sa, sb := richnessScore(a), richnessScore(b)
	if sa != sb {
		return sa > sb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderKey < b.OrderKey
}
