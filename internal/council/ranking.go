package council

import (
	"regexp"
	"sort"
	"strings"
)

var (
	numberedEntryPattern = regexp.MustCompile(`\d+\.\s*Response [A-Z]`)
	responseLabelPattern = regexp.MustCompile(`Response [A-Z]`)
)

// ParseRanking extracts an ordered list of response labels from a ranker's
// output. It prefers the numbered list under a "FINAL RANKING:" header and
// falls back to any "Response X" mentions in order. An unparseable text
// yields an empty slice.
func ParseRanking(text string) []string {
	if strings.Contains(text, "FINAL RANKING:") {
		parts := strings.SplitN(text, "FINAL RANKING:", 2)
		section := parts[1]

		if numbered := numberedEntryPattern.FindAllString(section, -1); len(numbered) > 0 {
			results := make([]string, 0, len(numbered))
			for _, match := range numbered {
				if label := responseLabelPattern.FindString(match); label != "" {
					results = append(results, label)
				}
			}
			return results
		}
		if matches := responseLabelPattern.FindAllString(section, -1); len(matches) > 0 {
			return matches
		}
	}
	return responseLabelPattern.FindAllString(text, -1)
}

// AggregateRankings folds per-ranker orderings into one consensus ordering
// using Borda counting: a candidate at position p (0-based) in a ranker's
// list earns len(councilOrder)-p points from that ranker. Candidates a
// ranker omitted simply earn nothing from it. The output is sorted by score
// descending with ties broken by position in councilOrder, so the result is
// deterministic for a given input regardless of call-arrival order.
func AggregateRankings(rankings []Ranking, labelToModel map[string]string, councilOrder []string) []AggregateEntry {
	councilSize := len(councilOrder)
	scores := make(map[string]int)
	rankers := make(map[string]int)

	for _, ranking := range rankings {
		for position, label := range ranking.Parsed {
			model, ok := labelToModel[label]
			if !ok {
				continue
			}
			scores[model] += councilSize - position
			rankers[model]++
		}
	}

	councilIndex := make(map[string]int, councilSize)
	for i, model := range councilOrder {
		councilIndex[model] = i
	}

	aggregate := make([]AggregateEntry, 0, len(scores))
	for model, score := range scores {
		aggregate = append(aggregate, AggregateEntry{
			Model:   model,
			Score:   score,
			Rankers: rankers[model],
		})
	}

	sort.SliceStable(aggregate, func(i, j int) bool {
		if aggregate[i].Score != aggregate[j].Score {
			return aggregate[i].Score > aggregate[j].Score
		}
		return councilIndex[aggregate[i].Model] < councilIndex[aggregate[j].Model]
	})

	return aggregate
}
