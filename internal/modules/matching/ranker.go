// README: Ranker: stable descending sort by score and top-K truncation.
package matching

import "sort"

// rank orders results by score, keeping catalog order among equal scores.
func rank(results []Result, topK int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
