// Package ranking groups an already-sorted ranking into ties.
package ranking

// Scored is anything with a score to rank by.
type Scored interface {
	Score() int
}

// GroupByConsecutiveScore splits ranked into maximal runs of equal score,
// preserving order.  Input is expected sorted; equal scores that aren't
// adjacent land in separate groups.
func GroupByConsecutiveScore[T Scored](ranked []T) [][]T {
	groups := [][]T{}
	for i := 0; i < len(ranked); {
		score := ranked[i].Score()
		j := i + 1
		for j < len(ranked) && ranked[j].Score() == score {
			j++
		}
		groups = append(groups, ranked[i:j:j])
		i = j
	}
	return groups
}

// TopTie returns the players tied for first, or nil when first place is
// held alone (or nobody is ranked).  Only this tie is eligible for a
// putt-off; lower ties always split.
func TopTie[T Scored](ranked []T) []T {
	groups := GroupByConsecutiveScore(ranked)
	if len(groups) == 0 || len(groups[0]) < 2 {
		return nil
	}
	return groups[0]
}

// Places returns the 1-based place of the first member of each group.
func Places[T any](groups [][]T) []int {
	places := make([]int, len(groups))
	offset := 0
	for i, g := range groups {
		places[i] = offset + 1
		offset += len(g)
	}
	return places
}
