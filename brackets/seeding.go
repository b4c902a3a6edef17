package brackets

import "fmt"

// BracketSize is the smallest power of two that holds n entries.
func BracketSize(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// RoundsFor returns log2 of a power-of-two bracket size.
func RoundsFor(size int) int {
	rounds := 0
	for s := size; s > 1; s >>= 1 {
		rounds++
	}
	return rounds
}

// SeedOrder lists seeds in bracket-line order for a power-of-two size. Each doubling step
// s -> 2s replaces every seed x with the pair (x, 2s+1-x), so seeds 1 and 2 land in
// opposite halves and only meet in the final.
func SeedOrder(size int) []int {
	order := []int{1}
	for s := 1; s < size; s <<= 1 {
		next := make([]int, 0, len(order)*2)
		for _, seed := range order {
			next = append(next, seed, 2*s+1-seed)
		}
		order = next
	}
	return order
}

// FirstRoundPairs pairs consecutive seeds of SeedOrder.
func FirstRoundPairs(size int) [][2]int {
	order := SeedOrder(size)
	pairs := make([][2]int, 0, len(order)/2)
	for i := 0; i+1 < len(order); i += 2 {
		pairs = append(pairs, [2]int{order[i], order[i+1]})
	}
	return pairs
}

// RoundName names an elimination round by its distance from the final.
func RoundName(round, totalRounds int) string {
	switch totalRounds - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinal"
	case 2:
		return "Quarterfinal"
	}
	return fmt.Sprintf("Round %d", round)
}
