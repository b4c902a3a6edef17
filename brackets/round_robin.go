package brackets

import (
	"context"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	return poolMatches(params)
}

// PoolOf places a slot into a pool by slot % poolCount, numbering pools from 1.
func PoolOf(slot, poolCount int) int {
	if poolCount <= 1 {
		return 1
	}
	p := slot % poolCount
	if p == 0 {
		p = poolCount
	}
	return p
}

// PoolSlots lists the slots of every pool in ascending order, indexed by pool number - 1.
func PoolSlots(unitCount, poolCount int) [][]int {
	if poolCount < 1 {
		poolCount = 1
	}
	pools := make([][]int, poolCount)
	for slot := 1; slot <= unitCount; slot++ {
		p := PoolOf(slot, poolCount)
		pools[p-1] = append(pools[p-1], slot)
	}
	return pools
}

// poolMatches pairs every two slots of a pool exactly once. Rounds come from the circle
// method: the first slot stays fixed and the rest rotate, with a phantom slot for odd pools.
func poolMatches(params GenerateBracketParams) ([]*BracketMatch, error) {
	poolCount := params.PoolCount
	if poolCount < 1 {
		poolCount = 1
	}
	if params.UnitCount < 2*poolCount {
		return nil, fmt.Errorf("%w: %d units in %d pools", ErrInvalidPoolCount, params.UnitCount, poolCount)
	}

	pools := PoolSlots(params.UnitCount, poolCount)
	rounds := make([][][][2]int, len(pools))
	maxRounds := 0
	for i, slots := range pools {
		rounds[i] = circleRounds(slots)
		if len(rounds[i]) > maxRounds {
			maxRounds = len(rounds[i])
		}
	}

	var matches []*BracketMatch
	for r := 0; r < maxRounds; r++ {
		for p := range pools {
			if r >= len(rounds[p]) {
				continue
			}
			for i, pair := range rounds[p][r] {
				matches = append(matches, &BracketMatch{
					UID:          fmt.Sprintf("P%d-R%d-M%d", p+1, r+1, i+1),
					Phase:        models.PhasePool,
					RoundType:    models.RoundPool,
					Round:        r + 1,
					RoundName:    fmt.Sprintf("Pool %d Round %d", p+1, r+1),
					OrderInRound: i + 1,
					Pool:         p + 1,
					Slot1:        intPtr(pair[0]),
					Slot2:        intPtr(pair[1]),
					BestOf:       params.PoolBestOf,
					ScoreFormat:  params.PoolFormat,
				})
			}
		}
	}
	return matches, nil
}

func circleRounds(slots []int) [][][2]int {
	players := append([]int(nil), slots...)
	if len(players)%2 != 0 {
		players = append(players, 0)
	}
	n := len(players)
	if n < 2 {
		return nil
	}

	rounds := make([][][2]int, 0, n-1)
	for round := 0; round < n-1; round++ {
		var pairs [][2]int
		for i := 0; i < n/2; i++ {
			a, b := players[i], players[n-1-i]
			if a == 0 || b == 0 {
				continue
			}
			if a > b {
				a, b = b, a
			}
			pairs = append(pairs, [2]int{a, b})
		}
		rounds = append(rounds, pairs)
		players = append([]int{players[0], players[n-1]}, players[1:n-1]...)
	}
	return rounds
}
