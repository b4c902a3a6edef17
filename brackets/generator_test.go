package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func params(t models.BracketType, units int) GenerateBracketParams {
	return GenerateBracketParams{
		BracketType:   t,
		UnitCount:     units,
		PoolCount:     1,
		PoolBestOf:    1,
		PoolFormat:    models.DefaultScoreFormat(),
		PlayoffBestOf: 3,
		PlayoffFormat: models.DefaultScoreFormat(),
	}
}

func TestBracketSize(t *testing.T) {
	testCases := []struct {
		n, size, rounds int
	}{
		{2, 2, 1},
		{3, 4, 2},
		{5, 8, 3},
		{8, 8, 3},
		{9, 16, 4},
		{33, 64, 6},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d entries", tc.n), func(t *testing.T) {
			assert.Equal(t, tc.size, BracketSize(tc.n))
			assert.Equal(t, tc.rounds, RoundsFor(BracketSize(tc.n)))
		})
	}
}

func TestFirstRoundPairs(t *testing.T) {
	t.Run("8 slots", func(t *testing.T) {
		pairs := FirstRoundPairs(8)
		assert.ElementsMatch(t, [][2]int{{1, 8}, {4, 5}, {3, 6}, {2, 7}}, pairs)
	})

	t.Run("4 slots", func(t *testing.T) {
		assert.Equal(t, [][2]int{{1, 4}, {2, 3}}, FirstRoundPairs(4))
	})

	t.Run("top two seeds only meet in the final", func(t *testing.T) {
		for size := 2; size <= 64; size <<= 1 {
			order := SeedOrder(size)
			half := size / 2
			pos1, pos2 := -1, -1
			for i, s := range order {
				switch s {
				case 1:
					pos1 = i
				case 2:
					pos2 = i
				}
			}
			require.NotEqual(t, -1, pos1)
			require.NotEqual(t, -1, pos2)
			assert.NotEqual(t, pos1 < half, pos2 < half, "size %d", size)
		}
	})

	t.Run("every seed appears once", func(t *testing.T) {
		order := SeedOrder(32)
		seen := map[int]bool{}
		for _, s := range order {
			assert.False(t, seen[s])
			seen[s] = true
		}
		assert.Len(t, seen, 32)
	})
}

func TestRoundName(t *testing.T) {
	assert.Equal(t, "Final", RoundName(4, 4))
	assert.Equal(t, "Semifinal", RoundName(3, 4))
	assert.Equal(t, "Quarterfinal", RoundName(2, 4))
	assert.Equal(t, "Round 1", RoundName(1, 4))
}

func TestPooledRoundRobin(t *testing.T) {
	testCases := []struct {
		name      string
		units     int
		pools     int
		wantSizes []int
	}{
		{"single pool of 5", 5, 1, []int{5}},
		{"two pools of 5", 10, 2, []int{5, 5}},
		{"uneven pools", 11, 3, []int{4, 4, 3}},
		{"pool of 2", 4, 2, []int{2, 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := params(models.BracketRoundRobin, tc.units)
			p.PoolCount = tc.pools

			matches, err := Generate(context.Background(), p)
			require.NoError(t, err)

			byPool := map[int][]*BracketMatch{}
			for _, m := range matches {
				assert.Equal(t, models.RoundPool, m.RoundType)
				byPool[m.Pool] = append(byPool[m.Pool], m)
			}
			require.Len(t, byPool, tc.pools)

			for i, k := range tc.wantSizes {
				pool := byPool[i+1]
				assert.Len(t, pool, k*(k-1)/2, "pool %d", i+1)

				pairs := map[[2]int]int{}
				for _, m := range pool {
					require.NotNil(t, m.Slot1)
					require.NotNil(t, m.Slot2)
					assert.Equal(t, i+1, PoolOf(*m.Slot1, tc.pools))
					assert.Equal(t, i+1, PoolOf(*m.Slot2, tc.pools))
					pairs[[2]int{*m.Slot1, *m.Slot2}]++
				}
				for pair, n := range pairs {
					assert.Equal(t, 1, n, "pair %v", pair)
					assert.Less(t, pair[0], pair[1])
				}
			}
		})
	}
}

func TestPoolOfUsesModulo(t *testing.T) {
	assert.Equal(t, 1, PoolOf(1, 3))
	assert.Equal(t, 2, PoolOf(2, 3))
	assert.Equal(t, 3, PoolOf(3, 3))
	assert.Equal(t, 1, PoolOf(4, 3))
	assert.Equal(t, [][]int{{1, 3, 5}, {2, 4}}, PoolSlots(5, 2))
}

func TestSingleElimination(t *testing.T) {
	matches, err := Generate(context.Background(), params(models.BracketSingleElimination, 6))
	require.NoError(t, err)
	require.Len(t, matches, 7)

	byes := 0
	for _, m := range matches {
		assert.Equal(t, models.RoundBracket, m.RoundType)
		assert.Equal(t, 3, m.BestOf)
		if m.Round == 1 {
			require.NotNil(t, m.Slot1)
			if m.IsBye {
				byes++
				assert.Nil(t, m.Slot2)
				assert.LessOrEqual(t, *m.Slot1, 2)
			}
		} else {
			assert.Nil(t, m.Slot1)
			assert.Nil(t, m.Slot2)
		}
	}
	assert.Equal(t, 2, byes)

	assert.Equal(t, "Quarterfinal", matches[0].RoundName)
	assert.Equal(t, "Semifinal", matches[4].RoundName)
	assert.Equal(t, "Final", matches[6].RoundName)

	require.NotNil(t, matches[0].WinnerNextUID)
	assert.Equal(t, "B-R2-M1", *matches[0].WinnerNextUID)
	assert.Equal(t, 1, matches[0].WinnerNextSlot)
	assert.Equal(t, "B-R2-M1", *matches[1].WinnerNextUID)
	assert.Equal(t, 2, matches[1].WinnerNextSlot)
	assert.Nil(t, matches[6].WinnerNextUID)

	for i, m := range matches {
		assert.Equal(t, i+1, m.Number)
	}
}

func TestDoubleElimination(t *testing.T) {
	matches, err := Generate(context.Background(), params(models.BracketDoubleElimination, 8))
	require.NoError(t, err)

	count := map[models.RoundType]int{}
	losersRounds := map[int]int{}
	var grandFinal *BracketMatch
	for _, m := range matches {
		count[m.RoundType]++
		if m.RoundType == models.RoundLosers {
			losersRounds[m.Round]++
		}
		if m.RoundType == models.RoundGrandFinal {
			grandFinal = m
		}
	}

	assert.Equal(t, 7, count[models.RoundWinners])
	assert.Equal(t, map[int]int{1: 2, 2: 2, 3: 1, 4: 1}, losersRounds)
	assert.Equal(t, 1, count[models.RoundGrandFinal])
	require.NotNil(t, grandFinal)

	feeders := map[int]string{}
	for _, m := range matches {
		if m.WinnerNextUID != nil && *m.WinnerNextUID == grandFinal.UID {
			feeders[m.WinnerNextSlot] = m.UID
		}
	}
	assert.Equal(t, map[int]string{1: "W-R3-M1", 2: "L-R4-M1"}, feeders)
}

func TestLosersRoundSize(t *testing.T) {
	assert.Equal(t, []int{4, 4, 2, 2, 1, 1}, []int{
		LosersRoundSize(16, 1), LosersRoundSize(16, 2), LosersRoundSize(16, 3),
		LosersRoundSize(16, 4), LosersRoundSize(16, 5), LosersRoundSize(16, 6),
	})
}

func TestHybrid(t *testing.T) {
	p := params(models.BracketRoundRobinPlayoff, 8)
	p.PoolCount = 2
	p.PoolsAdvancing = 2

	matches, err := Generate(context.Background(), p)
	require.NoError(t, err)

	pool, playoff := 0, 0
	for _, m := range matches {
		switch m.Phase {
		case models.PhasePool:
			pool++
			assert.Equal(t, 1, m.BestOf)
		case models.PhasePlayoff:
			playoff++
			assert.Equal(t, 3, m.BestOf)
		}
	}
	assert.Equal(t, 12, pool)
	assert.Equal(t, 3, playoff)

	t.Run("too many advancing", func(t *testing.T) {
		p.PoolsAdvancing = 5
		_, err := Generate(context.Background(), p)
		assert.ErrorIs(t, err, ErrInvalidAdvancement)
	})
}

func TestGenerateIsDeterministic(t *testing.T) {
	p := params(models.BracketDoubleElimination, 13)
	first, err := Generate(context.Background(), p)
	require.NoError(t, err)
	second, err := Generate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateValidation(t *testing.T) {
	_, err := Generate(context.Background(), params(models.BracketSingleElimination, 1))
	assert.ErrorIs(t, err, ErrNotEnoughUnits)

	p := params(models.BracketRoundRobin, 6)
	p.PoolBestOf = 2
	_, err = Generate(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidBestOf)

	p = params(models.BracketRoundRobin, 5)
	p.PoolCount = 3
	_, err = Generate(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidPoolCount)

	_, err = Generate(context.Background(), params(models.BracketType("Swiss"), 8))
	assert.ErrorIs(t, err, ErrUnknownBracketType)
}
