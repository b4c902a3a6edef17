package brackets

import (
	"context"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket lays out the winners bracket, a losers bracket of 2*(W-1) rounds and a
// grand final. Only winner paths are wired here; which losers-round slot receives a
// winners-round loser is decided while results come in.
func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	winners := eliminationRounds(eliminationSpec{
		prefix:     "W",
		namePrefix: "Winners ",
		phase:      models.PhaseBracket,
		roundType:  models.RoundWinners,
		entries:    params.UnitCount,
		bestOf:     params.PlayoffBestOf,
		format:     params.PlayoffFormat,
	})
	size := BracketSize(params.UnitCount)

	losers := losersRounds(size, len(winners), params)

	grandFinal := &BracketMatch{
		UID:          "GF",
		Phase:        models.PhaseBracket,
		RoundType:    models.RoundGrandFinal,
		Round:        1,
		RoundName:    "Grand Final",
		OrderInRound: 1,
		BestOf:       params.PlayoffBestOf,
		ScoreFormat:  params.PlayoffFormat,
	}

	winnersFinal := winners[len(winners)-1][0]
	feedWinner(winnersFinal, grandFinal, 1)
	if len(losers) > 0 {
		feedWinner(losers[len(losers)-1][0], grandFinal, 2)
	}

	out := flatten(winners)
	out = append(out, flatten(losers)...)
	return append(out, grandFinal), nil
}

// LosersRoundSize is the match count of losers round i (1-based) for a bracket size.
// Rounds come in pairs of equal size that halve every second round.
func LosersRoundSize(size, round int) int {
	return size >> ((round+1)/2 + 1)
}

func losersRounds(size, winnersRounds int, params GenerateBracketParams) [][]*BracketMatch {
	count := 2 * (winnersRounds - 1)
	if count <= 0 {
		return nil
	}
	rounds := make([][]*BracketMatch, count)
	for r := 1; r <= count; r++ {
		name := fmt.Sprintf("Losers Round %d", r)
		if r == count {
			name = "Losers Final"
		}
		round := make([]*BracketMatch, LosersRoundSize(size, r))
		for i := range round {
			round[i] = &BracketMatch{
				UID:          fmt.Sprintf("L-R%d-M%d", r, i+1),
				Phase:        models.PhaseBracket,
				RoundType:    models.RoundLosers,
				Round:        r,
				RoundName:    name,
				OrderInRound: i + 1,
				BestOf:       params.PlayoffBestOf,
				ScoreFormat:  params.PlayoffFormat,
			}
		}
		rounds[r-1] = round
	}

	for r := 0; r < count-1; r++ {
		for i, m := range rounds[r] {
			if (r+1)%2 == 1 {
				// Odd rounds keep their position; slot 2 of the next round takes a dropped loser.
				feedWinner(m, rounds[r+1][i], 1)
			} else {
				feedWinner(m, rounds[r+1][i/2], i%2+1)
			}
		}
	}
	return rounds
}
