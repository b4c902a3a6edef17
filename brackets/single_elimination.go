package brackets

import (
	"context"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	rounds := eliminationRounds(eliminationSpec{
		prefix:    "B",
		phase:     models.PhaseBracket,
		roundType: models.RoundBracket,
		entries:   params.UnitCount,
		bestOf:    params.PlayoffBestOf,
		format:    params.PlayoffFormat,
	})
	return flatten(rounds), nil
}

type eliminationSpec struct {
	prefix     string
	namePrefix string
	phase      models.MatchPhase
	roundType  models.RoundType
	entries    int
	bestOf     int
	format     models.ScoreFormat
}

// eliminationRounds builds a full seeded bracket. First-round matches whose partner seed is
// beyond the entry count are byes; every match is wired to the match its winner feeds.
func eliminationRounds(spec eliminationSpec) [][]*BracketMatch {
	size := BracketSize(spec.entries)
	total := RoundsFor(size)

	rounds := make([][]*BracketMatch, total)
	for r := 1; r <= total; r++ {
		count := size >> r
		round := make([]*BracketMatch, count)
		for i := range round {
			round[i] = &BracketMatch{
				UID:          fmt.Sprintf("%s-R%d-M%d", spec.prefix, r, i+1),
				Phase:        spec.phase,
				RoundType:    spec.roundType,
				Round:        r,
				RoundName:    spec.namePrefix + RoundName(r, total),
				OrderInRound: i + 1,
				BestOf:       spec.bestOf,
				ScoreFormat:  spec.format,
			}
		}
		rounds[r-1] = round
	}

	for i, pair := range FirstRoundPairs(size) {
		m := rounds[0][i]
		m.Slot1 = intPtr(pair[0])
		if pair[1] <= spec.entries {
			m.Slot2 = intPtr(pair[1])
		} else {
			m.IsBye = true
		}
	}

	for r := 0; r < total-1; r++ {
		for i, m := range rounds[r] {
			feedWinner(m, rounds[r+1][i/2], i%2+1)
		}
	}
	return rounds
}

func feedWinner(from, to *BracketMatch, slot int) {
	from.WinnerNextUID = strPtr(to.UID)
	from.WinnerNextSlot = slot
}

func flatten(rounds [][]*BracketMatch) []*BracketMatch {
	var out []*BracketMatch
	for _, r := range rounds {
		out = append(out, r...)
	}
	return out
}
