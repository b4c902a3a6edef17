package brackets

import (
	"context"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

// HybridGenerator runs pool play followed by a seeded playoff of the top finishers.
type HybridGenerator struct{}

func NewHybridGenerator() BracketGenerator {
	return &HybridGenerator{}
}

func (g *HybridGenerator) GetName() string {
	return "RoundRobinPlayoff"
}

func (g *HybridGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	pool, err := poolMatches(params)
	if err != nil {
		return nil, err
	}

	poolCount := max(params.PoolCount, 1)
	smallest := params.UnitCount
	for _, slots := range PoolSlots(params.UnitCount, poolCount) {
		smallest = min(smallest, len(slots))
	}
	advancing := params.PoolsAdvancing
	if advancing < 1 || advancing > smallest || advancing*poolCount < 2 {
		return nil, fmt.Errorf("%w: %d advancing from pools of at least %d", ErrInvalidAdvancement, advancing, smallest)
	}

	playoff := eliminationRounds(eliminationSpec{
		prefix:    "PO",
		phase:     models.PhasePlayoff,
		roundType: models.RoundBracket,
		entries:   advancing * poolCount,
		bestOf:    params.PlayoffBestOf,
		format:    params.PlayoffFormat,
	})
	return append(pool, flatten(playoff)...), nil
}
