package brackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
)

var (
	ErrNotEnoughUnits     = errors.New("at least two units are required to build a schedule")
	ErrInvalidPoolCount   = errors.New("pool count must leave at least two units in every pool")
	ErrInvalidAdvancement = errors.New("pools advancing must be between 1 and the smallest pool size")
	ErrInvalidBestOf      = errors.New("games per match must be a positive odd number")
	ErrUnknownBracketType = errors.New("unknown bracket type")
)

// BracketMatch is a positional match template. Slots are logical seed numbers; they are bound
// to real units only once numbers are drawn or assigned.
type BracketMatch struct {
	UID          string
	Number       int
	Phase        models.MatchPhase
	RoundType    models.RoundType
	Round        int
	RoundName    string
	OrderInRound int
	Pool         int

	Slot1 *int
	Slot2 *int
	IsBye bool

	WinnerNextUID  *string
	WinnerNextSlot int

	BestOf      int
	ScoreFormat models.ScoreFormat
}

type GenerateBracketParams struct {
	BracketType    models.BracketType
	UnitCount      int
	PoolCount      int
	PoolsAdvancing int
	PoolBestOf     int
	PoolFormat     models.ScoreFormat
	PlayoffBestOf  int
	PlayoffFormat  models.ScoreFormat
}

func (p GenerateBracketParams) validate() error {
	if p.UnitCount < 2 {
		return ErrNotEnoughUnits
	}
	if p.PoolBestOf < 1 || p.PoolBestOf%2 == 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBestOf, p.PoolBestOf)
	}
	if p.PlayoffBestOf < 1 || p.PlayoffBestOf%2 == 0 {
		return fmt.Errorf("%w: got %d for playoff", ErrInvalidBestOf, p.PlayoffBestOf)
	}
	return nil
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// ForType returns the generator for a division's bracket type.
func ForType(t models.BracketType) (BracketGenerator, error) {
	switch t {
	case models.BracketRoundRobin:
		return NewRoundRobinGenerator(), nil
	case models.BracketSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.BracketDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.BracketRoundRobinPlayoff:
		return NewHybridGenerator(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBracketType, t)
}

// Generate builds the full template list and numbers matches 1..n in schedule order.
func Generate(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	gen, err := ForType(params.BracketType)
	if err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	matches, err := gen.GenerateBracket(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", gen.GetName(), err)
	}
	for i, m := range matches {
		m.Number = i + 1
	}
	return matches, nil
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
