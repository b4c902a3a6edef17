package models_test

import (
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/models"
	"github.com/stretchr/testify/assert"
)

func TestGameTransitions(t *testing.T) {
	tests := []struct {
		from, to models.GameStatus
		allowed  bool
	}{
		{models.GameNew, models.GameQueued, true},
		{models.GameNew, models.GamePlaying, true},
		{models.GameNew, models.GameFinished, false},
		{models.GameQueued, models.GamePlaying, true},
		{models.GameQueued, models.GameNew, true},
		{models.GamePlaying, models.GameFinished, true},
		{models.GamePlaying, models.GameQueued, false},
		{models.GameFinished, models.GamePlaying, false},
		{models.GameCancelled, models.GameNew, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
