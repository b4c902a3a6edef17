package models

type CourtStatus string

const (
	CourtAvailable CourtStatus = "Available"
	CourtInUse     CourtStatus = "InUse"
)

func (s CourtStatus) Valid() bool {
	switch s {
	case CourtAvailable, CourtInUse:
		return true
	}
	return false
}

type Court struct {
	ID            string      `json:"id" db:"id"`
	EventID       string      `json:"event_id" db:"event_id"`
	Label         string      `json:"label" db:"label"`
	Status        CourtStatus `json:"status" db:"status"`
	CurrentGameID *string     `json:"current_game_id,omitempty" db:"current_game_id"`
}
