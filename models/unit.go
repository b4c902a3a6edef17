package models

import "time"

type UnitStatus string

const (
	UnitRegistered UnitStatus = "Registered"
	UnitWaitlisted UnitStatus = "Waitlisted"
	UnitCheckedIn  UnitStatus = "CheckedIn"
	UnitCancelled  UnitStatus = "Cancelled"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitRegistered, UnitWaitlisted, UnitCheckedIn, UnitCancelled:
		return true
	}
	return false
}

// Admitted reports whether the unit holds a place in the division.
func (s UnitStatus) Admitted() bool {
	switch s {
	case UnitRegistered, UnitCheckedIn:
		return true
	case UnitWaitlisted, UnitCancelled:
		return false
	}
	return false
}

func (s UnitStatus) CanTransitionTo(next UnitStatus) bool {
	switch s {
	case UnitRegistered:
		return next == UnitCheckedIn || next == UnitWaitlisted || next == UnitCancelled
	case UnitWaitlisted:
		return next == UnitRegistered || next == UnitCancelled
	case UnitCheckedIn:
		return next == UnitRegistered || next == UnitCancelled
	case UnitCancelled:
		return false
	}
	return false
}

type JoinMethod string

const (
	JoinOpen        JoinMethod = "Open"
	JoinApproval    JoinMethod = "Approval"
	JoinFriendsOnly JoinMethod = "FriendsOnly"
)

func (m JoinMethod) Valid() bool {
	switch m {
	case JoinOpen, JoinApproval, JoinFriendsOnly:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

type Unit struct {
	ID               string     `json:"id" db:"id"`
	DivisionID       string     `json:"division_id" db:"division_id"`
	Name             string     `json:"name" db:"name"`
	CustomName       bool       `json:"custom_name" db:"custom_name"`
	Status           UnitStatus `json:"status" db:"status"`
	WaitlistPosition *int       `json:"waitlist_position,omitempty" db:"waitlist_position"`
	CaptainUserID    string     `json:"captain_user_id" db:"captain_user_id"`
	JoinMethod       JoinMethod `json:"join_method" db:"join_method"`
	UnitNumber       *int       `json:"unit_number,omitempty" db:"unit_number"`
	PoolNumber       *int       `json:"pool_number,omitempty" db:"pool_number"`
	Seed             *int       `json:"seed,omitempty" db:"seed"`

	MatchesPlayed int `json:"matches_played" db:"matches_played"`
	MatchesWon    int `json:"matches_won" db:"matches_won"`
	MatchesLost   int `json:"matches_lost" db:"matches_lost"`
	GamesPlayed   int `json:"games_played" db:"games_played"`
	GamesWon      int `json:"games_won" db:"games_won"`
	GamesLost     int `json:"games_lost" db:"games_lost"`
	PointsFor     int `json:"points_for" db:"points_for"`
	PointsAgainst int `json:"points_against" db:"points_against"`

	AmountPaidCents int64         `json:"amount_paid_cents" db:"amount_paid_cents"`
	PaymentStatus   PaymentStatus `json:"payment_status" db:"payment_status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Eligible units take part in drawings and slot assignment.
func (u *Unit) Eligible() bool {
	return u.Status.Admitted()
}
