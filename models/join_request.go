package models

import "time"

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "Pending"
	JoinRequestAccepted JoinRequestStatus = "Accepted"
	JoinRequestDeclined JoinRequestStatus = "Declined"
	// JoinRequestMerged is only reported to callers; merged requests are deleted.
	JoinRequestMerged JoinRequestStatus = "Merged"
)

func (s JoinRequestStatus) Valid() bool {
	switch s {
	case JoinRequestPending, JoinRequestAccepted, JoinRequestDeclined, JoinRequestMerged:
		return true
	}
	return false
}

type JoinRequest struct {
	ID              string            `json:"id" db:"id"`
	DivisionID      string            `json:"division_id" db:"division_id"`
	UnitID          string            `json:"unit_id" db:"unit_id"`
	RequesterUserID string            `json:"requester_user_id" db:"requester_user_id"`
	Message         string            `json:"message" db:"message"`
	Status          JoinRequestStatus `json:"status" db:"status"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	RespondedAt     *time.Time        `json:"responded_at,omitempty" db:"responded_at"`
	RespondedBy     *string           `json:"responded_by,omitempty" db:"responded_by"`
}
