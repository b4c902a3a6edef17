package models

import "time"

type InviteStatus string

const (
	InvitePending            InviteStatus = "Pending"
	InviteAccepted           InviteStatus = "Accepted"
	InviteRejected           InviteStatus = "Rejected"
	InvitePendingJoinRequest InviteStatus = "PendingJoinRequest"
)

func (s InviteStatus) Valid() bool {
	switch s {
	case InvitePending, InviteAccepted, InviteRejected, InvitePendingJoinRequest:
		return true
	}
	return false
}

type MemberRole string

const (
	RoleCaptain MemberRole = "Captain"
	RolePlayer  MemberRole = "Player"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RoleCaptain, RolePlayer:
		return true
	}
	return false
}

type UnitMember struct {
	ID              string       `json:"id" db:"id"`
	UnitID          string       `json:"unit_id" db:"unit_id"`
	UserID          string       `json:"user_id" db:"user_id"`
	Role            MemberRole   `json:"role" db:"role"`
	InviteStatus    InviteStatus `json:"invite_status" db:"invite_status"`
	AmountPaidCents int64        `json:"amount_paid_cents" db:"amount_paid_cents"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	RespondedAt     *time.Time   `json:"responded_at,omitempty" db:"responded_at"`
}

func (m *UnitMember) Accepted() bool {
	return m.InviteStatus == InviteAccepted
}
