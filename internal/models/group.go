package models

import "time"

// Group represents a user-created group. Closed groups require admin
// approval before a join request becomes a membership.
type Group struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Closed      bool      `db:"closed" json:"closed"`
	CreatorID   int       `db:"creator_id" json:"creator_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GroupDetails is the API view of a group with its id sets loaded.
type GroupDetails struct {
	Group
	MemberIDs      []int `json:"member_ids"`
	AdminIDs       []int `json:"admin_ids"`
	JoinRequestIDs []int `json:"join_request_ids,omitempty"`
}

// JoinStatus is the outcome of a join request.
type JoinStatus string

const (
	JoinStatusJoined  JoinStatus = "joined"
	JoinStatusPending JoinStatus = "pending"
)

// GroupEvent is emitted over WebSocket connections for groups.
type GroupEvent struct {
	Type   string `json:"type"`
	UserID int    `json:"user_id,omitempty"`
	PostID int    `json:"post_id,omitempty"`
}
