package models

import "time"

type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionExpired SessionStatus = "expired"
)

type Role string

const (
	RoleInstructor    Role = "Instructor"
	RoleAdministrator Role = "Administrator"
	RoleLearner       Role = "Learner"
)

// LaunchTicket is the verified identity handoff produced by a valid LTI
// launch. It lives only long enough to mint a session.
type LaunchTicket struct {
	UserID         string
	UserName       string
	CourseID       string
	ContextID      string
	ResourceLinkID string
	Role           Role
}

// LTISession is the persisted session minted from a launch ticket. The
// expiry timestamp is the source of truth; Status is only a cache of it.
type LTISession struct {
	ID             string        `bson:"_id,omitempty" json:"id"`
	UserID         string        `bson:"user_id" json:"user_id"`
	UserName       string        `bson:"user_name" json:"user_name"`
	CourseID       string        `bson:"course_id" json:"course_id"`
	ContextID      string        `bson:"context_id" json:"context_id"`
	ResourceLinkID string        `bson:"resource_link_id" json:"resource_link_id"`
	Role           Role          `bson:"role" json:"role"`
	SessionToken   string        `bson:"session_token" json:"-"`
	Status         SessionStatus `bson:"status" json:"status"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	ExpiresAt      time.Time     `bson:"expires_at" json:"expires_at"`
}

// Expired reports whether the session is past its expiry time, regardless
// of the stored status flag.
func (s *LTISession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
