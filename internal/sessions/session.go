package sessions

import "time"

// Role is the access level a session was opened with.
type Role string

const (
	RoleChair       Role = "chair"
	RoleContributor Role = "contributor"
)

func (r Role) Valid() bool {
	return r == RoleChair || r == RoleContributor
}

// Session represents a persistent login session stored in the backend
type Session struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Token     string    `bson:"token" json:"token"`
	Role      Role      `bson:"role" json:"role"`
	User      string    `bson:"user" json:"user"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
