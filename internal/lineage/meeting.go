package lineage

import (
	"context"
	"time"
)

// Meeting is one temporal unit of work for a standard. Dates are stored
// as YYYY-MM-DD strings, matching the wire format used by clients.
type Meeting struct {
	Acronym     string    `json:"acronym" bson:"acronym"`
	ID          string    `json:"id" bson:"id"`
	Title       string    `json:"title" bson:"title"`
	StartDate   string    `json:"startDate" bson:"startDate"`
	EndDate     string    `json:"endDate" bson:"endDate"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	IsCompleted bool      `json:"isCompleted" bson:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Store persists meetings and their chain snapshots. Snapshots are
// replaced whole; there is no partial-update API at this layer.
// Implementations return ErrMeetingNotFound for absent meetings.
type Store interface {
	CreateMeeting(ctx context.Context, m *Meeting, snap *Snapshot) error
	GetMeeting(ctx context.Context, acronym, id string) (*Meeting, error)
	UpdateMeeting(ctx context.Context, m *Meeting) error
	DeleteMeeting(ctx context.Context, acronym, id string) error
	ListMeetings(ctx context.Context, acronym string) ([]*Meeting, error)
	LoadSnapshot(ctx context.Context, acronym, id string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, acronym, id string, snap *Snapshot) error
}
