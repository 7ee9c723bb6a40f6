package lineage

import "time"

// Kind tags a document's slot in the meeting lineage. The string values
// are the persisted encoding and must stay stable.
type Kind string

const (
	KindBase           Kind = "base"
	KindProposal       Kind = "proposal"
	KindRevision       Kind = "revision"
	KindResult         Kind = "result"
	KindResultRevision Kind = "result-revision"
)

// Valid reports whether k is one of the five known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBase, KindProposal, KindRevision, KindResult, KindResultRevision:
		return true
	}
	return false
}

// Status is the review decision attached to a proposal and mirrored
// across its revision chain. Base and result documents are statusless.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAccepted    Status = "accepted"
	StatusUnderReview Status = "review"
	StatusRejected    Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusUnderReview, StatusRejected:
		return true
	}
	return false
}

// Document is one submitted or produced artifact within a meeting.
// Name carries the display title (extracted from the file's metadata
// table when available); FileName keeps the uploaded filename verbatim.
type Document struct {
	ID         string    `json:"id" bson:"id"`
	Name       string    `json:"name" bson:"name"`
	FileName   string    `json:"fileName" bson:"fileName"`
	Abstract   string    `json:"abstract,omitempty" bson:"abstract,omitempty"`
	Kind       Kind      `json:"type" bson:"type"`
	ParentID   string    `json:"parentId,omitempty" bson:"parentId,omitempty"`
	UploadDate time.Time `json:"uploadDate" bson:"uploadDate"`
	Status     Status    `json:"status,omitempty" bson:"status,omitempty"`
	FilePath   string    `json:"filePath,omitempty" bson:"filePath,omitempty"`
	Uploader   string    `json:"uploader,omitempty" bson:"uploader,omitempty"`
}
