package lineage

import "errors"

// Error taxonomy for lineage operations. Handlers map these onto HTTP
// statuses; none of them is retryable.
var (
	ErrMeetingNotFound  = errors.New("meeting not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrMeetingCompleted rejects any mutation against a finalized meeting.
	ErrMeetingCompleted = errors.New("meeting is completed")

	// ErrNotDeletable rejects deletion of a document that is not the tail
	// of its chain.
	ErrNotDeletable = errors.New("document is not the tail of its chain")

	// ErrInvalidReorder rejects a proposal order that is not a permutation
	// of the current proposal id set.
	ErrInvalidReorder = errors.New("order is not a permutation of the proposal set")

	// ErrProposalAccepted rejects new revisions of an accepted proposal.
	ErrProposalAccepted = errors.New("accepted proposal cannot receive new revisions")

	// ErrSlotOccupied rejects ingesting a base or result document while the
	// slot is filled; the caller must delete the current document first.
	ErrSlotOccupied = errors.New("document slot is already occupied")

	// ErrResultDocumentRequired is returned by Finalize when no result
	// document exists, and by result-revision ingestion without a result
	// document to revise.
	ErrResultDocumentRequired = errors.New("meeting has no result document")
)
