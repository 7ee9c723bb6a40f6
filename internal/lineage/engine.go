package lineage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Engine applies lineage transitions against one meeting's snapshot.
// Every mutation is a read-modify-write of the whole snapshot guarded
// by a per-meeting mutex, so compound effects (status fan-out, chain
// removal) are never observed half-applied through this process.
type Engine struct {
	store Store
	locks sync.Map // "<acronym>/<meetingID>" -> *sync.Mutex

	now   func() time.Time
	newID func(prefix string) string
}

func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
		newID: func(prefix string) string {
			return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
		},
	}
}

func (e *Engine) lock(acronym, meetingID string) *sync.Mutex {
	key := acronym + "/" + meetingID
	v, ok := e.locks.Load(key)
	if !ok {
		v, _ = e.locks.LoadOrStore(key, &sync.Mutex{})
	}
	return v.(*sync.Mutex)
}

// IngestInput describes a payload already accepted by the file store.
// ExtractedTitle, Abstract and ParentID are optional depending on Kind.
type IngestInput struct {
	Kind           Kind
	FileName       string
	FilePath       string
	ExtractedTitle string
	Abstract       string
	ParentID       string
	Uploader       string
}

// Ingest registers a new document in the meeting lineage and returns it.
// The payload must already be stored; on rejection the caller owns
// cleaning up the orphaned payload.
func (e *Engine) Ingest(ctx context.Context, acronym, meetingID string, in IngestInput) (*Document, error) {
	if !in.Kind.Valid() {
		return nil, fmt.Errorf("unknown document kind %q", in.Kind)
	}
	mu := e.lock(acronym, meetingID)
	mu.Lock()
	defer mu.Unlock()

	m, snap, err := e.loadOpen(ctx, acronym, meetingID)
	if err != nil {
		return nil, err
	}

	doc := Document{
		ID:         e.newID("doc"),
		Name:       resolveName(in.ExtractedTitle, in.FileName),
		FileName:   in.FileName,
		Abstract:   strings.TrimSpace(in.Abstract),
		Kind:       in.Kind,
		UploadDate: e.now().UTC(),
		FilePath:   in.FilePath,
		Uploader:   in.Uploader,
	}

	switch in.Kind {
	case KindProposal:
		doc.Status = StatusPending
		snap.Proposals = append(snap.Proposals, doc)
	case KindRevision:
		parent := snap.proposal(in.ParentID)
		if parent == nil {
			return nil, ErrProposalNotFound
		}
		if parent.Status == StatusAccepted {
			return nil, ErrProposalAccepted
		}
		doc.ParentID = in.ParentID
		doc.Status = StatusPending
		snap.Revisions[in.ParentID] = append(snap.Revisions[in.ParentID], doc)
	case KindBase:
		if snap.Base != nil {
			return nil, ErrSlotOccupied
		}
		doc.ID = e.newID("base")
		snap.Base = &doc
	case KindResult:
		if snap.ResultDocument != nil {
			return nil, ErrSlotOccupied
		}
		snap.ResultDocument = &doc
	case KindResultRevision:
		if snap.ResultDocument == nil {
			return nil, ErrResultDocumentRequired
		}
		snap.ResultRevisions = append(snap.ResultRevisions, doc)
	}

	if err := e.save(ctx, m, snap); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes a document and returns it so the caller can discard
// the payload. Only the tail of a chain may go: the last revision, a
// proposal with no revisions, the last result revision, the result
// document once its revisions are gone, or the base document. Deleting
// a document also drops its memo.
func (e *Engine) Delete(ctx context.Context, acronym, meetingID, documentID string) (*Document, error) {
	mu := e.lock(acronym, meetingID)
	mu.Lock()
	defer mu.Unlock()

	m, snap, err := e.loadOpen(ctx, acronym, meetingID)
	if err != nil {
		return nil, err
	}

	removed, err := removeFromSnapshot(snap, documentID)
	if err != nil {
		return nil, err
	}
	delete(snap.Memos, documentID)

	if err := e.save(ctx, m, snap); err != nil {
		return nil, err
	}
	return removed, nil
}

func removeFromSnapshot(snap *Snapshot, documentID string) (*Document, error) {
	if snap.Base != nil && snap.Base.ID == documentID {
		d := *snap.Base
		snap.Base = nil
		return &d, nil
	}
	for i := range snap.Proposals {
		if snap.Proposals[i].ID != documentID {
			continue
		}
		if len(snap.Revisions[documentID]) > 0 {
			return nil, ErrNotDeletable
		}
		d := snap.Proposals[i]
		snap.Proposals = append(snap.Proposals[:i], snap.Proposals[i+1:]...)
		delete(snap.Revisions, documentID)
		return &d, nil
	}
	for pid, revs := range snap.Revisions {
		for i := range revs {
			if revs[i].ID != documentID {
				continue
			}
			if i != len(revs)-1 {
				return nil, ErrNotDeletable
			}
			d := revs[i]
			if len(revs) == 1 {
				delete(snap.Revisions, pid)
			} else {
				snap.Revisions[pid] = revs[:i]
			}
			return &d, nil
		}
	}
	if snap.ResultDocument != nil && snap.ResultDocument.ID == documentID {
		if len(snap.ResultRevisions) > 0 {
			return nil, ErrNotDeletable
		}
		d := *snap.ResultDocument
		snap.ResultDocument = nil
		return &d, nil
	}
	for i := range snap.ResultRevisions {
		if snap.ResultRevisions[i].ID != documentID {
			continue
		}
		if i != len(snap.ResultRevisions)-1 {
			return nil, ErrNotDeletable
		}
		d := snap.ResultRevisions[i]
		snap.ResultRevisions = snap.ResultRevisions[:i]
		return &d, nil
	}
	return nil, ErrDocumentNotFound
}

// SetStatus sets a proposal's status and propagates it to every
// revision currently in its chain, as one atomic snapshot write.
// Any status may replace any other; decisions can be undone until the
// meeting is finalized.
func (e *Engine) SetStatus(ctx context.Context, acronym, meetingID, proposalID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	mu := e.lock(acronym, meetingID)
	mu.Lock()
	defer mu.Unlock()

	m, snap, err := e.loadOpen(ctx, acronym, meetingID)
	if err != nil {
		return err
	}
	p := snap.proposal(proposalID)
	if p == nil {
		return ErrProposalNotFound
	}
	p.Status = status
	revs := snap.Revisions[proposalID]
	for i := range revs {
		revs[i].Status = status
	}
	return e.save(ctx, m, snap)
}

// Reorder replaces the stored proposal order. The new order must be a
// permutation of the current proposal id set.
func (e *Engine) Reorder(ctx context.Context, acronym, meetingID string, order []string) error {
	mu := e.lock(acronym, meetingID)
	mu.Lock()
	defer mu.Unlock()

	m, snap, err := e.loadOpen(ctx, acronym, meetingID)
	if err != nil {
		return err
	}
	if len(order) != len(snap.Proposals) {
		return ErrInvalidReorder
	}
	byID := make(map[string]*Document, len(snap.Proposals))
	for i := range snap.Proposals {
		byID[snap.Proposals[i].ID] = &snap.Proposals[i]
	}
	next := make([]Document, 0, len(order))
	for _, id := range order {
		p, ok := byID[id]
		if !ok {
			return ErrInvalidReorder
		}
		next = append(next, *p)
		delete(byID, id)
	}
	snap.Proposals = next
	return e.save(ctx, m, snap)
}

// Finalize freezes the meeting. A result document must exist; this is
// enforced here rather than left to the client.
func (e *Engine) Finalize(ctx context.Context, acronym, meetingID string) error {
	mu := e.lock(acronym, meetingID)
	mu.Lock()
	defer mu.Unlock()

	m, err := e.store.GetMeeting(ctx, acronym, meetingID)
	if err != nil {
		return err
	}
	if m.IsCompleted {
		return nil
	}
	snap, err := e.store.LoadSnapshot(ctx, acronym, meetingID)
	if err != nil {
		return err
	}
	if snap.ResultDocument == nil {
		return ErrResultDocumentRequired
	}
	m.IsCompleted = true
	m.UpdatedAt = e.now().UTC()
	return e.store.UpdateMeeting(ctx, m)
}

// Reopen restores full mutability on a finalized meeting.
func (e *Engine) Reopen(ctx context.Context, acronym, meetingID string) error {
	mu := e.lock(acronym, meetingID)
	mu.Lock()
	defer mu.Unlock()

	m, err := e.store.GetMeeting(ctx, acronym, meetingID)
	if err != nil {
		return err
	}
	if !m.IsCompleted {
		return nil
	}
	m.IsCompleted = false
	m.UpdatedAt = e.now().UTC()
	return e.store.UpdateMeeting(ctx, m)
}

// SetMemo attaches a free-text note to a document. Memos live outside
// the lineage rules: they may be set or cleared regardless of status or
// completion, and vanish only when their document is deleted.
func (e *Engine) SetMemo(ctx context.Context, acronym, meetingID, documentID, text string) error {
	mu := e.lock(acronym, meetingID)
	mu.Lock()
	defer mu.Unlock()

	m, err := e.store.GetMeeting(ctx, acronym, meetingID)
	if err != nil {
		return err
	}
	snap, err := e.store.LoadSnapshot(ctx, acronym, meetingID)
	if err != nil {
		return err
	}
	if text == "" {
		delete(snap.Memos, documentID)
	} else {
		snap.Memos[documentID] = text
	}
	return e.save(ctx, m, snap)
}

// Memos returns the memo map for a meeting.
func (e *Engine) Memos(ctx context.Context, acronym, meetingID string) (map[string]string, error) {
	snap, err := e.store.LoadSnapshot(ctx, acronym, meetingID)
	if err != nil {
		return nil, err
	}
	return snap.Memos, nil
}

// Snapshot returns the meeting's current chain state.
func (e *Engine) Snapshot(ctx context.Context, acronym, meetingID string) (*Snapshot, error) {
	return e.store.LoadSnapshot(ctx, acronym, meetingID)
}

// loadOpen fetches meeting and snapshot, rejecting finalized meetings.
func (e *Engine) loadOpen(ctx context.Context, acronym, meetingID string) (*Meeting, *Snapshot, error) {
	m, err := e.store.GetMeeting(ctx, acronym, meetingID)
	if err != nil {
		return nil, nil, err
	}
	if m.IsCompleted {
		return nil, nil, ErrMeetingCompleted
	}
	snap, err := e.store.LoadSnapshot(ctx, acronym, meetingID)
	if err != nil {
		return nil, nil, err
	}
	return m, snap, nil
}

func (e *Engine) save(ctx context.Context, m *Meeting, snap *Snapshot) error {
	if err := e.store.SaveSnapshot(ctx, m.Acronym, m.ID, snap); err != nil {
		return err
	}
	m.UpdatedAt = e.now().UTC()
	return e.store.UpdateMeeting(ctx, m)
}

// resolveName prefers the content-derived title and falls back to the
// uploaded filename. The filename itself is always kept verbatim on the
// document.
func resolveName(extracted, fileName string) string {
	if t := strings.TrimSpace(extracted); t != "" {
		return t
	}
	return fileName
}
