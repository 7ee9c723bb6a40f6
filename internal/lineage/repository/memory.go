package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/stdtrack/stdtrack/internal/lineage"
)

// MemoryStore is an in-memory lineage.Store used for unit tests and
// single-process development runs.
type MemoryStore struct {
	mu        sync.RWMutex
	meetings  map[string]*lineage.Meeting
	snapshots map[string]*lineage.Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meetings:  make(map[string]*lineage.Meeting),
		snapshots: make(map[string]*lineage.Snapshot),
	}
}

func key(acronym, id string) string { return acronym + "/" + id }

func (s *MemoryStore) CreateMeeting(ctx context.Context, m *lineage.Meeting, snap *lineage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(m.Acronym, m.ID)
	cm := *m
	s.meetings[k] = &cm
	if snap == nil {
		snap = lineage.NewSnapshot()
	}
	s.snapshots[k] = cloneSnapshot(snap)
	return nil
}

func (s *MemoryStore) GetMeeting(ctx context.Context, acronym, id string) (*lineage.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meetings[key(acronym, id)]
	if !ok {
		return nil, lineage.ErrMeetingNotFound
	}
	cm := *m
	return &cm, nil
}

func (s *MemoryStore) UpdateMeeting(ctx context.Context, m *lineage.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(m.Acronym, m.ID)
	if _, ok := s.meetings[k]; !ok {
		return lineage.ErrMeetingNotFound
	}
	cm := *m
	s.meetings[k] = &cm
	return nil
}

func (s *MemoryStore) DeleteMeeting(ctx context.Context, acronym, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(acronym, id)
	if _, ok := s.meetings[k]; !ok {
		return lineage.ErrMeetingNotFound
	}
	delete(s.meetings, k)
	delete(s.snapshots, k)
	return nil
}

func (s *MemoryStore) ListMeetings(ctx context.Context, acronym string) ([]*lineage.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*lineage.Meeting{}
	for _, m := range s.meetings {
		if m.Acronym == acronym {
			cm := *m
			out = append(out, &cm)
		}
	}
	// creation order, matching the mongo store's sort
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) LoadSnapshot(ctx context.Context, acronym, id string) (*lineage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key(acronym, id)]
	if !ok {
		return nil, lineage.ErrMeetingNotFound
	}
	out := cloneSnapshot(snap)
	out.Normalize()
	return out, nil
}

func (s *MemoryStore) SaveSnapshot(ctx context.Context, acronym, id string, snap *lineage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(acronym, id)
	if _, ok := s.meetings[k]; !ok {
		return lineage.ErrMeetingNotFound
	}
	s.snapshots[k] = cloneSnapshot(snap)
	return nil
}

// cloneSnapshot deep-copies via JSON so callers never share slices or
// maps with the store.
func cloneSnapshot(snap *lineage.Snapshot) *lineage.Snapshot {
	b, _ := json.Marshal(snap)
	var out lineage.Snapshot
	_ = json.Unmarshal(b, &out)
	out.Normalize()
	return &out
}
