package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stdtrack/stdtrack/internal/filestore"
	"github.com/stdtrack/stdtrack/internal/lineage"
	"github.com/stdtrack/stdtrack/pkg/logger"
)

// Service owns the standards catalog and meeting lifecycle: creation
// with collision-free ids and base-document carry-forward, and the
// cascading deletes that keep stored payloads in step with metadata.
type Service struct {
	catalog  Catalog
	meetings lineage.Store
	files    filestore.Store

	cache *Cache

	now   func() time.Time
	newID func(prefix string) string
}

// WithCache attaches a best-effort list cache. Optional.
func (s *Service) WithCache(c *Cache) *Service {
	s.cache = c
	return s
}

func NewService(catalog Catalog, meetings lineage.Store, files filestore.Store) *Service {
	return &Service{
		catalog:  catalog,
		meetings: meetings,
		files:    files,
		now:      time.Now,
		newID: func(prefix string) string {
			return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
		},
	}
}

func (s *Service) CreateStandard(ctx context.Context, acronym, title string) (*Standard, error) {
	now := s.now().UTC()
	std := &Standard{Acronym: acronym, Title: title, CreatedAt: now, UpdatedAt: now}
	if err := s.catalog.Create(ctx, std); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	return std, nil
}

func (s *Service) Standard(ctx context.Context, acronym string) (*Standard, []*lineage.Meeting, error) {
	std, err := s.catalog.Get(ctx, acronym)
	if err != nil {
		return nil, nil, err
	}
	meetings, err := s.meetings.ListMeetings(ctx, acronym)
	if err != nil {
		return nil, nil, err
	}
	return std, meetings, nil
}

func (s *Service) ListStandards(ctx context.Context) ([]*Standard, error) {
	if list, ok := s.cache.getList(ctx); ok {
		return list, nil
	}
	list, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.setList(ctx, list)
	return list, nil
}

func (s *Service) Meeting(ctx context.Context, acronym, id string) (*lineage.Meeting, error) {
	return s.meetings.GetMeeting(ctx, acronym, id)
}

// CreateMeetingInput carries the user-supplied meeting fields. Dates
// are YYYY-MM-DD.
type CreateMeetingInput struct {
	Title       string
	StartDate   string
	EndDate     string
	Description string
}

// CreateMeeting derives the meeting id from the start month and title
// ("YYMM-title", suffixed " (2)", " (3)", … on collision), carries the
// previous completed meeting's output forward as the base document, and
// stores the new meeting with that initial snapshot.
func (s *Service) CreateMeeting(ctx context.Context, acronym string, in CreateMeetingInput) (*lineage.Meeting, error) {
	if _, err := s.catalog.Get(ctx, acronym); err != nil {
		return nil, err
	}
	start, err := time.Parse("2006-01-02", in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", in.StartDate, err)
	}

	existing, err := s.meetings.ListMeetings(ctx, acronym)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		taken[m.ID] = struct{}{}
	}
	id := fmt.Sprintf("%02d%02d-%s", start.Year()%100, int(start.Month()), in.Title)
	if _, ok := taken[id]; ok {
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s (%d)", id, n)
			if _, ok := taken[candidate]; !ok {
				id = candidate
				break
			}
		}
	}

	base, err := s.carryForwardBase(ctx, acronym, existing)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m := &lineage.Meeting{
		Acronym:     acronym,
		ID:          id,
		Title:       in.Title,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	snap := lineage.NewSnapshot()
	snap.Base = base
	if err := s.meetings.CreateMeeting(ctx, m, snap); err != nil {
		return nil, err
	}
	return m, nil
}

// carryForwardBase finds the most recently completed meeting (in
// meeting order) and copies its final output, the last result revision
// when any exist and the result document otherwise, as a base document
// with a fresh id. Returns nil when there is nothing to inherit.
func (s *Service) carryForwardBase(ctx context.Context, acronym string, meetings []*lineage.Meeting) (*lineage.Document, error) {
	var last *lineage.Meeting
	for _, m := range meetings {
		if m.IsCompleted {
			last = m
		}
	}
	if last == nil {
		return nil, nil
	}
	snap, err := s.meetings.LoadSnapshot(ctx, acronym, last.ID)
	if err != nil {
		return nil, err
	}
	if snap.ResultDocument == nil {
		return nil, nil
	}
	src := *snap.ResultDocument
	if n := len(snap.ResultRevisions); n > 0 {
		src = snap.ResultRevisions[n-1]
	}
	base := src
	base.ID = s.newID("base")
	base.Kind = lineage.KindBase
	base.ParentID = ""
	base.Status = ""
	return &base, nil
}

// UpdateMeetingInput edits meeting metadata; nil fields stay unchanged.
type UpdateMeetingInput struct {
	Title       *string
	StartDate   *string
	EndDate     *string
	Description *string
}

func (s *Service) UpdateMeeting(ctx context.Context, acronym, id string, in UpdateMeetingInput) (*lineage.Meeting, error) {
	m, err := s.meetings.GetMeeting(ctx, acronym, id)
	if err != nil {
		return nil, err
	}
	if m.IsCompleted {
		return nil, lineage.ErrMeetingCompleted
	}
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.StartDate != nil {
		m.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		m.EndDate = *in.EndDate
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	m.UpdatedAt = s.now().UTC()
	if err := s.meetings.UpdateMeeting(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMeeting removes a meeting and its stored payloads. Completed
// meetings are permanently protected.
func (s *Service) DeleteMeeting(ctx context.Context, acronym, id string) error {
	m, err := s.meetings.GetMeeting(ctx, acronym, id)
	if err != nil {
		return err
	}
	if m.IsCompleted {
		return lineage.ErrMeetingCompleted
	}
	snap, err := s.meetings.LoadSnapshot(ctx, acronym, id)
	if err != nil {
		return err
	}
	s.deletePayloads(ctx, snap.FilePaths())
	return s.meetings.DeleteMeeting(ctx, acronym, id)
}

// DeleteStandard cascades: every meeting and every stored payload for
// the acronym goes. Irreversible.
func (s *Service) DeleteStandard(ctx context.Context, acronym string) error {
	meetings, err := s.meetings.ListMeetings(ctx, acronym)
	if err != nil {
		return err
	}
	for _, m := range meetings {
		snap, err := s.meetings.LoadSnapshot(ctx, acronym, m.ID)
		if err != nil {
			return err
		}
		s.deletePayloads(ctx, snap.FilePaths())
		if err := s.meetings.DeleteMeeting(ctx, acronym, m.ID); err != nil {
			return err
		}
	}
	if err := s.catalog.Delete(ctx, acronym); err != nil {
		return err
	}
	s.cache.invalidate(ctx)
	return nil
}

// deletePayloads is best-effort: a payload left behind is an orphan to
// garbage-collect, never a reason to abort the metadata delete.
func (s *Service) deletePayloads(ctx context.Context, paths []string) {
	if s.files == nil {
		return
	}
	for _, p := range paths {
		if err := s.files.Delete(ctx, p); err != nil {
			logger.Warnf("failed to delete payload %s: %v", p, err)
		}
	}
}

// MeetingTitles returns the distinct meeting titles across all
// standards, sorted, for the new-meeting title picker.
func (s *Service) MeetingTitles(ctx context.Context) ([]string, error) {
	standards, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, std := range standards {
		meetings, err := s.meetings.ListMeetings(ctx, std.Acronym)
		if err != nil {
			return nil, err
		}
		for _, m := range meetings {
			if t := strings.TrimSpace(m.Title); t != "" {
				seen[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}
