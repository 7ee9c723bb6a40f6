package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stdtrack/stdtrack/internal/lineage"
)

func testMeeting(acronym, id string, created time.Time) *lineage.Meeting {
	return &lineage.Meeting{
		Acronym:   acronym,
		ID:        id,
		Title:     "Plenary",
		StartDate: "2025-08-11",
		EndDate:   "2025-08-15",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMemoryStore_MeetingCRUD(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateMeeting(ctx, testMeeting("VVC", "2508-Plenary", now), lineage.NewSnapshot()))

	m, err := s.GetMeeting(ctx, "VVC", "2508-Plenary")
	require.NoError(t, err)
	require.Equal(t, "Plenary", m.Title)

	m.Description = "updated"
	require.NoError(t, s.UpdateMeeting(ctx, m))
	m2, err := s.GetMeeting(ctx, "VVC", "2508-Plenary")
	require.NoError(t, err)
	require.Equal(t, "updated", m2.Description)

	require.NoError(t, s.DeleteMeeting(ctx, "VVC", "2508-Plenary"))
	_, err = s.GetMeeting(ctx, "VVC", "2508-Plenary")
	require.ErrorIs(t, err, lineage.ErrMeetingNotFound)
}

func TestMemoryStore_ListOrderedByCreation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, s.CreateMeeting(ctx, testMeeting("VVC", "b", base.Add(2*time.Second)), nil))
	require.NoError(t, s.CreateMeeting(ctx, testMeeting("VVC", "a", base), nil))
	require.NoError(t, s.CreateMeeting(ctx, testMeeting("HEVC", "x", base.Add(time.Second)), nil))

	got, err := s.ListMeetings(ctx, "VVC")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)
}

func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CreateMeeting(ctx, testMeeting("VVC", "2508-Plenary", time.Now().UTC()), nil))

	snap, err := s.LoadSnapshot(ctx, "VVC", "2508-Plenary")
	require.NoError(t, err)
	snap.Proposals = append(snap.Proposals, lineage.Document{ID: "doc_1", Kind: lineage.KindProposal})

	// mutation of the loaded copy must not leak into the store
	again, err := s.LoadSnapshot(ctx, "VVC", "2508-Plenary")
	require.NoError(t, err)
	require.Empty(t, again.Proposals)

	require.NoError(t, s.SaveSnapshot(ctx, "VVC", "2508-Plenary", snap))
	saved, err := s.LoadSnapshot(ctx, "VVC", "2508-Plenary")
	require.NoError(t, err)
	require.Len(t, saved.Proposals, 1)
}

func TestMemoryStore_SaveSnapshotUnknownMeeting(t *testing.T) {
	s := NewMemoryStore()
	err := s.SaveSnapshot(context.Background(), "VVC", "nope", lineage.NewSnapshot())
	require.ErrorIs(t, err, lineage.ErrMeetingNotFound)
}
