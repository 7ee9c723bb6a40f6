package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stdtrack/stdtrack/internal/lineage"
)

// MongoStore keeps one document per meeting: the meeting metadata with
// the chain snapshot embedded as a subdocument. Because a meeting is a
// single Mongo document, whole-snapshot replacement (and with it the
// status fan-out) is a single atomic write.
type MongoStore struct {
	col *mongo.Collection
}

type meetingRecord struct {
	lineage.Meeting `bson:",inline"`
	Snapshot        lineage.Snapshot `bson:"snapshot"`
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "acronym", Value: 1}, {Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoStore{col: col}
}

func filterFor(acronym, id string) bson.M {
	return bson.M{"acronym": acronym, "id": id}
}

func (s *MongoStore) CreateMeeting(ctx context.Context, m *lineage.Meeting, snap *lineage.Snapshot) error {
	if snap == nil {
		snap = lineage.NewSnapshot()
	}
	rec := meetingRecord{Meeting: *m, Snapshot: *snap}
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

func (s *MongoStore) GetMeeting(ctx context.Context, acronym, id string) (*lineage.Meeting, error) {
	var rec meetingRecord
	opts := options.FindOne().SetProjection(bson.M{"snapshot": 0})
	if err := s.col.FindOne(ctx, filterFor(acronym, id), opts).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, lineage.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	m := rec.Meeting
	return &m, nil
}

func (s *MongoStore) UpdateMeeting(ctx context.Context, m *lineage.Meeting) error {
	set := bson.M{
		"title":       m.Title,
		"startDate":   m.StartDate,
		"endDate":     m.EndDate,
		"description": m.Description,
		"isCompleted": m.IsCompleted,
		"updatedAt":   m.UpdatedAt,
	}
	res, err := s.col.UpdateOne(ctx, filterFor(m.Acronym, m.ID), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}
	if res.MatchedCount == 0 {
		return lineage.ErrMeetingNotFound
	}
	return nil
}

func (s *MongoStore) DeleteMeeting(ctx context.Context, acronym, id string) error {
	res, err := s.col.DeleteOne(ctx, filterFor(acronym, id))
	if err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	if res.DeletedCount == 0 {
		return lineage.ErrMeetingNotFound
	}
	return nil
}

func (s *MongoStore) ListMeetings(ctx context.Context, acronym string) ([]*lineage.Meeting, error) {
	opts := options.Find().
		SetProjection(bson.M{"snapshot": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"acronym": acronym}, opts)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer cur.Close(ctx)
	out := []*lineage.Meeting{}
	for cur.Next(ctx) {
		var rec meetingRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode meeting: %w", err)
		}
		m := rec.Meeting
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (s *MongoStore) LoadSnapshot(ctx context.Context, acronym, id string) (*lineage.Snapshot, error) {
	var rec meetingRecord
	if err := s.col.FindOne(ctx, filterFor(acronym, id)).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, lineage.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snap := rec.Snapshot
	snap.Normalize()
	return &snap, nil
}

func (s *MongoStore) SaveSnapshot(ctx context.Context, acronym, id string, snap *lineage.Snapshot) error {
	res, err := s.col.UpdateOne(ctx, filterFor(acronym, id), bson.M{"$set": bson.M{"snapshot": snap}})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if res.MatchedCount == 0 {
		return lineage.ErrMeetingNotFound
	}
	return nil
}
