package sessions

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LoginRecord tracks who logged in last and as what role.
type LoginRecord struct {
	User      string    `bson:"_id" json:"user"`
	Role      Role      `bson:"role" json:"role"`
	LastLogin time.Time `bson:"lastLogin" json:"lastLogin"`
}

// LoginRecorder keeps per-user last-login bookkeeping. Recording is
// best effort; a failed write never blocks a login.
type LoginRecorder interface {
	Record(ctx context.Context, user string, role Role, at time.Time) error
}

// MongoLoginRecorder upserts into a `logins` collection keyed by user.
type MongoLoginRecorder struct {
	col *mongo.Collection
}

func NewMongoLoginRecorder(col *mongo.Collection) *MongoLoginRecorder {
	return &MongoLoginRecorder{col: col}
}

func (r *MongoLoginRecorder) Record(ctx context.Context, user string, role Role, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": user},
		bson.M{"$set": bson.M{"role": role, "lastLogin": at}},
		options.Update().SetUpsert(true),
	)
	return err
}

// MemoryLoginRecorder is the in-memory counterpart for tests.
type MemoryLoginRecorder struct {
	mu      sync.Mutex
	records map[string]LoginRecord
}

func NewMemoryLoginRecorder() *MemoryLoginRecorder {
	return &MemoryLoginRecorder{records: make(map[string]LoginRecord)}
}

func (r *MemoryLoginRecorder) Record(ctx context.Context, user string, role Role, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[user] = LoginRecord{User: user, Role: role, LastLogin: at}
	return nil
}

func (r *MemoryLoginRecorder) Get(user string) (LoginRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[user]
	return rec, ok
}
