package sessions

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Credentials are the shared role passwords. The chair can read and
// rotate them at runtime through the settings endpoint.
type Credentials struct {
	ChairPassword       string `bson:"chairPassword" json:"chairPassword"`
	ContributorPassword string `bson:"contributorPassword" json:"contributorPassword"`
}

// CredentialStore persists the role passwords.
type CredentialStore interface {
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, c *Credentials) error
}

// MemoryCredentialStore holds the passwords in process memory, seeded
// from configuration.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewMemoryCredentialStore(seed Credentials) *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: seed}
}

func (s *MemoryCredentialStore) Load(ctx context.Context) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.creds
	return &c, nil
}

func (s *MemoryCredentialStore) Save(ctx context.Context, c *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = *c
	return nil
}

const credentialsDocID = "auth-config"

// MongoCredentialStore keeps the passwords in a single document so
// rotation survives restarts. Falls back to the seed when the document
// does not exist yet.
type MongoCredentialStore struct {
	col  *mongo.Collection
	seed Credentials
}

func NewMongoCredentialStore(col *mongo.Collection, seed Credentials) *MongoCredentialStore {
	return &MongoCredentialStore{col: col, seed: seed}
}

func (s *MongoCredentialStore) Load(ctx context.Context) (*Credentials, error) {
	var c Credentials
	err := s.col.FindOne(ctx, bson.M{"_id": credentialsDocID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		seed := s.seed
		return &seed, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoCredentialStore) Save(ctx context.Context, c *Credentials) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": credentialsDocID},
		bson.M{"$set": c},
		options.Update().SetUpsert(true),
	)
	return err
}
