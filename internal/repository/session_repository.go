package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quiz-monitor-service/internal/models"
)

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("lti_sessions")}
}

// EnsureIndexes creates the unique token index and the TTL sweep on expiry.
// The TTL index is the periodic garbage collection; lookups additionally
// check expiry themselves, so a not-yet-swept document still denies.
func (r *SessionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	return err
}

func (r *SessionRepository) Create(ctx context.Context, session *models.LTISession) error {
	res, err := r.Col.InsertOne(ctx, session)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

// FindByToken returns the session for a token, or mongo.ErrNoDocuments.
// Expiry is not filtered here; the service layer owns that decision.
func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*models.LTISession, error) {
	var session models.LTISession
	err := r.Col.FindOne(ctx, bson.M{"session_token": token}).Decode(&session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkExpired caches the expired status on a session found past its expiry.
func (r *SessionRepository) MarkExpired(ctx context.Context, token string) error {
	_, err := r.Col.UpdateOne(ctx,
		bson.M{"session_token": token},
		bson.M{"$set": bson.M{"status": models.SessionExpired}})
	return err
}

// DeleteExpiredBefore removes sessions whose expiry predates cutoff. The
// Mongo TTL monitor normally does this; the method exists for deployments
// where TTL indexes are disabled.
func (r *SessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.Col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
