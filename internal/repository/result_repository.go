package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quiz-monitor-service/internal/models"
)

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("quiz_results")}
}

// EnsureIndexes creates the unique submission_id index that is the
// authoritative dedup mechanism, plus lookup indexes for the pull API.
func (r *ResultRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "submission_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "course_id", Value: 1}, {Key: "quiz_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "submitted_at", Value: -1}},
		},
	})
	return err
}

// Create inserts a result. A duplicate submission_id surfaces as a
// duplicate-key error; IsDuplicate distinguishes that from real failures so
// the caller can treat it as success-no-op.
func (r *ResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	res, err := r.Col.InsertOne(ctx, result)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		result.ID = oid.Hex()
	}
	return nil
}

// IsDuplicate reports whether err is the unique-index rejection for an
// already-stored submission.
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (r *ResultRepository) FindByStudent(ctx context.Context, studentID, courseID string) ([]models.QuizResult, error) {
	filter := bson.M{"student_id": studentID}
	if courseID != "" {
		filter["course_id"] = courseID
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var results []models.QuizResult
	for cur.Next(ctx) {
		var res models.QuizResult
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, cur.Err()
}

func (r *ResultRepository) FindLatestByStudent(ctx context.Context, studentID string) (*models.QuizResult, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	var result models.QuizResult
	err := r.Col.FindOne(ctx, bson.M{"student_id": studentID}, opts).Decode(&result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
