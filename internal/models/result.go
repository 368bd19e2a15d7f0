package models

import "time"

// QuizResult is the durably stored, deduplicated outcome of a completed
// submission. SubmissionID carries the storage-level unique index; a second
// insert with the same id is absorbed as a no-op. Rows are never mutated.
type QuizResult struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	StudentID       string    `bson:"student_id" json:"student_id"`
	StudentName     string    `bson:"student_name" json:"student_name"`
	CourseID        string    `bson:"course_id" json:"course_id"`
	QuizID          string    `bson:"quiz_id" json:"quiz_id"`
	QuizTitle       string    `bson:"quiz_title" json:"quiz_title"`
	SubmissionID    string    `bson:"submission_id" json:"submission_id"`
	Score           float64   `bson:"score" json:"score"`
	PossiblePoints  float64   `bson:"possible_points" json:"possible_points"`
	PercentageScore float64   `bson:"percentage_score" json:"percentage_score"`
	SubmittedAt     time.Time `bson:"submitted_at" json:"submitted_at"`
	DetectedAt      time.Time `bson:"detected_at" json:"detected_at"`
	Attempt         int       `bson:"attempt" json:"attempt"`
}

// ResultEvent is the payload pushed to a student's live connections when a
// new result is detected.
type ResultEvent struct {
	QuizTitle       string    `json:"quizTitle"`
	Score           float64   `json:"score"`
	PossiblePoints  float64   `json:"possiblePoints"`
	PercentageScore float64   `json:"percentageScore"`
	SubmittedAt     time.Time `json:"submittedAt"`
	Attempt         int       `json:"attempt"`
}

// StudentStats aggregates a student's stored results.
type StudentStats struct {
	Completed         int     `json:"completed"`
	TotalPoints       float64 `json:"totalPoints"`
	TotalPossible     float64 `json:"totalPossible"`
	AveragePercentage float64 `json:"averagePercentage"`
}

// Percentage computes score/possible as a percentage clamped to [0,100].
// A zero possible-points quiz scores 0, not NaN.
func Percentage(score, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	pct := score / possible * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
