package models

// Explicit schemas for the Canvas API payloads this service consumes.
// Anything the API returns beyond these fields is ignored.

type CanvasQuiz struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	QuizType       string  `json:"quiz_type"`
	PointsPossible float64 `json:"points_possible"`
	QuestionCount  int     `json:"question_count"`
	Published      bool    `json:"published"`
}

// Workflow states a quiz submission can report. Only a complete submission
// is eligible for ingestion; every other state is re-evaluated on the next
// poll tick.
const (
	WorkflowComplete      = "complete"
	WorkflowUntaken       = "untaken"
	WorkflowPendingReview = "pending_review"
	WorkflowSettingsOnly  = "settings_only"
	WorkflowPreview       = "preview"
)

type CanvasQuizSubmission struct {
	ID                 int64   `json:"id"`
	QuizID             int64   `json:"quiz_id"`
	UserID             int64   `json:"user_id"`
	SubmissionID       int64   `json:"submission_id"`
	Score              float64 `json:"score"`
	KeptScore          float64 `json:"kept_score"`
	QuizPointsPossible float64 `json:"quiz_points_possible"`
	StartedAt          string  `json:"started_at"`
	FinishedAt         string  `json:"finished_at"`
	WorkflowState      string  `json:"workflow_state"`
	Attempt            int     `json:"attempt"`
}

// Complete reports whether the submission has finished grading.
func (s *CanvasQuizSubmission) Complete() bool {
	return s.WorkflowState == WorkflowComplete
}

type CanvasQuizSubmissionList struct {
	QuizSubmissions []CanvasQuizSubmission `json:"quiz_submissions"`
}

type CanvasUser struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}
