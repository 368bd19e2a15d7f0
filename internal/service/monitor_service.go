package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"quiz-monitor-service/internal/models"
	"quiz-monitor-service/internal/repository"
)

const fallbackStudentName = "Canvas User"

// ResultStore persists detected results. Create must fail with a
// duplicate-key error when the submission id is already stored; that
// storage-level unique index is the dedup correctness boundary, not the
// in-memory seen set.
type ResultStore interface {
	Create(ctx context.Context, result *models.QuizResult) error
}

// UserDirectory resolves Canvas user ids to profiles. *canvas.Client
// satisfies it.
type UserDirectory interface {
	GetUserProfile(ctx context.Context, userID string) (*models.CanvasUser, error)
}

// Notifier pushes a result event to a student's live connections and
// reports how many received it. *ws.Hub satisfies it.
type Notifier interface {
	Deliver(studentID string, event models.ResultEvent) int
}

// EventSink fans detected results out beyond this process.
// *event.Publisher satisfies it; a nil sink disables fan-out.
type EventSink interface {
	Publish(eventType string, payload interface{}) error
}

// MonitorService decides, per fetched submission, whether it is new, then
// persists and notifies exactly once. Safe for concurrent use by multiple
// per-quiz poll tasks.
type MonitorService struct {
	Store    ResultStore
	Users    UserDirectory
	Notifier Notifier
	Events   EventSink

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMonitorService(store ResultStore, users UserDirectory, notifier Notifier, events EventSink) *MonitorService {
	return &MonitorService{
		Store:    store,
		Users:    users,
		Notifier: notifier,
		Events:   events,
		seen:     make(map[string]struct{}),
	}
}

// submissionKey is stable across retries and restarts of the poller.
func submissionKey(sub *models.CanvasQuizSubmission) string {
	return fmt.Sprintf("%d-%d-%d", sub.QuizID, sub.UserID, sub.Attempt)
}

// ProcessSubmission ingests one submission candidate. Incomplete
// submissions are skipped without being remembered, so they are re-examined
// until they complete. A submission whose id is already stored is absorbed
// as a no-op with no second notification.
func (m *MonitorService) ProcessSubmission(ctx context.Context, courseID string, quiz *models.CanvasQuiz, sub *models.CanvasQuizSubmission) error {
	if !sub.Complete() {
		return nil
	}

	key := submissionKey(sub)
	m.mu.Lock()
	_, alreadySeen := m.seen[key]
	m.mu.Unlock()
	if alreadySeen {
		return nil
	}

	result := m.buildResult(ctx, courseID, quiz, sub)

	if err := m.Store.Create(ctx, result); err != nil {
		if repository.IsDuplicate(err) {
			// Another tick, instance, or an earlier run of this
			// process already stored and notified this submission.
			m.markSeen(key)
			return nil
		}
		return fmt.Errorf("persisting result for submission %s: %w", result.SubmissionID, err)
	}
	m.markSeen(key)

	log.Printf("New quiz result stored: quiz=%s user=%s attempt=%d score=%.1f/%.1f",
		result.QuizID, result.StudentID, result.Attempt, result.Score, result.PossiblePoints)

	delivered := m.Notifier.Deliver(result.StudentID, models.ResultEvent{
		QuizTitle:       result.QuizTitle,
		Score:           result.Score,
		PossiblePoints:  result.PossiblePoints,
		PercentageScore: result.PercentageScore,
		SubmittedAt:     result.SubmittedAt,
		Attempt:         result.Attempt,
	})
	if delivered == 0 {
		log.Printf("Student %s not connected, result stored for later retrieval", result.StudentID)
	}

	if m.Events != nil {
		if err := m.Events.Publish("quiz.result.detected", result); err != nil {
			log.Printf("Failed to publish result event: %v", err)
		}
	}
	return nil
}

// buildResult enriches a raw submission into a storable result. A failed
// profile lookup falls back to a placeholder name rather than dropping the
// submission.
func (m *MonitorService) buildResult(ctx context.Context, courseID string, quiz *models.CanvasQuiz, sub *models.CanvasQuizSubmission) *models.QuizResult {
	studentID := strconv.FormatInt(sub.UserID, 10)

	studentName := fallbackStudentName
	if m.Users != nil {
		if user, err := m.Users.GetUserProfile(ctx, studentID); err != nil {
			log.Printf("Could not resolve profile for user %s: %v", studentID, err)
		} else if user.Name != "" {
			studentName = user.Name
		}
	}

	submissionID := sub.SubmissionID
	if submissionID == 0 {
		submissionID = sub.ID
	}

	possible := sub.QuizPointsPossible
	if possible == 0 {
		possible = quiz.PointsPossible
	}

	attempt := sub.Attempt
	if attempt < 1 {
		attempt = 1
	}

	return &models.QuizResult{
		StudentID:       studentID,
		StudentName:     studentName,
		CourseID:        courseID,
		QuizID:          strconv.FormatInt(sub.QuizID, 10),
		QuizTitle:       quiz.Title,
		SubmissionID:    strconv.FormatInt(submissionID, 10),
		Score:           sub.Score,
		PossiblePoints:  possible,
		PercentageScore: models.Percentage(sub.Score, possible),
		SubmittedAt:     submissionTime(sub),
		DetectedAt:      time.Now().UTC(),
		Attempt:         attempt,
	}
}

func (m *MonitorService) markSeen(key string) {
	m.mu.Lock()
	m.seen[key] = struct{}{}
	m.mu.Unlock()
}

// submissionTime prefers the grading-finished timestamp over the started
// one, defaulting to the detection time when Canvas sends neither.
func submissionTime(sub *models.CanvasQuizSubmission) time.Time {
	for _, raw := range []string{sub.FinishedAt, sub.StartedAt} {
		if raw == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}
