package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"quiz-monitor-service/internal/models"
)

// fakeResultStore enforces the submission_id uniqueness constraint the way
// the Mongo unique index does: duplicate inserts fail with a duplicate-key
// error, atomically under the lock.
type fakeResultStore struct {
	mu      sync.Mutex
	results map[string]*models.QuizResult
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{results: make(map[string]*models.QuizResult)}
}

func (s *fakeResultStore) Create(_ context.Context, result *models.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[result.SubmissionID]; exists {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	copied := *result
	s.results[result.SubmissionID] = &copied
	return nil
}

func (s *fakeResultStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

type fakeNotifier struct {
	mu          sync.Mutex
	connections map[string]int
	events      map[string][]models.ResultEvent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{connections: make(map[string]int), events: make(map[string][]models.ResultEvent)}
}

func (n *fakeNotifier) Deliver(studentID string, event models.ResultEvent) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	conns := n.connections[studentID]
	if conns == 0 {
		return 0
	}
	n.events[studentID] = append(n.events[studentID], event)
	return conns
}

func (n *fakeNotifier) pushes(studentID string) []models.ResultEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[studentID]
}

type fakeDirectory struct {
	names map[string]string
	err   error
}

func (d *fakeDirectory) GetUserProfile(_ context.Context, userID string) (*models.CanvasUser, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &models.CanvasUser{Name: d.names[userID]}, nil
}

func completedSubmission() *models.CanvasQuizSubmission {
	return &models.CanvasQuizSubmission{
		ID:                 9001,
		QuizID:             187627,
		UserID:             555,
		SubmissionID:       70001,
		Score:              8,
		QuizPointsPossible: 10,
		FinishedAt:         "2026-08-30T12:00:00Z",
		WorkflowState:      models.WorkflowComplete,
		Attempt:            1,
	}
}

func monitoredQuizMeta() *models.CanvasQuiz {
	return &models.CanvasQuiz{ID: 187627, Title: "Midterm Quiz", PointsPossible: 10}
}

func TestProcessSubmissionStoresAndNotifies(t *testing.T) {
	store := newFakeResultStore()
	notifier := newFakeNotifier()
	notifier.connections["555"] = 1
	svc := NewMonitorService(store, &fakeDirectory{names: map[string]string{"555": "Ada Lovelace"}}, notifier, nil)

	if err := svc.ProcessSubmission(context.Background(), "90302", monitoredQuizMeta(), completedSubmission()); err != nil {
		t.Fatalf("ProcessSubmission returned error: %v", err)
	}

	if store.count() != 1 {
		t.Fatalf("stored results = %d, want 1", store.count())
	}
	result := store.results["70001"]
	if result.StudentID != "555" || result.StudentName != "Ada Lovelace" ||
		result.CourseID != "90302" || result.QuizID != "187627" ||
		result.QuizTitle != "Midterm Quiz" || result.Attempt != 1 {
		t.Errorf("stored result fields wrong: %+v", result)
	}
	if result.PercentageScore != 80.0 {
		t.Errorf("PercentageScore = %v, want 80.0", result.PercentageScore)
	}

	pushes := notifier.pushes("555")
	if len(pushes) != 1 {
		t.Fatalf("pushes = %d, want exactly 1", len(pushes))
	}
	if pushes[0].PercentageScore != 80.0 || pushes[0].QuizTitle != "Midterm Quiz" {
		t.Errorf("pushed event wrong: %+v", pushes[0])
	}
}

func TestRepeatedDeliveryIsIdempotent(t *testing.T) {
	store := newFakeResultStore()
	notifier := newFakeNotifier()
	notifier.connections["555"] = 1
	svc := NewMonitorService(store, &fakeDirectory{}, notifier, nil)

	for i := 0; i < 5; i++ {
		if err := svc.ProcessSubmission(context.Background(), "90302", monitoredQuizMeta(), completedSubmission()); err != nil {
			t.Fatalf("delivery %d returned error: %v", i, err)
		}
	}

	if store.count() != 1 {
		t.Errorf("stored results = %d after 5 deliveries, want 1", store.count())
	}
	if len(notifier.pushes("555")) != 1 {
		t.Errorf("pushes = %d after 5 deliveries, want 1", len(notifier.pushes("555")))
	}
}

func TestDuplicateAcrossRestart(t *testing.T) {
	store := newFakeResultStore()
	notifier := newFakeNotifier()
	notifier.connections["555"] = 1

	first := NewMonitorService(store, &fakeDirectory{}, notifier, nil)
	if err := first.ProcessSubmission(context.Background(), "90302", monitoredQuizMeta(), completedSubmission()); err != nil {
		t.Fatalf("first ingestion returned error: %v", err)
	}

	// A restarted process loses the in-memory seen set; the storage-level
	// unique constraint must still absorb the redelivery without a second
	// notification.
	restarted := NewMonitorService(store, &fakeDirectory{}, notifier, nil)
	if err := restarted.ProcessSubmission(context.Background(), "90302", monitoredQuizMeta(), completedSubmission()); err != nil {
		t.Fatalf("redelivery after restart returned error: %v", err)
	}

	if store.count() != 1 {
		t.Errorf("stored results = %d, want 1", store.count())
	}
	if len(notifier.pushes("555")) != 1 {
		t.Errorf("pushes = %d, want 1", len(notifier.pushes("555")))
	}
}

func TestIncompleteSubmissionSkippedNotRemembered(t *testing.T) {
	store := newFakeResultStore()
	notifier := newFakeNotifier()
	notifier.connections["555"] = 1
	svc := NewMonitorService(store, &fakeDirectory{}, notifier, nil)

	sub := completedSubmission()
	sub.WorkflowState = models.WorkflowUntaken
	if err := svc.ProcessSubmission(context.Background(), "90302", monitoredQuizMeta(), sub); err != nil {
		t.Fatalf("in-progress submission returned error: %v", err)
	}
	if store.count() != 0 {
		t.Fatal("in-progress submission was stored")
	}

	// Same (quiz, user, attempt) completes later; it must not have been
	// remembered as seen while incomplete.
	sub.WorkflowState = models.WorkflowComplete
	if err := svc.ProcessSubmission(context.Background(), "90302", monitoredQuizMeta(), sub); err != nil {
		t.Fatalf("completed submission returned error: %v", err)
	}
	if store.count() != 1 {
		t.Error("completed submission was not stored after earlier in-progress sighting")
	}
}

func TestDisconnectedStudentStillStored(t *testing.T) {
	store := newFakeResultStore()
	notifier := newFakeNotifier() // no connections registered
	svc := NewMonitorService(store, &fakeDirectory{}, notifier, nil)

	if err := svc.ProcessSubmission(context.Background(), "90302", monitoredQuizMeta(), completedSubmission()); err != nil {
		t.Fatalf("ProcessSubmission returned error: %v", err)
	}
	if store.count() != 1 {
		t.Error("result not stored for disconnected student")
	}
	if len(notifier.pushes("555")) != 0 {
		t.Error("push recorded for a student with no connections")
	}
}

func TestBuildResultFallbacks(t *testing.T) {
	svc := NewMonitorService(newFakeResultStore(), &fakeDirectory{err: errors.New("profile fetch failed")}, newFakeNotifier(), nil)

	sub := completedSubmission()
	sub.SubmissionID = 0
	sub.QuizPointsPossible = 0
	sub.Attempt = 0

	result := svc.buildResult(context.Background(), "90302", monitoredQuizMeta(), sub)
	if result.StudentName != fallbackStudentName {
		t.Errorf("StudentName = %q, want fallback on profile error", result.StudentName)
	}
	if result.SubmissionID != "9001" {
		t.Errorf("SubmissionID = %q, want fallback to the submission record id", result.SubmissionID)
	}
	if result.PossiblePoints != 10 {
		t.Errorf("PossiblePoints = %v, want quiz-level points", result.PossiblePoints)
	}
	if result.Attempt != 1 {
		t.Errorf("Attempt = %d, want floor of 1", result.Attempt)
	}
}
