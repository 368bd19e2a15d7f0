package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"quiz-monitor-service/internal/models"
)

type fakeSessionStore struct {
	sessions map[string]*models.LTISession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.LTISession)}
}

func (s *fakeSessionStore) Create(_ context.Context, session *models.LTISession) error {
	s.sessions[session.SessionToken] = session
	return nil
}

func (s *fakeSessionStore) FindByToken(_ context.Context, token string) (*models.LTISession, error) {
	session, ok := s.sessions[token]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) MarkExpired(_ context.Context, token string) error {
	if session, ok := s.sessions[token]; ok {
		session.Status = models.SessionExpired
	}
	return nil
}

func testTicket() *models.LaunchTicket {
	return &models.LaunchTicket{
		UserID:         "555",
		UserName:       "Ada Lovelace",
		CourseID:       "90302",
		ContextID:      "ctx-1",
		ResourceLinkID: "rl-1",
		Role:           models.RoleLearner,
	}
}

func TestIssueValidateRoundTrip(t *testing.T) {
	svc := NewSessionService(newFakeSessionStore(), 24*time.Hour)

	token, err := svc.Issue(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars (256 bits)", len(token))
	}

	session, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if session.UserID != "555" || session.UserName != "Ada Lovelace" ||
		session.CourseID != "90302" || session.Role != models.RoleLearner {
		t.Errorf("validated session does not match ticket: %+v", session)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	svc := NewSessionService(newFakeSessionStore(), 24*time.Hour)

	_, err := svc.Validate(context.Background(), "no-such-token")
	if !errors.Is(err, ErrSessionDenied) {
		t.Errorf("err = %v, want ErrSessionDenied", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	store := newFakeSessionStore()
	svc := NewSessionService(store, -time.Hour) // already past expiry on issue

	token, err := svc.Issue(context.Background(), testTicket())
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	_, err = svc.Validate(context.Background(), token)
	if !errors.Is(err, ErrSessionDenied) {
		t.Errorf("err = %v, want ErrSessionDenied for expired session", err)
	}
	if store.sessions[token].Status != models.SessionExpired {
		t.Error("expiry was not cached on the stored session")
	}
}

func TestTokensAreUnique(t *testing.T) {
	svc := NewSessionService(newFakeSessionStore(), 24*time.Hour)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := svc.Issue(context.Background(), testTicket())
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
		if _, dup := seen[token]; dup {
			t.Fatal("token reused across sessions")
		}
		seen[token] = struct{}{}
	}
}
