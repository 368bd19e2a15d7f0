package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"quiz-monitor-service/internal/models"
)

// ErrSessionDenied is returned for unknown and expired tokens alike, so a
// caller cannot probe which sessions exist.
var ErrSessionDenied = errors.New("invalid or expired session token")

// SessionStore is what the session service needs from persistence.
// *repository.SessionRepository satisfies it.
type SessionStore interface {
	Create(ctx context.Context, session *models.LTISession) error
	FindByToken(ctx context.Context, token string) (*models.LTISession, error)
	MarkExpired(ctx context.Context, token string) error
}

type SessionService struct {
	Store SessionStore
	TTL   time.Duration
}

func NewSessionService(store SessionStore, ttl time.Duration) *SessionService {
	return &SessionService{Store: store, TTL: ttl}
}

// Issue mints a session from a verified launch ticket and returns its token.
func (s *SessionService) Issue(ctx context.Context, ticket *models.LaunchTicket) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	now := time.Now().UTC()
	session := &models.LTISession{
		UserID:         ticket.UserID,
		UserName:       ticket.UserName,
		CourseID:       ticket.CourseID,
		ContextID:      ticket.ContextID,
		ResourceLinkID: ticket.ResourceLinkID,
		Role:           ticket.Role,
		SessionToken:   token,
		Status:         models.SessionActive,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.TTL),
	}
	if err := s.Store.Create(ctx, session); err != nil {
		return "", fmt.Errorf("persisting session: %w", err)
	}
	return token, nil
}

// Validate resolves a token to its session. Not-found and past-expiry both
// come back as ErrSessionDenied; the expiry timestamp is the source of
// truth, the stored status only a cache updated lazily here.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.LTISession, error) {
	session, err := s.Store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionDenied
		}
		return nil, err
	}
	if session.Expired(time.Now().UTC()) {
		if session.Status != models.SessionExpired {
			// Status is only a cache; a failed update changes nothing.
			_ = s.Store.MarkExpired(ctx, token)
		}
		return nil, ErrSessionDenied
	}
	return session, nil
}

// newSessionToken draws 32 bytes from the system CSPRNG, hex-encoded.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
