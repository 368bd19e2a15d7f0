package models

import (
	"testing"
	"time"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		name     string
		score    float64
		possible float64
		want     float64
	}{
		{"zero over zero", 0, 0, 0},
		{"score with zero possible", 5, 0, 0},
		{"three quarters", 75, 100, 75.0},
		{"eight of ten", 8, 10, 80.0},
		{"full marks", 10, 10, 100.0},
		{"bonus points clamp", 110, 100, 100.0},
		{"negative score clamp", -5, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Percentage(tc.score, tc.possible); got != tc.want {
				t.Errorf("Percentage(%v, %v) = %v, want %v", tc.score, tc.possible, got, tc.want)
			}
		})
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	session := &LTISession{
		Status:    SessionActive,
		ExpiresAt: now.Add(time.Hour),
	}

	if session.Expired(now) {
		t.Error("session expired before its expiry time")
	}
	if !session.Expired(now.Add(2 * time.Hour)) {
		t.Error("session still active past its expiry time")
	}

	// The stored status flag is only a cache; the timestamp decides.
	session.Status = SessionActive
	if !session.Expired(session.ExpiresAt.Add(time.Second)) {
		t.Error("active status flag overrode the expiry timestamp")
	}
}

func TestSubmissionComplete(t *testing.T) {
	for _, state := range []string{WorkflowUntaken, WorkflowPendingReview, WorkflowSettingsOnly, WorkflowPreview} {
		sub := CanvasQuizSubmission{WorkflowState: state}
		if sub.Complete() {
			t.Errorf("state %q reported complete", state)
		}
	}
	sub := CanvasQuizSubmission{WorkflowState: WorkflowComplete}
	if !sub.Complete() {
		t.Error("complete state not reported complete")
	}
}
