package service

import (
	"testing"

	"quiz-monitor-service/internal/models"
)

func TestComputeStats(t *testing.T) {
	t.Run("no results", func(t *testing.T) {
		stats := ComputeStats(nil)
		if stats.Completed != 0 || stats.AveragePercentage != 0 {
			t.Errorf("empty stats = %+v", stats)
		}
	})

	t.Run("weighted average", func(t *testing.T) {
		stats := ComputeStats([]models.QuizResult{
			{Score: 8, PossiblePoints: 10},
			{Score: 50, PossiblePoints: 100},
		})
		if stats.Completed != 2 {
			t.Errorf("Completed = %d, want 2", stats.Completed)
		}
		if stats.TotalPoints != 58 || stats.TotalPossible != 110 {
			t.Errorf("totals = %v/%v, want 58/110", stats.TotalPoints, stats.TotalPossible)
		}
		// 58/110, weighted by points rather than averaging 80% and 50%.
		want := models.Percentage(58, 110)
		if stats.AveragePercentage != want {
			t.Errorf("AveragePercentage = %v, want %v", stats.AveragePercentage, want)
		}
	})
}
